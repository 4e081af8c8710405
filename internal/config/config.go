package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultConfigPath путь к YAML конфигурации по умолчанию
const DefaultConfigPath = "config.yaml"

// Config конфигурация сервиса сводных деклараций.
// Значения читаются из YAML файла (если он есть), переменные окружения имеют приоритет.
// Секреты (пароли, DSN) берутся только из окружения.
type Config struct {
	// Сервер
	Port string `yaml:"port" env:"SERVER_PORT" env-default:"9999"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Pipeline PipelineConfig `yaml:"pipeline"`

	// SeedFile YAML с начальными справочниками (бренды, известные названия, вес/размер)
	SeedFile string `yaml:"seed_file" env:"SEED_FILE" env-default:"configs/seed.yaml"`
}

// DatabaseConfig хранилище справочников
type DatabaseConfig struct {
	Path            string        `yaml:"path" env:"LOOKUP_DB_PATH" env-default:"app.db"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"3"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`

	// PostgresDSN если задан, справочники для конвейера читаются из PostgreSQL, а не из SQLite
	PostgresDSN string `yaml:"-" env:"LOOKUP_POSTGRES_DSN"`
}

// RedisConfig зеркало снимков справочников. Пустой Addr отключает зеркало.
type RedisConfig struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password    string        `yaml:"-" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	KeyPrefix   string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"exportdecl"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"24h"`
}

// StorageConfig файловое хранилище загрузок и отчетов
type StorageConfig struct {
	UploadDir         string   `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`
	ReportDir         string   `yaml:"report_dir" env:"REPORT_DIR" env-default:"reports"`
	AllowedExtensions []string `yaml:"allowed_extensions" env:"ALLOWED_EXTENSIONS" env-separator:"," env-default:"xlsx,xls,csv"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"33554432"`
}

// LogConfig логирование
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// HTTPConfig ограничение частоты запросов на тяжелые эндпоинты (загрузка, генерация)
type HTTPConfig struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" env-default:"2"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"5"`
}

// PipelineConfig параметры конвейера агрегации
type PipelineConfig struct {
	Workers int `yaml:"workers" env:"PIPELINE_WORKERS" env-default:"4"`

	// Коэффициент брутто: выбирается один раз на запуск из [GrossRatioMin, GrossRatioMax].
	// GrossRatioFixed > 0 фиксирует коэффициент.
	GrossRatioMin   float64 `yaml:"gross_ratio_min" env:"GROSS_RATIO_MIN" env-default:"1.08"`
	GrossRatioMax   float64 `yaml:"gross_ratio_max" env:"GROSS_RATIO_MAX" env-default:"1.12"`
	GrossRatioFixed float64 `yaml:"gross_ratio_fixed" env:"GROSS_RATIO_FIXED" env-default:"0"`

	// Clauses правила префикса таможенного описания по категориям
	Clauses []ClauseRule `yaml:"clauses"`

	// ColumnAliases имя поля -> допустимые заголовки колонок (первый - основной)
	ColumnAliases map[string][]string `yaml:"column_aliases"`
}

// ClauseRule фиксированная формулировка для набора категорий
type ClauseRule struct {
	Name       string   `yaml:"name"`
	Categories []string `yaml:"categories"`
	Clause     string   `yaml:"clause"`
}

// Load загружает конфигурацию: .env (если есть), затем YAML файл (если есть) с переопределением из окружения
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}
	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
