package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var validLogLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	// Валидация БД справочников
	if c.Database.Path == "" {
		errors = append(errors, "database path is required")
	}
	if c.Database.MaxOpenConns < 1 {
		errors = append(errors, "max open connections must be at least 1")
	}
	if c.Database.MaxIdleConns < 1 {
		errors = append(errors, "max idle connections must be at least 1")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errors = append(errors, "max idle connections cannot be greater than max open connections")
	}
	if c.Database.ConnMaxLifetime < time.Second {
		errors = append(errors, "connection max lifetime must be at least 1 second")
	}

	if c.Redis.Addr != "" && c.Redis.SnapshotTTL < time.Minute {
		errors = append(errors, "redis snapshot TTL must be at least 1 minute")
	}

	// Хранилище
	if c.Storage.UploadDir == "" {
		errors = append(errors, "upload dir is required")
	}
	if c.Storage.ReportDir == "" {
		errors = append(errors, "report dir is required")
	}
	if len(c.Storage.AllowedExtensions) == 0 {
		errors = append(errors, "at least one allowed extension is required")
	}
	if c.Storage.MaxUploadBytes < 1 {
		errors = append(errors, "max upload bytes must be positive")
	}

	// Уровень логирования
	if c.Log.Level != "" {
		valid := false
		for _, level := range validLogLevels {
			if strings.EqualFold(c.Log.Level, level) {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.Log.Level, strings.Join(validLogLevels, ", ")))
		}
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "console" {
		errors = append(errors, fmt.Sprintf("invalid log format: %s (valid: json, console)", c.Log.Format))
	}

	if c.HTTP.RateLimitRPS <= 0 {
		errors = append(errors, "rate limit rps must be positive")
	}
	if c.HTTP.RateLimitBurst < 1 {
		errors = append(errors, "rate limit burst must be at least 1")
	}

	errors = append(errors, c.Pipeline.validate()...)

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (p *PipelineConfig) validate() []string {
	var errors []string

	if p.Workers < 1 {
		errors = append(errors, "pipeline workers must be at least 1")
	}

	if p.GrossRatioFixed < 0 {
		errors = append(errors, "fixed gross ratio cannot be negative")
	}
	if p.GrossRatioFixed == 0 {
		if p.GrossRatioMin <= 0 {
			errors = append(errors, "gross ratio min must be positive")
		}
		if p.GrossRatioMax < p.GrossRatioMin {
			errors = append(errors, fmt.Sprintf("gross ratio range is empty: [%g, %g]", p.GrossRatioMin, p.GrossRatioMax))
		}
	}

	for i, rule := range p.Clauses {
		if rule.Clause == "" {
			errors = append(errors, fmt.Sprintf("clause rule #%d (%s) has empty clause", i+1, rule.Name))
		}
		if len(rule.Categories) == 0 {
			errors = append(errors, fmt.Sprintf("clause rule #%d (%s) has no categories", i+1, rule.Name))
		}
	}

	for field, headers := range p.ColumnAliases {
		if len(headers) == 0 {
			errors = append(errors, fmt.Sprintf("column alias for %s has no headers", field))
		}
	}

	return errors
}

// GetDefaults возвращает конфигурацию со значениями по умолчанию (без чтения окружения)
func GetDefaults() *Config {
	return &Config{
		Port: "9999",
		Database: DatabaseConfig{
			Path:            "app.db",
			MaxOpenConns:    10,
			MaxIdleConns:    3,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			KeyPrefix:   "exportdecl",
			SnapshotTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			UploadDir:         "uploads",
			ReportDir:         "reports",
			AllowedExtensions: []string{"xlsx", "xls", "csv"},
			MaxUploadBytes:    32 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			RateLimitRPS:   2,
			RateLimitBurst: 5,
		},
		Pipeline: PipelineConfig{
			Workers:       4,
			GrossRatioMin: 1.08,
			GrossRatioMax: 1.12,
		},
		SeedFile: "configs/seed.yaml",
	}
}
