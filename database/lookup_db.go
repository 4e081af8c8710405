package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DBConfig конфигурация пула подключений
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LookupDB хранилище справочников: вес/размер товаров, бренды, известные названия,
// а также история сформированных отчетов
type LookupDB struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewLookupDB открывает БД справочников с настройками пула по умолчанию
func NewLookupDB(dbPath string, logger *zap.Logger) (*LookupDB, error) {
	return NewLookupDBWithConfig(dbPath, DBConfig{}, logger)
}

// NewLookupDBWithConfig открывает БД справочников и применяет миграции
func NewLookupDBWithConfig(dbPath string, config DBConfig, logger *zap.Logger) (*LookupDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup database: %w", err)
	}

	// Для in-memory SQLite нужно ровно одно соединение,
	// иначе каждое новое соединение получит пустую БД без таблиц
	if isInMemory(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		conn.SetMaxOpenConns(10)
	}

	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		conn.SetMaxIdleConns(3)
	}

	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping lookup database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if !isInMemory(dbPath) {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			// Не критично: работаем в режиме журнала по умолчанию
			logger.Warn("Failed to enable WAL mode", zap.Error(err))
		}
	}

	if err := RunMigrations(conn, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate lookup database: %w", err)
	}

	return &LookupDB{conn: conn, logger: logger}, nil
}

// isInMemory определяет, что путь относится к in-memory SQLite
func isInMemory(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}
	return strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory")
}

// Close закрывает подключение
func (db *LookupDB) Close() error {
	return db.conn.Close()
}

// Ping проверяет доступность БД
func (db *LookupDB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// GetDB возвращает *sql.DB для прямого доступа
func (db *LookupDB) GetDB() *sql.DB {
	return db.conn
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// likePattern экранирует спецсимволы LIKE, поиск идет как "содержит"
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}
