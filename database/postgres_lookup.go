package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLookup справочники в PostgreSQL (та же схема таблиц), только чтение.
// Используется конвейером вместо SQLite, когда справочники ведутся централизованно.
type PostgresLookup struct {
	pool *pgxpool.Pool
}

// NewPostgresLookup создает пул подключений и проверяет доступность БД
func NewPostgresLookup(ctx context.Context, dsn string, maxConns int32) (*PostgresLookup, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}

	poolConfig.MaxConns = maxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = 4
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresLookup{pool: pool}, nil
}

// Ping проверяет доступность PostgreSQL
func (p *PostgresLookup) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close закрывает пул
func (p *PostgresLookup) Close() {
	p.pool.Close()
}

// AllProductMappings возвращает все записи веса/размера
func (p *PostgresLookup) AllProductMappings(ctx context.Context) ([]ProductMapping, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, product_name, box_weight, box_size FROM product_mapping ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product mappings: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductMapping, error) {
		var m ProductMapping
		err := row.Scan(&m.ID, &m.ProductName, &m.BoxWeight, &m.BoxSize)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan product mappings: %w", err)
	}
	return result, nil
}

// AllBrandMappings возвращает все соответствия брендов
func (p *PostgresLookup) AllBrandMappings(ctx context.Context) ([]BrandMapping, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, brand_name, reference_name FROM brand_mapping ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand mappings: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (BrandMapping, error) {
		var m BrandMapping
		err := row.Scan(&m.ID, &m.BrandName, &m.ReferenceName)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan brand mappings: %w", err)
	}
	return result, nil
}

// AllKnownNames возвращает канонические названия в порядке добавления
func (p *PostgresLookup) AllKnownNames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT product_name FROM known_product_names ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known names: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan known names: %w", err)
	}
	return names, nil
}
