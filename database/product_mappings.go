package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const productMappingColumns = `id, product_name, box_weight, box_size, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductMapping(row rowScanner) (*ProductMapping, error) {
	m := &ProductMapping{}
	var weight sql.NullFloat64
	var size sql.NullString
	if err := row.Scan(&m.ID, &m.ProductName, &weight, &size, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.BoxWeight = nullFloat(weight)
	m.BoxSize = nullString(size)
	return m, nil
}

func validateProductMapping(name string, weight *float64) error {
	if name == "" {
		return fmt.Errorf("%w: product_name is required", ErrInvalidInput)
	}
	if weight != nil && (math.IsNaN(*weight) || math.IsInf(*weight, 0) || *weight < 0) {
		return fmt.Errorf("%w: box_weight must be a non-negative number", ErrInvalidInput)
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// AllProductMappings возвращает все записи веса/размера в порядке добавления
func (db *LookupDB) AllProductMappings(ctx context.Context) ([]ProductMapping, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productMappingColumns+` FROM product_mapping ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product mappings: %w", err)
	}
	defer rows.Close()

	var result []ProductMapping
	for rows.Next() {
		m, err := scanProductMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product mapping: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// ListProductMappings список с поиском по названию, сортировка по названию
func (db *LookupDB) ListProductMappings(ctx context.Context, f ListFilter) (*ListResult[ProductMapping], error) {
	f = f.normalize(50)

	where := "1=1"
	args := []any{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += ` AND product_name LIKE ? ESCAPE '\'`
		args = append(args, likePattern(s))
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM product_mapping WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count product mappings: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM product_mapping WHERE %s ORDER BY product_name LIMIT ? OFFSET ?`,
		productMappingColumns, where)
	rows, err := db.conn.QueryContext(ctx, query, append(args, f.PerPage, f.offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list product mappings: %w", err)
	}
	defer rows.Close()

	var items []ProductMapping
	for rows.Next() {
		m, err := scanProductMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product mapping: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product mappings: %w", err)
	}

	return newListResult(items, total, f), nil
}

// GetProductMapping получает запись по ID
func (db *LookupDB) GetProductMapping(ctx context.Context, id int64) (*ProductMapping, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+productMappingColumns+` FROM product_mapping WHERE id = ?`, id)
	m, err := scanProductMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product mapping: %w", err)
	}
	return m, nil
}

// GetProductMappingByName получает запись по точному названию
func (db *LookupDB) GetProductMappingByName(ctx context.Context, name string) (*ProductMapping, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+productMappingColumns+` FROM product_mapping WHERE product_name = ?`, strings.TrimSpace(name))
	m, err := scanProductMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product mapping: %w", err)
	}
	return m, nil
}

// CreateProductMapping добавляет запись. Дубликат названия -> ErrAlreadyExists.
func (db *LookupDB) CreateProductMapping(ctx context.Context, m ProductMapping) (*ProductMapping, error) {
	m.ProductName = strings.TrimSpace(m.ProductName)
	m.BoxSize = trimOptional(m.BoxSize)
	if err := validateProductMapping(m.ProductName, m.BoxWeight); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO product_mapping (product_name, box_weight, box_size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ProductName, m.BoxWeight, m.BoxSize, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product mapping %q: %w", m.ProductName, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create product mapping: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get product mapping id: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return &m, nil
}

// UpdateProductMapping частично обновляет запись
func (db *LookupDB) UpdateProductMapping(ctx context.Context, id int64, patch ProductMappingPatch) (*ProductMapping, error) {
	current, err := db.GetProductMapping(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.ProductName != nil {
		current.ProductName = strings.TrimSpace(*patch.ProductName)
	}
	if patch.ClearWeight {
		current.BoxWeight = nil
	} else if patch.BoxWeight != nil {
		w := *patch.BoxWeight
		current.BoxWeight = &w
	}
	if patch.ClearSize {
		current.BoxSize = nil
	} else if patch.BoxSize != nil {
		current.BoxSize = trimOptional(patch.BoxSize)
	}

	if err := validateProductMapping(current.ProductName, current.BoxWeight); err != nil {
		return nil, err
	}

	current.UpdatedAt = time.Now().UTC()
	_, err = db.conn.ExecContext(ctx,
		`UPDATE product_mapping SET product_name = ?, box_weight = ?, box_size = ?, updated_at = ? WHERE id = ?`,
		current.ProductName, current.BoxWeight, current.BoxSize, current.UpdatedAt, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product mapping %q: %w", current.ProductName, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update product mapping: %w", err)
	}
	return current, nil
}

// DeleteProductMapping удаляет запись
func (db *LookupDB) DeleteProductMapping(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM product_mapping WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product mapping: %w", err)
	}
	return requireAffected(res)
}

// CountProductMappings число записей веса/размера
func (db *LookupDB) CountProductMappings(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_mapping`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count product mappings: %w", err)
	}
	return n, nil
}

// CleanupEmptyProductMappings удаляет записи без веса и без размера
func (db *LookupDB) CleanupEmptyProductMappings(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM product_mapping
		 WHERE box_weight IS NULL AND (box_size IS NULL OR TRIM(box_size) = '')`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup product mappings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// ReplaceProductMappings полностью заменяет таблицу в одной транзакции.
// Возвращает число вставленных записей.
func (db *LookupDB) ReplaceProductMappings(ctx context.Context, mappings []ProductMapping) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_mapping`); err != nil {
		return 0, fmt.Errorf("failed to clear product mappings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO product_mapping (product_name, box_weight, box_size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0
	for _, m := range mappings {
		name := strings.TrimSpace(m.ProductName)
		if err := validateProductMapping(name, m.BoxWeight); err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, name, m.BoxWeight, trimOptional(m.BoxSize), now, now); err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("product mapping %q: %w", name, ErrAlreadyExists)
			}
			return 0, fmt.Errorf("failed to insert product mapping: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit product mappings: %w", err)
	}
	return inserted, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
