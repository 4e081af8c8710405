package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const brandMappingColumns = `id, brand_name, reference_name, created_at, updated_at`

func scanBrandMapping(row rowScanner) (*BrandMapping, error) {
	m := &BrandMapping{}
	if err := row.Scan(&m.ID, &m.BrandName, &m.ReferenceName, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func validateBrandMapping(brand, reference string) error {
	if brand == "" {
		return fmt.Errorf("%w: brand_name is required", ErrInvalidInput)
	}
	if reference == "" {
		return fmt.Errorf("%w: reference_name is required", ErrInvalidInput)
	}
	return nil
}

// AllBrandMappings возвращает все соответствия брендов
func (db *LookupDB) AllBrandMappings(ctx context.Context) ([]BrandMapping, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+brandMappingColumns+` FROM brand_mapping ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand mappings: %w", err)
	}
	defer rows.Close()

	var result []BrandMapping
	for rows.Next() {
		m, err := scanBrandMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand mapping: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// ListBrandMappings список с поиском по коду бренда или стандартному названию
func (db *LookupDB) ListBrandMappings(ctx context.Context, f ListFilter) (*ListResult[BrandMapping], error) {
	f = f.normalize(50)

	where := "1=1"
	args := []any{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += ` AND (brand_name LIKE ? ESCAPE '\' OR reference_name LIKE ? ESCAPE '\')`
		p := likePattern(s)
		args = append(args, p, p)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM brand_mapping WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count brand mappings: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM brand_mapping WHERE %s ORDER BY brand_name LIMIT ? OFFSET ?`,
		brandMappingColumns, where)
	rows, err := db.conn.QueryContext(ctx, query, append(args, f.PerPage, f.offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand mappings: %w", err)
	}
	defer rows.Close()

	var items []BrandMapping
	for rows.Next() {
		m, err := scanBrandMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand mapping: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brand mappings: %w", err)
	}

	return newListResult(items, total, f), nil
}

// GetBrandMapping получает запись по ID
func (db *LookupDB) GetBrandMapping(ctx context.Context, id int64) (*BrandMapping, error) {
	m, err := scanBrandMapping(db.conn.QueryRowContext(ctx,
		`SELECT `+brandMappingColumns+` FROM brand_mapping WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand mapping: %w", err)
	}
	return m, nil
}

// GetBrandMappingByName получает запись по коду бренда
func (db *LookupDB) GetBrandMappingByName(ctx context.Context, brand string) (*BrandMapping, error) {
	m, err := scanBrandMapping(db.conn.QueryRowContext(ctx,
		`SELECT `+brandMappingColumns+` FROM brand_mapping WHERE brand_name = ?`, strings.TrimSpace(brand)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand mapping: %w", err)
	}
	return m, nil
}

// CreateBrandMapping добавляет соответствие бренда
func (db *LookupDB) CreateBrandMapping(ctx context.Context, m BrandMapping) (*BrandMapping, error) {
	m.BrandName = strings.TrimSpace(m.BrandName)
	m.ReferenceName = strings.TrimSpace(m.ReferenceName)
	if err := validateBrandMapping(m.BrandName, m.ReferenceName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO brand_mapping (brand_name, reference_name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		m.BrandName, m.ReferenceName, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("brand mapping %q: %w", m.BrandName, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create brand mapping: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get brand mapping id: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return &m, nil
}

// UpdateBrandMapping частично обновляет соответствие
func (db *LookupDB) UpdateBrandMapping(ctx context.Context, id int64, patch BrandMappingPatch) (*BrandMapping, error) {
	current, err := db.GetBrandMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.BrandName != nil {
		current.BrandName = strings.TrimSpace(*patch.BrandName)
	}
	if patch.ReferenceName != nil {
		current.ReferenceName = strings.TrimSpace(*patch.ReferenceName)
	}
	if err := validateBrandMapping(current.BrandName, current.ReferenceName); err != nil {
		return nil, err
	}

	current.UpdatedAt = time.Now().UTC()
	_, err = db.conn.ExecContext(ctx,
		`UPDATE brand_mapping SET brand_name = ?, reference_name = ?, updated_at = ? WHERE id = ?`,
		current.BrandName, current.ReferenceName, current.UpdatedAt, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("brand mapping %q: %w", current.BrandName, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update brand mapping: %w", err)
	}
	return current, nil
}

// UpsertBrandMapping добавляет бренд или обновляет стандартное название.
// Возвращает added/updated; если ничего не изменилось, оба false.
func (db *LookupDB) UpsertBrandMapping(ctx context.Context, brand, reference string) (added, updated bool, err error) {
	existing, err := db.GetBrandMappingByName(ctx, brand)
	if errors.Is(err, ErrNotFound) {
		if _, err := db.CreateBrandMapping(ctx, BrandMapping{BrandName: brand, ReferenceName: reference}); err != nil {
			return false, false, err
		}
		return true, false, nil
	}
	if err != nil {
		return false, false, err
	}

	reference = strings.TrimSpace(reference)
	if existing.ReferenceName == reference {
		return false, false, nil
	}
	if _, err := db.UpdateBrandMapping(ctx, existing.ID, BrandMappingPatch{ReferenceName: &reference}); err != nil {
		return false, false, err
	}
	return false, true, nil
}

// DeleteBrandMapping удаляет соответствие
func (db *LookupDB) DeleteBrandMapping(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM brand_mapping WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand mapping: %w", err)
	}
	return requireAffected(res)
}
