package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const knownNameColumns = `id, product_name, created_at`

func scanKnownName(row rowScanner) (*KnownProductName, error) {
	n := &KnownProductName{}
	if err := row.Scan(&n.ID, &n.ProductName, &n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// AllKnownNames возвращает канонические названия в порядке добавления (id по возрастанию).
// Этот порядок определяет приоритет при сопоставлении: первое совпадение побеждает.
func (db *LookupDB) AllKnownNames(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT product_name FROM known_product_names ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan known name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListKnownNames список с поиском, сортировка по названию
func (db *LookupDB) ListKnownNames(ctx context.Context, f ListFilter) (*ListResult[KnownProductName], error) {
	f = f.normalize(100)

	where := "1=1"
	args := []any{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += ` AND product_name LIKE ? ESCAPE '\'`
		args = append(args, likePattern(s))
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM known_product_names WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count known names: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM known_product_names WHERE %s ORDER BY product_name LIMIT ? OFFSET ?`,
		knownNameColumns, where)
	rows, err := db.conn.QueryContext(ctx, query, append(args, f.PerPage, f.offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list known names: %w", err)
	}
	defer rows.Close()

	var items []KnownProductName
	for rows.Next() {
		n, err := scanKnownName(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan known name: %w", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate known names: %w", err)
	}

	return newListResult(items, total, f), nil
}

// GetKnownName получает запись по ID
func (db *LookupDB) GetKnownName(ctx context.Context, id int64) (*KnownProductName, error) {
	n, err := scanKnownName(db.conn.QueryRowContext(ctx,
		`SELECT `+knownNameColumns+` FROM known_product_names WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get known name: %w", err)
	}
	return n, nil
}

// CreateKnownName добавляет каноническое название в конец реестра
func (db *LookupDB) CreateKnownName(ctx context.Context, name string) (*KnownProductName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: product_name is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO known_product_names (product_name, created_at) VALUES (?, ?)`, name, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("known name %q: %w", name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create known name: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get known name id: %w", err)
	}
	return &KnownProductName{ID: id, ProductName: name, CreatedAt: now}, nil
}

// UpdateKnownName переименовывает запись, позиция в реестре сохраняется
func (db *LookupDB) UpdateKnownName(ctx context.Context, id int64, name string) (*KnownProductName, error) {
	current, err := db.GetKnownName(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: product_name is required", ErrInvalidInput)
	}
	if name == current.ProductName {
		return current, nil
	}

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE known_product_names SET product_name = ? WHERE id = ?`, name, id); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("known name %q: %w", name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update known name: %w", err)
	}
	current.ProductName = name
	return current, nil
}

// DeleteKnownName удаляет запись
func (db *LookupDB) DeleteKnownName(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM known_product_names WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete known name: %w", err)
	}
	return requireAffected(res)
}
