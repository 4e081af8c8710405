package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxReportErrorLength длина сохраняемого текста ошибки
const MaxReportErrorLength = 200

// CreateReport сохраняет отчет в статусе PENDING
func (db *LookupDB) CreateReport(ctx context.Context, r *Report) error {
	if r.ID == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	r.Status = ReportStatusPending

	params, err := json.Marshal(r.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal report parameters: %w", err)
	}
	sources, err := json.Marshal(r.SourceFiles)
	if err != nil {
		return fmt.Errorf("failed to marshal source files: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO report_history (id, timestamp, status, parameters, source_files) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp, r.Status, string(params), string(sources))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("report %s: %w", r.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// CompleteReport переводит отчет в COMPLETE с именем файла и коэффициентом брутто
func (db *LookupDB) CompleteReport(ctx context.Context, id, filename string, grossRatio float64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE report_history SET status = ?, filename = ?, gross_ratio = ?, error_message = NULL WHERE id = ?`,
		ReportStatusComplete, filename, grossRatio, id)
	if err != nil {
		return fmt.Errorf("failed to complete report: %w", err)
	}
	return requireAffected(res)
}

// FailReport переводит отчет в ERROR, текст ошибки обрезается
func (db *LookupDB) FailReport(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = truncateRunes(cause.Error(), MaxReportErrorLength)
	}
	res, err := db.conn.ExecContext(ctx,
		`UPDATE report_history SET status = ?, error_message = ? WHERE id = ?`,
		ReportStatusError, msg, id)
	if err != nil {
		return fmt.Errorf("failed to mark report as failed: %w", err)
	}
	return requireAffected(res)
}

// GetReport получает отчет по ID
func (db *LookupDB) GetReport(ctx context.Context, id string) (*Report, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, timestamp, status, filename, parameters, source_files, gross_ratio, error_message
		 FROM report_history WHERE id = ?`, id)

	r := &Report{}
	var filename, params, sources, errMsg sql.NullString
	var ratio sql.NullFloat64
	err := row.Scan(&r.ID, &r.Timestamp, &r.Status, &filename, &params, &sources, &ratio, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	r.Filename = filename.String
	r.ErrorMessage = errMsg.String
	r.GrossRatio = nullFloat(ratio)
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &r.Parameters); err != nil {
			return nil, fmt.Errorf("failed to decode report parameters: %w", err)
		}
	}
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &r.SourceFiles); err != nil {
			return nil, fmt.Errorf("failed to decode report source files: %w", err)
		}
	}
	return r, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
