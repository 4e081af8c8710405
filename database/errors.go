package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists запись с таким ключом уже существует
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidInput пустой ключ или некорректное значение
	ErrInvalidInput = errors.New("invalid input")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
