package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"exportdecl/database"

	"github.com/stretchr/testify/assert"
)

func TestWrapError_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("brand 5: %w", database.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("brand RJ: %w", database.ErrAlreadyExists), http.StatusConflict},
		{"invalid", fmt.Errorf("%w: brand_name is required", database.ErrInvalidInput), http.StatusBadRequest},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := WrapError(tt.err, "не удалось сохранить бренд")
			assert.Equal(t, tt.code, appErr.StatusCode())
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestWrapError_KeepsAppError(t *testing.T) {
	inner := NewValidationError("неверный id", nil)
	wrapped := WrapError(fmt.Errorf("handler: %w", inner), "запрос отклонен")

	assert.Equal(t, http.StatusBadRequest, wrapped.Code)
	assert.Equal(t, "запрос отклонен: неверный id", wrapped.UserMessage())
	assert.Nil(t, WrapError(nil, "x"))
}

func TestNewInternalError_HidesDetails(t *testing.T) {
	err := NewInternalError("failed to write report", errors.New("permission denied"))
	assert.Equal(t, "Внутренняя ошибка сервера", err.UserMessage())
	assert.Contains(t, err.Error(), "permission denied")
}
