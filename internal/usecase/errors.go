package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 入力フォームの項目ごとのエラー（フォーム再表示用）
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d: validation failed (%d fields)", http.StatusUnprocessableEntity, len(e.Fields))
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

var (
	errDB        = NewHTTPError(http.StatusInternalServerError, "db error")
	errNotFound  = NewHTTPError(http.StatusNotFound, "not found")
	errCartEmpty = NewHTTPError(http.StatusConflict, "cart empty")
)
