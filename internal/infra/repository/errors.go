package repository

import (
	"errors"
	"strings"

	repo "shopcart/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgのunique_violation
const pgUniqueViolation = "23505"

// gormのエラーをrepository層のエラーにそろえる
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if isDuplicate(err) {
		return repo.ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// sqlite（テスト用）
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
