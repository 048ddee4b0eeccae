package store

import (
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ougirez/boptest/internal/pkg/constants"
)

const (
	tableDocuments = "documents"
	sequenceName   = "documents_numeric_id_seq"

	pgUniqueViolation = "23505"
)

var mapping = map[error]error{pgx.ErrNoRows: constants.ErrDBNotFound}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", constants.ErrAlreadyExists, pgErr.Detail)
	}
	return err
}

// builder возвращает squirrel SQL Builder обьект.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
