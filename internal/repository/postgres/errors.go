package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// scanMoney parses a numeric column selected as text.
func scanMoney(raw string, dst *domain.Money) error {
	m, err := domain.ParseMoney(raw)
	if err != nil {
		return err
	}
	*dst = m
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
