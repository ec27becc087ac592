package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrMessageNotFound   = errors.New("message not found")
)

// DuplicateUserError names the unique user fields that are already taken.
// It matches ErrUserAlreadyExists with errors.Is.
type DuplicateUserError struct {
	Fields []string
}

func (e *DuplicateUserError) Error() string {
	return "user already exists: " + strings.Join(e.Fields, ", ")
}

func (e *DuplicateUserError) Is(target error) bool {
	return target == ErrUserAlreadyExists
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pgErrorCode extracts the SQLSTATE and constraint name from either driver
func pgErrorCode(err error) (code, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// translateUserError maps constraint violations on users to repository errors
func translateUserError(err error) error {
	code, constraint := pgErrorCode(err)
	if code != codeUniqueViolation {
		return err
	}
	switch constraint {
	case "users_username_key":
		return &DuplicateUserError{Fields: []string{"username"}}
	case "users_email_key":
		return &DuplicateUserError{Fields: []string{"email"}}
	default:
		return ErrUserAlreadyExists
	}
}

// translateMessageError maps a dangling sender/receiver to ErrUserNotFound
func translateMessageError(err error) error {
	if code, _ := pgErrorCode(err); code == codeForeignKeyViolation {
		return ErrUserNotFound
	}
	return err
}
