package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("unique constraint violation")
	// ErrReferenced is returned when a row is still referenced, or references a missing row.
	ErrReferenced = errors.New("foreign key violation")
	// ErrAssignedElsewhere is returned when the student already holds the form
	// for a different faculty member.
	ErrAssignedElsewhere = errors.New("assignment belongs to another faculty member")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		return errors.Join(ErrConflict, err)
	case pqForeignKeyViolation:
		return errors.Join(ErrReferenced, err)
	default:
		return err
	}
}
