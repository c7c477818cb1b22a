package pgstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrUnsupportedFilter is returned when a native filter uses an operator
	// or operand the SQL translation cannot express.
	ErrUnsupportedFilter = errors.New("pgstore: unsupported filter")

	// ErrDuplicateKey is returned when a write violates a unique constraint.
	ErrDuplicateKey = errors.New("pgstore: duplicate key violation")

	// ErrInvalidData is returned when a document cannot be stored.
	ErrInvalidData = errors.New("pgstore: invalid data")
)

// TranslateError maps gorm errors onto the package sentinels, keeping the
// original error in the chain. Unknown errors are returned unchanged.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrInvalidData):
		return fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return err
}
