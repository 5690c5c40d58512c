package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrConflict reports a write that lost against a concurrent one, either through
// the assignment version guard or a unique index.
var ErrConflict = errors.New("conflicting concurrent write")

// ErrDuplicate reports a unique index violation. It matches ErrConflict as well.
var ErrDuplicate = fmt.Errorf("%w: duplicate key", ErrConflict)

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
