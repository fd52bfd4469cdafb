package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleWrite is returned by compare-and-set updates when the stored
	// value no longer matches the expected one.
	ErrStaleWrite = errors.New("stale write: record changed concurrently")
)

// IsNotFoundError reports whether err means the requested row does not exist,
// whichever store produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}
