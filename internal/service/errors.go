package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy surfaced to the API layer. Every service failure wraps one
// of these so handlers can map it to a status code with errors.Is.
var (
	// ErrValidation marks semantically invalid input: duplicate ids,
	// non-positive amounts, empty ingredient lists, self-follows, removing
	// an edge that does not exist.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks creation of something that already exists, such as
	// favoriting the same recipe twice.
	ErrConflict = errors.New("already exists")

	// ErrNotFound marks a referenced entity that is absent.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a policy denial, such as editing someone else's recipe.
	ErrForbidden = errors.New("forbidden")
)

// isDuplicateKey reports whether err came from a storage-level uniqueness
// constraint. The string checks cover drivers that predate gorm's error
// translation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
