package content

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityTypeRequired indicates an item without a type.
	ErrEntityTypeRequired = errors.New("content: entity type required")
	// ErrEntityIDRequired indicates an item without an id.
	ErrEntityIDRequired = errors.New("content: entity id required")
	// ErrUnknownEntityType indicates a type that was never registered.
	ErrUnknownEntityType = errors.New("content: unknown entity type")
)

// NotFoundError reports a missing item or revision.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
