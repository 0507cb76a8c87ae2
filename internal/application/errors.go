package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrInvalidItem      = errors.New("invalid item")
	ErrNoCollections    = errors.New("no collections configured")
	ErrIndexUnavailable = errors.New("search index unavailable")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FetchError represents a failure listing one remote collection
type FetchError struct {
	CollectionKey string
	Err           error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.CollectionKey, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ItemError represents a remote item rejected at the fetch boundary
type ItemError struct {
	ItemID        string
	CollectionKey string
	Reason        string
}

func (e *ItemError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("invalid item in %s: %s", e.CollectionKey, e.Reason)
	}
	return fmt.Sprintf("invalid item %s in %s: %s", e.ItemID, e.CollectionKey, e.Reason)
}

func (e *ItemError) Is(target error) bool {
	return target == ErrInvalidItem
}
