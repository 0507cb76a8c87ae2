package application

import (
	"fmt"
	"strings"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// ValidatePositive checks that an integer setting is greater than zero
func ValidatePositive(fieldName string, value int) error {
	if value <= 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be positive, got: %d", formatFieldName(fieldName), value),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "collectionKey" -> "collection key")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"id":            "ID",
		"itemID":        "item ID",
		"collectionKey": "collection key",
		"title":         "title",
		"version":       "version",
		"baseURL":       "base URL",
		"databasePath":  "database path",
		"artifactDir":   "artifact directory",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateRemoteItem checks the fields every fetched item must carry.
// Items are validated once, right after fetching, so the rest of the
// sync can rely on them.
func ValidateRemoteItem(item domain.RemoteItem) error {
	invalid := func(reason string) error {
		return &ItemError{ItemID: item.ID, CollectionKey: item.CollectionKey, Reason: reason}
	}

	if strings.TrimSpace(item.ID) == "" {
		return invalid("ID is required")
	}
	if strings.TrimSpace(item.CollectionKey) == "" {
		return invalid("collection key is required")
	}
	if strings.TrimSpace(item.Title) == "" {
		return invalid("title is required")
	}
	if item.Version < 1 {
		return invalid(fmt.Sprintf("version must be at least 1, got: %d", item.Version))
	}
	return nil
}
