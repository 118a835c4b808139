// Package uuid generates identifiers for persisted records.
package uuid

import (
	"strings"

	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7 string, suitable as a primary key.
// It falls back to a random v4 when the v7 generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// Short returns "{prefix}-" followed by the first 8 hex characters of a
// random UUID, e.g. "asset-a1b2c3d4".
func Short(prefix string) string {
	hex := strings.ReplaceAll(googleuuid.New().String(), "-", "")
	return prefix + "-" + hex[:8]
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
