package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a new random identifier for stored records.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateShareToken returns an opaque 32 character token for a shared report.
func GenerateShareToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
