package api

import "github.com/google/uuid"

// NewID generates a random identifier for a newly created resource.
func NewID() string {
	return uuid.NewString()
}

// ValidateID reports whether id is a well-formed resource identifier.
// Seeded data may use any non-empty string, so only emptiness and length are checked.
func ValidateID(id string) bool {
	return id != "" && len(id) <= 128
}
