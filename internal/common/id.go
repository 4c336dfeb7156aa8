package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique pipeline run ID with the "run_" prefix
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewCandidateID generates a fallback candidate ID when no natural key is
// available. Format: li_rand:<uuid>
func NewCandidateID() string {
	return "li_rand:" + uuid.New().String()
}
