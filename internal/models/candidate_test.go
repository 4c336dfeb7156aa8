package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProfileURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "https://LinkedIn.com/in/Alice", "https://linkedin.com/in/alice"},
		{"strips query", "https://linkedin.com/in/alice?trk=search&x=1", "https://linkedin.com/in/alice"},
		{"strips trailing slash", "https://linkedin.com/in/alice/", "https://linkedin.com/in/alice"},
		{"trims whitespace", "  https://linkedin.com/in/alice  ", "https://linkedin.com/in/alice"},
		{"all at once", " https://LinkedIn.com/in/Alice/?trk=x ", "https://linkedin.com/in/alice"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeProfileURL(tt.in))
		})
	}
}

func TestProfileURLHash(t *testing.T) {
	base := ProfileURLHash("https://linkedin.com/in/alice")
	assert.Len(t, base, 64)

	// Equivalent URLs hash identically
	assert.Equal(t, base, ProfileURLHash("https://LinkedIn.com/in/Alice/?trk=search"))

	// Missing URLs never produce a dedup key
	assert.Empty(t, ProfileURLHash(""))
	assert.Empty(t, ProfileURLHash("   "))
}
