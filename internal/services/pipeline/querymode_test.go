package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/venari/internal/models"
)

func TestStripSourceTerms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips single term", "golang claude code engineer", "golang engineer"},
		{"case insensitive", "Golang MCP Engineer", "Golang Engineer"},
		{"plural before singular", "ai agents platform", "ai platform"},
		{"collapses separators", "backend|platform/infra", "backend platform infra"},
		{"normalises whitespace", "  golang   cursor   dev ", "golang dev"},
		{"multi-word term", "model context protocol tooling", "tooling"},
		{"reduces to empty", "agentic", ""},
		{"untouched text", "distributed systems engineer", "distributed systems engineer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripSourceTerms(tt.in))
		})
	}
}

func TestNormalizeBroadSearch_DropsEmptiedFilters(t *testing.T) {
	criteria := models.SearchCriteria{
		Keywords: "claude code golang",
		RoleKeywords: []models.SearchFilter{
			{Text: "agentic"},                  // reduces to empty, no ID: dropped
			{ID: "r-42", Text: "agentic"},      // reduces to empty but has ID: kept
			{Text: "platform engineer"},        // untouched
		},
		Skills: []models.SearchFilter{
			{Text: "langgraph"},
		},
		Companies: []models.SearchFilter{
			{Text: "Windsurf Labs"},
		},
		Location: "Berlin",
	}

	normalized := normalizeBroadSearch(criteria)

	assert.Equal(t, "golang", normalized.Keywords)
	assert.Equal(t, []models.SearchFilter{
		{ID: "r-42", Text: ""},
		{Text: "platform engineer"},
	}, normalized.RoleKeywords)
	assert.Nil(t, normalized.Skills)
	assert.Equal(t, []models.SearchFilter{{Text: "Labs"}}, normalized.Companies)
	assert.Equal(t, "Berlin", normalized.Location, "location untouched by broad mode")
}
