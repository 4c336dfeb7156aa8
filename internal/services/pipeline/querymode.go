package pipeline

import (
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// aiSourceTerms are stripped from search fragments in broad source mode, in
// this order (longer plural forms ahead of their singulars).
var aiSourceTerms = []string{
	"claude code", "codex", "mcp", "model context protocol", "agentic",
	"ai-native", "autogen", "langgraph", "cursor", "windsurf", "agents", "agent",
}

// normalizeBroadSearch widens a search by removing the AI-native source terms
// from keyword, role, skill, and company fragments. Filters whose text
// reduces to empty are dropped unless they carry a provider-side ID.
func normalizeBroadSearch(criteria models.SearchCriteria) models.SearchCriteria {
	normalized := criteria
	normalized.Keywords = stripSourceTerms(criteria.Keywords)
	normalized.RoleKeywords = normalizeFilters(criteria.RoleKeywords)
	normalized.Skills = normalizeFilters(criteria.Skills)
	normalized.Companies = normalizeFilters(criteria.Companies)
	return normalized
}

func normalizeFilters(filters []models.SearchFilter) []models.SearchFilter {
	var kept []models.SearchFilter
	for _, filter := range filters {
		stripped := stripSourceTerms(filter.Text)
		if stripped == "" && filter.ID == "" {
			continue
		}
		kept = append(kept, models.SearchFilter{ID: filter.ID, Text: stripped})
	}
	return kept
}

// stripSourceTerms removes each AI-native term case-insensitively, collapses
// '|' and '/' separators to spaces, and normalises whitespace
func stripSourceTerms(text string) string {
	result := text
	for _, term := range aiSourceTerms {
		result = removeCaseInsensitive(result, term)
	}
	result = strings.ReplaceAll(result, "|", " ")
	result = strings.ReplaceAll(result, "/", " ")
	return strings.Join(strings.Fields(result), " ")
}

func removeCaseInsensitive(text, term string) string {
	lowered := strings.ToLower(text)
	needle := strings.ToLower(term)
	var builder strings.Builder
	for {
		index := strings.Index(lowered, needle)
		if index < 0 {
			builder.WriteString(text)
			return builder.String()
		}
		builder.WriteString(text[:index])
		text = text[index+len(needle):]
		lowered = lowered[index+len(needle):]
	}
}
