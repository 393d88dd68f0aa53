package generator

import (
	"fmt"
	"strings"

	"github.com/Rrens/trip-planner/internal/domain"
)

// BuildPrompt creates the prompt asking for activity and culture suggestions
func BuildPrompt(prefs domain.Preferences) string {
	days := 3
	if prefs.Days != nil {
		days = *prefs.Days
	}
	origin := "unspecified"
	if prefs.Origin != nil && *prefs.Origin != "" {
		origin = *prefs.Origin
	}

	return fmt.Sprintf(`You are a local concierge and cultural guide.

Plan a %d-day %s trip to %s for a %s traveller (travelling from %s).

Rules:
1. Respond with ONLY a JSON object, no explanations or markdown
2. "activities" is a list of at least %d strings mixing landmarks, food and culture
3. "food_culture" is an object with "cuisine_summary" and "cultural_note", one paragraph each
4. Keep every activity under 80 characters

JSON:`, days, prefs.Budget, prefs.Destination, prefs.TravelWith, origin, 4*days)
}

// ExtractJSON extracts a JSON document from an LLM response
func ExtractJSON(content string) string {
	// Try to extract from markdown code blocks
	if doc := extractFromCodeBlock(content, "```json", "```"); doc != "" {
		return doc
	}
	if doc := extractFromCodeBlock(content, "```", "```"); doc != "" {
		return doc
	}

	content = strings.TrimSpace(content)
	start := strings.IndexAny(content, "{[")
	if start == -1 {
		return content
	}
	end := strings.LastIndexAny(content, "}]")
	if end < start {
		return content[start:]
	}
	return content[start : end+1]
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	// Skip newline after marker
	if contentStart < len(content) && content[contentStart] == '\n' {
		contentStart++
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}
