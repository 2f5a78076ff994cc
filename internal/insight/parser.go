package insight

import (
	"encoding/json"
	"strings"

	"marketlens/internal/model"
)

// ParseResult carries extracted items plus a warning flag for content
// the parser could not interpret. Parsing never fails: malformed
// provider output yields an empty item list and a warning.
type ParseResult struct {
	Items    []model.InsightItem
	Warnings []string
}

// Parse extracts insight items from a raw provider response. Structured
// JSON matching the documented schema is preferred; free text falls back
// to bullet extraction.
func Parse(raw model.RawInsightResponse, section model.SectionKey) ParseResult {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return ParseResult{Warnings: []string{"empty provider response"}}
	}

	if items, ok := parseStructured(text, section); ok {
		return ParseResult{Items: items}
	}

	items := parseFreeText(text)
	if len(items) == 0 {
		return ParseResult{Warnings: []string{"no parseable content in provider response"}}
	}
	return ParseResult{
		Items:    items,
		Warnings: []string{"provider returned free text; structured schema not matched"},
	}
}

// parseStructured pulls the first JSON object out of the text and maps
// its fields to items. Providers sometimes wrap JSON in prose or code
// fences, so the object is located by brace scanning.
func parseStructured(text string, section model.SectionKey) ([]model.InsightItem, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, false
	}

	// A full four-section response nests the section under its key.
	if nested, ok := payload[string(section)]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			payload = inner
		}
	}

	var items []model.InsightItem
	for _, field := range sectionFields[section] {
		rawField, ok := payload[field]
		if !ok {
			continue
		}
		for _, text := range decodeField(rawField) {
			items = append(items, model.InsightItem{Field: field, Text: text})
		}
	}

	// A JSON object with none of the expected fields is not a schema match.
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}

// decodeField accepts a string or a list of strings.
func decodeField(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{s}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	return nil
}

// parseFreeText extracts bullet and sentence lines from unstructured
// responses.
func parseFreeText(text string) []model.InsightItem {
	var items []model.InsightItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.TrimSpace(line)
		if len(line) < 15 || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, model.InsightItem{Field: "text", Text: line})
	}
	return items
}
