package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/castgraph/pkg/types"
)

// EntityResponse represents a single entity extracted from an LLM response.
type EntityResponse struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// EntityExtractionResponse represents the complete entity extraction response.
type EntityExtractionResponse struct {
	Entities []EntityResponse `json:"entities"`
}

// RelationshipResponse represents a single relationship extracted from an LLM response.
type RelationshipResponse struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// RelationshipExtractionResponse represents the complete relationship extraction response.
type RelationshipExtractionResponse struct {
	Relationships []RelationshipResponse `json:"relationships"`
}

// InsightResponse represents a single insight extracted from an LLM response.
type InsightResponse struct {
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	Speaker     string   `json:"speaker,omitempty"`
	Confidence  float64  `json:"confidence"`
	EntityNames []string `json:"entity_names,omitempty"`
}

// InsightExtractionResponse represents the complete insight extraction response.
type InsightExtractionResponse struct {
	Insights []InsightResponse `json:"insights"`
}

// QuoteResponse represents a single quote extracted from an LLM response.
type QuoteResponse struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

// QuoteExtractionResponse represents the complete quote extraction response.
type QuoteExtractionResponse struct {
	Quotes []QuoteResponse `json:"quotes"`
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text. This handles cases where LLMs add explanations before
// or after the JSON despite instructions.
func extractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let the parser fail
	}

	// Find the matching closing brace, respecting strings and escapes
	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// ParseEntityResponse parses entity extraction JSON and filters out invalid
// entries. Unknown types, blank names, and out-of-range confidence scores are
// skipped rather than failing the batch; an error is returned only when the
// JSON itself is malformed.
func ParseEntityResponse(jsonStr string) ([]EntityResponse, error) {
	cleanJSON := extractJSON(jsonStr)

	var response EntityExtractionResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse entity JSON: %w", err)
	}

	var valid []EntityResponse
	for _, entity := range response.Entities {
		if strings.TrimSpace(entity.Name) == "" {
			log.Printf("response_parser: skipping entity with empty name")
			continue
		}
		if !types.IsValidEntityType(entity.Type) {
			log.Printf("response_parser: skipping entity %q with unknown type %q", entity.Name, entity.Type)
			continue
		}
		if entity.Confidence < 0.0 || entity.Confidence > 1.0 {
			log.Printf("response_parser: skipping entity %q with invalid confidence %f", entity.Name, entity.Confidence)
			continue
		}
		valid = append(valid, entity)
	}
	return valid, nil
}

// ParseRelationshipResponse parses relationship extraction JSON and filters
// out invalid entries. Unknown types, blank endpoints, and out-of-range
// confidence scores are skipped; an error is returned only when the JSON
// itself is malformed.
func ParseRelationshipResponse(jsonStr string) ([]RelationshipResponse, error) {
	cleanJSON := extractJSON(jsonStr)

	var response RelationshipExtractionResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse relationship JSON: %w", err)
	}

	var valid []RelationshipResponse
	for _, rel := range response.Relationships {
		if strings.TrimSpace(rel.From) == "" || strings.TrimSpace(rel.To) == "" {
			log.Printf("response_parser: skipping relationship with empty endpoint")
			continue
		}
		if !types.IsValidRelationshipType(rel.Type) {
			log.Printf("response_parser: skipping relationship %q->%q with unknown type %q", rel.From, rel.To, rel.Type)
			continue
		}
		if rel.Confidence < 0.0 || rel.Confidence > 1.0 {
			log.Printf("response_parser: skipping relationship %q->%q with invalid confidence %f", rel.From, rel.To, rel.Confidence)
			continue
		}
		valid = append(valid, rel)
	}
	return valid, nil
}

// ParseInsightResponse parses insight extraction JSON and filters out invalid
// entries. Unknown insight types, empty content, and out-of-range confidence
// scores are skipped; an error is returned only when the JSON itself is
// malformed.
func ParseInsightResponse(jsonStr string) ([]InsightResponse, error) {
	cleanJSON := extractJSON(jsonStr)

	var response InsightExtractionResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse insight JSON: %w", err)
	}

	var valid []InsightResponse
	for _, insight := range response.Insights {
		if strings.TrimSpace(insight.Content) == "" {
			log.Printf("response_parser: skipping insight with empty content")
			continue
		}
		if !types.IsValidInsightType(insight.Type) {
			log.Printf("response_parser: skipping insight with unknown type %q", insight.Type)
			continue
		}
		if insight.Confidence < 0.0 || insight.Confidence > 1.0 {
			log.Printf("response_parser: skipping insight with invalid confidence %f", insight.Confidence)
			continue
		}
		valid = append(valid, insight)
	}
	return valid, nil
}

// ParseQuoteResponse parses quote extraction JSON, keeping only quotes whose
// text actually appears verbatim in the source unit. Models paraphrase even
// when told not to; the containment check catches that.
func ParseQuoteResponse(jsonStr, unitText string) ([]QuoteResponse, error) {
	cleanJSON := extractJSON(jsonStr)

	var response QuoteExtractionResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse quote JSON: %w", err)
	}

	foldedUnit := strings.ToLower(unitText)

	var valid []QuoteResponse
	for _, quote := range response.Quotes {
		text := strings.TrimSpace(quote.Text)
		if text == "" {
			continue
		}
		if !strings.Contains(foldedUnit, strings.ToLower(text)) {
			log.Printf("response_parser: skipping non-verbatim quote %q", truncate(text, 80))
			continue
		}
		quote.Text = text
		valid = append(valid, quote)
	}
	return valid, nil
}
