// Package llm provides LLM integration for the extraction pipeline: strict
// JSON-only prompt templates, provider clients (Anthropic, OpenAI, Ollama),
// and response parsers that tolerate the extra prose models emit around JSON.
package llm

import (
	"fmt"
	"strings"

	"github.com/scrypster/castgraph/pkg/types"
)

// EntityExtractionPrompt generates a strict JSON-only prompt for extracting
// entities from a transcript unit. The ultra-strict structure (explicit
// validation rules, example output, "start with { end with }") measurably
// reduces malformed responses from small models.
func EntityExtractionPrompt(unitText string) string {
	return fmt.Sprintf(`TASK: Extract entities from a podcast transcript segment.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks. NO ARRAY - MUST BE OBJECT.

ENTITY TYPES (ONLY these 9):
- person: Individual human (host, guest, anyone mentioned)
- organization: Company, institution, or group
- concept: Idea, principle, or theory discussed
- product: Named product or service
- location: Place, city, country, or region
- event: Conference, incident, or occurrence
- technology: Technology, protocol, or technical system
- book: Book or long-form publication
- podcast: Podcast or show

REQUIRED JSON STRUCTURE:
Your response MUST start with { and end with }
Your response MUST have an "entities" key with an array value
Each entity MUST have: name, type, description, confidence

Example structure (EXACT FORMAT REQUIRED):
{
  "entities": [
    {"name":"Alice Chen","type":"person","description":"Guest, robotics researcher","confidence":0.95},
    {"name":"Acme Robotics","type":"organization","description":"Robotics startup","confidence":0.9}
  ]
}

VALIDATION (STRICT):
1. Start with { - End with }
2. "entities" key must be present
3. "entities" value must be an array [...]
4. Each entity is an object with: name, type, description, confidence
5. No extra fields - only these 4 per entity
6. No null values
7. No trailing commas
8. Valid JSON syntax
9. Types EXACTLY: person|organization|concept|product|location|event|technology|book|podcast
10. Confidence 0.0-1.0

TRANSCRIPT SEGMENT:
%s

RESPOND WITH ONLY THIS JSON STRUCTURE (nothing else):
{"entities":[{"name":"X","type":"person","description":"...","confidence":0.85}]}`, unitText)
}

// RelationshipExtractionPrompt generates a strict JSON-only prompt for
// finding relationships between previously extracted entities. Entity names
// must be echoed exactly so they can be matched back to IDs.
func RelationshipExtractionPrompt(unitText string, entities []types.Entity) string {
	var entityList strings.Builder
	for i, entity := range entities {
		fmt.Fprintf(&entityList, "- %s (%s)\n", entity.Name, entity.Type)
		if i >= 50 { // keep prompt under token limits
			fmt.Fprintf(&entityList, "... and %d more entities\n", len(entities)-50)
			break
		}
	}

	return fmt.Sprintf(`Find relationships between these entities based on the transcript segment. Return ONLY valid JSON, no markdown, no code blocks, no explanation.

RELATIONSHIP TYPES (use ONLY these):
- works_at, founded, founded_by, invested_in
- created, created_by, authored
- advocates, critiques, discusses
- collaborates_with, competes_with, influenced_by
- part_of, located_in
- host_of, guest_on
- relates_to

RULES:
1. Match entity names EXACTLY as listed
2. Confidence: 0.7-0.99
3. If no relationships found, return {"relationships":[]}
4. Use ONLY types from the list above
5. Include a short evidence quote from the transcript for each relationship

Entities (use exact names):
%s

Transcript segment:
%s

Return ONLY JSON object, nothing else, no markdown:
{"relationships":[{"from":"X","to":"Y","type":"works_at","confidence":0.85,"evidence":"..."}]}`, entityList.String(), unitText)
}

// InsightExtractionPrompt generates a strict JSON-only prompt for extracting
// notable claims from a transcript segment: predictions, opinions, facts,
// recommendations, lessons learned, and counterintuitive takes.
func InsightExtractionPrompt(unitText string, speakers []string) string {
	speakerList := strings.Join(speakers, ", ")
	if speakerList == "" {
		speakerList = "unknown"
	}

	return fmt.Sprintf(`TASK: Extract notable insights from a podcast transcript segment.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

INSIGHT TYPES (ONLY these 6):
- prediction: A claim about the future
- opinion: A subjective position or judgment
- fact: A verifiable factual claim
- recommendation: Advice to listeners (do X, read Y)
- lesson_learned: A lesson drawn from experience
- counterintuitive: A claim that contradicts common assumptions

RULES:
1. Extract only substantive insights, not small talk
2. content is a one-to-two sentence paraphrase of the insight
3. speaker must be one of: %s (or "" if unattributable)
4. entity_names lists entities the insight is about, if any
5. Confidence 0.0-1.0
6. If no insights found, return {"insights":[]}

TRANSCRIPT SEGMENT:
%s

Return ONLY JSON object, nothing else, no markdown:
{"insights":[{"type":"prediction","content":"...","speaker":"X","confidence":0.8,"entity_names":["Y"]}]}`, speakerList, unitText)
}

// QuoteExtractionPrompt generates a strict JSON-only prompt for extracting
// memorable verbatim quotes. Quotes must be copied exactly; paraphrased text
// is rejected downstream by the parser's verbatim check.
func QuoteExtractionPrompt(unitText string, speakers []string) string {
	speakerList := strings.Join(speakers, ", ")
	if speakerList == "" {
		speakerList = "unknown"
	}

	return fmt.Sprintf(`TASK: Extract memorable quotes from a podcast transcript segment.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

RULES:
1. text must be copied VERBATIM from the transcript, word for word
2. Only quotes that are striking, quotable, or capture a key idea
3. 0-3 quotes per segment; an empty list is a fine answer
4. speaker must be one of: %s (or "" if unattributable)
5. If no quotes found, return {"quotes":[]}

TRANSCRIPT SEGMENT:
%s

Return ONLY JSON object, nothing else, no markdown:
{"quotes":[{"text":"...","speaker":"X"}]}`, speakerList, unitText)
}
