package ai

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const entityPromptTemplate = `Extract the named entities from the given text and return them as JSON.

Output ONLY valid JSON of the form {"entities": [{"name": "...", "type": "..."}]}. Do not include any
preamble or explanation.

Rules:
- Type must be exactly one of: %s.
- Use the entity name as written in the text.
- Include only entities that are explicitly mentioned. Do not hallucinate.
- If no entities can be identified, return {"entities": []}.`

var entityPrompt = fmt.Sprintf(entityPromptTemplate, strings.Join(EntityTypes, ", "))

type entityResponse struct {
	Entities []ExtractedEntity `json:"entities"`
}

// ParseEntities decodes a model response into entities. Markdown fences
// are stripped and common key-quoting mistakes repaired first. Entries with
// an empty name are dropped, types are normalized to snake case and
// duplicates are removed.
func ParseEntities(raw string) ([]ExtractedEntity, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	text = repairJSON(text)

	var resp entityResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		// Some models return the bare array.
		var list []ExtractedEntity
		if errList := json.Unmarshal([]byte(text), &list); errList != nil {
			return nil, fmt.Errorf("parsing entity response: %w", err)
		}
		resp.Entities = list
	}

	out := make([]ExtractedEntity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		e.Type = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(e.Type)), " ", "_")
		if e.Type == "" {
			e.Type = "concept"
		}
		if slices.Contains(out, e) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
