package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntities(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []ExtractedEntity
	}{
		{
			name: "object form",
			raw:  `{"entities": [{"name": "Kerala", "type": "location"}, {"name": "ISRO", "type": "organization"}]}`,
			want: []ExtractedEntity{{"Kerala", "location"}, {"ISRO", "organization"}},
		},
		{
			name: "bare array",
			raw:  `[{"name": "Kochi", "type": "location"}]`,
			want: []ExtractedEntity{{"Kochi", "location"}},
		},
		{
			name: "markdown fence",
			raw:  "```json\n{\"entities\": [{\"name\": \"Gemini\", \"type\": \"Technology\"}]}\n```",
			want: []ExtractedEntity{{"Gemini", "technology"}},
		},
		{
			name: "missing opening quote on key",
			raw:  `{"entities": [{"name": "Onam", type": "event"}]}`,
			want: []ExtractedEntity{{"Onam", "event"}},
		},
		{
			name: "drops blanks and duplicates and snake cases types",
			raw:  `{"entities": [{"name": " ", "type": "person"}, {"name": "Act 5", "type": "Legal Act"}, {"name": "Act 5", "type": "legal act"}, {"name": "X", "type": ""}]}`,
			want: []ExtractedEntity{{"Act 5", "legal_act"}, {"X", "concept"}},
		},
		{
			name: "empty list",
			raw:  `{"entities": []}`,
			want: []ExtractedEntity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntities(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntities_Invalid(t *testing.T) {
	_, err := ParseEntities("I could not find any entities.")
	assert.Error(t, err)
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1, "type": "x"}`, repairJSON(`{"a": 1, type": "x"}`))
	assert.Equal(t, `{"ok": true}`, repairJSON(`{"ok": true}`))
}
