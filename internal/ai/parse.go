package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/mergeguard/mergeguard/internal/types"
)

// findingSchema constrains what we accept from the model. Anything
// that fails validation is dropped rather than poisoning the merge.
const findingSchema = `{
  "type": "object",
  "required": ["kind", "severity"],
  "properties": {
    "kind": {"type": "string", "minLength": 1},
    "severity": {"type": "string", "enum": ["critical", "high", "medium", "low", "info"]},
    "line": {"type": "integer", "minimum": 0},
    "message": {"type": "string"},
    "confidence": {"type": "string", "enum": ["low", "medium", "high", "very-high"]},
    "metadata": {"type": "object", "additionalProperties": {"type": "string"}}
  }
}`

var compiledSchema = mustCompile(findingSchema)

func mustCompile(src string) *jsonschema.Schema {
	s, err := jsonschema.NewCompiler().Compile([]byte(src))
	if err != nil {
		panic(fmt.Sprintf("ai: bad finding schema: %v", err))
	}
	return s
}

// ParseFindings extracts a finding array from a model response. The
// payload may be a bare JSON array, an object with a "findings" field,
// or prose wrapping a fenced ```json block. Items failing schema
// validation are dropped.
func ParseFindings(raw []byte) ([]types.Finding, error) {
	text := extractJSON(string(raw))
	if text == "" {
		return nil, fmt.Errorf("no JSON payload in model response")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		// Tolerate an object envelope with a findings array.
		var envelope struct {
			Findings []json.RawMessage `json:"findings"`
		}
		if err2 := json.Unmarshal([]byte(text), &envelope); err2 != nil || envelope.Findings == nil {
			return nil, fmt.Errorf("parse model response: %w", err)
		}
		items = envelope.Findings
	}

	out := make([]types.Finding, 0, len(items))
	for _, item := range items {
		if res := compiledSchema.ValidateJSON(item); !res.IsValid() {
			continue
		}
		var f types.Finding
		if err := json.Unmarshal(item, &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// extractJSON pulls the first JSON array or object out of text that
// may be wrapped in markdown fences or prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	var end int
	if text[start] == '[' {
		end = strings.LastIndex(text, "]")
	} else {
		end = strings.LastIndex(text, "}")
	}
	if end <= start {
		return ""
	}
	return text[start : end+1]
}
