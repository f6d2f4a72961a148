package catalog

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordFields lists schema properties in the order they are reported.
var recordFields = []string{"name", "address", "mood", "notes", "map_link"}

var recordSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []string{"name", "address"},
	"properties": map[string]any{
		"name":     map[string]any{"type": "string", "pattern": `\S`},
		"address":  map[string]any{"type": "string", "pattern": `\S`},
		"mood":     map[string]any{"type": "string"},
		"notes":    map[string]any{"type": "string"},
		"map_link": map[string]any{"type": "string"},
	},
})

// validateRecord checks a decoded record against the venue schema and
// returns the offending field and a description when it does not conform.
func validateRecord(raw any) (string, string, error) {
	result, err := gojsonschema.Validate(recordSchema, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return "", "", fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return "", "", nil
	}

	failed := make(map[string]string)
	var details []string
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		if _, seen := failed[field]; !seen {
			failed[field] = desc.Description()
		}
		details = append(details, desc.String())
	}

	for _, field := range recordFields {
		if detail, ok := failed[field]; ok {
			return field, detail, nil
		}
	}
	return "(root)", strings.Join(details, "; "), nil
}
