package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/scavenger/constants"
)

// BuildEventJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It describes what a well-behaved model answer looks like; normalization
// does not depend on it.
func BuildEventJSONSchema() map[string]any {
	enum := make([]any, 0, len(constants.AllFoodCategories())+1)
	for _, c := range constants.FoodCategoriesAsStrings() {
		enum = append(enum, c)
	}
	enum = append(enum, nil)

	props := map[string]any{
		"title":        nullableString(),
		"host":         nullableString(),
		"campus":       nullableString(),
		"date":         nullablePattern(`^\d{4}-\d{2}-\d{2}$`),
		"startTime":    nullablePattern(`^([01]\d|2[0-3]):[0-5]\d$`),
		"endTime":      nullablePattern(`^([01]\d|2[0-3]):[0-5]\d$`),
		"place":        nullableString(),
		"food":         nullableString(),
		"foodCategory": map[string]any{"enum": enum},
		"details":      nullableString(),
		"other":        map[string]any{"type": []string{"object", "null"}},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             EventKeys,
	}
}

// BuildLegacyJSONSchema is BuildEventJSONSchema for FlyerExtraction.
func BuildLegacyJSONSchema() map[string]any {
	props := map[string]any{
		"title":             nullableString(),
		"building":          nullableString(),
		"room":              nullableString(),
		"startIso":          nullableString(),
		"endIso":            nullableString(),
		"foodDescription":   nullableString(),
		"estimatedPortions": map[string]any{"type": []string{"number", "null"}},
		"notes":             nullableString(),
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             LegacyKeys,
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func nullablePattern(p string) map[string]any {
	return map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string", "pattern": p},
			map[string]any{"type": "null"},
		},
	}
}

var (
	eventSchema  = sync.OnceValues(func() (*jsonschema.Schema, error) { return compile("event.json", BuildEventJSONSchema()) })
	legacySchema = sync.OnceValues(func() (*jsonschema.Schema, error) { return compile("legacy.json", BuildLegacyJSONSchema()) })
)

func compile(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(name)
}

// SchemaCheck reports where a model answer deviates from the schema for s.
// It is advisory: nil means conforming or unparseable (parse failures are
// reported by normalization instead).
func SchemaCheck(s Schema, raw string) []string {
	get := eventSchema
	if s == SchemaLegacy {
		get = legacySchema
	}
	schema, err := get()
	if err != nil {
		return []string{err.Error()}
	}
	v, err := parseJSON(StripCodeFences(raw))
	if err != nil {
		return nil
	}
	err = schema.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	collectLeaves(ve, &out)
	sort.Strings(out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, loc+": "+ve.Message)
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
