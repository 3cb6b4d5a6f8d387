package llm

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/scavenger/constants"
)

// ParseFailurePrefix starts the details/notes message of an unparseable answer.
const ParseFailurePrefix = "Failed to parse JSON: "

var (
	reFence   = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")
	reDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// EventExtraction pairs a normalized event with the untouched model text.
type EventExtraction struct {
	Event          ExtractedEvent `json:"event"`
	RawModelOutput string         `json:"rawModelOutput"`
	ParseFailed    bool           `json:"-"`
}

// LegacyExtraction pairs a normalized FlyerExtraction with the untouched model text.
type LegacyExtraction struct {
	Extraction  FlyerExtraction `json:"extraction"`
	RawText     string          `json:"rawText"`
	ParseFailed bool            `json:"-"`
}

// StripCodeFences returns the interior of the first fenced block (optionally
// tagged json), or the whole text, trimmed.
func StripCodeFences(text string) string {
	if m := reFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// NormalizeEvent never fails: malformed output degrades to a record whose only
// non-null field is Details carrying the parser error.
func NormalizeEvent(raw string) EventExtraction {
	v, err := parseJSON(StripCodeFences(raw))
	if err != nil {
		msg := ParseFailurePrefix + err.Error()
		return EventExtraction{
			Event:          ExtractedEvent{Details: &msg},
			RawModelOutput: raw,
			ParseFailed:    true,
		}
	}
	return EventExtraction{Event: coerceEvent(v), RawModelOutput: raw}
}

// NormalizeLegacy is NormalizeEvent for the FlyerExtraction shape; the parse
// failure message lands in Notes.
func NormalizeLegacy(raw string) LegacyExtraction {
	v, err := parseJSON(StripCodeFences(raw))
	if err != nil {
		msg := ParseFailurePrefix + err.Error()
		return LegacyExtraction{
			Extraction:  FlyerExtraction{Notes: &msg},
			RawText:     raw,
			ParseFailed: true,
		}
	}
	return LegacyExtraction{Extraction: coerceLegacy(v), RawText: raw}
}

// parseJSON decodes exactly one JSON value. Numbers stay json.Number so
// out-of-range literals do not fail the whole document.
func parseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}

func coerceEvent(v any) ExtractedEvent {
	obj, _ := v.(map[string]any)
	return ExtractedEvent{
		Title:        getString(obj, "title"),
		Host:         getString(obj, "host"),
		Campus:       getString(obj, "campus"),
		Date:         getString(obj, "date"),
		StartTime:    getString(obj, "startTime"),
		EndTime:      getString(obj, "endTime"),
		Place:        getString(obj, "place"),
		Food:         getString(obj, "food"),
		FoodCategory: getFoodCategory(obj, "foodCategory"),
		Details:      getString(obj, "details"),
		Other:        getObject(obj, "other"),
	}
}

func coerceLegacy(v any) FlyerExtraction {
	obj, _ := v.(map[string]any)
	return FlyerExtraction{
		Title:             getString(obj, "title"),
		Building:          getString(obj, "building"),
		Room:              getString(obj, "room"),
		StartISO:          getString(obj, "startIso"),
		EndISO:            getString(obj, "endIso"),
		FoodDescription:   getString(obj, "foodDescription"),
		EstimatedPortions: getNumber(obj, "estimatedPortions"),
		Notes:             getString(obj, "notes"),
	}
}

// getString accepts JSON strings only; numbers, booleans and containers are
// not stringified.
func getString(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func getFoodCategory(obj map[string]any, key string) *constants.FoodCategory {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	fc, ok := constants.ParseFoodCategory(s)
	if !ok {
		return nil
	}
	return &fc
}

// getObject passes a JSON object through untouched; arrays and scalars are dropped.
func getObject(obj map[string]any, key string) map[string]any {
	m, ok := obj[key].(map[string]any)
	if !ok {
		return nil
	}
	return plainNumbers(m).(map[string]any)
}

// getNumber accepts finite numbers and decimal strings that parse to one.
func getNumber(obj map[string]any, key string) *float64 {
	var s string
	switch t := obj[key].(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
		if !reDecimal.MatchString(s) {
			return nil
		}
	default:
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// plainNumbers converts json.Number leaves back to float64 (or leaves them as
// json.Number when they do not fit) so passthrough maps look like ordinary
// decoded JSON to callers.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = plainNumbers(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = plainNumbers(child)
		}
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t
	}
	return v
}
