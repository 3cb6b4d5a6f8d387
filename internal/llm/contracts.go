package llm

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
)

// ExtractedEvent is the normalized shape we want from the model.
// Every key is always serialized; unknown values are null, never omitted.
type ExtractedEvent struct {
	Title        *string                 `json:"title"`
	Host         *string                 `json:"host"`      // organizing club/department
	Campus       *string                 `json:"campus"`    // e.g. "BYU"
	Date         *string                 `json:"date"`      // YYYY-MM-DD, campus-local
	StartTime    *string                 `json:"startTime"` // HH:MM, 24h
	EndTime      *string                 `json:"endTime"`   // HH:MM, 24h
	Place        *string                 `json:"place"`
	Food         *string                 `json:"food"`
	FoodCategory *constants.FoodCategory `json:"foodCategory"`
	Details      *string                 `json:"details"`
	Other        map[string]any          `json:"other"`
}

// FlyerExtraction is the older record produced on the flyer-by-id path.
type FlyerExtraction struct {
	Title             *string  `json:"title"`
	Building          *string  `json:"building"`
	Room              *string  `json:"room"`
	StartISO          *string  `json:"startIso"`
	EndISO            *string  `json:"endIso"`
	FoodDescription   *string  `json:"foodDescription"`
	EstimatedPortions *float64 `json:"estimatedPortions"`
	Notes             *string  `json:"notes"`
}

// Schema selects the prompt and normalizer applied to a model answer.
type Schema string

const (
	SchemaEvent  Schema = "event"
	SchemaLegacy Schema = "legacy"
)

func ParseSchema(s string) (Schema, bool) {
	switch Schema(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemaEvent:
		return SchemaEvent, true
	case SchemaLegacy:
		return SchemaLegacy, true
	}
	return "", false
}

type ExtractRequest struct {
	ImageBytes     []byte
	MimeType       string
	CampusTimezone string
	Schema         Schema
}

// WithDefaults fills the MIME type, timezone and schema when absent.
func (r ExtractRequest) WithDefaults() ExtractRequest {
	if strings.TrimSpace(r.MimeType) == "" {
		r.MimeType = constants.DefaultMimeType
	}
	if strings.TrimSpace(r.CampusTimezone) == "" {
		r.CampusTimezone = constants.DefaultCampusTimezone
	}
	if r.Schema == "" {
		r.Schema = SchemaEvent
	}
	return r
}

func (r ExtractRequest) Validate() error {
	if len(r.ImageBytes) == 0 {
		return common.InvalidInputError("image bytes are required")
	}
	return nil
}

// Prompt returns the instruction for the request's schema.
func (r ExtractRequest) Prompt() string {
	if r.Schema == SchemaLegacy {
		return BuildLegacyPrompt(r.CampusTimezone)
	}
	return BuildEventPrompt(r.CampusTimezone)
}

// Provider is a vision model that turns a flyer image into free text which is
// intended to be a JSON object. Implementations make exactly one outbound
// call and surface non-2xx answers as *common.ProviderError.
type Provider interface {
	ExtractText(ctx context.Context, req ExtractRequest) (string, error)
	Name() string
	Model() string
}
