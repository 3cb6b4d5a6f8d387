package entity

import (
	"github.com/joseph-ayodele/scavenger/internal/llm"
)

// ExtractionSource describes the uploaded file an ExtractionRecord came from.
type ExtractionSource struct {
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	SizeBytes        int64  `json:"sizeBytes"`
}

// ExtractionRecord is one append-only result of the local extract flow.
type ExtractionRecord struct {
	ID             string             `json:"id"`
	CreatedAtISO   string             `json:"createdAtIso"` // RFC3339 UTC, ms precision
	Source         ExtractionSource   `json:"source"`
	ImageURL       *string            `json:"imageUrl,omitempty"`
	Event          llm.ExtractedEvent `json:"event"`
	RawModelOutput string             `json:"rawModelOutput"`
}
