package entity

import (
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
)

// Flyer represents an uploaded flyer image and its advisory lifecycle status.
type Flyer struct {
	ID               string                `json:"id"`
	OriginalFilename string                `json:"originalFilename"`
	MimeType         string                `json:"mimeType"`
	StoragePath      string                `json:"storagePath"`
	DownloadURL      string                `json:"downloadURL"`
	Status           constants.FlyerStatus `json:"status"`
	Uploader         string                `json:"uploader"`
	LastExtractionID *string               `json:"lastExtractionId,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	ExtractedAt      *time.Time            `json:"extractedAt,omitempty"`
}
