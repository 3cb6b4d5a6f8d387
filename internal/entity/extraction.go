package entity

import (
	"time"

	"github.com/joseph-ayodele/scavenger/internal/llm"
)

// Extraction is the FlyerExtraction document written for a stored flyer.
type Extraction struct {
	ID             string              `json:"id"`
	FlyerID        string              `json:"flyerId"`
	Model          string              `json:"model"`
	CampusTimezone string              `json:"campusTimezone"`
	Extraction     llm.FlyerExtraction `json:"extraction"`
	RawText        string              `json:"rawText"`
	CreatedAt      time.Time           `json:"createdAt"`
}
