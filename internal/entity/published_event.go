package entity

import (
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
)

type EventLocation struct {
	Building *string `json:"building"`
	Room     *string `json:"room"`
}

type EventFood struct {
	Description       *string  `json:"description"`
	EstimatedPortions *float64 `json:"estimatedPortions"`
}

type EventSource struct {
	FlyerID      *string `json:"flyerId"`
	ExtractionID *string `json:"extractionId"`
	Method       string  `json:"method"` // manual | ai+confirm
}

// PublishedEvent is a confirmed event in the public feed.
type PublishedEvent struct {
	ID        string                         `json:"id"`
	Title     string                         `json:"title"`
	Location  EventLocation                  `json:"location"`
	StartAt   time.Time                      `json:"startAt"`
	EndAt     *time.Time                     `json:"endAt"`
	Timezone  string                         `json:"timezone"`
	Food      EventFood                      `json:"food"`
	Source    EventSource                    `json:"source"`
	Status    constants.PublishedEventStatus `json:"status"`
	CreatedAt time.Time                      `json:"createdAt"`
	UpdatedAt time.Time                      `json:"updatedAt"`
}
