package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
)

// StatusUpdate is one flyer status transition. ExtractionID is set only for
// the extracted transition.
type StatusUpdate struct {
	FlyerID      string
	Status       constants.FlyerStatus
	ExtractionID string
	SubmittedAt  time.Time
	TraceID      string
}

// Notifier accepts status updates without ever failing the caller.
type Notifier interface {
	Notify(ctx context.Context, u StatusUpdate)
	Shutdown(ctx context.Context)
}

// StatusWriter is the storage side of a status update.
type StatusWriter interface {
	UpdateFlyerStatus(ctx context.Context, id string, status constants.FlyerStatus) error
	MarkFlyerExtracted(ctx context.Context, id, extractionID string) error
}
