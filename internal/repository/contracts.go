package repository

import (
	"context"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

// ExtractionStore holds the append-only local extraction records.
type ExtractionStore interface {
	AppendRecord(ctx context.Context, rec entity.ExtractionRecord) (entity.ExtractionRecord, error)
	// ListRecords returns every record, newest first by createdAtIso.
	ListRecords(ctx context.Context) ([]entity.ExtractionRecord, error)
}

// FlyerStore holds uploaded flyers and the extractions run against them.
type FlyerStore interface {
	// CreateFlyer assigns an ID and timestamps when absent.
	CreateFlyer(ctx context.Context, f entity.Flyer) (entity.Flyer, error)
	GetFlyer(ctx context.Context, id string) (entity.Flyer, error)
	UpdateFlyerStatus(ctx context.Context, id string, status constants.FlyerStatus) error
	MarkFlyerExtracted(ctx context.Context, id, extractionID string) error
	AppendExtraction(ctx context.Context, x entity.Extraction) (entity.Extraction, error)
}

// EventStore holds published events.
type EventStore interface {
	CreateEvent(ctx context.Context, e entity.PublishedEvent) (entity.PublishedEvent, error)
	// ListEvents returns events starting within [from, to], ascending by start.
	ListEvents(ctx context.Context, from, to time.Time) ([]entity.PublishedEvent, error)
}

// Store is the persistence backend chosen once at startup.
type Store interface {
	ExtractionStore
	FlyerStore
	EventStore
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
