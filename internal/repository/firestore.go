package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

// Firestore collection names.
const (
	CollectionRecords     = "extraction_records"
	CollectionFlyers      = "flyers"
	CollectionExtractions = "extractions"
	CollectionEvents      = "events"
)

// startAtMs is an extra numeric field on event documents used for range queries.
const fieldStartAtMs = "startAtMs"

// FirestoreStore keeps each entity as a document whose fields mirror its JSON form.
type FirestoreStore struct {
	client *firestore.Client
	now    func() time.Time
	logger *slog.Logger
}

// OpenFirestore connects with application default credentials (or the
// emulator when FIRESTORE_EMULATOR_HOST is set).
func OpenFirestore(ctx context.Context, projectID string, logger *slog.Logger) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		if logger != nil {
			logger.Error("failed to create firestore client", "project_id", projectID, "error", err)
		}
		return nil, storageError("firestore client", err)
	}
	return NewFirestoreStore(client, logger), nil
}

func NewFirestoreStore(client *firestore.Client, logger *slog.Logger) *FirestoreStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FirestoreStore{client: client, now: time.Now, logger: logger}
}

// Ping reads at most one flyer document.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	if _, err := s.client.Collection(CollectionFlyers).Limit(1).Documents(ctx).GetAll(); err != nil {
		return storageError("firestore ping", err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) AppendRecord(ctx context.Context, rec entity.ExtractionRecord) (entity.ExtractionRecord, error) {
	rec = prepareRecord(rec)
	data, err := toFields(rec)
	if err != nil {
		return entity.ExtractionRecord{}, storageError("encode record", err)
	}
	// Create fails if the id exists, keeping the collection append-only.
	if _, err := s.client.Collection(CollectionRecords).Doc(rec.ID).Create(ctx, data); err != nil {
		s.logger.Error("repository.firestore.create_error", "collection", CollectionRecords, "id", rec.ID, "error", err)
		return entity.ExtractionRecord{}, storageError("create record", err)
	}
	return rec, nil
}

func (s *FirestoreStore) ListRecords(ctx context.Context) ([]entity.ExtractionRecord, error) {
	snaps, err := s.client.Collection(CollectionRecords).
		OrderBy("createdAtIso", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, storageError("list records", err)
	}
	out := make([]entity.ExtractionRecord, 0, len(snaps))
	for _, snap := range snaps {
		var rec entity.ExtractionRecord
		if err := fromFields(snap.Data(), &rec); err != nil {
			s.logger.Warn("repository.firestore.decode_error", "collection", CollectionRecords, "id", snap.Ref.ID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *FirestoreStore) CreateFlyer(ctx context.Context, f entity.Flyer) (entity.Flyer, error) {
	ref := s.client.Collection(CollectionFlyers).NewDoc()
	if f.ID == "" {
		f.ID = ref.ID
	} else {
		ref = s.client.Collection(CollectionFlyers).Doc(f.ID)
	}
	f = prepareFlyer(f, s.now().UTC())
	data, err := toFields(f)
	if err != nil {
		return entity.Flyer{}, storageError("encode flyer", err)
	}
	if _, err := ref.Create(ctx, data); err != nil {
		s.logger.Error("repository.firestore.create_error", "collection", CollectionFlyers, "id", f.ID, "error", err)
		return entity.Flyer{}, storageError("create flyer", err)
	}
	return f, nil
}

func (s *FirestoreStore) GetFlyer(ctx context.Context, id string) (entity.Flyer, error) {
	snap, err := s.client.Collection(CollectionFlyers).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return entity.Flyer{}, common.NotFoundError("Flyer not found")
		}
		return entity.Flyer{}, storageError("get flyer", err)
	}
	var f entity.Flyer
	if err := fromFields(snap.Data(), &f); err != nil {
		return entity.Flyer{}, storageError("decode flyer", err)
	}
	return f, nil
}

func (s *FirestoreStore) UpdateFlyerStatus(ctx context.Context, id string, st constants.FlyerStatus) error {
	now := s.now().UTC()
	return s.updateFlyer(ctx, id, []firestore.Update{
		{Path: "status", Value: string(st)},
		{Path: "updatedAt", Value: now.Format(time.RFC3339Nano)},
	})
}

func (s *FirestoreStore) MarkFlyerExtracted(ctx context.Context, id, extractionID string) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	return s.updateFlyer(ctx, id, []firestore.Update{
		{Path: "status", Value: string(constants.FlyerStatusExtracted)},
		{Path: "lastExtractionId", Value: extractionID},
		{Path: "extractedAt", Value: now},
		{Path: "updatedAt", Value: now},
	})
}

func (s *FirestoreStore) updateFlyer(ctx context.Context, id string, updates []firestore.Update) error {
	if _, err := s.client.Collection(CollectionFlyers).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return common.NotFoundError("Flyer not found")
		}
		return storageError("update flyer", err)
	}
	return nil
}

func (s *FirestoreStore) AppendExtraction(ctx context.Context, x entity.Extraction) (entity.Extraction, error) {
	ref := s.client.Collection(CollectionExtractions).NewDoc()
	if x.ID == "" {
		x.ID = ref.ID
	} else {
		ref = s.client.Collection(CollectionExtractions).Doc(x.ID)
	}
	x = prepareExtraction(x, s.now().UTC())
	data, err := toFields(x)
	if err != nil {
		return entity.Extraction{}, storageError("encode extraction", err)
	}
	if _, err := ref.Create(ctx, data); err != nil {
		return entity.Extraction{}, storageError("create extraction", err)
	}
	return x, nil
}

func (s *FirestoreStore) CreateEvent(ctx context.Context, e entity.PublishedEvent) (entity.PublishedEvent, error) {
	ref := s.client.Collection(CollectionEvents).NewDoc()
	if e.ID == "" {
		e.ID = ref.ID
	} else {
		ref = s.client.Collection(CollectionEvents).Doc(e.ID)
	}
	e = prepareEvent(e, s.now().UTC())
	data, err := toFields(e)
	if err != nil {
		return entity.PublishedEvent{}, storageError("encode event", err)
	}
	data[fieldStartAtMs] = e.StartAt.UnixMilli()
	if _, err := ref.Create(ctx, data); err != nil {
		return entity.PublishedEvent{}, storageError("create event", err)
	}
	return e, nil
}

func (s *FirestoreStore) ListEvents(ctx context.Context, from, to time.Time) ([]entity.PublishedEvent, error) {
	snaps, err := s.client.Collection(CollectionEvents).
		Where(fieldStartAtMs, ">=", from.UnixMilli()).
		Where(fieldStartAtMs, "<=", to.UnixMilli()).
		OrderBy(fieldStartAtMs, firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, storageError("list events", err)
	}
	out := make([]entity.PublishedEvent, 0, len(snaps))
	for _, snap := range snaps {
		var e entity.PublishedEvent
		if err := fromFields(snap.Data(), &e); err != nil {
			s.logger.Warn("repository.firestore.decode_error", "collection", CollectionEvents, "id", snap.Ref.ID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// toFields converts an entity to the field map stored in Firestore, using the
// same names and nulls as its JSON form.
func toFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromFields(m map[string]any, out any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

var _ Store = (*FirestoreStore)(nil)
