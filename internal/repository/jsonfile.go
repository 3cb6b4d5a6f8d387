package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

// File names under the data directory.
const (
	RecordsFile     = "events.json"
	FlyersFile      = "flyers.json"
	ExtractionsFile = "extractions.json"
	PublishedFile   = "published.json"
)

// JSONFileStore keeps each collection as one JSON array in a file. Every write
// reads the whole array, modifies it and rewrites the file. The mutex only
// serializes writers inside this process; separate processes sharing the
// directory can still lose updates.
type JSONFileStore struct {
	dir    string
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

func NewJSONFileStore(dir string, logger *slog.Logger) (*JSONFileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.NewAppError(common.CodeStorage, "create data dir", err)
	}
	return &JSONFileStore{dir: dir, now: time.Now, logger: logger}, nil
}

func (s *JSONFileStore) Close() error { return nil }

func (s *JSONFileStore) Ping(context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return storageError("stat data dir", err)
	}
	if !fi.IsDir() {
		return common.NewAppError(common.CodeStorage, s.dir+" is not a directory", common.ErrStorage)
	}
	return nil
}

func (s *JSONFileStore) AppendRecord(ctx context.Context, rec entity.ExtractionRecord) (entity.ExtractionRecord, error) {
	rec = prepareRecord(rec)
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := readArray[entity.ExtractionRecord](s.path(RecordsFile), s.logger)
	recs = append(recs, rec)
	if err := s.writeArray(RecordsFile, recs); err != nil {
		return entity.ExtractionRecord{}, err
	}
	s.logger.Info("repository.record.appended", "id", rec.ID, "backend", common.BackendLocal)
	return rec, nil
}

func (s *JSONFileStore) ListRecords(ctx context.Context) ([]entity.ExtractionRecord, error) {
	recs := readArray[entity.ExtractionRecord](s.path(RecordsFile), s.logger)
	sortRecordsNewestFirst(recs)
	return recs, nil
}

func (s *JSONFileStore) CreateFlyer(ctx context.Context, f entity.Flyer) (entity.Flyer, error) {
	f = prepareFlyer(f, s.now().UTC())
	s.mu.Lock()
	defer s.mu.Unlock()

	flyers := readArray[entity.Flyer](s.path(FlyersFile), s.logger)
	flyers = append(flyers, f)
	if err := s.writeArray(FlyersFile, flyers); err != nil {
		return entity.Flyer{}, err
	}
	return f, nil
}

func (s *JSONFileStore) GetFlyer(ctx context.Context, id string) (entity.Flyer, error) {
	for _, f := range readArray[entity.Flyer](s.path(FlyersFile), s.logger) {
		if f.ID == id {
			return f, nil
		}
	}
	return entity.Flyer{}, common.NotFoundError("Flyer not found")
}

func (s *JSONFileStore) UpdateFlyerStatus(ctx context.Context, id string, status constants.FlyerStatus) error {
	return s.updateFlyer(id, func(f *entity.Flyer, now time.Time) {
		f.Status = status
	})
}

func (s *JSONFileStore) MarkFlyerExtracted(ctx context.Context, id, extractionID string) error {
	return s.updateFlyer(id, func(f *entity.Flyer, now time.Time) {
		f.Status = constants.FlyerStatusExtracted
		f.LastExtractionID = &extractionID
		f.ExtractedAt = &now
	})
}

func (s *JSONFileStore) updateFlyer(id string, apply func(f *entity.Flyer, now time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flyers := readArray[entity.Flyer](s.path(FlyersFile), s.logger)
	for i := range flyers {
		if flyers[i].ID != id {
			continue
		}
		now := s.now().UTC()
		apply(&flyers[i], now)
		flyers[i].UpdatedAt = now
		return s.writeArray(FlyersFile, flyers)
	}
	return common.NotFoundError("Flyer not found")
}

func (s *JSONFileStore) AppendExtraction(ctx context.Context, x entity.Extraction) (entity.Extraction, error) {
	x = prepareExtraction(x, s.now().UTC())
	s.mu.Lock()
	defer s.mu.Unlock()

	xs := readArray[entity.Extraction](s.path(ExtractionsFile), s.logger)
	xs = append(xs, x)
	if err := s.writeArray(ExtractionsFile, xs); err != nil {
		return entity.Extraction{}, err
	}
	return x, nil
}

func (s *JSONFileStore) CreateEvent(ctx context.Context, e entity.PublishedEvent) (entity.PublishedEvent, error) {
	e = prepareEvent(e, s.now().UTC())
	s.mu.Lock()
	defer s.mu.Unlock()

	events := readArray[entity.PublishedEvent](s.path(PublishedFile), s.logger)
	events = append(events, e)
	if err := s.writeArray(PublishedFile, events); err != nil {
		return entity.PublishedEvent{}, err
	}
	return e, nil
}

func (s *JSONFileStore) ListEvents(ctx context.Context, from, to time.Time) ([]entity.PublishedEvent, error) {
	return filterEvents(readArray[entity.PublishedEvent](s.path(PublishedFile), s.logger), from, to), nil
}

func (s *JSONFileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeArray rewrites the file with two-space indentation and a trailing newline.
func (s *JSONFileStore) writeArray(name string, items any) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return common.NewAppError(common.CodeStorage, "encode "+name, err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(s.path(name), b, 0o644); err != nil {
		s.logger.Error("repository.jsonfile.write_error", "file", name, "error", err)
		return common.NewAppError(common.CodeStorage, fmt.Sprintf("write %s", name), errors.Join(common.ErrStorage, err))
	}
	return nil
}

// readArray treats a missing, unreadable or non-array file as empty.
func readArray[T any](path string, logger *slog.Logger) []T {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("repository.jsonfile.read_error", "file", path, "error", err)
		}
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil || items == nil {
		if err != nil {
			logger.Warn("repository.jsonfile.corrupt", "file", path, "error", err)
		}
		return []T{}
	}
	return items
}
