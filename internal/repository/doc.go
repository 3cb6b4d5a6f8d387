package repository

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

// Shared document handling: every backend stores entities as their JSON form
// so the file, SQL and Firestore shapes stay identical.

func marshalDoc(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalDoc(doc string, out any) error {
	return json.Unmarshal([]byte(doc), out)
}

func newID() string {
	return uuid.New().String()
}

func prepareFlyer(f entity.Flyer, now time.Time) entity.Flyer {
	if f.ID == "" {
		f.ID = newID()
	}
	if f.Status == "" {
		f.Status = constants.FlyerStatusUploaded
	}
	if f.Uploader == "" {
		f.Uploader = constants.DefaultUploader
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return f
}

func prepareExtraction(x entity.Extraction, now time.Time) entity.Extraction {
	if x.ID == "" {
		x.ID = newID()
	}
	if x.CreatedAt.IsZero() {
		x.CreatedAt = now
	}
	return x
}

func prepareEvent(e entity.PublishedEvent, now time.Time) entity.PublishedEvent {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return e
}

func prepareRecord(rec entity.ExtractionRecord) entity.ExtractionRecord {
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.CreatedAtISO == "" {
		rec.CreatedAtISO = FormatCreatedAt(time.Now())
	}
	return rec
}

// FormatCreatedAt renders t the way createdAtIso is stored: UTC, millisecond
// precision, so lexicographic order is chronological order.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func sortRecordsNewestFirst(recs []entity.ExtractionRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAtISO > recs[j].CreatedAtISO
	})
}

func filterEvents(all []entity.PublishedEvent, from, to time.Time) []entity.PublishedEvent {
	out := make([]entity.PublishedEvent, 0, len(all))
	for _, e := range all {
		if e.StartAt.Before(from) || e.StartAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}
