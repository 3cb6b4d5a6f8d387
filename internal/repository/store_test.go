package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
	"github.com/joseph-ayodele/scavenger/internal/llm"
)

func strPtr(s string) *string { return &s }

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	t.Run("records newest first", func(t *testing.T) {
		older := entity.ExtractionRecord{
			ID:           "rec-1",
			CreatedAtISO: "2026-02-01T10:00:00.000Z",
			Source:       entity.ExtractionSource{OriginalFilename: "a.png", MimeType: "image/png", SizeBytes: 10},
			Event:        llm.ExtractedEvent{Title: strPtr("Older")},
		}
		newer := entity.ExtractionRecord{
			ID:             "rec-2",
			CreatedAtISO:   "2026-02-02T10:00:00.000Z",
			Source:         entity.ExtractionSource{OriginalFilename: "b.jpg", MimeType: "image/jpeg", SizeBytes: 20},
			ImageURL:       strPtr("/uploads/b.jpg"),
			Event:          llm.ExtractedEvent{Title: strPtr("Newer"), Other: map[string]any{"rsvp": "yes"}},
			RawModelOutput: `{"title":"Newer"}`,
		}
		_, err := s.AppendRecord(ctx, older)
		require.NoError(t, err)
		_, err = s.AppendRecord(ctx, newer)
		require.NoError(t, err)

		recs, err := s.ListRecords(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "rec-2", recs[0].ID)
		assert.Equal(t, "rec-1", recs[1].ID)
		assert.Equal(t, newer, recs[0])
		assert.Nil(t, recs[1].ImageURL)
	})

	t.Run("record defaults", func(t *testing.T) {
		rec, err := s.AppendRecord(ctx, entity.ExtractionRecord{})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		_, err = time.Parse(time.RFC3339, rec.CreatedAtISO)
		assert.NoError(t, err)
	})

	t.Run("flyer lifecycle", func(t *testing.T) {
		f, err := s.CreateFlyer(ctx, entity.Flyer{
			OriginalFilename: "pizza.png",
			MimeType:         "image/png",
			StoragePath:      "uploads/1_pizza.png",
			DownloadURL:      "/uploads/1_pizza.png",
		})
		require.NoError(t, err)
		require.NotEmpty(t, f.ID)
		assert.Equal(t, constants.FlyerStatusUploaded, f.Status)
		assert.Equal(t, constants.DefaultUploader, f.Uploader)

		require.NoError(t, s.UpdateFlyerStatus(ctx, f.ID, constants.FlyerStatusExtracting))
		got, err := s.GetFlyer(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.FlyerStatusExtracting, got.Status)

		x, err := s.AppendExtraction(ctx, entity.Extraction{
			FlyerID:        f.ID,
			Model:          "gemini-2.0-flash",
			CampusTimezone: "America/Denver",
			Extraction:     llm.FlyerExtraction{Title: strPtr("Pizza Social")},
			RawText:        `{"title":"Pizza Social"}`,
		})
		require.NoError(t, err)
		require.NotEmpty(t, x.ID)

		require.NoError(t, s.MarkFlyerExtracted(ctx, f.ID, x.ID))
		got, err = s.GetFlyer(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.FlyerStatusExtracted, got.Status)
		require.NotNil(t, got.LastExtractionID)
		assert.Equal(t, x.ID, *got.LastExtractionID)
		assert.NotNil(t, got.ExtractedAt)
		assert.Equal(t, "pizza.png", got.OriginalFilename)
	})

	t.Run("missing flyer", func(t *testing.T) {
		_, err := s.GetFlyer(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.ErrorIs(t, s.UpdateFlyerStatus(ctx, "nope", constants.FlyerStatusExtracting), common.ErrNotFound)
	})

	t.Run("events by range ascending", func(t *testing.T) {
		base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
		for i, title := range []string{"Third", "First", "Second", "Outside"} {
			offset := map[int]time.Duration{0: 48 * time.Hour, 1: 0, 2: 24 * time.Hour, 3: 30 * 24 * time.Hour}[i]
			_, err := s.CreateEvent(ctx, entity.PublishedEvent{
				Title:   title,
				StartAt: base.Add(offset),
				Status:  constants.EventStatusScheduled,
				Source:  entity.EventSource{Method: constants.SourceMethodManual},
			})
			require.NoError(t, err)
		}

		events, err := s.ListEvents(ctx, base, base.Add(7*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "First", events[0].Title)
		assert.Equal(t, "Second", events[1].Title)
		assert.Equal(t, "Third", events[2].Title)
		assert.True(t, events[0].StartAt.Equal(base))
	})
}
