package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/internal/entity"
	"github.com/joseph-ayodele/scavenger/internal/llm"
)

func TestFirestoreFields(t *testing.T) {
	rec := entity.ExtractionRecord{
		ID:           "r1",
		CreatedAtISO: "2026-02-02T10:00:00.000Z",
		Source:       entity.ExtractionSource{OriginalFilename: "f.png", MimeType: "image/png", SizeBytes: 2048},
		Event:        llm.ExtractedEvent{Title: strPtr("Snacks")},
	}
	m, err := toFields(rec)
	require.NoError(t, err)

	assert.Equal(t, "2026-02-02T10:00:00.000Z", m["createdAtIso"])
	event := m["event"].(map[string]any)
	assert.Contains(t, event, "host")
	assert.Nil(t, event["host"])
	assert.NotContains(t, m, "imageUrl")

	var back entity.ExtractionRecord
	require.NoError(t, fromFields(m, &back))
	assert.Equal(t, rec, back)
}

// Runs against the Firestore emulator only.
func TestFirestoreStore_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	s, err := OpenFirestore(context.Background(), "scavenger-test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}
