package flyers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/async"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/extract"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/repository"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeExtractor struct {
	res legacyFunc
	got []llm.ExtractRequest
}

type legacyFunc func() (extract.LegacyResult, error)

func (f *fakeExtractor) ExtractLegacy(_ context.Context, req llm.ExtractRequest) (extract.LegacyResult, error) {
	f.got = append(f.got, req)
	return f.res()
}
func (f *fakeExtractor) Model() string          { return "gemini-2.0-flash" }
func (f *fakeExtractor) CampusTimezone() string { return "America/Denver" }

// syncNotifier applies updates inline so tests can observe them immediately.
type syncNotifier struct {
	writer  async.StatusWriter
	updates []async.StatusUpdate
}

func (n *syncNotifier) Notify(ctx context.Context, u async.StatusUpdate) {
	n.updates = append(n.updates, u)
	if u.Status == constants.FlyerStatusExtracted {
		_ = n.writer.MarkFlyerExtracted(ctx, u.FlyerID, u.ExtractionID)
		return
	}
	_ = n.writer.UpdateFlyerStatus(ctx, u.FlyerID, u.Status)
}
func (n *syncNotifier) Shutdown(context.Context) {}

type fixture struct {
	svc      *Service
	store    *repository.JSONFileStore
	notifier *syncNotifier
	ex       *fakeExtractor
}

func newFixture(t *testing.T, res legacyFunc) fixture {
	t.Helper()
	store, err := repository.NewJSONFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	images, err := uploads.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	n := &syncNotifier{writer: store}
	ex := &fakeExtractor{res: res}
	return fixture{
		svc:      NewService(store, images, ex, n, nil),
		store:    store,
		notifier: n,
		ex:       ex,
	}
}

func TestUpload(t *testing.T) {
	fx := newFixture(t, nil)
	f, err := fx.svc.Upload(context.Background(), "pizza social.png", "", pngBytes)
	require.NoError(t, err)

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, constants.FlyerStatusUploaded, f.Status)
	assert.Equal(t, "anonymous", f.Uploader)
	assert.Equal(t, "pizza social.png", f.OriginalFilename)
	assert.Equal(t, "image/png", f.MimeType)
	assert.Regexp(t, `^/uploads/\d+_pizza_social\.png$`, f.DownloadURL)

	_, err = fx.svc.Upload(context.Background(), "x.png", "image/png", nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestExtract_HappyPath(t *testing.T) {
	title := "Pizza Social"
	fx := newFixture(t, func() (extract.LegacyResult, error) {
		return extract.LegacyResult{
			Extraction: llm.FlyerExtraction{Title: &title},
			RawText:    `{"title":"Pizza Social"}`,
		}, nil
	})
	ctx := context.Background()
	f, err := fx.svc.Upload(ctx, "flyer.png", "image/png", pngBytes)
	require.NoError(t, err)

	res, err := fx.svc.Extract(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, res.FlyerID)
	assert.NotEmpty(t, res.ExtractionID)
	assert.Equal(t, "Pizza Social", *res.Extraction.Title)

	require.Len(t, fx.ex.got, 1)
	assert.Equal(t, pngBytes, fx.ex.got[0].ImageBytes)
	assert.Equal(t, "image/png", fx.ex.got[0].MimeType)

	require.Len(t, fx.notifier.updates, 2)
	assert.Equal(t, constants.FlyerStatusExtracting, fx.notifier.updates[0].Status)
	assert.Equal(t, constants.FlyerStatusExtracted, fx.notifier.updates[1].Status)
	assert.Equal(t, res.ExtractionID, fx.notifier.updates[1].ExtractionID)

	got, err := fx.store.GetFlyer(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.FlyerStatusExtracted, got.Status)
	assert.Equal(t, res.ExtractionID, *got.LastExtractionID)
}

func TestExtract_NotFound(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.svc.Extract(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, fx.notifier.updates)
}

func TestExtract_ProviderFailureLeavesExtracting(t *testing.T) {
	fx := newFixture(t, func() (extract.LegacyResult, error) {
		return extract.LegacyResult{}, &common.ProviderError{Provider: "gemini", StatusCode: 500, Body: "boom"}
	})
	ctx := context.Background()
	f, err := fx.svc.Upload(ctx, "flyer.png", "image/png", pngBytes)
	require.NoError(t, err)

	_, err = fx.svc.Extract(ctx, f.ID)
	var pe *common.ProviderError
	require.True(t, errors.As(err, &pe))

	got, err := fx.store.GetFlyer(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.FlyerStatusExtracting, got.Status)
	assert.Nil(t, got.LastExtractionID)
}
