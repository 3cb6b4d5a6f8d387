package flyers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/async"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
	"github.com/joseph-ayodele/scavenger/internal/extract"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/repository"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

// ImageStore stores flyer images and reads them back by URL.
type ImageStore interface {
	Save(ctx context.Context, filename string, b []byte) (uploads.SavedFile, error)
	Open(url string) ([]byte, string, error)
}

// Extractor runs the FlyerExtraction schema against an image.
type Extractor interface {
	ExtractLegacy(ctx context.Context, req llm.ExtractRequest) (extract.LegacyResult, error)
	Model() string
	CampusTimezone() string
}

// ExtractResult is what the extract-by-flyer flow returns to callers.
type ExtractResult struct {
	FlyerID      string              `json:"flyerId"`
	ExtractionID string              `json:"extractionId"`
	Extraction   llm.FlyerExtraction `json:"extraction"`
}

// Service owns the flyer lifecycle: upload, then extraction by flyer id.
// Status changes go through the notifier and never fail the request.
type Service struct {
	store     repository.FlyerStore
	images    ImageStore
	extractor Extractor
	notifier  async.Notifier
	logger    *slog.Logger
}

func NewService(store repository.FlyerStore, images ImageStore, extractor Extractor, notifier async.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		images:    images,
		extractor: extractor,
		notifier:  notifier,
		logger:    logger,
	}
}

// Upload stores the image and creates a flyer in the uploaded state.
func (s *Service) Upload(ctx context.Context, filename, mimeType string, b []byte) (entity.Flyer, error) {
	if len(b) == 0 {
		return entity.Flyer{}, common.InvalidInputError("No file provided")
	}
	saved, err := s.images.Save(ctx, filename, b)
	if err != nil {
		return entity.Flyer{}, err
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = saved.MimeType
	}

	f, err := s.store.CreateFlyer(ctx, entity.Flyer{
		OriginalFilename: filename,
		MimeType:         mimeType,
		StoragePath:      saved.RelativePath,
		DownloadURL:      saved.URL,
		Status:           constants.FlyerStatusUploaded,
		Uploader:         constants.DefaultUploader,
	})
	if err != nil {
		s.logger.Error("flyers.create_error", "req_id", common.RequestIDFromContext(ctx), "error", err)
		return entity.Flyer{}, err
	}
	s.logger.Info("flyers.uploaded", "req_id", common.RequestIDFromContext(ctx), "flyer_id", f.ID, "path", f.StoragePath)
	return f, nil
}

// Extract runs extraction for a stored flyer and records the result. A
// failure after the extracting notification leaves the status there.
func (s *Service) Extract(ctx context.Context, flyerID string) (ExtractResult, error) {
	reqID := common.RequestIDFromContext(ctx)

	f, err := s.store.GetFlyer(ctx, flyerID)
	if err != nil {
		return ExtractResult{}, err
	}
	if f.DownloadURL == "" {
		return ExtractResult{}, common.InvalidInputError("Flyer has no downloadURL")
	}

	s.notifier.Notify(ctx, async.StatusUpdate{FlyerID: f.ID, Status: constants.FlyerStatusExtracting})

	b, sniffed, err := s.images.Open(f.DownloadURL)
	if err != nil {
		s.logger.Error("flyers.image_read_error", "req_id", reqID, "flyer_id", f.ID, "error", err)
		return ExtractResult{}, err
	}
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = sniffed
	}

	tz := s.extractor.CampusTimezone()
	res, err := s.extractor.ExtractLegacy(ctx, llm.ExtractRequest{
		ImageBytes:     b,
		MimeType:       mimeType,
		CampusTimezone: tz,
	})
	if err != nil {
		return ExtractResult{}, err
	}

	x, err := s.store.AppendExtraction(ctx, entity.Extraction{
		FlyerID:        f.ID,
		Model:          s.extractor.Model(),
		CampusTimezone: tz,
		Extraction:     res.Extraction,
		RawText:        res.RawText,
	})
	if err != nil {
		s.logger.Error("flyers.extraction_write_error", "req_id", reqID, "flyer_id", f.ID, "error", err)
		return ExtractResult{}, err
	}

	s.notifier.Notify(ctx, async.StatusUpdate{FlyerID: f.ID, Status: constants.FlyerStatusExtracted, ExtractionID: x.ID})
	s.logger.Info("flyers.extracted", "req_id", reqID, "flyer_id", f.ID, "extraction_id", x.ID, "parse_failed", res.ParseFailed)

	return ExtractResult{FlyerID: f.ID, ExtractionID: x.ID, Extraction: res.Extraction}, nil
}
