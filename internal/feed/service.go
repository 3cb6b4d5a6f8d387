package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
	"github.com/joseph-ayodele/scavenger/internal/extract"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/repository"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

// ImageSaver stores the uploaded flyer so listings can show it.
type ImageSaver interface {
	Save(ctx context.Context, filename string, b []byte) (uploads.SavedFile, error)
}

// EventExtractor runs the ExtractedEvent schema against an image.
type EventExtractor interface {
	Extract(ctx context.Context, req llm.ExtractRequest) (extract.Result, error)
}

// Upload is a flyer image as received from a client.
type Upload struct {
	Filename string
	MimeType string // client-declared; may be empty
	Bytes    []byte
}

// ExtractResult is the event, the model text and the stored record.
type ExtractResult struct {
	Event          llm.ExtractedEvent      `json:"event"`
	RawModelOutput string                  `json:"rawModelOutput"`
	Record         entity.ExtractionRecord `json:"record"`
	ParseFailed    bool                    `json:"parseFailed"`
}

type Service struct {
	records   repository.ExtractionStore
	events    repository.EventStore
	images    ImageSaver
	extractor EventExtractor
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(records repository.ExtractionStore, events repository.EventStore, images ImageSaver, extractor EventExtractor, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		records:   records,
		events:    events,
		images:    images,
		extractor: extractor,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// ExtractAndStore saves the image, extracts the event and appends a record.
// Unparseable model output is still stored; provider errors store nothing.
func (s *Service) ExtractAndStore(ctx context.Context, up Upload) (ExtractResult, error) {
	if len(up.Bytes) == 0 {
		return ExtractResult{}, common.InvalidInputError("No file provided")
	}
	mimeType := strings.TrimSpace(up.MimeType)
	if mimeType == "" {
		mimeType = constants.DefaultMimeType
	}

	saved, err := s.images.Save(ctx, up.Filename, up.Bytes)
	if err != nil {
		return ExtractResult{}, err
	}

	res, err := s.extractor.Extract(ctx, llm.ExtractRequest{
		ImageBytes: up.Bytes,
		MimeType:   mimeType,
	})
	if err != nil {
		return ExtractResult{}, err
	}

	imageURL := saved.URL
	rec, err := s.records.AppendRecord(ctx, entity.ExtractionRecord{
		CreatedAtISO: repository.FormatCreatedAt(s.now()),
		Source: entity.ExtractionSource{
			OriginalFilename: up.Filename,
			MimeType:         mimeType,
			SizeBytes:        int64(len(up.Bytes)),
		},
		ImageURL:       &imageURL,
		Event:          res.Event,
		RawModelOutput: res.RawModelOutput,
	})
	if err != nil {
		s.logger.Error("feed.record_write_error", "req_id", common.RequestIDFromContext(ctx), "error", err)
		return ExtractResult{}, err
	}

	s.logger.Info("feed.record_stored",
		"req_id", common.RequestIDFromContext(ctx),
		"id", rec.ID,
		"provider", res.Provider,
		"parse_failed", res.ParseFailed,
	)
	return ExtractResult{Event: res.Event, RawModelOutput: res.RawModelOutput, Record: rec, ParseFailed: res.ParseFailed}, nil
}

// List returns every stored record, newest first.
func (s *Service) List(ctx context.Context) ([]entity.ExtractionRecord, error) {
	return s.records.ListRecords(ctx)
}
