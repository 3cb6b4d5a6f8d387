package extract

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/metrics"
)

// Result is a normalized ExtractedEvent plus the text it came from.
type Result struct {
	Event          llm.ExtractedEvent `json:"event"`
	RawModelOutput string             `json:"rawModelOutput"`
	Provider       string             `json:"provider"`
	Model          string             `json:"model"`
	ParseFailed    bool               `json:"-"`
}

// LegacyResult is Result for the FlyerExtraction shape.
type LegacyResult struct {
	Extraction  llm.FlyerExtraction `json:"extraction"`
	RawText     string              `json:"rawText"`
	Provider    string              `json:"provider"`
	Model       string              `json:"model"`
	ParseFailed bool                `json:"-"`
}

// Service runs one provider call and normalizes the answer. Malformed model
// output is a result, not an error; only provider and input failures return errors.
type Service struct {
	provider       llm.Provider
	campusTimezone string
	metrics        *metrics.Registry
	logger         *slog.Logger
}

func NewService(provider llm.Provider, campusTimezone string, m *metrics.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:       provider,
		campusTimezone: campusTimezone,
		metrics:        m,
		logger:         logger,
	}
}

func (s *Service) ProviderName() string { return s.provider.Name() }
func (s *Service) Model() string        { return s.provider.Model() }
func (s *Service) CampusTimezone() string {
	if strings.TrimSpace(s.campusTimezone) == "" {
		return llm.ExtractRequest{}.WithDefaults().CampusTimezone
	}
	return s.campusTimezone
}

// Extract produces an ExtractedEvent.
func (s *Service) Extract(ctx context.Context, req llm.ExtractRequest) (Result, error) {
	req.Schema = llm.SchemaEvent
	raw, err := s.call(ctx, req)
	if err != nil {
		return Result{}, err
	}

	n := llm.NormalizeEvent(raw)
	s.finish(ctx, llm.SchemaEvent, raw, n.ParseFailed)
	return Result{
		Event:          n.Event,
		RawModelOutput: n.RawModelOutput,
		Provider:       s.provider.Name(),
		Model:          s.provider.Model(),
		ParseFailed:    n.ParseFailed,
	}, nil
}

// ExtractLegacy produces a FlyerExtraction.
func (s *Service) ExtractLegacy(ctx context.Context, req llm.ExtractRequest) (LegacyResult, error) {
	req.Schema = llm.SchemaLegacy
	raw, err := s.call(ctx, req)
	if err != nil {
		return LegacyResult{}, err
	}

	n := llm.NormalizeLegacy(raw)
	s.finish(ctx, llm.SchemaLegacy, raw, n.ParseFailed)
	return LegacyResult{
		Extraction:  n.Extraction,
		RawText:     n.RawText,
		Provider:    s.provider.Name(),
		Model:       s.provider.Model(),
		ParseFailed: n.ParseFailed,
	}, nil
}

func (s *Service) call(ctx context.Context, req llm.ExtractRequest) (string, error) {
	if req.CampusTimezone == "" {
		req.CampusTimezone = s.campusTimezone
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return "", err
	}

	name := s.provider.Name()
	start := time.Now()
	raw, err := s.provider.ExtractText(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		if !common.IsMissingConfig(err) {
			s.metrics.ObserveProviderCall(name, statusOf(err), elapsed)
		}
		s.metrics.ObserveExtraction(name, metrics.OutcomeError)
		s.logger.Error("extract.provider_error",
			"req_id", common.RequestIDFromContext(ctx),
			"provider", name,
			"schema", req.Schema,
			"error", err,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return "", err
	}
	s.metrics.ObserveProviderCall(name, http.StatusOK, elapsed)
	return raw, nil
}

func (s *Service) finish(ctx context.Context, schema llm.Schema, raw string, parseFailed bool) {
	name := s.provider.Name()
	reqID := common.RequestIDFromContext(ctx)
	if parseFailed {
		s.metrics.ObserveExtraction(name, metrics.OutcomeParseFailed)
		s.logger.Warn("extract.parse_failed", "req_id", reqID, "provider", name, "schema", schema, "raw_len", len(raw))
		return
	}
	s.metrics.ObserveExtraction(name, metrics.OutcomeOK)
	if issues := llm.SchemaCheck(schema, raw); len(issues) > 0 {
		s.logger.Warn("extract.schema_mismatch", "req_id", reqID, "provider", name, "schema", schema, "issues", issues)
	}
	s.logger.Info("extract.ok", "req_id", reqID, "provider", name, "schema", schema)
}

func statusOf(err error) int {
	var pe *common.ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
