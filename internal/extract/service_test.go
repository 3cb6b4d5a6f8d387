package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/metrics"
)

type fakeProvider struct {
	text string
	err  error
	got  []llm.ExtractRequest
}

func (f *fakeProvider) ExtractText(_ context.Context, req llm.ExtractRequest) (string, error) {
	f.got = append(f.got, req)
	return f.text, f.err
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func newService(p llm.Provider) *Service {
	return NewService(p, "America/Chicago", metrics.New(prometheus.NewRegistry()), nil)
}

func TestExtract_Normalizes(t *testing.T) {
	p := &fakeProvider{text: "```json\n{\"title\":\"Pizza Night\",\"foodCategory\":\"pizza\",\"date\":\"2026-03-01\"}\n```"}
	s := newService(p)

	res, err := s.Extract(context.Background(), llm.ExtractRequest{ImageBytes: []byte{1}})
	require.NoError(t, err)

	assert.Equal(t, "Pizza Night", *res.Event.Title)
	assert.Equal(t, constants.Pizza, *res.Event.FoodCategory)
	assert.Nil(t, res.Event.Host)
	assert.Equal(t, p.text, res.RawModelOutput)
	assert.Equal(t, "fake", res.Provider)
	assert.Equal(t, "fake-1", res.Model)

	require.Len(t, p.got, 1)
	assert.Equal(t, llm.SchemaEvent, p.got[0].Schema)
	assert.Equal(t, "America/Chicago", p.got[0].CampusTimezone)
	assert.Equal(t, "image/jpeg", p.got[0].MimeType)
}

func TestExtract_ParseFailureIsResult(t *testing.T) {
	s := newService(&fakeProvider{text: "I could not read the flyer."})

	res, err := s.Extract(context.Background(), llm.ExtractRequest{ImageBytes: []byte{1}})
	require.NoError(t, err)
	assert.True(t, res.ParseFailed)
	require.NotNil(t, res.Event.Details)
	assert.Contains(t, *res.Event.Details, llm.ParseFailurePrefix)
	assert.Equal(t, "I could not read the flyer.", res.RawModelOutput)
}

func TestExtract_ProviderErrorPropagates(t *testing.T) {
	perr := &common.ProviderError{Provider: "fake", StatusCode: 500, Body: "boom"}
	s := newService(&fakeProvider{err: perr})

	_, err := s.Extract(context.Background(), llm.ExtractRequest{ImageBytes: []byte{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProvider)
}

func TestExtract_EmptyImage(t *testing.T) {
	p := &fakeProvider{}
	s := newService(p)

	_, err := s.Extract(context.Background(), llm.ExtractRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Empty(t, p.got)
}

func TestExtractLegacy(t *testing.T) {
	p := &fakeProvider{text: `{"title":"Pizza Social","estimatedPortions":"25"}`}
	s := newService(p)

	res, err := s.ExtractLegacy(context.Background(), llm.ExtractRequest{ImageBytes: []byte{1}, MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Social", *res.Extraction.Title)
	assert.Equal(t, 25.0, *res.Extraction.EstimatedPortions)
	assert.Equal(t, llm.SchemaLegacy, p.got[0].Schema)
	assert.Equal(t, "image/png", p.got[0].MimeType)
}

func TestProviderFromConfig(t *testing.T) {
	_, err := ProviderFromConfig(common.LLMConfig{Provider: common.ProviderOpenAI}, nil)
	assert.True(t, common.IsMissingConfig(err))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = ProviderFromConfig(common.LLMConfig{Provider: common.ProviderGemini}, nil)
	assert.True(t, common.IsMissingConfig(err))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	p, err := ProviderFromConfig(common.LLMConfig{Provider: common.ProviderGemini, GeminiAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	_, err = ProviderFromConfig(common.LLMConfig{Provider: "claude"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
	assert.False(t, common.IsMissingConfig(err))
}

func TestProviderFromConfig_ChecksSelectedCredential(t *testing.T) {
	_, err := ProviderFromConfig(common.LLMConfig{Provider: common.ProviderGemini, OpenAIAPIKey: "sk-test"}, nil)
	assert.Equal(t, common.MissingConfigPrefix+"GEMINI_API_KEY", common.Message(err))

	_, err = ProviderFromConfig(common.LLMConfig{GeminiAPIKey: "g-test"}, nil)
	assert.Equal(t, common.MissingConfigPrefix+"OPENAI_API_KEY", common.Message(err), "empty provider means openai")

	p, err := ProviderFromConfig(common.LLMConfig{OpenAIAPIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, common.ProviderOpenAI, p.Name())
}

func TestUnavailable(t *testing.T) {
	cfgErr := common.MissingConfigError("OPENAI_API_KEY")
	s := newService(Unavailable("openai", cfgErr))

	_, err := s.Extract(context.Background(), llm.ExtractRequest{ImageBytes: []byte{1}})
	assert.True(t, errors.Is(err, common.ErrMissingConfig))
}
