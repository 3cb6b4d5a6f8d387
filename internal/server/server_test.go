package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/scavenger/internal/async"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/export"
	"github.com/joseph-ayodele/scavenger/internal/extract"
	"github.com/joseph-ayodele/scavenger/internal/feed"
	"github.com/joseph-ayodele/scavenger/internal/flyers"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/metrics"
	"github.com/joseph-ayodele/scavenger/internal/repository"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

const (
	eventAnswer  = "```json\n{\"title\":\"Pizza Social\",\"date\":\"2030-01-15\",\"startTime\":\"18:00\",\"foodCategory\":\"pizza\"}\n```"
	legacyAnswer = `{"title":"Bagel Morning","building":"UMC","estimatedPortions":"40"}`
)

// scriptedProvider answers by schema, or fails with err.
type scriptedProvider struct {
	err error
}

func (p scriptedProvider) ExtractText(_ context.Context, req llm.ExtractRequest) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if req.Schema == llm.SchemaLegacy {
		return legacyAnswer, nil
	}
	return eventAnswer, nil
}

func (p scriptedProvider) Name() string  { return "scripted" }
func (p scriptedProvider) Model() string { return "scripted-1" }

func newTestServer(t *testing.T, provider llm.Provider) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := repository.NewJSONFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	images, err := uploads.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	extractor := extract.NewService(provider, "America/Denver", m, nil)
	notifier := async.NewStatusNotifier(store, nil, async.WithMetrics(m))
	t.Cleanup(func() { notifier.Shutdown(context.Background()) })

	return NewServer(common.ServerConfig{MaxUploadMB: 1}, Deps{
		Feed:       feed.NewService(store, store, images, extractor, time.UTC, nil),
		Flyers:     flyers.NewService(store, images, extractor, notifier, nil),
		Export:     export.NewService(store, nil),
		Images:     uploads.NewRemoteCache(images, nil, nil),
		UploadsDir: images.Dir(),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, nil)
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestLocalExtract_StoresRecord(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})

	w, body := serve(s, multipartRequest(t, "/api/local/extract", "file", "pizza flyer.png", pngBytes))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, eventAnswer, body["rawModelOutput"])

	event := body["event"].(map[string]any)
	assert.Equal(t, "Pizza Social", event["title"])
	assert.Nil(t, event["host"])
	saved := body["saved"].(map[string]any)
	assert.NotEmpty(t, saved["id"])

	w, body = serve(s, httptest.NewRequest(http.MethodGet, "/api/local/events", nil))
	require.Equal(t, http.StatusOK, w.Code)
	records := body["records"].([]any)
	require.Len(t, records, 1)
	rec := records[0].(map[string]any)
	assert.Equal(t, saved["id"], rec["id"])
	assert.Regexp(t, `^/uploads/\d+_pizza_flyer\.png$`, rec["imageUrl"])

	w, body = serve(s, httptest.NewRequest(http.MethodGet, "/api/local/upcoming?limit=0", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["records"], 1)

	w, _ = serve(s, httptest.NewRequest(http.MethodGet, rec["imageUrl"].(string), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLocalExtract_RequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})
	req := httptest.NewRequest(http.MethodGet, "/api/local/events", nil)
	req.Header.Set(HeaderRequestID, "req-123")

	w, _ := serve(s, req)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestLocalExtract_Errors(t *testing.T) {
	missingKey := extract.Unavailable("openai", common.MissingConfigError("OPENAI_API_KEY"))
	badKey := scriptedProvider{err: &common.ProviderError{Provider: "openai", StatusCode: 401, Body: "invalid api key"}}

	tests := []struct {
		name     string
		provider llm.Provider
		req      func(t *testing.T) *http.Request
		status   int
		errMsg   string
		hint     string
	}{
		{
			name:     "no file",
			provider: scriptedProvider{},
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "/api/local/extract", "", "", nil) },
			status:   http.StatusBadRequest,
			errMsg:   "No file provided",
		},
		{
			name:     "not an image",
			provider: scriptedProvider{},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/local/extract", "file", "notes.txt", []byte("hello there"))
			},
			status: http.StatusBadRequest,
			errMsg: "Unsupported file type: text/plain",
		},
		{
			name:     "missing api key",
			provider: missingKey,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/local/extract", "file", "f.png", pngBytes)
			},
			status: http.StatusBadRequest,
			errMsg: "Missing required environment variable: OPENAI_API_KEY",
			hint:   "Create .env.local and set OPENAI_API_KEY.",
		},
		{
			name:     "provider rejects",
			provider: badKey,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/local/extract", "file", "f.png", pngBytes)
			},
			status: http.StatusBadGateway,
			errMsg: "Local extract failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.provider)
			w, body := serve(s, tt.req(t))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.errMsg, body["error"])
			if tt.hint != "" {
				assert.Equal(t, tt.hint, body["hint"])
			}
		})
	}
}

func TestProviderErrorDetails(t *testing.T) {
	s := newTestServer(t, scriptedProvider{err: &common.ProviderError{Provider: "gemini", StatusCode: 429, Body: "quota"}})
	w, body := serve(s, multipartRequest(t, "/api/local/extract", "file", "f.png", pngBytes))
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "gemini error (429): quota", body["details"])
}

func TestFlyers_UploadThenExtract(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})

	w, body := serve(s, multipartRequest(t, "/api/flyers", "file", "bagels.png", pngBytes))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	flyerID, _ := body["flyerId"].(string)
	require.NotEmpty(t, flyerID)
	assert.Equal(t, "Upload successful", body["message"])
	assert.True(t, strings.HasPrefix(body["downloadURL"].(string), "/uploads/"))

	w, body = serve(s, httptest.NewRequest(http.MethodPost, "/api/flyers/"+flyerID+"/extract", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, flyerID, body["flyerId"])
	assert.NotEmpty(t, body["extractionId"])
	extraction := body["extraction"].(map[string]any)
	assert.Equal(t, "Bagel Morning", extraction["title"])
	assert.EqualValues(t, 40, extraction["estimatedPortions"])
	assert.Nil(t, extraction["room"])
}

func TestFlyers_ExtractUnknown(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})
	w, body := serve(s, httptest.NewRequest(http.MethodPost, "/api/flyers/nope/extract", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Flyer not found", body["error"])
}

func TestEvents_PublishAndList(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})
	start := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	w, body := serve(s, jsonRequest(http.MethodPost, "/api/events", `{"startIso":"`+start+`"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title is required", body["error"])

	w, body = serve(s, jsonRequest(http.MethodPost, "/api/events", `{"title":"Taco Tuesday","startIso":"`+start+`","extractionId":"x1"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	eventID := body["eventId"]
	assert.NotEmpty(t, eventID)

	w, body = serve(s, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	require.Equal(t, http.StatusOK, w.Code)
	events := body["events"].([]any)
	require.Len(t, events, 1)
	ev := events[0].(map[string]any)
	assert.Equal(t, eventID, ev["id"])
	assert.Equal(t, "ai+confirm", ev["source"].(map[string]any)["method"])

	w, body = serve(s, httptest.NewRequest(http.MethodGet, "/api/events?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "from must be a valid ISO date-time", body["error"])
}

func TestCacheImage_RejectsHost(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})

	w, body := serve(s, jsonRequest(http.MethodPost, "/api/local/cache-image", `{"url":"https://example.com/a.png"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Host not allowed: example.com", body["error"])

	w, body = serve(s, jsonRequest(http.MethodPost, "/api/local/cache-image", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing url", body["error"])
}

func TestExport_ReturnsWorkbook(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})
	w, _ := serve(s, httptest.NewRequest(http.MethodGet, "/api/local/events/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// XLSX is a zip archive.
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, scriptedProvider{})

	w, body := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	_, _ = serve(s, multipartRequest(t, "/api/local/extract", "file", "f.png", pngBytes))
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scavenger_extractions_total")
}

func TestErrorBody(t *testing.T) {
	status, body := errorBody("Boom", assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Boom", body["error"])
	assert.Equal(t, assert.AnError.Error(), body["details"])

	status, body = errorBody("Boom", common.UpstreamError("Failed to fetch image: 404"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Failed to fetch image: 404", body["error"])
}
