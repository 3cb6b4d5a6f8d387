package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/llm"
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		Temperature float32 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractText implements llm.Provider with a single generateContent call
// carrying the prompt and the image inline.
func (c *Client) ExtractText(ctx context.Context, req llm.ExtractRequest) (string, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return "", err
	}
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", common.RequestIDFromContext(ctx),
		"provider", ProviderName,
		"model", c.cfg.Model,
		"schema", req.Schema,
		"mime_type", req.MimeType,
		"image_bytes", len(req.ImageBytes),
	)

	var body generateRequest
	body.Contents = []content{{Parts: []part{
		{Text: req.Prompt()},
		{InlineData: &inlineData{MimeType: req.MimeType, Data: llm.Base64(req.ImageBytes)}},
	}}}
	body.GenerationConfig.Temperature = c.cfg.Temperature

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"provider", ProviderName, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", llm.AsProviderError(ProviderName, raw, status, err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"provider", ProviderName, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	var b strings.Builder
	if len(gr.Candidates) > 0 {
		for _, p := range gr.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}

	c.logger.Info("llm.extract.ok",
		"provider", ProviderName,
		"text_len", b.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}
