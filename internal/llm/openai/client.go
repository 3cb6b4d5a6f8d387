package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/llm"
)

type inputPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type responsesRequest struct {
	Model       string         `json:"model"`
	Temperature float32        `json:"temperature"`
	Input       []inputMessage `json:"input"`
}

// responsesBody covers both answer shapes: the convenience output_text and the
// structured output list.
type responsesBody struct {
	OutputText json.RawMessage `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// ExtractText implements llm.Provider against the Responses API: one user turn
// carrying the prompt and the image as a data URL.
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

	body := responsesRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Input: []inputMessage{{
			Role: "user",
			Content: []inputPart{
				{Type: "input_text", Text: req.Prompt()},
				{Type: "input_image", ImageURL: llm.DataURL(req.MimeType, req.ImageBytes)},
			},
		}},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/responses"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"provider", ProviderName, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", llm.AsProviderError(ProviderName, raw, status, err)
	}

	text, err := outputText(raw)
	if err != nil {
		c.logger.Error("llm.extract.decode_error",
			"provider", ProviderName, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.logger.Info("llm.extract.ok",
		"provider", ProviderName,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// outputText prefers output_text when it is a string, else joins the text
// parts of the first output item. A missing answer is the empty string.
func outputText(raw []byte) (string, error) {
	var rb responsesBody
	if err := json.Unmarshal(raw, &rb); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	var s string
	if len(rb.OutputText) > 0 && json.Unmarshal(rb.OutputText, &s) == nil {
		return s, nil
	}
	if len(rb.Output) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(rb.Output[0].Content))
	for _, p := range rb.Output[0].Content {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
