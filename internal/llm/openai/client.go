// Package openai implements llm.Extractor against the OpenAI
// chat/completions endpoint. The client speaks raw HTTP: the schema is
// enforced with response_format json_object plus local validation, which
// works across providers exposing an OpenAI-compatible API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/govdata-ar/rendicion-tracker/internal/common"
	"github.com/govdata-ar/rendicion-tracker/internal/llm"
)

// Client calls the OpenAI API for schema-constrained extraction.
type Client struct {
	cfg  common.LLMConfig
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg common.LLMConfig, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// Extract implements llm.Extractor. Every failure mode (transport, bad
// JSON, schema violation) comes back as *llm.ExtractionError so the retry
// policy can treat them uniformly.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) ([]llm.Record, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"schema", req.Schema.Name,
		"model", c.cfg.Model,
		"text_len", len(req.Text),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildUserPrompt(req) + "\n\nDevolvé SOLO JSON que cumpla el schema provisto."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(req.Schema.Raw)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "schema", req.Schema.Name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.NewExtractionError(llm.KindTransport, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, llm.NewExtractionError(llm.KindMalformedJSON, fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		return nil, llm.NewExtractionError(llm.KindMalformedJSON, fmt.Errorf("no choices in openai response"))
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		c.log.Error("llm.extract.malformed_json",
			"req_id", rid, "schema", req.Schema.Name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.NewExtractionError(llm.KindMalformedJSON, fmt.Errorf("parse model output: %w", err))
	}

	coerceNumericStrings(payload)

	if err := req.Schema.Validate(payload); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "schema", req.Schema.Name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.NewExtractionError(llm.KindSchemaViolation, err)
	}

	records := recordsOf(payload)
	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"schema", req.Schema.Name,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

func recordsOf(payload map[string]any) []llm.Record {
	items, _ := payload["records"].([]any)
	records := make([]llm.Record, 0, len(items))
	for _, item := range items {
		if record, ok := item.(llm.Record); ok {
			records = append(records, record)
		}
	}
	return records
}

// coerceNumericStrings rewrites amount fields the model returned as
// formatted strings ("1.234,56") into numbers before validation. The model
// is told to normalize but does not always comply.
func coerceNumericStrings(payload map[string]any) {
	items, _ := payload["records"].([]any)
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for field, value := range record {
			if !isAmountField(field) {
				continue
			}
			if text, ok := value.(string); ok {
				if number, ok := common.ParseImporte(text); ok {
					record[field] = number
				} else {
					record[field] = nil
				}
			}
		}
	}
}

func isAmountField(field string) bool {
	switch field {
	case "Prog_Vigente", "Prog_Preventivo", "Prog_Compromiso", "Prog_Devengado", "Prog_Pagado",
		"Meta_Anual", "Meta_Parcial", "Meta_Ejecutado":
		return true
	}
	return false
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
