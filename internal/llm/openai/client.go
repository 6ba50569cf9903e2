package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/llm"
	"github.com/joseph-ayodele/docs-analyzer/internal/metrics"
)

var _ llm.Completer = (*Client)(nil)

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat/completions request and returns the text of the
// first choice. It never retries.
func (c *Client) Complete(ctx context.Context, payload llm.ChatPayload) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	defer func() { metrics.LLMRequestDurationSeconds.Observe(time.Since(start).Seconds()) }()

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"model", payload.Model,
		"max_tokens", payload.MaxTokens,
		"messages", len(payload.Messages),
	)

	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, c.cfg.URL, payload, headers, c.logger)
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) {
			metrics.LLMRequestsTotal.WithLabelValues("status_error").Inc()
			c.logger.Error("llm.complete.status_error",
				"req_id", rid, "status", status, "body", se.Body,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		} else {
			metrics.LLMRequestsTotal.WithLabelValues("http_error").Inc()
			c.logger.Error("llm.complete.http_error",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}
		return "", fmt.Errorf("%w: openai: %w", common.ErrUpstream, err)
	}

	var cc completionResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("decode_error").Inc()
		c.logger.Error("llm.complete.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: decode openai response: %w", common.ErrUpstream, err)
	}
	if len(cc.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues("no_choices").Inc()
		c.logger.Error("llm.complete.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: no choices in openai response", common.ErrUpstream)
	}

	content := cc.Choices[0].Message.Content
	metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
