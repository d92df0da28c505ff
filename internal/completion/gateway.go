// Package completion calls an OpenAI-compatible chat completions endpoint
// and classifies every failure into one of three kinds so the message router
// can pick a fallback response without inspecting provider details.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/real-rm/livechat/internal/config"
	"github.com/real-rm/livechat/internal/constants"
	chaterrors "github.com/real-rm/livechat/internal/errors"
	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/ratelimit"
)

// FailureKind labels a classified provider failure. Exactly three kinds
// exist; anything unrecognized collapses into ProviderUnavailable.
type FailureKind string

const (
	FailureRateLimited         FailureKind = "RateLimited"
	FailureProviderUnavailable FailureKind = "ProviderUnavailable"
	FailureAuthFailure         FailureKind = "AuthFailure"
)

// Message roles for the chat completions request
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation context sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gateway is the single egress point to the completion provider. Failures
// never escape unclassified: callers receive a ChatError whose code maps to
// one of the three failure kinds.
type Gateway struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	tracker   *ratelimit.Tracker
	logger    *logging.Logger
}

// NewGateway creates a Gateway from configuration. The tracker receives
// every rate-limit classification before the error is returned.
func NewGateway(cfg config.CompletionConfig, tracker *ratelimit.Tracker, logger *logging.Logger) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.CompletionTimeout
	}

	return &Gateway{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: timeout},
		tracker:   tracker,
		logger:    logger.Sub("completion"),
	}
}

// completionRequest is the chat completions request body
type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// completionResponse is the chat completions response body
type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the visitor's message to the provider and returns the
// assistant reply. The system prompt is prepended here so callers only
// supply conversation turns.
func (g *Gateway) Complete(ctx context.Context, turns []Message) (string, error) {
	startTime := time.Now()

	messages := make([]Message, 0, len(turns)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: constants.CompletionSystemPrompt})
	messages = append(messages, turns...)

	reqBody := completionRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: g.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return "", g.classifyTransportError(fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/chat/completions", bytes.NewReader(bodyBytes))
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return "", g.classifyTransportError(fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+g.apiKey)

	resp, err := g.client.Do(httpReq)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return "", g.classifyTransportError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	// No else needed: early return pattern (guard clause)
	if resp.StatusCode != http.StatusOK {
		return "", g.classifyStatus(resp)
	}

	var compResp completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&compResp); err != nil {
		return "", g.classifyTransportError(fmt.Errorf("failed to decode response: %w", err))
	}

	// No else needed: early return pattern (guard clause)
	if len(compResp.Choices) == 0 {
		return "", g.classifyTransportError(fmt.Errorf("no choices in response"))
	}

	content := compResp.Choices[0].Message.Content
	if content == "" {
		content = constants.FallbackEmptyResponseText
	}

	duration := time.Since(startTime)
	metrics.CompletionRequests.WithLabelValues("success").Inc()
	metrics.CompletionLatency.Observe(duration.Seconds())

	g.logger.Debug("Completion request succeeded",
		"model", compResp.Model,
		"tokens_used", compResp.Usage.TotalTokens,
		"duration_ms", duration.Milliseconds())

	return content, nil
}

// classifyStatus maps a non-200 provider status to one of the three failure
// kinds. 429 carries a retry-after window and is recorded into the tracker
// before the error is returned.
func (g *Gateway) classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxProviderErrorBody))
	cause := fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get(constants.HeaderRetryAfter))
		g.tracker.RecordFailure(retryAfter, fmt.Sprintf("provider rate limit, retry after %s", retryAfter))
		metrics.CompletionRequests.WithLabelValues("rate_limited").Inc()
		g.logger.Warn("Completion provider rate limited",
			"retry_after", retryAfter,
			"status", resp.StatusCode)
		return chaterrors.ErrRateLimited(retryAfter, cause)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.CompletionRequests.WithLabelValues("auth_failure").Inc()
		g.logger.Error("Completion provider rejected credentials",
			"status", resp.StatusCode)
		return chaterrors.ErrProviderAuthFailure(cause)

	default:
		// Server errors and anything unrecognized
		metrics.CompletionRequests.WithLabelValues("unavailable").Inc()
		g.logger.Error("Completion provider unavailable",
			"status", resp.StatusCode)
		return chaterrors.ErrProviderUnavailable(cause)
	}
}

// classifyTransportError wraps network and decode failures as unavailable.
func (g *Gateway) classifyTransportError(err error) error {
	metrics.CompletionRequests.WithLabelValues("unavailable").Inc()
	g.logger.Error("Completion request failed", "error", err)
	return chaterrors.ErrProviderUnavailable(err)
}

// parseRetryAfter reads a Retry-After header given in seconds. A missing or
// unparseable header falls back to the default one-hour window.
func parseRetryAfter(header string) time.Duration {
	// No else needed: early return pattern (guard clause)
	if header == "" {
		return constants.DefaultRetryAfter
	}

	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return constants.DefaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// Classify extracts the failure kind from a classified gateway error.
// Unrecognized errors collapse into ProviderUnavailable.
func Classify(err error) FailureKind {
	var chatErr *chaterrors.ChatError
	// No else needed: early return pattern (guard clause)
	if !errors.As(err, &chatErr) {
		return FailureProviderUnavailable
	}

	switch chatErr.Code {
	case chaterrors.ErrCodeRateLimited:
		return FailureRateLimited
	case chaterrors.ErrCodeAuthFailure:
		return FailureAuthFailure
	default:
		return FailureProviderUnavailable
	}
}

// FallbackBody selects the visitor-facing fallback text for a failure kind.
// Every wording tells the visitor a human will follow up.
func FallbackBody(kind FailureKind, retryAfter time.Duration) string {
	switch kind {
	case FailureRateLimited:
		hours := int(retryAfter.Hours())
		if retryAfter > time.Duration(hours)*time.Hour {
			hours++
		}
		if hours < 1 {
			hours = 1
		}
		return fmt.Sprintf(constants.FallbackRateLimitedFormat, hours)
	case FailureAuthFailure:
		return constants.FallbackAuthFailureText
	default:
		return constants.FallbackUnavailableText
	}
}
