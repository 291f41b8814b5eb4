package ai

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fairyhunter13/discord-ai-bot/internal/adapter/observability"
	"github.com/fairyhunter13/discord-ai-bot/internal/config"
	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

// Dispatcher issues at most two sequential provider attempts per user
// message: the primary, and on a qualifying failure a single remote fallback
// hop. No retries and no backoff inside a dispatch.
type Dispatcher struct {
	primary         domain.ProviderConfig
	fallback        domain.ProviderConfig
	fallbackEnabled bool

	systemPrompt string
	temperature  float64
	maxTokens    int

	primaryHC  *http.Client
	fallbackHC *http.Client
}

// NewDispatcher wires providers and per-provider HTTP clients from configuration.
func NewDispatcher(cfg config.Config, systemPrompt string) *Dispatcher {
	primary := cfg.Primary()
	fallback := cfg.Fallback()
	return &Dispatcher{
		primary:         primary,
		fallback:        fallback,
		fallbackEnabled: cfg.FallbackEnabled,
		systemPrompt:    systemPrompt,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		primaryHC:       newHTTPClient(primary.Timeout),
		fallbackHC:      newHTTPClient(fallback.Timeout),
	}
}

// Dispatch runs one end-to-end dispatch and returns the reply text, or the
// primary attempt's failure. When the fallback hop itself fails, its error is
// logged and discarded; callers always see the primary failure.
func (d *Dispatcher) Dispatch(ctx domain.Context, userText string) (string, error) {
	dispatchID := uuid.NewString()
	req := domain.ChatRequest{
		SystemPrompt: d.systemPrompt,
		UserText:     userText,
		Temperature:  d.temperature,
		MaxTokens:    d.maxTokens,
	}

	res := d.attempt(ctx, d.primaryHC, d.primary, req, dispatchID)
	if res.OK() {
		observability.DispatchesTotal.WithLabelValues("ok").Inc()
		return res.Text, nil
	}
	primaryErr := res.Err

	if d.fallbackEligible(primaryErr.Reason) {
		slog.Info("primary failed, trying remote fallback",
			slog.String("dispatch_id", dispatchID),
			slog.String("primary_reason", string(primaryErr.Reason)),
			slog.String("fallback_model", d.fallback.Model))
		fbRes := d.attempt(ctx, d.fallbackHC, d.fallback, req, dispatchID)
		if fbRes.OK() {
			observability.FallbackAttemptsTotal.WithLabelValues("ok").Inc()
			observability.DispatchesTotal.WithLabelValues("ok").Inc()
			return fbRes.Text, nil
		}
		observability.FallbackAttemptsTotal.WithLabelValues("error").Inc()
		slog.Error("fallback attempt failed, surfacing primary failure",
			slog.String("dispatch_id", dispatchID),
			slog.String("fallback_reason", string(fbRes.Err.Reason)),
			slog.Any("error", fbRes.Err))
	}

	observability.DispatchesTotal.WithLabelValues("error").Inc()
	return "", fmt.Errorf("dispatch via %s provider: %w", d.primary.Kind, primaryErr)
}

// attempt builds and executes one provider request.
func (d *Dispatcher) attempt(ctx domain.Context, hc *http.Client, p domain.ProviderConfig, req domain.ChatRequest, dispatchID string) domain.ChatResult {
	built, ferr := BuildRequest(p, req)
	if ferr != nil {
		slog.Error("request build failed",
			slog.String("provider", string(p.Kind)),
			slog.String("dispatch_id", dispatchID),
			slog.Any("error", ferr))
		return domain.ChatResult{Err: ferr}
	}
	return execute(ctx, hc, p, built, dispatchID)
}

// fallbackEligible holds only when the primary is local, the fallback is
// enabled and has a key, and the primary failure was network or timeout.
// HTTP status, malformed response, and config failures never fall back.
func (d *Dispatcher) fallbackEligible(reason domain.FailureReason) bool {
	if d.primary.Kind != domain.ProviderLocal {
		return false
	}
	if !d.fallbackEnabled {
		return false
	}
	if strings.TrimSpace(d.fallback.APIKey) == "" {
		return false
	}
	return reason == domain.FailureNetwork || reason == domain.FailureTimeout
}
