package ai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/discord-ai-bot/internal/adapter/observability"
	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

// maxBodyBytes caps how much of a provider response is read into memory.
const maxBodyBytes = 1 << 20

// snippetBytes caps diagnostic body snippets in logs.
const snippetBytes = 512

// newHTTPClient builds a client whose timeout bounds the whole request
// (connect + read). TLS is certificate-validated; there is no insecure mode.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// execute issues one HTTP POST for a built request and classifies the outcome.
// Exactly one attempt produces exactly one ChatResult.
func execute(ctx domain.Context, hc *http.Client, p domain.ProviderConfig, built *BuiltRequest, dispatchID string) domain.ChatResult {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, built.URL, bytes.NewReader(built.Body))
	if err != nil {
		return domain.ChatResult{Err: domain.NewFailure(domain.FailureConfig, "build http request: %v", err)}
	}
	r.Header = built.Header.Clone()

	start := time.Now()
	resp, err := hc.Do(r)
	observability.AIRequestsTotal.WithLabelValues(string(p.Kind), "chat").Inc()
	observability.AIRequestDuration.WithLabelValues(string(p.Kind), "chat").Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(err) {
			slog.Warn("ai provider timeout",
				slog.String("provider", string(p.Kind)),
				slog.String("dispatch_id", dispatchID),
				slog.Duration("timeout", p.Timeout))
			return domain.ChatResult{Err: domain.NewFailure(domain.FailureTimeout, "request to %s timed out after %s", p.Kind, p.Timeout)}
		}
		slog.Warn("ai provider unreachable",
			slog.String("provider", string(p.Kind)),
			slog.String("dispatch_id", dispatchID),
			slog.Any("error", err))
		return domain.ChatResult{Err: domain.NewFailure(domain.FailureNetwork, "request to %s failed: %v", p.Kind, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("ai provider body read failed",
			slog.String("provider", string(p.Kind)),
			slog.String("dispatch_id", dispatchID),
			slog.Any("error", err))
		return domain.ChatResult{Err: domain.NewFailure(domain.FailureNetwork, "read response from %s: %v", p.Kind, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(bodyBytes)
		if len(snippet) > snippetBytes {
			snippet = snippet[:snippetBytes]
		}
		slog.Error("ai provider non-2xx",
			slog.String("provider", string(p.Kind)),
			slog.String("dispatch_id", dispatchID),
			slog.Int("status", resp.StatusCode),
			slog.String("model", p.Model),
			slog.String("endpoint", p.EndpointURL),
			slog.String("body", snippet))
		return domain.ChatResult{Err: domain.NewFailure(domain.FailureHTTPStatus, "%s returned status %d", p.Kind, resp.StatusCode)}
	}

	text, ferr := extractText(p.Kind, bodyBytes)
	if ferr != nil {
		slog.Error("ai provider malformed response",
			slog.String("provider", string(p.Kind)),
			slog.String("dispatch_id", dispatchID),
			slog.Any("error", ferr))
		return domain.ChatResult{Err: ferr}
	}

	slog.Debug("ai provider responded",
		slog.String("provider", string(p.Kind)),
		slog.String("dispatch_id", dispatchID),
		slog.Int("status", resp.StatusCode),
		slog.Int("reply_chars", len(text)))
	return domain.ChatResult{Text: text}
}

// extractText pulls the reply out of a provider response body. Remote follows
// choices[0].message.content; local follows message.content. The extracted
// text is trimmed; an empty string is a valid success.
func extractText(kind domain.ProviderKind, body []byte) (string, *domain.Failure) {
	switch kind {
	case domain.ProviderRemote:
		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", domain.NewFailure(domain.FailureMalformed, "decode remote response: %v", err)
		}
		if len(out.Choices) == 0 {
			return "", domain.NewFailure(domain.FailureMalformed, "remote response has no choices")
		}
		return strings.TrimSpace(out.Choices[0].Message.Content), nil
	case domain.ProviderLocal:
		var out struct {
			Message *struct {
				Content string `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", domain.NewFailure(domain.FailureMalformed, "decode local response: %v", err)
		}
		if out.Message == nil {
			return "", domain.NewFailure(domain.FailureMalformed, "local response has no message")
		}
		return strings.TrimSpace(out.Message.Content), nil
	default:
		return "", domain.NewFailure(domain.FailureConfig, "unknown provider kind %q", kind)
	}
}

// isTimeout distinguishes deadline expiry from other connection-level failures.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
