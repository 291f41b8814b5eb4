// Package ai implements the provider-abstracted LLM request core: payload
// shaping per provider, the HTTP transport with failure classification, and
// the primary/fallback dispatcher.
package ai

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fairyhunter13/discord-ai-bot/internal/config"
	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

const (
	minTemperature = 0.0
	maxTemperature = 2.0
	minMaxTokens   = 1
	maxMaxTokens   = 4096
)

// BuiltRequest is a serialized provider request, ready for the transport.
type BuiltRequest struct {
	URL    string
	Header http.Header
	Body   []byte
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type localOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type localBody struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Options  localOptions  `json:"options"`
	Stream   bool          `json:"stream"`
}

type remoteBody struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// BuildRequest produces the provider-specific URL, headers, and JSON body for
// one chat request.
func BuildRequest(p domain.ProviderConfig, req domain.ChatRequest) (*BuiltRequest, *domain.Failure) {
	switch p.Kind {
	case domain.ProviderLocal:
		return buildLocal(p, req), nil
	case domain.ProviderRemote:
		return buildRemote(p, req)
	default:
		return nil, domain.NewFailure(domain.FailureConfig, "unknown provider kind %q", p.Kind)
	}
}

// buildLocal shapes an Ollama-style chat request. The system message is
// included verbatim even when empty, and generation options ride in the
// "options" object with max tokens as num_predict. Streaming is disabled.
func buildLocal(p domain.ProviderConfig, req domain.ChatRequest) *BuiltRequest {
	body := localBody{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserText},
		},
		Options: localOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
		Stream:  false,
	}
	b, _ := json.Marshal(body)
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &BuiltRequest{URL: p.EndpointURL, Header: h, Body: b}
}

// buildRemote shapes an OpenAI-compatible chat completions request. The wire
// body carries model and messages only; sampling controls are clamped and
// validated here but not forwarded upstream.
func buildRemote(p domain.ProviderConfig, req domain.ChatRequest) (*BuiltRequest, *domain.Failure) {
	key := strings.TrimSpace(p.APIKey)
	if key == "" {
		return nil, domain.NewFailure(domain.FailureConfig, "remote api key missing")
	}
	userText := strings.TrimSpace(req.UserText)
	if userText == "" {
		return nil, domain.NewFailure(domain.FailureConfig, "user text empty")
	}

	model := strings.TrimSpace(p.Model)
	if model == "" {
		model = config.DefaultRemoteModel
	}

	temperature := clampTemperature(req.Temperature)
	maxTokens := clampMaxTokens(req.MaxTokens)
	slog.Debug("remote sampling controls clamped, not forwarded",
		slog.Float64("temperature", temperature),
		slog.Int("max_tokens", maxTokens))

	messages := make([]chatMessage, 0, 2)
	if sys := strings.TrimSpace(req.SystemPrompt); sys != "" {
		messages = append(messages, chatMessage{Role: "system", Content: sys})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userText})

	b, _ := json.Marshal(remoteBody{Model: model, Messages: messages})
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+key)
	return &BuiltRequest{URL: p.EndpointURL, Header: h, Body: b}, nil
}

func clampTemperature(t float64) float64 {
	if t < minTemperature {
		return minTemperature
	}
	if t > maxTemperature {
		return maxTemperature
	}
	return t
}

func clampMaxTokens(n int) int {
	if n < minMaxTokens {
		return minMaxTokens
	}
	if n > maxMaxTokens {
		return maxMaxTokens
	}
	return n
}
