package ai

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

func localProvider() domain.ProviderConfig {
	return domain.ProviderConfig{
		Kind:        domain.ProviderLocal,
		EndpointURL: "http://localhost:11434/api/chat",
		Model:       "llama3.1:8b",
		Timeout:     5 * time.Second,
	}
}

func remoteProvider() domain.ProviderConfig {
	return domain.ProviderConfig{
		Kind:        domain.ProviderRemote,
		EndpointURL: "https://api.openai.com/v1/chat/completions",
		Model:       "gpt-4o-mini",
		APIKey:      "sk-test",
		Timeout:     30 * time.Second,
	}
}

func TestBuildRequest_LocalShape(t *testing.T) {
	req := domain.ChatRequest{SystemPrompt: "", UserText: "hi there", Temperature: 0.7, MaxTokens: 120}
	built, ferr := BuildRequest(localProvider(), req)
	require.Nil(t, ferr)
	require.Equal(t, "http://localhost:11434/api/chat", built.URL)
	require.Empty(t, built.Header.Get("Authorization"))
	require.Equal(t, "application/json", built.Header.Get("Content-Type"))

	var body localBody
	require.NoError(t, json.Unmarshal(built.Body, &body))
	require.Equal(t, "llama3.1:8b", body.Model)
	require.False(t, body.Stream)
	require.InDelta(t, 0.7, body.Options.Temperature, 1e-9)
	require.Equal(t, 120, body.Options.NumPredict)
	// system message rides along verbatim, even when empty
	require.Len(t, body.Messages, 2)
	require.Equal(t, "system", body.Messages[0].Role)
	require.Equal(t, "", body.Messages[0].Content)
	require.Equal(t, "user", body.Messages[1].Role)
	require.Equal(t, "hi there", body.Messages[1].Content)
}

func TestBuildRequest_RemoteShape(t *testing.T) {
	req := domain.ChatRequest{SystemPrompt: "be nice", UserText: "  hi  ", Temperature: 0.7, MaxTokens: 120}
	built, ferr := BuildRequest(remoteProvider(), req)
	require.Nil(t, ferr)
	require.Equal(t, "Bearer sk-test", built.Header.Get("Authorization"))

	var body remoteBody
	require.NoError(t, json.Unmarshal(built.Body, &body))
	require.Equal(t, "gpt-4o-mini", body.Model)
	require.Len(t, body.Messages, 2)
	require.Equal(t, "be nice", body.Messages[0].Content)
	require.Equal(t, "hi", body.Messages[1].Content)

	// sampling controls are not part of the remote wire shape
	raw := string(built.Body)
	require.NotContains(t, raw, "max_tokens")
	require.NotContains(t, raw, "temperature")
	require.NotContains(t, raw, "num_predict")
	require.NotContains(t, raw, "stream")
}

func TestBuildRequest_RemoteOmitsBlankSystemPrompt(t *testing.T) {
	req := domain.ChatRequest{SystemPrompt: "   ", UserText: "hi"}
	built, ferr := BuildRequest(remoteProvider(), req)
	require.Nil(t, ferr)

	var body remoteBody
	require.NoError(t, json.Unmarshal(built.Body, &body))
	require.Len(t, body.Messages, 1)
	require.Equal(t, "user", body.Messages[0].Role)
}

func TestBuildRequest_RemoteKeyMissing(t *testing.T) {
	p := remoteProvider()
	p.APIKey = "   "
	_, ferr := BuildRequest(p, domain.ChatRequest{UserText: "hi"})
	require.NotNil(t, ferr)
	require.Equal(t, domain.FailureConfig, ferr.Reason)
}

func TestBuildRequest_RemoteEmptyUserText(t *testing.T) {
	_, ferr := BuildRequest(remoteProvider(), domain.ChatRequest{UserText: "  \n "})
	require.NotNil(t, ferr)
	require.Equal(t, domain.FailureConfig, ferr.Reason)
}

func TestBuildRequest_RemoteModelDefault(t *testing.T) {
	p := remoteProvider()
	p.Model = "  "
	built, ferr := BuildRequest(p, domain.ChatRequest{UserText: "hi"})
	require.Nil(t, ferr)
	require.True(t, strings.Contains(string(built.Body), `"model":"gpt-4o-mini"`))
}

func TestBuildRequest_RemoteTrimsKey(t *testing.T) {
	p := remoteProvider()
	p.APIKey = "  sk-test \n"
	built, ferr := BuildRequest(p, domain.ChatRequest{UserText: "hi"})
	require.Nil(t, ferr)
	require.Equal(t, "Bearer sk-test", built.Header.Get("Authorization"))
}

func TestBuildRequest_UnknownKind(t *testing.T) {
	p := domain.ProviderConfig{Kind: domain.ProviderKind("cloud"), EndpointURL: "http://x"}
	_, ferr := BuildRequest(p, domain.ChatRequest{UserText: "hi"})
	require.NotNil(t, ferr)
	require.Equal(t, domain.FailureConfig, ferr.Reason)
}

func TestClamping(t *testing.T) {
	require.InDelta(t, 0.0, clampTemperature(-1), 1e-9)
	require.InDelta(t, 2.0, clampTemperature(3.5), 1e-9)
	require.InDelta(t, 0.7, clampTemperature(0.7), 1e-9)

	require.Equal(t, 1, clampMaxTokens(0))
	require.Equal(t, 4096, clampMaxTokens(999999))
	require.Equal(t, 120, clampMaxTokens(120))
}
