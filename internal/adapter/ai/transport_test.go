package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

func testExecute(t *testing.T, p domain.ProviderConfig, req domain.ChatRequest) domain.ChatResult {
	t.Helper()
	built, ferr := BuildRequest(p, req)
	require.Nil(t, ferr)
	return execute(context.Background(), newHTTPClient(p.Timeout), p, built, "test-dispatch")
}

func TestExecute_LocalSuccessTrims(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"content":"  Hello!  "}}`))
	}))
	defer ts.Close()

	p := localProvider()
	p.EndpointURL = ts.URL
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.True(t, res.OK())
	require.Equal(t, "Hello!", res.Text)
}

func TestExecute_RemoteSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hi back"}}]}`))
	}))
	defer ts.Close()

	p := remoteProvider()
	p.EndpointURL = ts.URL
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.True(t, res.OK())
	require.Equal(t, "Hi back", res.Text)
}

func TestExecute_EmptyContentIsValid(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"   "}}`))
	}))
	defer ts.Close()

	p := localProvider()
	p.EndpointURL = ts.URL
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.True(t, res.OK())
	require.Equal(t, "", res.Text)
}

func TestExecute_HTTPStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	p := localProvider()
	p.EndpointURL = ts.URL
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.False(t, res.OK())
	require.Equal(t, domain.FailureHTTPStatus, res.Err.Reason)
}

func TestExecute_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	p := localProvider()
	p.EndpointURL = ts.URL
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.False(t, res.OK())
	require.Equal(t, domain.FailureMalformed, res.Err.Reason)
}

func TestExecute_MissingExtractionPath(t *testing.T) {
	local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer local.Close()

	p := localProvider()
	p.EndpointURL = local.URL
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.Equal(t, domain.FailureMalformed, res.Err.Reason)

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer remote.Close()

	rp := remoteProvider()
	rp.EndpointURL = remote.URL
	res = testExecute(t, rp, domain.ChatRequest{UserText: "hi"})
	require.Equal(t, domain.FailureMalformed, res.Err.Reason)
}

func TestExecute_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"message":{"content":"late"}}`))
	}))
	defer ts.Close()

	p := localProvider()
	p.EndpointURL = ts.URL
	p.Timeout = 20 * time.Millisecond
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.False(t, res.OK())
	require.Equal(t, domain.FailureTimeout, res.Err.Reason)
}

func TestExecute_Network(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close() // connection refused from here on

	p := localProvider()
	p.EndpointURL = url
	res := testExecute(t, p, domain.ChatRequest{UserText: "hi"})
	require.False(t, res.OK())
	require.Equal(t, domain.FailureNetwork, res.Err.Reason)
}
