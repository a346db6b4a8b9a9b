package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

func testConfig(baseURL string) ClientConfig {
	cfg := DefaultClientConfig(baseURL)
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	return cfg
}

func TestGenerateSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{Payload: json.RawMessage(`{"text":"welcome back"}`)})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = "secret"
	client := NewClient(cfg)

	payload, err := client.Generate(context.Background(), content.TypeHeroMessage, content.CommunityContext{ActiveUsers: 12})
	require.NoError(t, err)

	assert.JSONEq(t, `{"text":"welcome back"}`, string(payload))
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/v1/generate", gotPath)
	assert.Equal(t, string(content.TypeHeroMessage), gotReq.ContentType)
	assert.Equal(t, 12, gotReq.Context.ActiveUsers)
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Payload: json.RawMessage(`{}`)})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), content.TypeHeroMessage, content.CommunityContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), content.TypeHeroMessage, content.CommunityContext{})
	assert.ErrorIs(t, err, shared.ErrGeneratorUnavailable)
	assert.Equal(t, 1, calls)
}

func TestGenerateRejectsServiceLevelErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Error: "model overloaded"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Generate(context.Background(), content.TypeHeroMessage, content.CommunityContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrGeneratorUnavailable)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateRejectsEmptyPayload(t *testing.T) {
	// A zero generateResponse serializes its payload as the JSON literal null,
	// which decodes back into a non-empty RawMessage. Both shapes are empty
	// answers and must be rejected.
	bodies := [][]byte{
		[]byte(`{"payload":null}`),
		[]byte(`{}`),
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		}))

		client := NewClient(testConfig(server.URL))
		_, err := client.Generate(context.Background(), content.TypeHeroMessage, content.CommunityContext{})
		assert.ErrorIs(t, err, shared.ErrGeneratorUnavailable, string(body))

		server.Close()
	}
}

func TestGenerateCircuitOpensUnderSustainedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 1
	cfg.BreakerThreshold = 2
	cfg.BreakerTimeout = time.Hour
	client := NewClient(cfg)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Generate(ctx, content.TypeHeroMessage, content.CommunityContext{})
		require.Error(t, err)
	}

	// Circuit is open now: the call fails fast without reaching the server.
	_, err := client.Generate(ctx, content.TypeHeroMessage, content.CommunityContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrGeneratorUnavailable)
	assert.Contains(t, err.Error(), "circuit open")
}

func TestGenerateUnreachableService(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 1
	client := NewClient(cfg)

	_, err := client.Generate(context.Background(), content.TypeHeroMessage, content.CommunityContext{})
	assert.ErrorIs(t, err, shared.ErrGeneratorUnavailable)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}
