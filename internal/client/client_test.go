package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markis/smart-summary/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     client.SummaryRequest
		wantErr string
	}{
		{name: "valid", req: client.SummaryRequest{Text: "some text", MaxLength: 150}},
		{name: "bounds inclusive", req: client.SummaryRequest{Text: strings.Repeat("é", 10000), MaxLength: 500}},
		{name: "min length", req: client.SummaryRequest{Text: "x", MaxLength: 50}},
		{
			name:    "empty text",
			req:     client.SummaryRequest{Text: "", MaxLength: 150},
			wantErr: "invalid text: text cannot be empty",
		},
		{
			name:    "blank text",
			req:     client.SummaryRequest{Text: " \n\t", MaxLength: 150},
			wantErr: "invalid text: text cannot be empty",
		},
		{
			name:    "text too long",
			req:     client.SummaryRequest{Text: strings.Repeat("a", 10001), MaxLength: 150},
			wantErr: "invalid text: text too long (10001 characters, max 10000)",
		},
		{
			name:    "summary too short",
			req:     client.SummaryRequest{Text: "x", MaxLength: 49},
			wantErr: "invalid max_length: must be between 50 and 500, got 49",
		},
		{
			name:    "summary too long",
			req:     client.SummaryRequest{Text: "x", MaxLength: 501},
			wantErr: "invalid max_length: must be between 50 and 500, got 501",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
			var verr *client.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestClient_SummarizeRequestFormat(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/summarize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("data: {\"type\":\"summary_chunk\",\"content\":\"hi\"}\n\n"))
	}))
	defer srv.Close()

	c := client.New(srv.URL + "/")
	ctx := client.WithRequestID(context.Background(), "req-1")
	body, err := c.Summarize(ctx, client.SummaryRequest{Text: "long text", MaxLength: 120})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"summary_chunk\",\"content\":\"hi\"}\n\n", string(data))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(captured, &payload))
	assert.Equal(t, "long text", payload["text"])
	assert.Equal(t, float64(120), payload["max_length"])
}

func TestClient_SummarizeStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Text cannot be empty"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).Summarize(context.Background(), client.SummaryRequest{Text: "x", MaxLength: 50})
	require.Error(t, err)

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, `{"detail":"Text cannot be empty"}`, statusErr.Body)
	assert.Equal(t, `HTTP error! status: 400: {"detail":"Text cannot be empty"}`, err.Error())
}

func TestClient_SummarizeNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url).Summarize(context.Background(), client.SummaryRequest{Text: "x", MaxLength: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"smart-summary-api"}`))
	}))
	defer srv.Close()

	health, err := client.New(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.Health{Status: "healthy", Service: "smart-summary-api"}, health)
}

func TestClient_HealthUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).Health(context.Background())
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "HTTP error! status: 503", err.Error())
}

func TestNew_DefaultBaseURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, client.DefaultBaseURL, client.New("  ").BaseURL())
	assert.Equal(t, "http://localhost:8000", client.New("http://localhost:8000/").BaseURL())
}
