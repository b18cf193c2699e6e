package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name:    "missing server",
			opts:    []Option{},
			wantErr: true,
		},
		{
			name: "valid config",
			opts: []Option{
				WithServer("https://example.com"),
			},
			wantErr: false,
		},
		{
			name: "with custom user agent",
			opts: []Option{
				WithServer("https://example.com"),
				WithUserAgent("test-agent"),
			},
			wantErr: false,
		},
		{
			name: "empty server",
			opts: []Option{
				WithServer(""),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, client)
			} else {
				require.NoError(t, err)
				require.NotNil(t, client)
			}
		})
	}
}

func TestClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client, err := New(
		WithServer(server.URL),
		WithUserAgent("test-agent"),
	)
	require.NoError(t, err)

	var result map[string]string
	err = client.do(context.Background(), http.MethodGet, "/test", nil, &result)
	require.NoError(t, err)
	require.Equal(t, "ok", result["status"])
}

func TestClientDoError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "episode not found: ep-404"})
	}))
	defer server.Close()

	client, err := New(WithServer(server.URL))
	require.NoError(t, err)

	err = client.do(context.Background(), http.MethodGet, "/test", nil, nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	require.Contains(t, httpErr.Message, "episode not found")
}

func TestClientDoErrorNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream gone"))
	}))
	defer server.Close()

	client, err := New(WithServer(server.URL))
	require.NoError(t, err)

	err = client.do(context.Background(), http.MethodGet, "/test", nil, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	require.Equal(t, "upstream gone", httpErr.Message)
}

func TestValidationQueueParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/validation/queue", r.URL.Path)
		require.Equal(t, "sup-telehealth-001", r.URL.Query().Get("supervisorId"))
		require.Equal(t, "URGENT", r.URL.Query().Get("urgencyLevel"))
		require.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"episodeId":"ep-001","urgencyLevel":"URGENT"}]`))
	}))
	defer server.Close()

	client, err := New(WithServer(server.URL))
	require.NoError(t, err)

	items, err := client.Validation().Queue(context.Background(), QueueListOptions{
		SupervisorID: "sup-telehealth-001",
		UrgencyLevel: "URGENT",
		Limit:        5,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "ep-001", items[0].EpisodeID)
}
