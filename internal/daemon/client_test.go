package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCallPassesResponsesThroughVerbatim(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/commissions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, "demo", payload["projectName"])
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"error":"worker unknown"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Call(context.Background(), http.MethodPost, "/api/commissions",
		map[string]string{"projectName": "demo"})
	require.NoError(t, err, "a daemon error response is not a client error")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.JSONEq(t, `{"error":"worker unknown"}`, string(body))
}

func TestCallCollapsesConnectionFailureToUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := NewClient(addr)
	_, err := client.Call(context.Background(), http.MethodGet, "/api/health", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCallerCancellationIsNotUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	client := NewClient(srv.URL)
	_, err := client.Stream(ctx, http.MethodPost, "/api/meetings", nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStreamDeliversChunksIncrementally(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		io.WriteString(w, "data: first\n\n")
		flusher.Flush()
		<-release
		io.WriteString(w, "data: second\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Stream(context.Background(), http.MethodPost, "/api/meetings",
		map[string]string{"prompt": "go"})
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: first\n", line, "first chunk must arrive before the stream ends")

	close(release)
	reader.ReadString('\n')
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: second\n", line)
}

func TestHealthReportsOfflineWhenUnreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := NewClient(addr)
	doc := client.Health(context.Background())
	require.Equal(t, "offline", doc["status"])
	require.False(t, client.Online(context.Background()))
}

func TestHealthPassesDaemonDocumentThrough(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		io.WriteString(w, `{"status":"ok","workers":3}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	doc := client.Health(context.Background())
	require.Equal(t, "ok", doc["status"])
	require.EqualValues(t, 3, doc["workers"])
	require.True(t, client.Online(context.Background()))
}
