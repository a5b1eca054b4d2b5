package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	onboarding "github.com/techiemaya-admin/lad-onboarding"
	"github.com/techiemaya-admin/lad-onboarding/internal/testutils"
	api "github.com/techiemaya-admin/lad-onboarding/pkg/adapters/http"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/observability"
)

func newTestServer(t *testing.T, opts ...onboarding.Option) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	streams := api.NewStreamManager(nil)
	opts = append(opts,
		onboarding.WithSessionObserver(streams.Observe),
		onboarding.WithLifecycleHooks(observability.Hooks(observability.NewMetrics(reg), nil)),
	)
	svc := onboarding.New(opts...)

	srv, err := api.NewServer(context.Background(), svc,
		api.WithStreams(streams), api.WithMetrics(reg), api.WithVersion("9.9.9\n"))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSession(t *testing.T, data []byte) domain.Session {
	t.Helper()
	var s domain.Session
	require.NoError(t, json.Unmarshal(data, &s), string(data))
	return s
}

func TestServer_HealthAndInfo(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := do(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := do(t, http.MethodGet, ts.URL+"/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info map[string]string
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "9.9.9", info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	resp, data = do(t, http.MethodGet, ts.URL+"/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "openapi: 3.0.3")
}

func TestServer_Conversation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, data := do(t, http.MethodPost, ts.URL+"/sessions", map[string]string{"session_id": "a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	s := decodeSession(t, data)
	assert.Equal(t, domain.StateInitial, s.State)
	assert.NotEmpty(t, s.Turns)

	resp, data = do(t, http.MethodPost, ts.URL+"/sessions/a/reply", map[string]any{"input": "Lead generation"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, domain.StatePlatformSelection, decodeSession(t, data).State)

	resp, data = do(t, http.MethodGet, ts.URL+"/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"sessions":["a"]}`, string(data))

	resp, data = do(t, http.MethodGet, ts.URL+"/sessions/a/workflow?format=mermaid", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(data), "graph TD"))

	resp, data = do(t, http.MethodGet, ts.URL+"/sessions/a/payload", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"leads_per_day"`)

	resp, data = do(t, http.MethodPost, ts.URL+"/sessions/a/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StateInitial, decodeSession(t, data).State)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/sessions/a", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/sessions/a", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RejectsInvalidRequests(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := do(t, http.MethodPost, ts.URL+"/sessions", map[string]string{"session_id": "a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing input", "/sessions/a/reply", map[string]any{}, http.StatusBadRequest},
		{"numeric input", "/sessions/a/reply", map[string]any{"input": 3}, http.StatusBadRequest},
		{"unknown resolution", "/sessions/a/resolve", map[string]any{"resolution": "bogus"}, http.StatusBadRequest},
		{"unknown session", "/sessions/ghost/reply", map[string]any{"input": "hi"}, http.StatusNotFound},
		{"launch before complete", "/sessions/a/launch", nil, http.StatusConflict},
		{"leads without store", "/sessions/a/leads", map[string]any{"leads": []map[string]string{{"email": "x@y.z"}}}, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, http.MethodPost, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(data))
			assert.Contains(t, string(data), `"error"`)
		})
	}
}

func TestServer_BusySession(t *testing.T) {
	gen := &testutils.Generator{Block: true}
	ts, _ := newTestServer(t, onboarding.WithGenerator(gen))
	resp, _ := do(t, http.MethodPost, ts.URL+"/sessions", map[string]string{"session_id": "a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	done := make(chan int, 1)
	go func() {
		resp, _ := do(t, http.MethodPost, ts.URL+"/sessions/a/reply", map[string]any{"input": "tell me a joke"})
		done <- resp.StatusCode
	}()
	require.Eventually(t, func() bool { return gen.Calls() == 1 }, time.Second, 5*time.Millisecond)

	resp, _ = do(t, http.MethodPost, ts.URL+"/sessions/a/reply", map[string]any{"input": "Lead generation"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/sessions/a/reset", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case code := <-done:
		assert.Equal(t, http.StatusConflict, code)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reply was not cancelled")
	}
}

func TestServer_Events(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := do(t, http.MethodPost, ts.URL+"/sessions", map[string]string{"session_id": "a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/a/events?watch=state", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	resp, _ = do(t, http.MethodPost, ts.URL+"/sessions/a/reply", map[string]any{"input": "Lead generation"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var event string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			event = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(event), &diff))
	assert.Equal(t, "a", diff.SessionID)
	require.NotNil(t, diff.State)
	assert.Equal(t, domain.StatePlatformSelection, *diff.State)
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t)
	do(t, http.MethodPost, ts.URL+"/sessions", map[string]string{"session_id": "a"})
	do(t, http.MethodPost, ts.URL+"/sessions/a/reply", map[string]any{"input": "Lead generation"})

	resp, data := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `onboarding_transitions_total{from="initial",to="platform_selection"} 1`)
}
