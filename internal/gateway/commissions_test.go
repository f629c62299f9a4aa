package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const validCommission = `{"projectName":"demo","workerName":"scribe","prompt":"write the changelog","title":"Changelog"}`

func TestCommissionCreateValidatesBeforeDaemonCall(t *testing.T) {
	t.Parallel()
	daemonCalled := false
	daemonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		daemonCalled = true
	}))
	defer daemonSrv.Close()
	env := startGateway(t, daemonSrv.URL)

	for _, body := range []string{
		`{"workerName":"scribe","prompt":"x"}`,
		`{"projectName":"demo","prompt":"x"}`,
		`{"projectName":"demo","workerName":"scribe"}`,
		`{"projectName":"  ","workerName":"scribe","prompt":"x"}`,
		`not json`,
	} {
		resp := postJSON(t, env.base+"/commissions", body)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
	require.False(t, daemonCalled, "validation failures must never reach the daemon")
}

func TestCommissionCreateRelaysDaemonResponseVerbatim(t *testing.T) {
	t.Parallel()
	daemonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/commissions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"projectName":"demo"`)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"commissionId":"c-42","status":"pending"}`)
	}))
	defer daemonSrv.Close()
	env := startGateway(t, daemonSrv.URL)

	resp := postJSON(t, env.base+"/commissions", validCommission)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.JSONEq(t, `{"commissionId":"c-42","status":"pending"}`, string(body))
}

func TestCommissionDaemonErrorsPassThroughUnreinterpreted(t *testing.T) {
	t.Parallel()
	daemonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error":"cannot dispatch from completed"}`)
	}))
	defer daemonSrv.Close()
	env := startGateway(t, daemonSrv.URL)

	resp := postJSON(t, env.base+"/commissions/c-1/dispatch", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.JSONEq(t, `{"error":"cannot dispatch from completed"}`, string(body))
}

func TestCommissionEndpointsTargetDaemonPaths(t *testing.T) {
	t.Parallel()
	var gotMethod, gotPath string
	daemonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		io.WriteString(w, `{}`)
	}))
	defer daemonSrv.Close()
	env := startGateway(t, daemonSrv.URL)

	resp := doRequest(t, http.MethodPut, env.base+"/commissions/c-7", `{"title":"new"}`)
	resp.Body.Close()
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/api/commissions/c-7", gotPath)

	resp = doRequest(t, http.MethodDelete, env.base+"/commissions/c-7", "")
	resp.Body.Close()
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/api/commissions/c-7", gotPath)

	resp = postJSON(t, env.base+"/commissions/c-7/dispatch", "")
	resp.Body.Close()
	require.Equal(t, "/api/commissions/c-7/dispatch", gotPath)
}

func TestCommissionOfflineDaemonIs503WithFixedBody(t *testing.T) {
	t.Parallel()
	env := startGateway(t, offlineDaemonURL(t))

	for _, call := range []func() *http.Response{
		func() *http.Response { return postJSON(t, env.base+"/commissions", validCommission) },
		func() *http.Response { return doRequest(t, http.MethodPut, env.base+"/commissions/c-1", `{}`) },
		func() *http.Response { return doRequest(t, http.MethodDelete, env.base+"/commissions/c-1", "") },
		func() *http.Response { return postJSON(t, env.base+"/commissions/c-1/dispatch", "") },
	} {
		resp := call()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		doc := decodeResponse(t, resp)
		require.Equal(t, daemonOfflineMessage, doc["error"])
	}
}

func TestCommissionUpdateRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	env := startGateway(t, offlineDaemonURL(t))
	resp := doRequest(t, http.MethodPut, env.base+"/commissions/c-1", `{broken`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode,
		"malformed bodies are rejected before any daemon call")
}
