package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/smilemakc/patterex/internal/config"
	"github.com/smilemakc/patterex/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipUnlessUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("submits real commands, unix-only")
	}
}

func testLogger() *logger.Logger {
	return logger.New(config.LoggingConfig{Level: "debug", Format: "json"})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			Host:            "127.0.0.1",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Observer: config.ObserverConfig{
			EnableLogger:    true,
			EnableWebSocket: true,
			BufferSize:      10,
		},
	}
}

func TestServer_SubmitAndGet_CommandSucceeds(t *testing.T) {
	skipUnlessUnix(t)
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	body := `{"type":"command","command":["/bin/true"]}`
	resp, err := http.Post(ts.URL+"/workflows", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted struct {
		Data struct {
			ExecutionID string `json:"execution_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	require.NotEmpty(t, submitted.Data.ExecutionID)

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/workflows/" + submitted.Data.ExecutionID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var out struct {
			Data Execution `json:"data"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return out.Data.Status == "SUCCEEDED"
	}, time.Second, 10*time.Millisecond)
}

func TestServer_Submit_InvalidJSONRejected(t *testing.T) {
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/workflows", "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Submit_UnknownPatternKindRejected(t *testing.T) {
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/workflows", "application/json", strings.NewReader(`{"type":"bogus"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Get_UnknownExecutionReturns404(t *testing.T) {
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/workflows/no-such-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Stream_UnknownExecutionReturns404(t *testing.T) {
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/workflows/no-such-id/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Stream_ReceivesEventsForKnownExecution(t *testing.T) {
	skipUnlessUnix(t)
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	// The stream carries live events only, so the command must still be
	// running when the client connects for its process.exited to arrive.
	body := `{"type":"command","command":["/bin/sleep","0.5"]}`
	resp, err := http.Post(ts.URL+"/workflows", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var submitted struct {
		Data struct {
			ExecutionID string `json:"execution_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/workflows/" + submitted.Data.ExecutionID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome map[string]any
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, submitted.Data.ExecutionID, welcome["execution_id"])

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg["type"])
}

func TestServer_Healthz(t *testing.T) {
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ObserverStats_ReflectsDeliveredEvents(t *testing.T) {
	skipUnlessUnix(t)
	srv := NewServer(testConfig(), testLogger())
	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	body := `{"type":"command","command":["/bin/true"]}`
	resp, err := http.Post(ts.URL+"/workflows", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		statsResp, err := http.Get(ts.URL + "/observers/stats")
		if err != nil {
			return false
		}
		defer statsResp.Body.Close()
		var out struct {
			Data struct {
				Observers int    `json:"observers"`
				Delivered uint64 `json:"delivered"`
			} `json:"data"`
		}
		_ = json.NewDecoder(statsResp.Body).Decode(&out)
		return out.Data.Observers > 0 && out.Data.Delivered > 0
	}, time.Second, 10*time.Millisecond)
}
