package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgpay/internal/dispatcher"
)

type fakeReporter struct {
	result dispatcher.PassResult
	at     time.Time
	ok     bool
}

func (f fakeReporter) LastPass() (dispatcher.PassResult, time.Time, bool) {
	return f.result, f.at, f.ok
}

func TestHealthHandler(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name     string
		reporter fakeReporter
		code     int
		status   string
	}{
		{name: "no pass yet", reporter: fakeReporter{}, code: http.StatusServiceUnavailable, status: "starting"},
		{name: "recent pass", reporter: fakeReporter{ok: true, at: now.Add(-30 * time.Second), result: dispatcher.PassResult{Scanned: 3}}, code: http.StatusOK, status: "ok"},
		{name: "stale pass", reporter: fakeReporter{ok: true, at: now.Add(-10 * time.Minute)}, code: http.StatusServiceUnavailable, status: "stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HealthHandler(tt.reporter, 3*time.Minute, clock).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			require.Equal(t, tt.code, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp healthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.Equal(t, tt.status, resp.Status)
			if tt.reporter.ok {
				require.NotNil(t, resp.LastPass)
				require.Equal(t, tt.reporter.result.Scanned, resp.LastPass.Scanned)
			} else {
				require.Nil(t, resp.LastPass)
			}
		})
	}
}

func TestNewServeMux(t *testing.T) {
	srv := httptest.NewServer(NewServeMux(fakeReporter{ok: true, at: time.Now()}, time.Minute))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
