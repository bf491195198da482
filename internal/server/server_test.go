package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/tick"
)

var epoch = time.Date(2023, 4, 20, 3, 16, 44, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer runs a driver on a fake clock for the duration of the test.
func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	fc := clockwork.NewFakeClockAt(epoch)
	m := metrics.NewCollector()
	d := tick.NewDriver(simclock.New(fc), state.NewManager(state.DefaultConfig()), tick.Config{Metrics: m})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	fc.BlockUntil(1)
	for !d.State().HasData() {
		time.Sleep(time.Millisecond)
	}
	t.Cleanup(func() {
		cancel()
		<-done
	})

	s := New(d, m, nil, cfg)
	s.now = fc.Now
	return s
}

func do(t *testing.T, s *Server, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, target, w.Body.String(), err)
		}
	}
	return w.Code, out
}

func TestGetEphemeris(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantAt   string
	}{
		{"defaults to simulated now", "/api/ephemeris", http.StatusOK, "2023-04-20T03:16:44Z"},
		{"explicit instant", "/api/ephemeris?t=2000-01-01", http.StatusOK, "2000-01-01T00:00:00Z"},
		{"malformed instant", "/api/ephemeris?t=2023-13-01", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, s, http.MethodGet, tt.target, "")
			if code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%v)", code, tt.wantCode, body)
			}
			if tt.wantAt != "" && body["at"] != tt.wantAt {
				t.Errorf("at = %v, want %s", body["at"], tt.wantAt)
			}
			if code != http.StatusOK {
				if _, ok := body["error"]; !ok {
					t.Errorf("error response without an error field: %v", body)
				}
			}
		})
	}

	// The eclipse regression instant carries a ground point.
	_, body := do(t, s, http.MethodGet, "/api/ephemeris", "")
	shadow, ok := body["shadow"].(map[string]interface{})
	if !ok || shadow["hit"] != true {
		t.Errorf("shadow = %v, want a hit", body["shadow"])
	}
}

func TestClockCommands(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	code, body := do(t, s, http.MethodPut, "/api/clock/speed", `{"speed": 3600}`)
	if code != http.StatusOK || body["speed"] != 3600.0 {
		t.Fatalf("PUT speed = %d %v", code, body)
	}

	code, body = do(t, s, http.MethodPut, "/api/clock/speed", `{"speed": 0}`)
	if code != http.StatusOK || body["paused"] != true {
		t.Errorf("PUT speed 0 = %d %v, want paused", code, body)
	}

	code, body = do(t, s, http.MethodPut, "/api/clock/current", `{"instant": "2024-04-08T18:17:00Z"}`)
	if code != http.StatusOK || body["sim_time"] != "2024-04-08T18:17:00Z" {
		t.Errorf("PUT current = %d %v", code, body)
	}

	code, body = do(t, s, http.MethodPost, "/api/clock/jump", `{"seconds": -86400}`)
	if code != http.StatusOK || body["sim_time"] != "2024-04-07T18:17:00Z" {
		t.Errorf("POST jump = %d %v", code, body)
	}

	code, body = do(t, s, http.MethodPost, "/api/clock/sync", "")
	if code != http.StatusOK || body["sim_time"] != "2023-04-20T03:16:44Z" || body["speed"] != 1.0 {
		t.Errorf("POST sync = %d %v", code, body)
	}

	// Jumping across the 2024-04-08 new moon may add phase events too.
	commands := map[string]bool{
		string(state.EventSpeedChanged): true,
		string(state.EventTimeSet):      true,
		string(state.EventJumped):       true,
		string(state.EventSynced):       true,
	}
	_, body = do(t, s, http.MethodGet, "/api/events?n=50", "")
	events, _ := body["events"].([]interface{})
	n := 0
	for _, e := range events {
		if commands[e.(map[string]interface{})["type"].(string)] {
			n++
		}
	}
	if n != 5 {
		t.Errorf("events = %v, want 5 command events", body["events"])
	}
}

func TestClockCommandValidation(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	tests := []struct {
		name, method, target, body string
	}{
		{"missing speed", http.MethodPut, "/api/clock/speed", `{}`},
		{"speed not a number", http.MethodPut, "/api/clock/speed", `{"speed": "fast"}`},
		{"speed overflows", http.MethodPut, "/api/clock/speed", `{"speed": 1e999}`},
		{"bad instant", http.MethodPut, "/api/clock/current", `{"instant": "2023-02-29"}`},
		{"missing instant", http.MethodPut, "/api/clock/current", `{}`},
		{"jump too far", http.MethodPost, "/api/clock/jump", `{"seconds": 1e30}`},
		{"malformed body", http.MethodPost, "/api/clock/jump", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := do(t, s, tt.method, tt.target, tt.body); code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400 (%v)", code, body)
			}
		})
	}

	if _, body := do(t, s, http.MethodGet, "/api/clock", ""); body["speed"] != 1.0 {
		t.Errorf("rejected commands changed the clock: %v", body)
	}
}

func TestGetFrame(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	code, body := do(t, s, http.MethodGet, "/api/frame", "")
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	bodies, _ := body["bodies"].([]interface{})
	if len(bodies) != 3 {
		t.Errorf("bodies = %v", body["bodies"])
	}
}

func TestGetEclipses(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	code, body := do(t, s, http.MethodGet, "/api/eclipses?start=2024-01-01&end=2024-12-31", "")
	if code != http.StatusOK {
		t.Fatalf("code = %d (%v)", code, body)
	}
	eclipses, _ := body["eclipses"].([]interface{})
	if len(eclipses) != 2 {
		t.Fatalf("eclipses = %v, want 2 in 2024", body["eclipses"])
	}
	first := eclipses[0].(map[string]interface{})
	if at, _ := first["at"].(string); !strings.HasPrefix(at, "2024-04-08") {
		t.Errorf("first eclipse at %v, want 2024-04-08", first["at"])
	}

	for _, target := range []string{
		"/api/eclipses?start=2000-01-01&end=2030-01-01",
		"/api/eclipses?step=10s",
		"/api/eclipses?step=soon",
		"/api/eclipses?start=2024-01-01&end=2023-01-01",
	} {
		if code, _ := do(t, s, http.MethodGet, target, ""); code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", target, code)
		}
	}
}

func TestGetCheck(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	code, body := do(t, s, http.MethodGet, "/api/check?t=2024-06-21T12:00:00Z", "")
	if code != http.StatusOK || body["ok"] != true {
		t.Errorf("check = %d %v", code, body)
	}

	code, body = do(t, s, http.MethodGet, "/api/check?t=2024-01-01&end=2024-01-15&step=12h", "")
	if code != http.StatusOK || body["samples"] != 29.0 || body["failures"] != 0.0 {
		t.Errorf("sweep = %d %v", code, body)
	}
}

func TestGetSky(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	code, body := do(t, s, http.MethodGet, "/api/sky?lat=51.48&lon=0&t=2024-06-21T12:00:00Z", "")
	if code != http.StatusOK {
		t.Fatalf("code = %d (%v)", code, body)
	}
	sun := body["sun"].(map[string]interface{})
	if el := sun["el_deg"].(float64); el < 55 || el > 65 {
		t.Errorf("midsummer noon Sun elevation at Greenwich = %.1f°, want ~62°", el)
	}

	if code, _ := do(t, s, http.MethodGet, "/api/sky?lat=100&lon=0", ""); code != http.StatusBadRequest {
		t.Errorf("lat=100 code = %d, want 400", code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimit: 1, RateBurst: 2, StreamHz: 10})

	codes := make([]int, 3)
	for i := range codes {
		codes[i], _ = do(t, s, http.MethodGet, "/api/clock", "")
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// /metrics is not rate limited.
	if code, _ := do(t, s, http.MethodGet, "/metrics", ""); code != http.StatusOK {
		t.Errorf("/metrics code = %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	do(t, s, http.MethodGet, "/api/clock", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	out := w.Body.String()
	for _, want := range []string{
		`orrery_http_requests_total{code="200",route="/api/clock"} 1`,
		"orrery_ticks_total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Config{CORSOrigins: []string{"http://localhost:4200"}})

	req := httptest.NewRequest(http.MethodGet, "/api/clock", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestStream(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("status = %d, want 101", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var frame map[string]interface{}
	if err := json.NewDecoder(bytes.NewReader(msg)).Decode(&frame); err != nil {
		t.Fatalf("frame is not JSON: %v", err)
	}
	if frame["timestamp"] != "2023-04-20T03:16:44Z" {
		t.Errorf("timestamp = %v", frame["timestamp"])
	}

	// A command produces a fresh frame on the stream.
	time.Sleep(150 * time.Millisecond)
	if code, _ := do(t, s, http.MethodPut, "/api/clock/current", `{"instant": "2000-01-01"}`); code != http.StatusOK {
		t.Fatalf("PUT current code = %d", code)
	}
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("second ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), `"timestamp":"2000-01-01T00:00:00Z"`) {
		t.Errorf("second frame = %.120s...", msg)
	}
}
