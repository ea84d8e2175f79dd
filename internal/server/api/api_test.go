package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/vigil/internal/monitor"
	"github.com/ayusman/vigil/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

type fakeMonitor struct {
	status monitor.Status
	err    error
	calls  []bool
}

func (m *fakeMonitor) Status() monitor.Status { return m.status }

func (m *fakeMonitor) SetEnabled(enabled bool) error {
	m.calls = append(m.calls, enabled)
	if m.err != nil {
		return m.err
	}
	m.status.Enabled = enabled
	return nil
}

func TestMonitorHandler_Status(t *testing.T) {
	m := &fakeMonitor{status: monitor.Status{
		SessionID:    "s1",
		Enabled:      true,
		Alarming:     true,
		Cause:        monitor.CauseEyes,
		ClosedFrames: 17,
		Text:         "Phone: No | Eyes Closed: Yes",
	}}
	h := NewMonitorHandler(m)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got monitor.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.SessionID != "s1" || !got.Alarming || got.Cause != "eyes" || got.ClosedFrames != 17 {
		t.Errorf("unexpected status %+v", got)
	}

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestMonitorHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCalls  int
	}{
		{name: "pause", body: `{"enabled": false}`, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "resume", body: `{"enabled": true}`, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing field", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "failure", body: `{"enabled": true}`, err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMonitor{err: tt.err}
			h := NewMonitorHandler(m)

			req := httptest.NewRequest(http.MethodPut, "/api/monitor", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(m.calls) != tt.wantCalls {
				t.Errorf("SetEnabled called %d times, want %d", len(m.calls), tt.wantCalls)
			}
		})
	}

	t.Run("response reflects new state", func(t *testing.T) {
		m := &fakeMonitor{status: monitor.Status{Enabled: true}}
		h := NewMonitorHandler(m)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/monitor", bytes.NewBufferString(`{"enabled": false}`)))

		var got monitorResponse
		json.NewDecoder(rec.Body).Decode(&got)
		if got.Enabled {
			t.Error("expected enabled=false after pause")
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		h := NewMonitorHandler(&fakeMonitor{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/monitor", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func seedSession(t *testing.T, s *store.Store, id string, started time.Time) {
	t.Helper()
	if err := s.Sessions().Create(&store.Session{ID: id, Source: "0", StartedAt: started}); err != nil {
		t.Fatalf("create session: %v", err)
	}
}

func TestSessionHandler(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	seedSession(t, s, "old", now.Add(-time.Hour))
	seedSession(t, s, "new", now)

	for _, e := range []*store.AlarmEvent{
		{SessionID: "new", Kind: store.KindStart, Cause: "eyes", ClosedFrames: 15, Frame: 15},
		{SessionID: "new", Kind: store.KindStop, Frame: 40},
	} {
		if err := s.Events().Create(e); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	h := NewSessionHandler(s)

	t.Run("list newest first", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

		var got listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got.Sessions) != 2 || got.Sessions[0].ID != "new" {
			t.Fatalf("unexpected sessions %+v", got.Sessions)
		}
		if got.Sessions[0].Alarms != 1 {
			t.Errorf("alarms = %d, want 1", got.Sessions[0].Alarms)
		}
	})

	t.Run("list with limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions?limit=1", nil))

		var got listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&got)
		if len(got.Sessions) != 1 {
			t.Errorf("got %d sessions, want 1", len(got.Sessions))
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions?limit=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/old", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var got store.Session
		json.NewDecoder(rec.Body).Decode(&got)
		if got.ID != "old" {
			t.Errorf("id = %q, want old", got.ID)
		}
	})

	t.Run("events", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/new/events", nil))

		var got listEventsResponse
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got.Events) != 2 || got.Events[0].Kind != store.KindStart || got.Events[1].Kind != store.KindStop {
			t.Errorf("unexpected events %+v", got.Events)
		}
	})

	t.Run("events of empty session is empty array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/old/events", nil))
		if body := rec.Body.String(); body != "{\"events\":[]}\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("not found", func(t *testing.T) {
		for _, path := range []string{"/api/sessions/missing", "/api/sessions/missing/events", "/api/sessions/new/other"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: status = %d, want %d", path, rec.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/old", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/old", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestEventsHandler(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "s1", time.Now())
	for i := 0; i < 3; i++ {
		kind := store.KindStart
		if i%2 == 1 {
			kind = store.KindStop
		}
		if err := s.Events().Create(&store.AlarmEvent{SessionID: "s1", Kind: kind, Frame: i}); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	h := NewEventsHandler(s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?limit=2", nil))

	var got listEventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Events) != 2 || got.Events[0].Frame != 2 {
		t.Errorf("expected the two newest events, got %+v", got.Events)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
