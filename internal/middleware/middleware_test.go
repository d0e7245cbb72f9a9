package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"player-cards/internal/constants"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var seen string
	h := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/playercards.v1.PlayerCards/GetCard", nil))

	id := rec.Header().Get(RequestIDHeader)
	if id == "" || id != seen {
		t.Fatalf("expected generated id %q to reach the handler, got %q", id, seen)
	}
	if !strings.Contains(buf.String(), `"request_id":"`+id+`"`) || !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("expected request id and status in logs, got %s", buf.String())
	}
}

func TestRequestIDKeepsIncoming(t *testing.T) {
	h := RequestID(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if !ok || time.Until(deadline) <= 0 || time.Until(deadline) > time.Minute {
		t.Fatalf("expected a deadline within a minute, got %v (set=%v)", deadline, ok)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler response to pass through, got %d", rec.Code)
	}
}

func TestRequestTimeoutCoversStages(t *testing.T) {
	stages := constants.ExternalAPITimeout + constants.MirrorTimeout + constants.RenderTimeout
	if constants.RequestTimeout <= stages {
		t.Fatalf("request timeout %s must exceed the stage total %s", constants.RequestTimeout, stages)
	}
}
