package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	journeyoutadapter "shiftbuddy/internal/modules/journey/adapter/out"
	journeyout "shiftbuddy/internal/modules/journey/port/out"
	apperrors "shiftbuddy/internal/platform/errors"
	"shiftbuddy/internal/platform/retry"
)

func TestHTTPSlotTrackerFetchEnvelope(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/slots/slot%2F7/track" && r.URL.Path != "/v1/slots/slot/7/track" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"step":"start_journey","status":"completed","updated_at":"2026-03-02T08:00:00Z"},{"step":"reach","status":"pending"}]}`))
	}))
	defer srv.Close()

	tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL+"/v1/", "secret", time.Second, retry.DefaultPolicy(), srv.Client())
	entries, err := tracker.FetchTrack(context.Background(), "slot/7")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 2 || !entries[0].Completed() || entries[1].Completed() {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to decode")
	}
}

func TestHTTPSlotTrackerFetchBareArray(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(` [{"status":"completed"},{"status":"completed"},{"status":"pending"}]`))
	}))
	defer srv.Close()

	tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL, "", time.Second, retry.DefaultPolicy(), srv.Client())
	entries, err := tracker.FetchTrack(context.Background(), "slot-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestHTTPSlotTrackerFailuresMapToFetchError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "status", handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{name: "decode", handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"data":`)) }},
		{name: "no data", handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"success":false}`)) }},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(tc.handler)
		tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL, "", time.Second, retry.DefaultPolicy(), srv.Client())
		_, err := tracker.FetchTrack(context.Background(), "slot-1")
		srv.Close()
		if !errors.Is(err, apperrors.ErrSlotTrackFetch) {
			t.Fatalf("%s: expected ErrSlotTrackFetch, got %v", tc.name, err)
		}
	}

	unconfigured := journeyoutadapter.NewHTTPSlotTracker("", "", time.Second, retry.DefaultPolicy(), nil)
	if _, err := unconfigured.FetchTrack(context.Background(), "slot-1"); !errors.Is(err, apperrors.ErrSlotTrackFetch) {
		t.Fatalf("expected fetch error without api url, got %v", err)
	}
}

func TestHTTPSlotTrackerRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	policy := retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2)
	tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL, "", time.Second, policy, srv.Client())
	if _, err := tracker.FetchTrack(context.Background(), "slot-1"); err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestHTTPSlotTrackerDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	policy := retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 3)
	tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL, "", time.Second, policy, srv.Client())
	if _, err := tracker.FetchTrack(context.Background(), "slot-1"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestHTTPSlotTrackerUnknownSlotIsNotFound(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	policy := retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 3)
	tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL, "", time.Second, policy, srv.Client())
	_, err := tracker.FetchTrack(context.Background(), "slot-404")
	if !errors.Is(err, apperrors.ErrSlotTrackFetch) || !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected fetch error wrapping not found, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}

	err = tracker.UpdateTrack(context.Background(), "slot-404", journeyout.TrackUpdate{Step: "reach", Status: "completed"})
	if !errors.Is(err, apperrors.ErrSlotTrackUpdate) || !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected update error wrapping not found, got %v", err)
	}
}

func TestHTTPSlotTrackerUpdatePostsBody(t *testing.T) {
	t.Parallel()
	got := make(chan journeyout.TrackUpdate, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var body journeyout.TrackUpdate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		got <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tracker := journeyoutadapter.NewHTTPSlotTracker(srv.URL, "", time.Second, retry.DefaultPolicy(), srv.Client())
	update := journeyout.TrackUpdate{Step: "end", Status: "completed", Rating: 4, Comment: "smooth"}
	if err := tracker.UpdateTrack(context.Background(), "slot-1", update); err != nil {
		t.Fatalf("update: %v", err)
	}
	if body := <-got; body != update {
		t.Fatalf("unexpected body %+v", body)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer failing.Close()
	tracker = journeyoutadapter.NewHTTPSlotTracker(failing.URL, "", time.Second, retry.DefaultPolicy(), failing.Client())
	if err := tracker.UpdateTrack(context.Background(), "slot-1", update); !errors.Is(err, apperrors.ErrSlotTrackUpdate) {
		t.Fatalf("expected ErrSlotTrackUpdate, got %v", err)
	}
}
