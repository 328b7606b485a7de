// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// gatherValue finds a metric family by name and returns the gauge value of
// the first metric matching the label filter (nil matches anything).
func gatherValue(t *testing.T, r *Recorder, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if metricMatches(m, labels) {
				return m.GetGauge().GetValue()
			}
		}
	}

	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func metricMatches(m *dto.Metric, labels map[string]string) bool {
	for k, want := range labels {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestObserveTable(t *testing.T) {
	r := NewRecorder()

	r.ObserveTable("songs", 71, 1500*time.Millisecond)
	r.ObserveTable("songplays", 6820, 4*time.Second)

	if got := gatherValue(t, r, "playlake_table_rows_written", map[string]string{"table": "songs"}); got != 71 {
		t.Errorf("songs rows = %v, want 71", got)
	}
	if got := gatherValue(t, r, "playlake_table_rows_written", map[string]string{"table": "songplays"}); got != 6820 {
		t.Errorf("songplays rows = %v, want 6820", got)
	}
	if got := gatherValue(t, r, "playlake_table_duration_seconds", map[string]string{"table": "songs"}); got != 1.5 {
		t.Errorf("songs duration = %v, want 1.5", got)
	}
}

func TestObserveJobSuccess(t *testing.T) {
	r := NewRecorder()

	completed := time.Date(2018, 11, 1, 21, 11, 13, 0, time.UTC)
	r.ObserveJobSuccess(90*time.Second, completed)

	if got := gatherValue(t, r, "playlake_job_duration_seconds", nil); got != 90 {
		t.Errorf("job duration = %v, want 90", got)
	}
	if got := gatherValue(t, r, "playlake_last_success_timestamp_seconds", nil); got != float64(completed.Unix()) {
		t.Errorf("last success = %v, want %v", got, completed.Unix())
	}
}

func TestPush(t *testing.T) {
	var (
		gotPath string
		gotBody bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotBody = req.ContentLength != 0
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObserveTable("users", 96, time.Second)

	if err := r.Push(srv.URL, "playlake"); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if !strings.Contains(gotPath, "/metrics/job/playlake") {
		t.Errorf("push path = %q, want job grouping path", gotPath)
	}
	if !gotBody {
		t.Error("push request carried no body")
	}
}

func TestPushFailures(t *testing.T) {
	r := NewRecorder()

	if err := r.Push("", "playlake"); err == nil {
		t.Error("Push() with empty URL should fail")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := r.Push(srv.URL, "playlake"); err == nil {
		t.Error("Push() against a failing gateway should return an error")
	}
}
