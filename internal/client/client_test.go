package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProgressRequestShape(t *testing.T) {
	var gotPath, gotTokens string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTokens = r.URL.Query().Get("tokens")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"progress": []int{50, -1},
			"metrics": []map[string]int{
				{"geometryCount": 3, "propertyCount": 12},
				{"geometryCount": 0, "propertyCount": 0},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, 5, 3, 100, 1000, nil)

	tokens := []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	res, err := c.Progress(context.Background(), tokens)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}

	if gotPath != "/progress" {
		t.Errorf("path = %q, want /progress", gotPath)
	}
	// Tokens travel concatenated, not comma-separated
	if gotTokens != tokens[0]+tokens[1] {
		t.Errorf("tokens query = %q", gotTokens)
	}
	if len(res.Progress) != 2 || res.Progress[0] != 50 || res.Progress[1] != -1 {
		t.Errorf("progress = %v", res.Progress)
	}
	if len(res.Metrics) != 2 || res.Metrics[0].PropertyCount != 12 {
		t.Errorf("metrics = %v", res.Metrics)
	}
}

func TestProgressIsNeverRetried(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	timings := NewTimings()
	c := New(server.URL, 5, 3, 10, 100, timings)

	_, err := c.Progress(context.Background(), []string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	if err == nil {
		t.Fatal("Progress() expected error for 503, got nil")
	}
	if attempts != 1 {
		t.Errorf("Progress() made %d attempts, want exactly 1", attempts)
	}
	if timings.ProgressFailures != 1 {
		t.Errorf("ProgressFailures = %d, want 1", timings.ProgressFailures)
	}
}

func TestSummaryRetryAndBackoff(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < maxAttempts {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"statuses": map[string]string{"syntax": "v", "schema": "v"},
			"date":     "2026-08-29",
		})
	}))
	defer server.Close()

	timings := NewTimings()
	c := New(server.URL, 5, 3, 50, 1000, timings)

	start := time.Now()
	sum, err := c.Summary(context.Background(), "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if attempts != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, attempts)
	}
	if sum.Statuses.Syntax != "v" {
		t.Errorf("syntax status = %q, want v", sum.Statuses.Syntax)
	}
	if timings.Retries != 2 {
		t.Errorf("Retries = %d, want 2", timings.Retries)
	}
	// Backoff was applied between attempts
	if duration < 50*time.Millisecond {
		t.Errorf("expected backoff delay, duration was only %v", duration)
	}
}

func TestSummaryRetryAfterHeader(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer server.Close()

	c := New(server.URL, 5, 3, 10, 5000, nil)

	start := time.Now()
	_, err := c.Summary(context.Background(), "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if duration < 900*time.Millisecond {
		t.Errorf("expected Retry-After delay (~1s), duration was only %v", duration)
	}
}

func TestFatalErrorNotRetried(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no such file"})
	}))
	defer server.Close()

	c := New(server.URL, 5, 3, 10, 100, nil)

	_, err := c.Outcomes(context.Background(), "missing", "schema")
	if err == nil {
		t.Fatal("Outcomes() expected error for 404, got nil")
	}
	if attempts != 1 {
		t.Errorf("4xx was retried: %d attempts", attempts)
	}

	httpErr, ok := GetHTTPError(err)
	if !ok {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 404 {
		t.Errorf("status = %d, want 404", httpErr.StatusCode)
	}
}

func TestOutcomesRequestShape(t *testing.T) {
	var gotPath, gotCategory string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCategory = r.URL.Query().Get("category")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"severity": 4, "title": "Schema version", "instance_id": 12},
			},
			"counts": map[string]int{"Schema version": 1},
			"instances": map[string]map[string]string{
				"12": {"guid": "3cUkl32yn9qRSPvBJVyWYp", "type": "IfcProject"},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, 5, 0, 10, 100, nil)

	doc, err := c.Outcomes(context.Background(), "file-7", "schema")
	if err != nil {
		t.Fatalf("Outcomes() error = %v", err)
	}
	if gotPath != "/outcomes/file-7" {
		t.Errorf("path = %q", gotPath)
	}
	if gotCategory != "schema" {
		t.Errorf("category = %q", gotCategory)
	}
	if len(doc.Results) != 1 || doc.Results[0].Title != "Schema version" {
		t.Errorf("results = %+v", doc.Results)
	}
	if doc.Counts["Schema version"] != 1 {
		t.Errorf("counts = %v", doc.Counts)
	}
	id := int64(12)
	guid, typ := doc.Instances.Resolve(&id)
	if guid != "3cUkl32yn9qRSPvBJVyWYp" || typ != "IfcProject" {
		t.Errorf("Resolve(12) = %q, %q", guid, typ)
	}
}

func TestContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.URL, 5, 5, 5000, 10000, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Summary(ctx, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if err == nil {
		t.Fatal("expected error after cancel")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancel did not interrupt the backoff wait")
	}
}

func TestMalformedJSONIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	c := New(server.URL, 5, 0, 10, 100, nil)

	if _, err := c.Progress(context.Background(), []string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}); err == nil {
		t.Error("Progress() expected decode error, got nil")
	}
}

func TestTimingsSnapshot(t *testing.T) {
	timings := NewTimings()
	timings.ObserveProgressHTTP(10 * time.Millisecond)
	timings.ObserveProgressHTTP(20 * time.Millisecond)
	timings.IncRetry()

	snap := timings.Snapshot()
	if snap["progressRequests"] != int64(2) {
		t.Errorf("progressRequests = %v, want 2", snap["progressRequests"])
	}
	if snap["progressAvg"] != "15.0ms" {
		t.Errorf("progressAvg = %v, want 15.0ms", snap["progressAvg"])
	}
	if snap["retries"] != int64(1) {
		t.Errorf("retries = %v, want 1", snap["retries"])
	}
}
