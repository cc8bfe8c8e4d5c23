package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/makomweb/request-batcher/pkg/batch"
)

func testRequest(t *testing.T, items ...string) batch.Request[string] {
	t.Helper()
	id, err := batch.ParseID("6f1c1f3e-6a55-4d4e-9a36-1f1f0b2d7c11")
	if err != nil {
		t.Fatalf("ParseID() error = %v", err)
	}
	return batch.NewRequest(id, items)
}

func TestHTTPSink_Success(t *testing.T) {
	var got payload
	var auth, contentType string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("accepted"))
	}))
	defer ts.Close()

	s := NewHTTP(ts.Client(), HTTPConfig{URL: ts.URL, AuthKey: "secret"}, nil)

	result, err := s.Process(context.Background(), testRequest(t, "one", "two"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result != "accepted" {
		t.Errorf("Process() = %q, want accepted", result)
	}
	if got.BatchID != "6f1c1f3e-6a55-4d4e-9a36-1f1f0b2d7c11" {
		t.Errorf("batch_id = %q", got.BatchID)
	}
	if strings.Join(got.Items, ",") != "one,two" {
		t.Errorf("items = %q", got.Items)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
}

func TestHTTPSink_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	s := NewHTTP(ts.Client(), HTTPConfig{
		URL:            ts.URL,
		Retries:        3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, nil)

	result, err := s.Process(context.Background(), testRequest(t, "x"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result != "ok" {
		t.Errorf("Process() = %q, want ok", result)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPSink_GivesUp(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad batch", http.StatusBadRequest)
	}))
	defer ts.Close()

	s := NewHTTP(ts.Client(), HTTPConfig{
		URL:            ts.URL,
		Retries:        1,
		InitialBackoff: time.Millisecond,
	}, nil)

	_, err := s.Process(context.Background(), testRequest(t, "x"))
	if err == nil {
		t.Fatal("Process() expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "bad batch") {
		t.Errorf("Process() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPSink_CanceledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	s := NewHTTP(ts.Client(), HTTPConfig{
		URL:            ts.URL,
		Retries:        5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Process(ctx, testRequest(t, "x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Process() error = %v, want context.DeadlineExceeded", err)
	}
}

// A failed delivery becomes a Failure response, not a faulted execution.
func TestHTTPSink_WithBatcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	s := NewHTTP(ts.Client(), HTTPConfig{URL: ts.URL}, nil)
	b, err := batch.NewSized(1, s.Process)
	if err != nil {
		t.Fatalf("NewSized() error = %v", err)
	}

	id, _ := b.Add("x")
	exec, err := b.Query(id)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := exec.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if resp.IsSuccess() {
		t.Fatal("response is Success, want Failure")
	}
	if !strings.Contains(resp.Err().Error(), "500") {
		t.Errorf("cause = %v", resp.Err())
	}
	if exec.Status() != batch.StatusCompleted {
		t.Errorf("status = %v, want Completed", exec.Status())
	}
}
