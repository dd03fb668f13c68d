package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchClients(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/clients/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"cl-1","name":"Ana Smith","email":"ana@example.com"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token", 5*time.Second)
	records, err := c.SearchClients(context.Background(), "ana smith")
	if err != nil {
		t.Fatalf("SearchClients failed: %v", err)
	}

	if gotQuery != "ana smith" {
		t.Errorf("server saw q=%q, want %q (query must be escaped, not mangled)", gotQuery, "ana smith")
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(records) != 1 || records[0].ID != "cl-1" || records[0].Name != "Ana Smith" {
		t.Errorf("records = %+v, want single Ana Smith", records)
	}
}

func TestListMatters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/matters/recent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "200" {
			t.Errorf("limit = %q, want 200", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"m-1","ref":"2026-CV-0142","title":"Smith v. Jones","client_name":"Ana Smith","status":"open","opened_at":"2026-08-01T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	matters, err := c.ListMatters(context.Background(), 200)
	if err != nil {
		t.Fatalf("ListMatters failed: %v", err)
	}
	if len(matters) != 1 {
		t.Fatalf("got %d matters, want 1", len(matters))
	}
	m := matters[0]
	if m.Ref != "2026-CV-0142" || m.ClientName != "Ana Smith" {
		t.Errorf("matter = %+v, wrong field mapping", m)
	}
	if m.CachedAt.IsZero() {
		t.Error("CachedAt not stamped")
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	_, err := c.SearchClients(context.Background(), "ana")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("5xx error = %v, want ErrUnavailable in chain", err)
	}
}

func TestClientErrorIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	_, err := c.SearchClients(context.Background(), "ana")
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Errorf("4xx should not map to ErrUnavailable: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, "", 5*time.Second)
	if _, err := c.SearchClients(ctx, "ana"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
