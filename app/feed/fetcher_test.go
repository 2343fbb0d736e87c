package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcher_Get(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusFound)
		case "/new":
			userAgent = r.Header.Get("User-Agent")
			w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, 0, "FlipNews-Test/1.0")

	data, finalURL, err := fetcher.Get(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected body 'hello', got: %s", data)
	}
	if finalURL.Path != "/new" {
		t.Errorf("Expected final URL after redirect, got: %s", finalURL)
	}
	if userAgent != "FlipNews-Test/1.0" {
		t.Errorf("Expected user agent to be sent, got: %s", userAgent)
	}

	if _, _, err := fetcher.Get(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("Expected error for 404 response")
	}
}

func TestFetcher_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	// One request every ten seconds; the second call cannot get a token in time
	fetcher := NewFetcher(5*time.Second, 0.1, "test")

	if _, _, err := fetcher.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected first request to succeed, got: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := fetcher.Get(ctx, server.URL)
	if err == nil {
		t.Fatal("Expected rate limited request to fail")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("Expected a deadline related error, got: %v", err)
	}
}
