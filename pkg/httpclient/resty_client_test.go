package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestStreamSendsUserAgentAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "linkfeed-test/1.0" {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %q", got)
		}
		_, _ = io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	client := NewRestyClient(Options{Timeout: 2 * time.Second, UserAgent: "linkfeed-test/1.0"})
	resp, err := client.Stream(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode())
	}
	body, err := io.ReadAll(resp.Body())
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "<html></html>" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestStreamReportsNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(Options{}).Stream(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() != http.StatusGone {
		t.Fatalf("expected 410, got %d", resp.StatusCode())
	}
	if !strings.Contains(resp.Status(), "Gone") {
		t.Fatalf("expected reason phrase in status, got %q", resp.Status())
	}
}

func TestStreamStopsRedirectLoops(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	_, err := NewRestyClient(Options{MaxRedirects: 3}).Stream(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatalf("expected redirect limit error")
	}
	if n := hits.Load(); n > 4 {
		t.Fatalf("followed too many redirects: %d requests", n)
	}
}

func TestStreamRejectsOversizedHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Huge", strings.Repeat("a", 8192))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := NewRestyClient(Options{}).Stream(context.Background(), srv.URL, nil); err == nil {
		t.Fatalf("expected error for response headers over the limit")
	}
}
