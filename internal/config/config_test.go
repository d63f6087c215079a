package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"
)

const (
	testPrivateToken = "TestTestTestTestTestTestTest1234"
	testFeedToken    = "FeedFeedFeedFeedFeedFeedFeedFeed"
)

func setTokens(t *testing.T) {
	t.Helper()
	t.Setenv("LINKFEED_PRIVATE_TOKEN", testPrivateToken)
	t.Setenv("LINKFEED_FEED_TOKEN", testFeedToken)
}

func TestLoadDefaults(t *testing.T) {
	setTokens(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &Config{
		PrivateToken:        testPrivateToken,
		FeedToken:           testFeedToken,
		Address:             DefaultAddress,
		Port:                DefaultPort,
		LogLevel:            "info",
		FetchTimeoutSeconds: 30,
		FetchTimeout:        30 * time.Second,
		TrimMinEntries:      50,
		TrimAgeDays:         30,
		TrimAge:             30 * 24 * time.Hour,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8001" {
		t.Fatalf("ListenAddr = %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	setTokens(t)
	t.Setenv("LINKFEED_ADDRESS", "127.0.0.1")
	t.Setenv("LINKFEED_PORT", "9000")
	t.Setenv("LINKFEED_LOG_LEVEL", "debug")
	t.Setenv("LINKFEED_TRIM_MIN_ENTRIES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:9000" || cfg.LogLevel != "debug" || cfg.TrimMinEntries != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name    string
		private string
		feed    string
		wantErr string
	}{
		{name: "missing private", private: "", feed: testFeedToken, wantErr: "LINKFEED_PRIVATE_TOKEN is not set"},
		{name: "short private", private: "short", feed: testFeedToken, wantErr: "LINKFEED_PRIVATE_TOKEN is too short"},
		{name: "short feed", private: testPrivateToken, feed: "tiny", wantErr: "LINKFEED_FEED_TOKEN is too short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINKFEED_PRIVATE_TOKEN", tt.private)
			t.Setenv("LINKFEED_FEED_TOKEN", tt.feed)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	setTokens(t)
	t.Setenv("LINKFEED_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out of range port")
	}
}

func TestMarshalLogObjectOmitsTokens(t *testing.T) {
	setTokens(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	enc := zapcore.NewMapObjectEncoder()
	if err := cfg.MarshalLogObject(enc); err != nil {
		t.Fatalf("MarshalLogObject: %v", err)
	}
	for key, val := range enc.Fields {
		if s, ok := val.(string); ok && (s == testPrivateToken || s == testFeedToken) {
			t.Fatalf("token leaked in field %q", key)
		}
	}
	if enc.Fields["port"] != 8001 {
		t.Fatalf("expected port field, got %v", enc.Fields)
	}
}
