package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pders01/ytsweep/internal/config"
)

func TestFetcher_ChannelVideos(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectCount    int
		expectError    bool
	}{
		{
			name: "successful fetch",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/feeds/videos.xml" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("channel_id"); got != "UC-test-channel" {
					t.Errorf("expected channel_id UC-test-channel, got %s", got)
				}
				if ua := r.Header.Get("User-Agent"); ua != "ytsweep-test/1.0" {
					t.Errorf("expected User-Agent ytsweep-test/1.0, got %s", ua)
				}
				w.Header().Set("Content-Type", "application/atom+xml")
				w.Write([]byte(channelFeed))
			},
			expectCount: 2,
		},
		{
			name: "unknown channel",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectError: true,
		},
		{
			name: "server error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			cfg := config.TestConfig()
			cfg.Search.FeedBaseURL = server.URL
			fetcher := NewFetcher(cfg)

			videos, err := fetcher.ChannelVideos(context.Background(), "UC-test-channel")
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(videos) != tt.expectCount {
				t.Errorf("expected %d videos, got %d", tt.expectCount, len(videos))
			}
		})
	}
}

func TestFetcher_FeedURL(t *testing.T) {
	f := NewFetcher(nil)
	want := "https://www.youtube.com/feeds/videos.xml?channel_id=UC123"
	if got := f.FeedURL("UC123"); got != want {
		t.Errorf("FeedURL() = %s, want %s", got, want)
	}
}

func TestFetcher_HonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	cfg := config.TestConfig()
	cfg.Search.FeedBaseURL = server.URL
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFetcher(cfg).ChannelVideos(ctx, "UC-test-channel"); err == nil {
		t.Error("expected error for canceled context")
	}
}
