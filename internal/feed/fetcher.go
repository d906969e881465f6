// Package feed reads a channel's public Atom feed. The feed lists only the
// most recent uploads but costs no API quota.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/youtube"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	defaultUserAgent = "ytsweep/1.0 (comment sweeper; github.com/pders01/ytsweep)"
	timeout          = 30 * time.Second
	maxFeedSize      = 4 << 20
)

type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	parser    *Parser
	log       *debuglog.FieldLogger
}

func NewFetcher(cfg *config.Config) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		baseURL:   DefaultBaseURL,
		userAgent: defaultUserAgent,
		parser:    NewParser(),
		log:       debuglog.WithFields(map[string]any{"component": "feed"}),
	}
	if cfg != nil {
		if cfg.Search.FeedBaseURL != "" {
			f.baseURL = strings.TrimRight(cfg.Search.FeedBaseURL, "/")
		}
		if cfg.API.UserAgent != "" {
			f.userAgent = cfg.API.UserAgent
		}
		if cfg.API.HTTPTimeout > 0 {
			f.client.Timeout = cfg.API.HTTPTimeout
		}
	}
	return f
}

// FeedURL is the Atom feed address for channelID.
func (f *Fetcher) FeedURL(channelID string) string {
	return f.baseURL + "/feeds/videos.xml?" + url.Values{"channel_id": {channelID}}.Encode()
}

// ChannelVideos downloads and parses the feed of channelID, newest first.
func (f *Fetcher) ChannelVideos(ctx context.Context, channelID string) ([]youtube.Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.FeedURL(channelID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	videos, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, err
	}
	f.log.Debugf("feed for %s listed %d video(s)", channelID, len(videos))
	return videos, nil
}
