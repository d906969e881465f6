package engine

import (
	"context"
	"fmt"

	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/feed"
	"github.com/pders01/ytsweep/internal/paginate"
	"github.com/pders01/ytsweep/internal/youtube"
)

// VideoSource enumerates the videos of a channel, one page at a time.
type VideoSource interface {
	Videos(ctx context.Context, channelID string) (*paginate.Paginator[youtube.Video], error)
	Name() string
}

// SourceFromConfig picks the source named by search.video_source.
func SourceFromConfig(cfg *config.Config, api API) VideoSource {
	if cfg.Search.VideoSource == config.VideoSourceFeed {
		return FeedSource{Fetcher: feed.NewFetcher(cfg)}
	}
	return UploadsSource{API: api}
}

// UploadsSource walks the channel's uploads playlist: every video, one
// quota unit per page.
type UploadsSource struct {
	API API
}

func (UploadsSource) Name() string { return config.VideoSourceUploads }

func (s UploadsSource) Videos(ctx context.Context, channelID string) (*paginate.Paginator[youtube.Video], error) {
	playlistID, err := s.API.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, resolutionErr(err)
	}
	return paginate.New(func(ctx context.Context, cursor string) (paginate.Page[youtube.Video], error) {
		return s.API.PlaylistVideos(ctx, playlistID, cursor)
	}), nil
}

// FeedSource lists the recent uploads from the public channel feed. It is
// free but only sees the latest few videos.
type FeedSource struct {
	Fetcher *feed.Fetcher
}

func (FeedSource) Name() string { return config.VideoSourceFeed }

func (s FeedSource) Videos(ctx context.Context, channelID string) (*paginate.Paginator[youtube.Video], error) {
	videos, err := s.Fetcher.ChannelVideos(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("reading channel feed: %w", err)
	}
	return paginate.New(func(context.Context, string) (paginate.Page[youtube.Video], error) {
		return paginate.Page[youtube.Video]{Items: videos}, nil
	}), nil
}
