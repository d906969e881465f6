package comments

import (
	"context"

	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/paginate"
	"github.com/pders01/ytsweep/internal/youtube"
)

// Source lists comment threads and replies. *youtube.Client implements it.
type Source interface {
	CommentThreads(ctx context.Context, videoID, cursor string) (paginate.Page[youtube.Thread], error)
	Replies(ctx context.Context, parentID, cursor string) (paginate.Page[youtube.Comment], error)
}

// Walker traverses the comment tree of one video and keeps the matches.
// Only the current page of threads or replies is held in memory.
type Walker struct {
	src Source
	log *debuglog.FieldLogger
}

func NewWalker(src Source) *Walker {
	return &Walker{
		src: src,
		log: debuglog.WithFields(map[string]any{"component": "walker"}),
	}
}

// Walk returns the matches on video in page order: each thread's top-level
// comment followed by its matching replies. Replies are fetched whenever the
// thread reports any, whether or not the top-level comment matched.
//
// Fetch errors are returned as-is together with the matches gathered before
// the failure.
func (w *Walker) Walk(ctx context.Context, video youtube.Video, filter Filter) ([]Comment, error) {
	var matches []Comment

	threads := paginate.New(func(ctx context.Context, cursor string) (paginate.Page[youtube.Thread], error) {
		return w.src.CommentThreads(ctx, video.ID, cursor)
	})

	for page, err := range threads.All(ctx) {
		if err != nil {
			return matches, err
		}
		for _, th := range page {
			if filter.Match(th.TopLevel.Text) {
				matches = append(matches, fromTopLevel(video, th))
			}
			if th.TotalReplyCount == 0 {
				continue
			}
			replies, err := w.walkReplies(ctx, video, th.ID, filter)
			matches = append(matches, replies...)
			if err != nil {
				return matches, err
			}
		}
	}

	w.log.Debugf("video %s: %d match(es) over %d thread page(s)", video.ID, len(matches), threads.Pages())
	return matches, nil
}

func (w *Walker) walkReplies(ctx context.Context, video youtube.Video, threadID string, filter Filter) ([]Comment, error) {
	var matches []Comment
	err := paginate.Each(ctx,
		func(ctx context.Context, cursor string) (paginate.Page[youtube.Comment], error) {
			return w.src.Replies(ctx, threadID, cursor)
		},
		func(replies []youtube.Comment) error {
			for _, r := range replies {
				if filter.Match(r.Text) {
					matches = append(matches, fromReply(video, threadID, r))
				}
			}
			return nil
		})
	return matches, err
}

func fromTopLevel(video youtube.Video, th youtube.Thread) Comment {
	return Comment{
		ID:          th.TopLevel.ID,
		Text:        th.TopLevel.Text,
		Author:      th.TopLevel.Author,
		PublishedAt: th.TopLevel.PublishedAt,
		VideoID:     video.ID,
		VideoTitle:  video.Title,
		ReplyCount:  th.TotalReplyCount,
	}
}

func fromReply(video youtube.Video, threadID string, r youtube.Comment) Comment {
	return Comment{
		ID:          r.ID,
		Text:        r.Text,
		Author:      r.Author,
		PublishedAt: r.PublishedAt,
		IsReply:     true,
		ParentID:    threadID,
		VideoID:     video.ID,
		VideoTitle:  video.Title,
	}
}
