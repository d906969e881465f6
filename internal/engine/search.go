package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/youtube"
)

// SearchStats describes a finished search.
type SearchStats struct {
	Videos  int
	Skipped int
	Quota   int64
}

// Search walks every video of the signed-in channel and collects the
// comments and replies matching keyword but none of exclusions.
//
// Videos are processed one after another in playlist order. A failing
// video is reported with a VideoSkipped event and skipped, unless the
// failure is a spent quota (or search.abort_on_video_error is set), which
// ends the search. The result returned alongside an error holds whatever
// was collected before it.
func (e *Engine) Search(ctx context.Context, keyword string, exclusions []string) (*comments.Result, SearchStats, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, SearchStats{}, ErrEmptyKeyword
	}

	meta := events.NewMeta(events.OpSearch)
	err := e.guard.TryStart(StateSearching, func() {
		e.session.begin(meta, true)
	})
	if err != nil {
		return nil, SearchStats{}, err
	}

	run := &searchRun{
		e:      e,
		meta:   meta,
		filter: comments.NewFilter(keyword, exclusions),
		result: comments.NewResult(),
		log:    e.log.With("operation", meta.OperationID),
	}
	e.pub.Publish(events.Started{Meta: meta})
	e.pub.Publish(events.Quota{Meta: meta, Used: 0})
	run.log.Infof("search %q excluding %v via %s", keyword, exclusions, e.source.Name())

	err = run.execute(ctx)
	stats := SearchStats{Videos: run.done, Skipped: run.skipped, Quota: e.session.quotaUsed()}
	e.guard.Finish(StateSearching)

	if err != nil {
		run.log.Errorf("search failed after %d video(s): %v", run.done, err)
		e.pub.Publish(events.Failed{Meta: meta, Err: err, Partial: run.result.Clone()})
		return run.result, stats, err
	}

	run.log.Infof("search done: %d match(es) on %d video(s), %d skipped, quota %d",
		run.result.Count(), run.done, run.skipped, stats.Quota)
	e.pub.Publish(events.SearchCompleted{
		Meta:       meta,
		Keyword:    keyword,
		Exclusions: exclusions,
		Result:     run.result.Clone(),
		Quota:      stats.Quota,
		Videos:     stats.Videos,
		Skipped:    stats.Skipped,
	})
	return run.result, stats, nil
}

type searchRun struct {
	e      *Engine
	meta   events.Meta
	filter comments.Filter
	result *comments.Result
	log    *debuglog.FieldLogger

	done    int
	seen    int
	skipped int
}

func (r *searchRun) execute(ctx context.Context) error {
	e := r.e

	e.status(r.meta, "Checking authorization")
	if err := e.ensureCredential(ctx); err != nil {
		return err
	}

	e.status(r.meta, "Resolving channel")
	ch, err := e.api.MyChannel(ctx)
	if err != nil {
		return resolutionErr(err)
	}
	r.log.Debugf("channel %s (%s)", ch.Title, ch.ID)

	e.status(r.meta, "Listing videos of %s", ch.Title)
	videos, err := e.source.Videos(ctx, ch.ID)
	if err != nil {
		return err
	}

	for page, err := range videos.All(ctx) {
		if err != nil {
			return fmt.Errorf("listing videos: %w", err)
		}
		r.seen += len(page)
		r.progress()

		for _, v := range page {
			if err := r.walk(ctx, v); err != nil {
				return err
			}
		}
	}

	if r.seen == 0 {
		e.status(r.meta, "The channel has no videos")
	}
	return nil
}

// walk searches one video. It returns an error only when the search must
// stop. A skipped video contributes no matches; a video that stops the
// search keeps what was collected from it.
func (r *searchRun) walk(ctx context.Context, v youtube.Video) error {
	r.e.status(r.meta, "Searching %q (%d of %d)", v.Title, r.done+1, r.seen)

	matches, err := r.e.walker.Walk(ctx, v, r.filter)
	stop := err != nil && (youtube.IsQuotaExceeded(err) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) || r.e.cfg.Search.AbortOnVideoError)
	if err == nil || stop {
		r.result.Add(v.ID, v.Title, matches...)
	}
	r.done++
	r.progress()

	if err == nil {
		return nil
	}
	if stop {
		return fmt.Errorf("video %s: %w", v.ID, err)
	}

	r.skipped++
	r.log.Warnf("skipping video %s: %v", v.ID, err)
	r.e.pub.Publish(events.VideoSkipped{Meta: r.meta, VideoID: v.ID, VideoTitle: v.Title, Err: err})
	return nil
}

func (r *searchRun) progress() {
	r.e.pub.Publish(events.Progress{Meta: r.meta, Done: r.done, Total: r.seen})
}
