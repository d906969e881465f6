package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/youtube"
	"golang.org/x/sync/errgroup"
)

// DeleteMany deletes every id, at most delete.concurrency at a time. One
// failing id never stops the others; each outcome is published as it
// arrives and collected into the report. Duplicate and blank ids are
// ignored.
//
// The returned error is non-nil only when the batch could not start or no
// credential was available; per-id failures are in the report.
func (e *Engine) DeleteMany(ctx context.Context, ids []string) (comments.DeleteReport, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return comments.DeleteReport{}, ErrEmptyRequest
	}

	meta := events.NewMeta(events.OpDelete)
	err := e.guard.TryStart(StateDeleting, func() {
		e.session.begin(meta, false)
	})
	if err != nil {
		return comments.DeleteReport{}, err
	}

	log := e.log.With("operation", meta.OperationID)
	e.pub.Publish(events.Started{Meta: meta})
	e.status(meta, "Deleting %d comment(s)", len(ids))

	if err := e.ensureCredential(ctx); err != nil {
		e.guard.Finish(StateDeleting)
		e.pub.Publish(events.Failed{Meta: meta, Err: err})
		return comments.DeleteReport{Requested: len(ids)}, err
	}

	agg := &deleteAggregator{pub: e.pub, meta: meta, total: len(ids), failed: make(map[string]string)}
	limit := e.cfg.Delete.Concurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			err := e.api.DeleteComment(ctx, id)
			if err != nil {
				log.Warnf("delete %s: %v", id, err)
			}
			agg.record(id, err)
			return nil
		})
	}
	_ = g.Wait()

	report := agg.report(ids)
	e.guard.Finish(StateDeleting)
	log.Infof("deleted %d of %d comment(s)", report.Succeeded, report.Requested)
	e.pub.Publish(events.DeleteCompleted{Meta: meta, Report: report})
	return report, nil
}

// deleteAggregator collects outcomes from concurrent attempts.
type deleteAggregator struct {
	pub   events.Publisher
	meta  events.Meta
	total int

	mu        sync.Mutex
	succeeded map[string]bool
	failed    map[string]string
}

// record stores one outcome and publishes the running counts. Publishing
// happens under the lock so counts never go backwards between events.
func (a *deleteAggregator) record(id string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ev := events.DeleteProgress{Meta: a.meta, ID: id, OK: err == nil, Total: a.total}
	if err != nil {
		ev.Reason = youtube.Reason(err)
		a.failed[id] = ev.Reason
	} else {
		if a.succeeded == nil {
			a.succeeded = make(map[string]bool)
		}
		a.succeeded[id] = true
	}
	ev.Succeeded = len(a.succeeded)
	ev.Failed = len(a.failed)
	a.pub.Publish(ev)
}

// report lists deleted ids and failures in request order.
func (a *deleteAggregator) report(ids []string) comments.DeleteReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}

	r := comments.DeleteReport{Requested: len(ids), Succeeded: len(a.succeeded)}
	for _, id := range ids {
		if a.succeeded[id] {
			r.Deleted = append(r.Deleted, id)
		}
	}
	for id, reason := range a.failed {
		r.Failed = append(r.Failed, comments.DeleteFailure{ID: id, Reason: reason})
	}
	sort.Slice(r.Failed, func(i, j int) bool { return pos[r.Failed[i].ID] < pos[r.Failed[j].ID] })
	return r
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
