package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/ytsweep/internal/browser"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/engine"
	"github.com/pders01/ytsweep/internal/storage"
)

// waitForEvent delivers the next bus event as an eventMsg. The App
// re-issues it after every event; a closed channel ends the loop.
func (a *App) waitForEvent() tea.Cmd {
	ch := a.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

func (a *App) checkCredential() tea.Cmd {
	eng := a.engine
	if eng == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := eng.CurrentCredential(ctx)
		return credentialMsg{err: err}
	}
}

// rejected reports errors the engine returns without publishing any event.
// Everything else reaches the display through the bus.
func rejected(err error) bool {
	return errors.Is(err, engine.ErrOperationBusy) ||
		errors.Is(err, engine.ErrEmptyKeyword) ||
		errors.Is(err, engine.ErrEmptyRequest)
}

func (a *App) startSearch(keyword string, exclusions []string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.keyword = keyword
	a.exclusions = exclusions
	a.opStatus = ""
	a.done, a.total, a.skipped = 0, 0, 0
	a.view = ViewRunning
	a.clearStatus()

	eng := a.engine
	return func() tea.Msg {
		_, _, err := eng.Search(ctx, keyword, exclusions)
		if err != nil && rejected(err) {
			return rejectedMsg{err: err}
		}
		return nil
	}
}

func (a *App) startDelete(ids []string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.opStatus = ""
	a.deleteReport = comments.DeleteReport{}
	a.deleteFailed = 0
	a.deleteTotal = len(ids)
	a.view = ViewDeleting
	a.clearStatus()

	eng := a.engine
	return func() tea.Msg {
		_, err := eng.DeleteMany(ctx, ids)
		if err != nil && rejected(err) {
			return rejectedMsg{err: err}
		}
		return nil
	}
}

func (a *App) saveSearch() tea.Cmd {
	if a.result == nil {
		return func() tea.Msg { return savedMsg{err: errors.New(MsgNothingToSave)} }
	}
	saved := &storage.SavedSearch{
		Keyword:    a.keyword,
		Exclusions: a.exclusions,
		Result:     a.result.Clone(),
		Quota:      a.quota,
	}
	store := a.store
	return func() tea.Msg {
		if store == nil {
			return savedMsg{err: errors.New("no store configured")}
		}
		return savedMsg{err: wrapErr("saving search", store.SaveLastSearch(saved))}
	}
}

func (a *App) loadSearch() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if store == nil {
			return loadedMsg{err: errors.New(MsgNoSavedSearch)}
		}
		saved, err := store.LastSearch()
		if errors.Is(err, storage.ErrNotFound) {
			return loadedMsg{err: errors.New(MsgNoSavedSearch)}
		}
		if err != nil {
			return loadedMsg{err: wrapErr("loading search", err)}
		}
		return loadedMsg{saved: saved}
	}
}

// syncDeleted removes deleted comments from the saved search so a later
// load does not offer them again.
func (a *App) syncDeleted(ids []string) tea.Cmd {
	store := a.store
	if store == nil || len(ids) == 0 {
		return nil
	}
	ids = append([]string(nil), ids...)
	return func() tea.Msg {
		err := store.UpdateLastSearch(func(s *storage.SavedSearch) error {
			s.Result.Remove(ids...)
			return nil
		})
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return errorMsg{err: wrapErr("updating saved search", err)}
		}
		return nil
	}
}

func (a *App) openPermalink(c comments.Comment) tea.Cmd {
	opener := a.opener
	if opener == nil {
		return nil
	}
	url := browser.CommentURL(c.VideoID, c.ID)
	return func() tea.Msg {
		if err := opener.Open(url); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", url, err)}
		}
		return nil
	}
}

func (a *App) renderDetail(c comments.Comment) tea.Cmd {
	r, rendererErr := a.getRenderer()
	return func() tea.Msg {
		var content strings.Builder
		kind := "Comment"
		if c.IsReply {
			kind = "Reply"
		}
		fmt.Fprintf(&content, "# %s by %s\n\n", kind, c.Author)
		fmt.Fprintf(&content, "*On:* %s\n\n", c.VideoTitle)
		if !c.PublishedAt.IsZero() {
			fmt.Fprintf(&content, "*Published:* %s\n\n", c.PublishedAt.Format(time.RFC1123))
		}
		if c.IsReply && c.ParentID != "" {
			fmt.Fprintf(&content, "*In reply to:* `%s`\n\n", c.ParentID)
		}
		if c.ReplyCount > 0 {
			fmt.Fprintf(&content, "*Replies:* %d\n\n", c.ReplyCount)
		}
		fmt.Fprintf(&content, "[Open on YouTube](%s)\n\n---\n\n", browser.CommentURL(c.VideoID, c.ID))
		content.WriteString(c.Text)

		if rendererErr != nil {
			return detailRenderedMsg{content: "Error initializing renderer: " + rendererErr.Error()}
		}
		rendered, err := r.Render(content.String())
		if err != nil {
			return detailRenderedMsg{content: content.String()}
		}
		return detailRenderedMsg{content: rendered}
	}
}
