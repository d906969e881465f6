package tui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/ytsweep/internal/auth"
	"github.com/pders01/ytsweep/internal/browser"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/engine"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/storage"
)

type fakeEngine struct {
	mu         sync.Mutex
	keywords   []string
	exclusions [][]string
	deleted    [][]string
	searchErr  error
	deleteErr  error
	credErr    error
}

func (f *fakeEngine) Search(_ context.Context, keyword string, exclusions []string) (*comments.Result, engine.SearchStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
	f.exclusions = append(f.exclusions, exclusions)
	return comments.NewResult(), engine.SearchStats{}, f.searchErr
}

func (f *fakeEngine) DeleteMany(_ context.Context, ids []string) (comments.DeleteReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids)
	return comments.DeleteReport{}, f.deleteErr
}

func (f *fakeEngine) CurrentCredential(context.Context) (auth.Credential, error) {
	if f.credErr != nil {
		return auth.Credential{}, f.credErr
	}
	return auth.Credential{AccessToken: "tok"}, nil
}

type recordingOpener struct {
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

func sampleResult() *comments.Result {
	r := comments.NewResult()
	r.Add("v1", "First video",
		comments.Comment{ID: "c1", Text: "great video", Author: "a", VideoID: "v1", VideoTitle: "First video"},
		comments.Comment{ID: "r1", Text: "great reply", Author: "b", IsReply: true, ParentID: "c1", VideoID: "v1", VideoTitle: "First video"},
	)
	r.Add("v2", "Second video", comments.Comment{ID: "c2", Text: "so great", Author: "c", VideoID: "v2", VideoTitle: "Second video"})
	return r
}

func newTestApp(t *testing.T) (*App, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	app := NewApp(config.TestConfig(), Deps{Engine: eng})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, eng
}

func press(t *testing.T, a *App, keys ...tea.KeyMsg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = a.Update(k)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// withResults puts the app in the state a completed search leaves behind.
func withResults(t *testing.T, a *App) {
	t.Helper()
	a.Update(eventMsg{event: events.SearchCompleted{
		Meta:    events.NewMeta(events.OpSearch),
		Keyword: "great",
		Result:  sampleResult(),
		Videos:  2,
		Quota:   7,
	}})
	require.Equal(t, ViewResults, a.view)
}

func TestNewAppStartsOnWelcome(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Equal(t, ViewResults, app.view)
	assert.Nil(t, app.result)
	assert.Contains(t, app.View(), "Press / to search")
}

func TestSearchFormStartsSearch(t *testing.T) {
	app, eng := newTestApp(t)

	press(t, app, runes("/"))
	require.Equal(t, ViewSearchForm, app.view)

	app.keywordInput.SetValue("  great  ")
	app.exclusionInput.SetValue("spam, scam")
	cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ViewRunning, app.view)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"great"}, eng.keywords)
	assert.Equal(t, []string{"spam", "scam"}, eng.exclusions[0])
}

func TestSearchFormRequiresKeyword(t *testing.T) {
	app, eng := newTestApp(t)
	press(t, app, runes("/"))

	cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewSearchForm, app.view)
	assert.Equal(t, StatusWarn, app.status.kind)
	assert.Empty(t, eng.keywords)
}

func TestSearchFormTypingDoesNotTriggerShortcuts(t *testing.T) {
	app, _ := newTestApp(t)
	press(t, app, runes("/"))
	press(t, app, runes("q"))

	assert.Equal(t, ViewSearchForm, app.view)
	assert.Equal(t, "q", app.keywordInput.Value(), "q must be typed, not quit")

	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, app.exclusionInput.Focused())
	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewResults, app.view)
}

func TestRejectedSearchReturnsToResults(t *testing.T) {
	app, eng := newTestApp(t)
	eng.searchErr = engine.ErrOperationBusy

	cmd := app.startSearch("great", nil)
	app.Update(cmd())

	assert.Equal(t, ViewResults, app.view)
	assert.Equal(t, StatusError, app.status.kind)
	assert.Contains(t, app.status.text, "already running")
}

func TestNonRejectionErrorsArriveAsEvents(t *testing.T) {
	app, eng := newTestApp(t)
	eng.searchErr = errors.New("quota exceeded")

	cmd := app.startSearch("great", nil)
	assert.Nil(t, cmd(), "the Failed event reports this error")
}

func TestProgressEventsUpdateRunningView(t *testing.T) {
	app, _ := newTestApp(t)
	app.startSearch("great", nil)
	meta := events.NewMeta(events.OpSearch)

	app.Update(eventMsg{event: events.Started{Meta: meta}})
	app.Update(eventMsg{event: events.Status{Meta: meta, Text: "Scanning First video"}})
	app.Update(eventMsg{event: events.Progress{Meta: meta, Done: 1, Total: 3}})
	app.Update(eventMsg{event: events.Quota{Meta: meta, Used: 5}})
	app.Update(eventMsg{event: events.VideoSkipped{Meta: meta, VideoID: "v9", VideoTitle: "Broken", Err: errors.New("comments disabled")}})

	assert.Equal(t, 1, app.done)
	assert.Equal(t, 3, app.total)
	assert.Equal(t, int64(5), app.quota)
	assert.Equal(t, 1, app.skipped)

	out := app.View()
	assert.Contains(t, out, "Scanning First video")
	assert.Contains(t, out, "1/3 videos")
}

func TestSearchCompletedShowsResults(t *testing.T) {
	app, _ := newTestApp(t)
	withResults(t, app)

	assert.Len(t, app.resultList.Items(), 3)
	assert.Equal(t, int64(7), app.quota)
	assert.Equal(t, StatusSuccess, app.status.kind)
	assert.Contains(t, app.status.text, "3 matches across 2 videos")
	assert.Nil(t, app.cancel)
}

func TestFailedSearchKeepsPartialResult(t *testing.T) {
	app, _ := newTestApp(t)
	app.startSearch("great", nil)

	partial := comments.NewResult()
	partial.Add("v1", "First video", comments.Comment{ID: "c1", Text: "great", VideoID: "v1"})
	app.Update(eventMsg{event: events.Failed{
		Meta:    events.NewMeta(events.OpSearch),
		Err:     errors.New("quota exceeded"),
		Partial: partial,
	}})

	assert.Equal(t, ViewResults, app.view)
	require.NotNil(t, app.result)
	assert.Equal(t, []string{"c1"}, app.result.IDs())
	assert.Equal(t, "great", app.keyword)
	assert.Equal(t, StatusError, app.status.kind)
}

func TestSelectionKeys(t *testing.T) {
	app, _ := newTestApp(t)
	withResults(t, app)

	press(t, app, runes(" "))
	assert.Equal(t, []string{"c1"}, app.selectedIDs())
	assert.Equal(t, 1, app.resultList.Index(), "toggle advances the cursor")

	press(t, app, runes("a"))
	assert.Equal(t, []string{"c1", "r1", "c2"}, app.selectedIDs())

	press(t, app, runes("n"))
	assert.Empty(t, app.selectedIDs())

	press(t, app, runes("d"))
	assert.Equal(t, ViewResults, app.view)
	assert.Equal(t, MsgNothingSelected, app.status.text)
}

func TestDryRunDoesNotDelete(t *testing.T) {
	app, eng := newTestApp(t)
	withResults(t, app)

	press(t, app, runes("a"))
	cmd := press(t, app, runes("D"))
	assert.Nil(t, cmd)
	assert.Equal(t, ViewResults, app.view)
	assert.Equal(t, MsgDryRun(3), app.status.text)
	assert.Empty(t, eng.deleted)
}

func TestDeleteFlow(t *testing.T) {
	app, eng := newTestApp(t)
	withResults(t, app)

	app.resultList.Select(2)
	press(t, app, runes(" "))
	app.resultList.Select(0)
	press(t, app, runes(" "))

	press(t, app, runes("d"))
	require.Equal(t, ViewDeleteConfirm, app.view)
	assert.Equal(t, []string{"c1", "c2"}, app.pending, "pending ids follow result order")
	assert.Contains(t, app.View(), "Permanently delete 2 matches?")

	cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewDeleting, app.view)
	require.NotNil(t, cmd)
	cmd()
	require.Len(t, eng.deleted, 1)
	assert.Equal(t, []string{"c1", "c2"}, eng.deleted[0])

	meta := events.NewMeta(events.OpDelete)
	app.Update(eventMsg{event: events.DeleteProgress{Meta: meta, ID: "c2", Reason: "400 bad request", Succeeded: 0, Failed: 1, Total: 2}})
	assert.Equal(t, StatusWarn, app.status.kind)

	app.Update(eventMsg{event: events.DeleteCompleted{Meta: meta, Report: comments.DeleteReport{
		Requested: 2,
		Succeeded: 1,
		Deleted:   []string{"c1"},
		Failed:    []comments.DeleteFailure{{ID: "c2", Reason: "400 bad request"}},
	}}})

	assert.Equal(t, ViewResults, app.view)
	assert.Equal(t, []string{"r1", "c2"}, app.result.IDs())
	assert.Equal(t, []string{"c2"}, app.selectedIDs(), "failed ids stay selected")
	assert.Equal(t, "Deleted 1 of 2 • 1 failed (first: 400 bad request)", app.status.text)
}

func TestDeleteConfirmCancel(t *testing.T) {
	app, eng := newTestApp(t)
	withResults(t, app)

	press(t, app, runes("a"), runes("d"))
	require.Equal(t, ViewDeleteConfirm, app.view)
	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ViewResults, app.view)
	assert.Nil(t, app.pending)
	assert.Empty(t, eng.deleted)
}

func TestEscCancelsRunningOperation(t *testing.T) {
	app, _ := newTestApp(t)
	app.startSearch("great", nil)
	require.NotNil(t, app.cancel)

	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, app.cancel)
	assert.Equal(t, MsgCancelling, app.status.text)
	assert.Equal(t, ViewRunning, app.view, "stays until the engine reports back")

	cmd := press(t, app, runes("q"))
	assert.Nil(t, cmd, "q does not quit while busy")
}

func TestOpenPermalink(t *testing.T) {
	app, _ := newTestApp(t)
	opener := &recordingOpener{}
	app.opener = opener
	withResults(t, app)

	app.resultList.Select(1)
	cmd := press(t, app, runes("o"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{browser.CommentURL("v1", "r1")}, opener.urls)
}

func TestDetailView(t *testing.T) {
	app, _ := newTestApp(t)
	withResults(t, app)

	cmd := press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, app.view)
	require.NotNil(t, app.current)
	assert.Equal(t, "c1", app.current.ID)

	app.Update(cmd())
	assert.Contains(t, app.viewport.View(), "great video")

	press(t, app, runes(" "))
	assert.Equal(t, []string{"c1"}, app.selectedIDs())

	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewResults, app.view)
}

func TestSaveAndLoad(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app, _ := newTestApp(t)
	app.store = store

	app.Update(press(t, app, runes("l"))())
	assert.Equal(t, MsgNoSavedSearch, app.status.text)

	withResults(t, app)
	app.Update(press(t, app, runes("s"))())
	assert.Equal(t, MsgSaved, app.status.text)

	fresh, _ := newTestApp(t)
	fresh.store = store
	fresh.Update(press(t, fresh, runes("l"))())
	require.NotNil(t, fresh.result)
	assert.Equal(t, "great", fresh.keyword)
	assert.Equal(t, []string{"c1", "r1", "c2"}, fresh.result.IDs())
	assert.Equal(t, int64(7), fresh.quota)
}

func TestDeletedCommentsLeaveSavedSearch(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SaveLastSearch(&storage.SavedSearch{Keyword: "great", Result: sampleResult()}))

	app, _ := newTestApp(t)
	app.store = store
	withResults(t, app)

	cmd := app.handleEvent(events.DeleteCompleted{
		Meta:   events.NewMeta(events.OpDelete),
		Report: comments.DeleteReport{Requested: 1, Succeeded: 1, Deleted: []string{"r1"}},
	})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	saved, err := store.LastSearch()
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, saved.Result.IDs())
}

func TestWaitForEventBridgesBus(t *testing.T) {
	bus := events.NewBus()
	ch, stop := bus.Chan(8)
	app := NewApp(config.TestConfig(), Deps{Engine: &fakeEngine{}, Events: ch})

	meta := events.NewMeta(events.OpSearch)
	bus.Publish(events.Quota{Meta: meta, Used: 3})

	done := make(chan tea.Msg, 1)
	go func() { done <- app.waitForEvent()() }()

	select {
	case msg := <-done:
		em, ok := msg.(eventMsg)
		require.True(t, ok)
		assert.Equal(t, events.Quota{Meta: meta, Used: 3}, em.event)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	stop()
	assert.Nil(t, app.waitForEvent()(), "closed channel ends the loop")
}

func TestCredentialCheck(t *testing.T) {
	app, eng := newTestApp(t)
	app.Update(app.checkCredential()())
	assert.True(t, app.signedIn)
	assert.NotContains(t, app.View(), MsgSignedOut)

	eng.credErr = auth.ErrNoCredential
	app.Update(app.checkCredential()())
	assert.False(t, app.signedIn)

	app.Update(eventMsg{event: events.LoginSucceeded{Meta: events.NewMeta(events.OpLogin)}})
	assert.True(t, app.signedIn)
	app.Update(eventMsg{event: events.LoggedOut{Meta: events.NewMeta(events.OpLogout)}})
	assert.False(t, app.signedIn)
}

func TestHelpPerView(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "/: search")

	withResults(t, app)
	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "D: dry run")

	app.view = ViewDeleting
	assert.Equal(t, []string{"esc: cancel", "ctrl+c: quit"}, app.keyHandler.GetHelpForCurrentView())
}

func TestQuit(t *testing.T) {
	app, _ := newTestApp(t)
	cmd := press(t, app, runes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
