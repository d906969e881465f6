package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/ytsweep/internal/auth"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/engine"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/storage"
)

// Engine is the part of *engine.Engine the display drives.
type Engine interface {
	Search(ctx context.Context, keyword string, exclusions []string) (*comments.Result, engine.SearchStats, error)
	DeleteMany(ctx context.Context, ids []string) (comments.DeleteReport, error)
	CurrentCredential(ctx context.Context) (auth.Credential, error)
}

// Store persists the last search. *storage.Store implements it.
type Store interface {
	SaveLastSearch(*storage.SavedSearch) error
	LastSearch() (*storage.SavedSearch, error)
	UpdateLastSearch(func(*storage.SavedSearch) error) error
}

// Opener shows a URL to the user.
type Opener interface {
	Open(url string) error
}

// Deps wires the App to the rest of the program.
type Deps struct {
	Engine Engine
	// Events is usually a subscription from events.Bus.Chan.
	Events <-chan events.Event
	Store  Store
	Opener Opener
}

type status struct {
	text string
	kind StatusKind
}

type App struct {
	config     *config.Config
	engine     Engine
	events     <-chan events.Event
	store      Store
	opener     Opener
	keyHandler *KeyHandler

	keywordInput   textinput.Model
	exclusionInput textinput.Model
	resultList     list.Model
	viewport       viewport.Model
	progress       progress.Model
	spinner        spinner.Model

	view   View
	width  int
	height int
	status status

	signedIn bool

	keyword    string
	exclusions []string
	result     *comments.Result
	selected   map[string]bool
	current    *comments.Comment
	pending    []string

	// in-flight operation
	cancel   context.CancelFunc
	opStatus string
	done     int
	total    int
	quota    int64
	skipped  int

	deleteReport comments.DeleteReport
	deleteFailed int
	deleteTotal  int

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	if cfg == nil {
		cfg = config.TestConfig()
	}
	ApplyTheme(cfg.UI.Colors)

	resultList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	resultList.Title = "› matches"
	resultList.SetShowStatusBar(true)
	resultList.SetStatusBarItemName("match", "matches")
	resultList.SetFilteringEnabled(false) // '/' starts a new search
	resultList.SetShowHelp(false)

	ki := textinput.New()
	ki.Placeholder = "keyword"
	ki.CharLimit = 256
	ki.Focus()

	xi := textinput.New()
	xi.Placeholder = "exclusions, comma separated (optional)"
	xi.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SecondaryColor)

	app := &App{
		config:         cfg,
		engine:         deps.Engine,
		events:         deps.Events,
		store:          deps.Store,
		opener:         deps.Opener,
		keywordInput:   ki,
		exclusionInput: xi,
		resultList:     resultList,
		viewport:       viewport.New(0, 0),
		progress:       progress.New(progress.WithDefaultGradient()),
		spinner:        sp,
		view:           ViewResults,
		selected:       make(map[string]bool),
	}
	app.keyHandler = NewKeyHandler(app)
	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		a.spinner.Tick,
		a.waitForEvent(),
		a.checkCredential(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case eventMsg:
		return a, tea.Batch(a.handleEvent(msg.event), a.waitForEvent())

	case rejectedMsg:
		a.cancelOperation()
		a.view = a.restingView()
		a.setStatus(msg.err.Error(), StatusError)
		return a, nil

	case credentialMsg:
		a.signedIn = msg.err == nil
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
		} else {
			a.setStatus(MsgSaved, StatusSuccess)
		}
		return a, nil

	case loadedMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusWarn)
			return a, nil
		}
		a.quota = msg.saved.Quota
		a.setResult(msg.saved.Keyword, msg.saved.Exclusions, msg.saved.Result)
		a.view = ViewResults
		a.setStatus(MsgLoaded(msg.saved.Keyword, msg.saved.Result.Count()), StatusSuccess)
		return a, nil

	case detailRenderedMsg:
		if a.view == ViewDetail {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
		}
		return a, nil

	case errorMsg:
		a.setStatus(msg.err.Error(), StatusError)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case progress.FrameMsg:
		model, cmd := a.progress.Update(msg)
		if p, ok := model.(progress.Model); ok {
			a.progress = p
		}
		return a, cmd
	}

	switch a.view {
	case ViewSearchForm:
		var cmd tea.Cmd
		a.keywordInput, cmd = a.keywordInput.Update(msg)
		cmds = append(cmds, cmd)
		a.exclusionInput, cmd = a.exclusionInput.Update(msg)
		cmds = append(cmds, cmd)
	case ViewDetail:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	listHeight := height - 5
	if listHeight < 5 {
		listHeight = 5
	}
	a.resultList.SetSize(width, listHeight)
	a.viewport.Width = width
	a.viewport.Height = height - 5

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = width
	}
	a.keywordInput.Width = inputWidth
	a.exclusionInput.Width = inputWidth

	barWidth := width - 10
	if barWidth > 80 {
		barWidth = 80
	}
	if barWidth < 10 {
		barWidth = 10
	}
	a.progress.Width = barWidth
}

// handleEvent folds one engine event into the display state.
func (a *App) handleEvent(e events.Event) tea.Cmd {
	switch e := e.(type) {
	case events.Started:
		a.opStatus = ""
		a.done, a.total = 0, 0
		if op, _ := e.Op(); op == events.OpSearch {
			a.skipped = 0
		}
		return a.progress.SetPercent(0)

	case events.Status:
		a.opStatus = e.Text

	case events.Progress:
		a.done, a.total = e.Done, e.Total
		return a.progress.SetPercent(e.Fraction())

	case events.Quota:
		a.quota = e.Used

	case events.VideoSkipped:
		a.skipped++
		a.setStatus(fmt.Sprintf("skipped %s: %v", truncateEnd(e.VideoTitle, 40), e.Err), StatusWarn)

	case events.DeleteProgress:
		a.deleteReport.Succeeded = e.Succeeded
		a.deleteFailed = e.Failed
		a.deleteTotal = e.Total
		if !e.OK {
			a.setStatus(fmt.Sprintf("%s: %s", truncateMiddle(e.ID, 24), e.Reason), StatusWarn)
		}
		if e.Total > 0 {
			return a.progress.SetPercent(float64(e.Succeeded+e.Failed) / float64(e.Total))
		}

	case events.SearchCompleted:
		a.cancelOperation()
		a.quota = e.Quota
		a.setResult(e.Keyword, e.Exclusions, e.Result)
		a.view = ViewResults
		a.setStatus(MsgSearchSummary(e.Result.Count(), e.Videos, e.Skipped, e.Quota), StatusSuccess)

	case events.DeleteCompleted:
		a.cancelOperation()
		a.deleteReport = e.Report
		a.pending = nil
		a.dropDeleted(e.Report.Deleted)
		a.view = ViewResults
		kind := StatusSuccess
		if len(e.Report.Failed) > 0 {
			kind = StatusWarn
		}
		a.setStatus(MsgDeleteSummary(e.Report), kind)
		return a.syncDeleted(e.Report.Deleted)

	case events.Failed:
		a.cancelOperation()
		if op, _ := e.Op(); op == events.OpSearch && e.Partial != nil && e.Partial.Count() > 0 {
			a.setResult(a.keyword, a.exclusions, e.Partial)
		}
		a.view = a.restingView()
		a.setStatus(e.Err.Error(), StatusError)

	case events.LoginSucceeded:
		a.signedIn = true
	case events.LoggedOut, events.LoginFailed:
		a.signedIn = false
	}
	return nil
}

// restingView is where the app returns once nothing is running. With no
// result yet the results view shows the welcome banner.
func (a *App) restingView() View {
	return ViewResults
}

func (a *App) busy() bool {
	return a.view == ViewRunning || a.view == ViewDeleting
}

func (a *App) cancelOperation() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = status{text: text, kind: kind}
}

func (a *App) clearStatus() {
	a.status = status{}
}

func (a *App) setResult(keyword string, exclusions []string, r *comments.Result) {
	a.keyword = keyword
	a.exclusions = exclusions
	a.result = r
	if a.result == nil {
		a.result = comments.NewResult()
	}
	a.selected = make(map[string]bool)
	a.refreshList()
}

// dropDeleted removes deleted comments from the result and the selection.
func (a *App) dropDeleted(ids []string) {
	if a.result == nil || len(ids) == 0 {
		return
	}
	a.result.Remove(ids...)
	for _, id := range ids {
		delete(a.selected, id)
	}
	a.refreshList()
}

func (a *App) refreshList() {
	idx := a.resultList.Index()
	flat := a.result.Flat()
	items := make([]list.Item, len(flat))
	for i, c := range flat {
		items[i] = matchItem{comment: c, selected: a.selected[c.ID]}
	}
	a.resultList.SetItems(items)
	if n := len(items); n > 0 {
		a.resultList.Select(min(idx, n-1))
	}
	a.resultList.Title = fmt.Sprintf("› matches for '%s'", a.keyword)
}

// selectedIDs returns the selection in result order.
func (a *App) selectedIDs() []string {
	var ids []string
	for _, c := range a.result.Flat() {
		if a.selected[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	bodyHeight := a.height - 5
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var content string
	switch a.view {
	case ViewSearchForm:
		content = a.viewSearchForm(bodyHeight)
	case ViewRunning:
		content = a.viewRunning(bodyHeight)
	case ViewResults:
		if a.result == nil || a.result.Count() == 0 {
			msg := GetWelcomeMessage()
			if a.result != nil {
				msg = GetCompactBanner(fmt.Sprintf("No matches for '%s' • / to search again", a.keyword))
			}
			content = renderCentered(a.width, bodyHeight, msg)
		} else {
			content = a.resultList.View()
		}
	case ViewDetail:
		content = a.viewport.View()
	case ViewDeleteConfirm:
		content = a.viewDeleteConfirm(bodyHeight)
	case ViewDeleting:
		content = a.viewDeleting(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Top,
		a.header(),
		content,
		renderSeparator(a.width-1),
		a.statusBar(),
	)
}

func (a *App) header() string {
	who := MsgSignedOut
	if a.signedIn {
		who = MsgSignedIn
	}
	sub := fmt.Sprintf("%s • quota %d", who, a.quota)
	return renderHeader(CompactLogo+" "+a.view.String(), sub, a.width)
}

func (a *App) viewSearchForm(height int) string {
	w := a.keywordInput.Width
	form := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("› new search"),
		"",
		renderMuted("keyword"),
		renderInputFrame(a.keywordInput.View(), a.keywordInput.Focused(), w),
		renderMuted("exclusions"),
		renderInputFrame(a.exclusionInput.View(), a.exclusionInput.Focused(), w),
		"",
		renderHelp("Enter: search • Tab: switch field • Esc: back"),
	)
	return renderCentered(a.width, height, form)
}

func (a *App) viewRunning(height int) string {
	counts := fmt.Sprintf("%d/%d videos • quota %d", a.done, a.total, a.quota)
	if a.skipped > 0 {
		counts += fmt.Sprintf(" • %d skipped", a.skipped)
	}
	line := a.opStatus
	if line == "" {
		line = MsgStartingSearch
	}
	body := renderOperation(fmt.Sprintf("Searching for '%s'", a.keyword),
		a.spinner.View()+" "+truncateEnd(line, a.width-6), a.progress.View(), counts, "Esc: cancel")
	return renderCentered(a.width, height, body)
}

func (a *App) viewDeleteConfirm(height int) string {
	modalWidth := (a.width * 4) / 5
	if modalWidth < 20 {
		modalWidth = a.width
	}

	var preview []string
	for i, id := range a.pending {
		if i == 5 {
			preview = append(preview, renderMuted(fmt.Sprintf("… and %d more", len(a.pending)-5)))
			break
		}
		text := id
		if c, ok := a.result.Find(id); ok {
			text = singleLine(c.Text)
		}
		preview = append(preview, ModalTextStyle.Render("• "+truncateEnd(text, modalWidth-4)))
	}

	rows := []string{
		ModalWarnStyle.Render("⚠ Delete comments"),
		"",
		ModalHighlight.Render(fmt.Sprintf("Permanently delete %s?", MsgMatchesCount(len(a.pending)))),
		"",
	}
	rows = append(rows, preview...)
	rows = append(rows, "", "", renderHelp("Enter/y: confirm • Esc/n: cancel"))

	return renderCentered(a.width, height, lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, rows...)))
}

func (a *App) viewDeleting(height int) string {
	total := a.deleteTotal
	if total == 0 {
		total = len(a.pending)
	}
	line := a.opStatus
	if line == "" {
		line = MsgStartingDeletion
	}
	counts := fmt.Sprintf("%d of %d deleted", a.deleteReport.Succeeded, total)
	if n := a.deleteFailed; n > 0 {
		counts += fmt.Sprintf(" • %d failed", n)
	}
	counts += fmt.Sprintf(" • quota %d", a.quota)
	body := renderOperation("Deleting", a.spinner.View()+" "+truncateEnd(line, a.width-6),
		a.progress.View(), counts, "Esc: stop")
	return renderCentered(a.width, height, body)
}

func (a *App) statusBar() string {
	if a.status.text != "" {
		return StatusBarStyle.Width(a.width).Render(a.status.kind.style().Render(truncateEnd(a.status.text, a.width-2)))
	}
	return StatusBarStyle.Width(a.width).Render(strings.Join(a.keyHandler.GetHelpForCurrentView(), " • "))
}

// matchItem is one row of the results list.
type matchItem struct {
	comment  comments.Comment
	selected bool
}

func (i matchItem) Title() string {
	box := "[ ] "
	if i.selected {
		box = SelectedItemStyle.Render("[x]") + " "
	}
	text := truncateEnd(singleLine(i.comment.Text), 100)
	if i.comment.IsReply {
		return box + ReplyItemStyle.Render("↳ ") + text
	}
	return box + text
}

func (i matchItem) Description() string {
	parts := []string{i.comment.Author, truncateEnd(i.comment.VideoTitle, 40)}
	desc := renderMuted(strings.Join(parts, " • "))
	if !i.comment.PublishedAt.IsZero() {
		desc += TimeStyle.Render(" • " + i.comment.PublishedAt.Format("Jan 2, 2006"))
	}
	return desc
}

func (i matchItem) FilterValue() string { return i.comment.Text }

type eventMsg struct {
	event events.Event
}

// rejectedMsg is an operation the engine refused before it started.
type rejectedMsg struct {
	err error
}

type credentialMsg struct {
	err error
}

type savedMsg struct {
	err error
}

type loadedMsg struct {
	saved *storage.SavedSearch
	err   error
}

type detailRenderedMsg struct {
	content string
}

type errorMsg struct {
	err error
}
