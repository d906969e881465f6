package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/ytsweep/internal/comments"
)

type KeyHandler struct {
	app *App
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		kh.app.cancelOperation()
		return kh.app, tea.Quit
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearchForm
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.submitSearch()
	case "tab", "shift+tab", "down", "up":
		kh.switchField()
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) switchField() {
	if kh.app.keywordInput.Focused() {
		kh.app.keywordInput.Blur()
		kh.app.exclusionInput.Focus()
		return
	}
	kh.app.exclusionInput.Blur()
	kh.app.keywordInput.Focus()
}

func (kh *KeyHandler) submitSearch() (tea.Model, tea.Cmd) {
	keyword := sanitizeInput(kh.app.keywordInput.Value())
	if keyword == "" {
		kh.app.setStatus(MsgEnterKeyword, StatusWarn)
		return kh.app, nil
	}
	exclusions := comments.ParseTerms(sanitizeInput(kh.app.exclusionInput.Value()))
	return kh.app, kh.app.startSearch(keyword, exclusions)
}

func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if kh.app.keywordInput.Focused() {
		kh.app.keywordInput, cmd = kh.app.keywordInput.Update(msg)
	} else {
		kh.app.exclusionInput, cmd = kh.app.exclusionInput.Update(msg)
	}
	return kh.app, cmd
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case "q":
		if !kh.app.busy() {
			return kh.app, tea.Quit, true
		}
		return kh.app, nil, true
	}

	switch kh.app.view {
	case ViewResults:
		return kh.handleResultsKeys(key)
	case ViewDetail:
		return kh.handleDetailKeys(key)
	case ViewDeleteConfirm:
		return kh.handleDeleteConfirmKeys(key)
	case ViewRunning, ViewDeleting:
		// Only esc and ctrl+c do anything while an operation runs.
		return kh.app, nil, true
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleResultsKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "/":
		return kh.enterSearchForm(), nil, true
	case "l":
		return a, a.loadSearch(), true
	case "s":
		return a, a.saveSearch(), true
	}

	if a.result == nil || a.result.Count() == 0 {
		return a, nil, false
	}

	switch key {
	case " ", "space":
		kh.toggleCurrent()
		return a, nil, true
	case "a":
		for _, c := range a.result.Flat() {
			a.selected[c.ID] = true
		}
		a.refreshList()
		return a, nil, true
	case "n":
		a.selected = make(map[string]bool)
		a.refreshList()
		return a, nil, true
	case "d":
		ids := a.selectedIDs()
		if len(ids) == 0 {
			a.setStatus(MsgNothingSelected, StatusWarn)
			return a, nil, true
		}
		a.pending = ids
		a.view = ViewDeleteConfirm
		return a, nil, true
	case "D":
		ids := a.selectedIDs()
		if len(ids) == 0 {
			a.setStatus(MsgNothingSelected, StatusWarn)
			return a, nil, true
		}
		a.setStatus(MsgDryRun(len(ids)), StatusInfo)
		return a, nil, true
	case "o":
		if item, ok := a.resultList.SelectedItem().(matchItem); ok {
			return a, a.openPermalink(item.comment), true
		}
		return a, nil, true
	case "enter":
		if item, ok := a.resultList.SelectedItem().(matchItem); ok {
			c := item.comment
			a.current = &c
			a.view = ViewDetail
			a.viewport.SetContent(renderMuted("Rendering…"))
			return a, a.renderDetail(c), true
		}
	}
	return a, nil, false
}

func (kh *KeyHandler) toggleCurrent() {
	a := kh.app
	idx := a.resultList.Index()
	item, ok := a.resultList.SelectedItem().(matchItem)
	if !ok {
		return
	}
	item.selected = !item.selected
	if item.selected {
		a.selected[item.comment.ID] = true
	} else {
		delete(a.selected, item.comment.ID)
	}
	a.resultList.SetItem(idx, item)
	if idx+1 < len(a.resultList.Items()) {
		a.resultList.Select(idx + 1)
	}
}

func (kh *KeyHandler) handleDetailKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "o":
		if a.current != nil {
			return a, a.openPermalink(*a.current), true
		}
		return a, nil, true
	case " ", "space":
		if a.current != nil {
			if a.selected[a.current.ID] {
				delete(a.selected, a.current.ID)
			} else {
				a.selected[a.current.ID] = true
			}
			a.refreshList()
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "enter", "y":
		ids := a.pending
		return a, a.startDelete(ids), true
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}
	return a, nil, true
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch kh.app.view {
	case ViewResults:
		kh.app.resultList, cmd = kh.app.resultList.Update(msg)
		return kh.app, cmd
	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd
	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) enterSearchForm() *App {
	a := kh.app
	a.view = ViewSearchForm
	a.keywordInput.SetValue(a.keyword)
	a.keywordInput.CursorEnd()
	a.keywordInput.Focus()
	a.exclusionInput.Blur()
	a.clearStatus()
	return a
}

// navigateBack implements esc for every view.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearchForm:
		a.view = ViewResults
		return a, nil

	case ViewRunning, ViewDeleting:
		// The engine finishes with a Failed event once it notices.
		a.cancelOperation()
		a.setStatus(MsgCancelling, StatusWarn)
		return a, nil

	case ViewDeleteConfirm:
		a.pending = nil
		a.view = ViewResults
		a.setStatus(MsgDeleteCancelled, StatusInfo)
		return a, nil

	case ViewDetail:
		a.current = nil
		a.view = ViewResults
		return a, nil

	default:
		a.clearStatus()
		return a, nil
	}
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	a := kh.app
	switch a.view {
	case ViewSearchForm:
		return []string{"enter: search", "tab: next field", "esc: back"}
	case ViewRunning, ViewDeleting:
		return []string{"esc: cancel", "ctrl+c: quit"}
	case ViewResults:
		if a.result == nil || a.result.Count() == 0 {
			return []string{"/: search", "l: load saved", "q: quit"}
		}
		return []string{"space: toggle", "a: all", "n: none", "d: delete", "D: dry run",
			"o: open", "enter: view", "s: save", "l: load", "/: search", "q: quit"}
	case ViewDetail:
		return []string{"o: open", "space: toggle", "esc: back"}
	case ViewDeleteConfirm:
		return []string{"enter: confirm", "esc: cancel"}
	default:
		return []string{}
	}
}
