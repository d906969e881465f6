package tui

type View int

const (
	ViewSearchForm View = iota
	ViewRunning
	ViewResults
	ViewDetail
	ViewDeleteConfirm
	ViewDeleting
)

func (v View) String() string {
	switch v {
	case ViewSearchForm:
		return "search"
	case ViewRunning:
		return "running"
	case ViewResults:
		return "results"
	case ViewDetail:
		return "detail"
	case ViewDeleteConfirm:
		return "confirm"
	case ViewDeleting:
		return "deleting"
	default:
		return "unknown"
	}
}
