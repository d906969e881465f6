package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/ytsweep/internal/comments"
)

// Canonical short status messages used across the app.
const (
	MsgEnterKeyword     = "Enter a keyword to search for"
	MsgNothingSelected  = "Nothing selected"
	MsgNoSavedSearch    = "No saved search"
	MsgNothingToSave    = "Nothing to save yet"
	MsgSaved            = "Search saved"
	MsgCancelling       = "Cancelling…"
	MsgDeleteCancelled  = "Delete cancelled"
	MsgSignedOut        = "not signed in • run ytsweep login"
	MsgSignedIn         = "signed in"
	MsgStartingSearch   = "Starting search…"
	MsgStartingDeletion = "Starting deletion…"
)

func MsgMatchesCount(n int) string {
	if n == 1 {
		return "1 match"
	}
	return fmt.Sprintf("%d matches", n)
}

func MsgSearchSummary(matches, videos, skipped int, quota int64) string {
	base := fmt.Sprintf("%s across %d videos • quota %d", MsgMatchesCount(matches), videos, quota)
	if skipped > 0 {
		base += fmt.Sprintf(" • %d skipped", skipped)
	}
	return base
}

func MsgDeleteSummary(r comments.DeleteReport) string {
	base := fmt.Sprintf("Deleted %d of %d", r.Succeeded, r.Requested)
	if n := len(r.Failed); n > 0 {
		base += fmt.Sprintf(" • %d failed (first: %s)", n, r.Failed[0].Reason)
	}
	return base
}

func MsgDryRun(n int) string {
	return fmt.Sprintf("Dry run: %s would be deleted", MsgMatchesCount(n))
}

func MsgLoaded(keyword string, n int) string {
	return fmt.Sprintf("Loaded '%s' (%s)", strings.TrimSpace(keyword), MsgMatchesCount(n))
}
