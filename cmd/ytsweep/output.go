package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/storage"
	"github.com/pders01/ytsweep/internal/tui"
	"github.com/spf13/cobra"
)

// progressPrinter writes operation progress to stderr. Delete workers
// publish concurrently, hence the mutex.
type progressPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) Handle(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := e.(type) {
	case events.Status:
		fmt.Fprintln(p.w, tui.StatusInfoStyle.Render("› "+e.Text))
	case events.VideoSkipped:
		title := e.VideoTitle
		if title == "" {
			title = e.VideoID
		}
		fmt.Fprintln(p.w, tui.StatusWarnStyle.Render(fmt.Sprintf("! skipped %q: %v", title, e.Err)))
	case events.DeleteProgress:
		if !e.OK {
			fmt.Fprintln(p.w, tui.StatusErrorStyle.Render(fmt.Sprintf("✗ %s: %s", e.ID, e.Reason)))
		}
	}
}

// follow subscribes a progress printer unless output is quiet.
func follow(bus *events.Bus, w io.Writer, quiet bool) func() {
	if quiet {
		return func() {}
	}
	return bus.Subscribe(newProgressPrinter(w).Handle)
}

// searchMarkdown lays out a saved search for glamour.
func searchMarkdown(saved *storage.SavedSearch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Matches for %q\n\n", saved.Keyword)
	if len(saved.Exclusions) > 0 {
		fmt.Fprintf(&b, "*Excluding:* %s\n\n", strings.Join(saved.Exclusions, ", "))
	}

	r := saved.Result
	if r == nil {
		r = comments.NewResult()
	}
	fmt.Fprintf(&b, "%d match(es) on %d video(s)", r.Count(), len(r.Order))
	if saved.Quota > 0 {
		fmt.Fprintf(&b, " • quota %d", saved.Quota)
	}
	if !saved.SavedAt.IsZero() {
		fmt.Fprintf(&b, " • saved %s", saved.SavedAt.Local().Format(time.DateTime))
	}
	b.WriteString("\n\n")

	for _, videoID := range r.Order {
		vm, ok := r.Videos[videoID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", vm.VideoTitle)
		for _, c := range vm.Comments {
			marker := "-"
			if c.IsReply {
				marker = "    -"
			}
			fmt.Fprintf(&b, "%s `%s` **%s**", marker, c.ID, c.Author)
			if !c.PublishedAt.IsZero() {
				fmt.Fprintf(&b, " %s", c.PublishedAt.Local().Format(time.DateOnly))
			}
			fmt.Fprintf(&b, ": %s\n", oneLine(c.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMarkdown renders md for the terminal, falling back to the raw
// markdown if glamour fails.
func renderMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			_, err = io.WriteString(w, out)
			return err
		}
	}
	_, err = io.WriteString(w, md)
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, limit int) string {
	r := []rune(oneLine(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit-1]) + "…"
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, tui.StatusSuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func muted(text string) string {
	return lipgloss.NewStyle().Foreground(tui.MutedColor).Render(text)
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
// Anything but y or yes, including end of input, is a no.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
