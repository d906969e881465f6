package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/storage"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	exclude      []string
	noSave       bool
	abortOnError bool
	source       string
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find your comments containing a keyword",
		Long: `Walks every video of your channel and collects the comments and replies
whose text contains the keyword, ignoring case. Comments that also contain
an excluded term are left out.

The result replaces the saved search unless --no-save is given.`,
		Example: `  ytsweep search "first"
  ytsweep search spam -x "not spam,spammer"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return so.run(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringSliceVarP(&so.exclude, "exclude", "x", nil, "Terms that disqualify a match (comma separated or repeated)")
	cmd.Flags().BoolVar(&so.noSave, "no-save", false, "Do not replace the saved search")
	cmd.Flags().BoolVar(&so.abortOnError, "abort-on-error", false, "Stop at the first video that fails instead of skipping it")
	cmd.Flags().StringVar(&so.source, "source", "", "Where to list videos from: uploads or feed (overrides config)")
	return cmd
}

func (so *searchOptions) run(cmd *cobra.Command, opts *rootOptions, keyword string) error {
	if so.abortOnError {
		opts.cfg.Search.AbortOnVideoError = true
	}
	if so.source != "" {
		opts.cfg.Search.VideoSource = so.source
		if err := opts.cfg.Validate(); err != nil {
			return err
		}
	}

	rt, err := opts.openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signalContext(cmd)
	defer stop()
	defer follow(rt.bus, cmd.ErrOrStderr(), opts.quiet)()

	exclusions := comments.ParseTerms(strings.Join(so.exclude, ","))
	result, stats, searchErr := rt.engine.Search(ctx, keyword, exclusions)
	if result == nil {
		return searchErr
	}

	saved := &storage.SavedSearch{
		Keyword:    strings.TrimSpace(keyword),
		Exclusions: exclusions,
		Result:     result,
		SavedAt:    time.Now(),
		Quota:      stats.Quota,
	}

	out := cmd.OutOrStdout()
	if err := renderMarkdown(out, searchMarkdown(saved)); err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), muted(searchSummary(result, stats.Videos, stats.Skipped, stats.Quota)))
	}

	// A cut-short search is still worth keeping when it found something.
	if !so.noSave && (searchErr == nil || result.Count() > 0) {
		if err := rt.store.SaveLastSearch(saved); err != nil {
			return fmt.Errorf("saving search: %w", err)
		}
	}

	if searchErr != nil {
		return fmt.Errorf("search stopped after %d video(s): %w", stats.Videos, searchErr)
	}
	return nil
}

func searchSummary(r *comments.Result, videos, skipped int, quota int64) string {
	s := fmt.Sprintf("%d match(es) across %d video(s) • quota %d", r.Count(), videos, quota)
	if skipped > 0 {
		s += fmt.Sprintf(" • %d skipped", skipped)
	}
	return s
}
