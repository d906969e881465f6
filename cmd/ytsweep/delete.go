package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/storage"
	"github.com/pders01/ytsweep/internal/validation"
	"github.com/spf13/cobra"
)

type deleteOptions struct {
	fromSaved bool
	match     string
	dryRun    bool
	yes       bool
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	do := &deleteOptions{}
	cmd := &cobra.Command{
		Use:   "delete [comment-id...]",
		Short: "Delete comments by id or from the saved search",
		Long: `Deletes the given comment ids, or the matches of the saved search with
--from-saved. --match narrows the saved matches with a free-text query.

Deleted comments are removed from the saved search. The command fails if
any deletion failed; the others still go through.`,
		Example: `  ytsweep delete UgxAbc123 UgxDef456
  ytsweep delete --from-saved --dry-run
  ytsweep delete --from-saved --match "giveaway" --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return do.run(cmd, opts, args)
		},
	}
	cmd.Flags().BoolVar(&do.fromSaved, "from-saved", false, "Delete the matches of the saved search")
	cmd.Flags().StringVar(&do.match, "match", "", "Only saved matches relevant to this query (implies --from-saved)")
	cmd.Flags().BoolVar(&do.dryRun, "dry-run", false, "List what would be deleted without deleting")
	cmd.Flags().BoolVarP(&do.yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (do *deleteOptions) run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	fromSaved := do.fromSaved || do.match != ""
	if fromSaved && len(args) > 0 {
		return errors.New("give comment ids or --from-saved, not both")
	}
	if !fromSaved && len(args) == 0 {
		return errors.New("nothing to delete: give comment ids or --from-saved")
	}

	rt, err := opts.openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ids, saved, err := do.collect(rt, args, fromSaved)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No matching comments to delete")
		return nil
	}

	out := cmd.OutOrStdout()
	if do.dryRun {
		fmt.Fprintf(out, "Would delete %d comment(s):\n", len(ids))
		listTargets(out, ids, saved)
		return nil
	}

	if !do.yes {
		if !opts.quiet {
			listTargets(cmd.ErrOrStderr(), ids, saved)
		}
		ok, err := confirm(cmd, fmt.Sprintf("Delete %d comment(s)? This cannot be undone.", len(ids)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted")
			return nil
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	defer follow(rt.bus, cmd.ErrOrStderr(), opts.quiet)()

	report, err := rt.engine.DeleteMany(ctx, ids)
	rt.syncDeleted(report.Deleted)
	if err != nil {
		return err
	}

	success(out, "Deleted %d of %d", report.Succeeded, report.Requested)
	if n := len(report.Failed); n > 0 {
		for _, f := range report.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.ID, f.Reason)
		}
		return fmt.Errorf("%d deletion(s) failed", n)
	}
	return nil
}

// collect resolves the ids to delete, in saved-result order when they
// come from the saved search.
func (do *deleteOptions) collect(rt *runtime, args []string, fromSaved bool) ([]string, *storage.SavedSearch, error) {
	if !fromSaved {
		ids, err := validation.CommentIDs(args)
		if err != nil {
			return nil, nil, err
		}
		saved, _ := rt.store.LastSearch()
		return ids, saved, nil
	}

	saved, err := rt.lastSearch()
	if err != nil {
		return nil, nil, err
	}
	if saved.Result == nil {
		return nil, saved, nil
	}
	all := saved.Result.IDs()
	if do.match == "" {
		return all, saved, nil
	}

	hits, err := rt.findSaved(saved, do.match, len(all))
	if err != nil {
		return nil, nil, err
	}
	wanted := make(map[string]bool, len(hits))
	for _, h := range hits {
		wanted[h.Comment.ID] = true
	}
	ids := make([]string, 0, len(hits))
	for _, id := range all {
		if wanted[id] {
			ids = append(ids, id)
		}
	}
	return ids, saved, nil
}

func listTargets(w io.Writer, ids []string, saved *storage.SavedSearch) {
	var r *comments.Result
	if saved != nil {
		r = saved.Result
	}
	for _, id := range ids {
		c, ok := comments.Comment{}, false
		if r != nil {
			c, ok = r.Find(id)
		}
		if !ok {
			fmt.Fprintf(w, "  %s\n", id)
			continue
		}
		fmt.Fprintf(w, "  %s  %s %s\n", id, clip(c.Text, 60), muted("on "+clip(c.VideoTitle, 30)))
	}
}
