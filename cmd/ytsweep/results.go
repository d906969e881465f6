package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/export"
	"github.com/pders01/ytsweep/internal/tui"
	"github.com/spf13/cobra"
)

func newResultsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "results",
		Aliases: []string{"saved"},
		Short:   "Inspect, query and export the saved search",
	}
	cmd.AddCommand(
		newResultsShowCmd(opts),
		newResultsFindCmd(opts),
		newResultsExportCmd(opts),
		newResultsClearCmd(opts),
		newResultsHistoryCmd(opts),
	)
	return cmd
}

func newResultsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			saved, err := rt.lastSearch()
			if err != nil {
				return err
			}
			return renderMarkdown(cmd.OutOrStdout(), searchMarkdown(saved))
		},
	}
}

func newResultsFindCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Rank the saved matches by relevance to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			saved, err := rt.lastSearch()
			if err != nil {
				return err
			}
			hits, err := rt.findSaved(saved, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No hits")
				return nil
			}

			t := newTable("SCORE", "ID", "VIDEO", "SNIPPET")
			for _, h := range hits {
				t.Row(strconv.FormatFloat(h.Score, 'f', 2, 64), h.Comment.ID,
					clip(h.Comment.VideoTitle, 24), clip(h.Snippet, 60))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of hits")
	return cmd
}

func newResultsExportCmd(opts *rootOptions) *cobra.Command {
	var formatName string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the saved search to a JSON, TOML or YAML file",
		Long: `Writes the saved search to file. The format comes from --format, or
else from the file extension, and defaults to JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := export.JSON
			if formatName != "" {
				f, err := export.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			} else if f, ok := export.FormatFromPath(args[0]); ok {
				format = f
			}

			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			path, err := rt.paths.ExportPath(args[0])
			if err != nil {
				return fmt.Errorf("invalid export path: %w", err)
			}
			saved, err := rt.lastSearch()
			if err != nil {
				return err
			}
			if err := export.WriteFile(path, format, saved); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Exported %d match(es) to %s", resultCount(saved.Result), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "json, toml or yaml")
	return cmd
}

func newResultsClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store.ClearLastSearch(); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Saved search cleared")
			return nil
		},
	}
}

func newResultsHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent searches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.store.History(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No searches yet")
				return nil
			}

			t := newTable("WHEN", "KEYWORD", "EXCLUDING", "MATCHES", "VIDEOS", "QUOTA")
			for _, e := range entries {
				t.Row(e.SavedAt.Local().Format(time.DateTime), e.Keyword, strings.Join(e.Exclusions, ", "),
					strconv.Itoa(e.Matches), strconv.Itoa(e.Videos), strconv.FormatInt(e.Quota, 10))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of entries")
	return cmd
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Foreground(tui.SecondaryColor).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(tui.MutedColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func resultCount(r *comments.Result) int {
	if r == nil {
		return 0
	}
	return r.Count()
}
