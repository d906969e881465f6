package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/ytsweep/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	rt, err := opts.openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	events, unsubscribe := rt.bus.Chan(256)
	defer unsubscribe()

	app := tui.NewApp(rt.cfg, tui.Deps{
		Engine: rt.engine,
		Events: events,
		Store:  rt.store,
		Opener: rt.launcher,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
