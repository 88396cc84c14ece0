package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabtidy/internal/server"
	"github.com/lotas/tabtidy/internal/tui"
	"github.com/spf13/cobra"
)

// eventSource is implemented by hosts that push tab changes.
type eventSource interface {
	Events() <-chan server.IncomingMsg
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive UI (default)",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	app := appFrom(cmd)
	offline, _ := cmd.Flags().GetBool("offline")

	h, release, err := OpenHost(cmd.Context(), app.Config, offline)
	if err != nil {
		return err
	}
	defer release()

	deps := tui.Deps{
		Host:           h,
		Ops:            newOrchestrator(app, h),
		Groups:         app.Groups,
		Docs:           app.Docs,
		MaxNamePrompts: app.Config.MaxNamePrompts,
	}
	if src, ok := h.(eventSource); ok {
		deps.Events = src.Events()
		deps.Source = "Live ● connected"
	} else {
		deps.Source = fmt.Sprintf("Profile: %s (read-only)", profileLabel(app.Config.Profile))
	}

	p := tea.NewProgram(tui.NewModel(cmd.Context(), deps), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func profileLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
