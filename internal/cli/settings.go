package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lotas/tabtidy/internal/firefox"
	"github.com/lotas/tabtidy/internal/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		RunE:  showSettings,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current preferences",
		RunE:  showSettings,
	}

	set := &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Change one preference",
		Long:  "Change one preference. Fields:\n  " + strings.Join(settings.Fields(), "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			s, err := settings.Load(cmd.Context(), app.Docs)
			if err != nil {
				return err
			}
			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := settings.Save(cmd.Context(), app.Docs, s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved")
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := settings.Reset(cmd.Context(), appFrom(cmd).Docs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults")
			return nil
		},
	}

	cmd.AddCommand(show, set, reset)
	return cmd
}

func showSettings(cmd *cobra.Command, _ []string) error {
	s, err := settings.Load(cmd.Context(), appFrom(cmd).Docs)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List Firefox profiles usable with --offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := firefox.DiscoverProfiles()
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No Firefox profiles found.")
				return nil
			}
			for _, p := range profiles {
				def := ""
				if p.IsDefault {
					def = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n    %s\n", p.Name, def, p.Path)
			}
			return nil
		},
	}
}
