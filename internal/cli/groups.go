package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/lotas/tabtidy/internal/analyzer"
	"github.com/lotas/tabtidy/internal/export"
	"github.com/lotas/tabtidy/internal/groupstore"
	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/settings"
	"github.com/lotas/tabtidy/internal/types"
	"github.com/spf13/cobra"
)

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// resolveGroup finds a group by id, falling back to its name.
func resolveGroup(ctx context.Context, groups *groupstore.Store, ref string) (types.TabGroup, error) {
	g, ok, err := groups.Get(ctx, ref)
	if err != nil {
		return types.TabGroup{}, err
	}
	if ok {
		return g, nil
	}
	matches, err := groups.FindByName(ctx, ref)
	if err != nil {
		return types.TabGroup{}, err
	}
	if len(matches) == 0 {
		return types.TabGroup{}, fmt.Errorf("no saved group %q", ref)
	}
	return matches[0], nil
}

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the tabs of the current window as a named group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			offline, _ := cmd.Flags().GetBool("offline")

			o, release, err := app.orchestrator(ctx, offline)
			if err != nil {
				return err
			}
			defer release()

			snaps, err := o.Capture(ctx, nil)
			if err != nil {
				return err
			}
			prompter := newLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			id, err := app.Groups.Save(ctx, strings.Join(args, " "), snaps, prompter)
			if err != nil {
				return err
			}
			g, _, err := app.Groups.Get(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s as %q\n", plural(len(snaps), "tab"), g.Name)

			closeTabs, err := shouldCloseAfterSave(cmd, app, prompter, len(snaps))
			if err != nil || !closeTabs {
				return err
			}
			n, err := o.CloseSaved(ctx, snaps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %s\n", plural(n, "tab"))
			return nil
		},
	}
	cmd.Flags().Bool("close", false, "close the saved tabs afterwards")
	cmd.Flags().Bool("keep", false, "keep the saved tabs open")
	return cmd
}

// shouldCloseAfterSave applies --close/--keep, then the closeAfterSave
// setting.
func shouldCloseAfterSave(cmd *cobra.Command, app *App, p *linePrompter, count int) (bool, error) {
	if c, _ := cmd.Flags().GetBool("close"); c {
		return true, nil
	}
	if k, _ := cmd.Flags().GetBool("keep"); k {
		return false, nil
	}
	s, err := settings.Load(cmd.Context(), app.Docs)
	if err != nil {
		return false, err
	}
	switch s.TabManagement.CloseAfterSave {
	case settings.CloseAlways:
		return true, nil
	case settings.CloseNever:
		return false, nil
	}
	return p.confirm(fmt.Sprintf("Close the %s?", plural(count, "tab")))
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved groups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			groups, err := app.Groups.List(cmd.Context())
			if err != nil {
				return err
			}
			query, _ := cmd.Flags().GetString("search")
			groups = analyzer.FilterGroups(groups, query)
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved groups.")
				return nil
			}
			withTabs, _ := cmd.Flags().GetBool("tabs")
			writeGroups(cmd.OutOrStdout(), groups, withTabs)
			return nil
		},
	}
	cmd.Flags().Bool("tabs", false, "show the tabs of each group")
	cmd.Flags().StringP("search", "s", "", "only groups whose name, titles or URLs contain this")
	return cmd
}

func writeGroups(out io.Writer, groups []types.TabGroup, withTabs bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTABS\tSAVED")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Name, len(g.Snapshots), export.FormatDate(g.CreatedAt))
		if withTabs {
			for i, s := range g.Snapshots {
				title := s.Title
				if title == "" {
					title = s.URL
				}
				fmt.Fprintf(w, "\t  %d. %s\t\t%s\n", i+1, title, s.URL)
			}
		}
	}
	w.Flush()
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <group>",
		Short: "Open every tab of a saved group in the background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			g, err := resolveGroup(ctx, app.Groups, args[0])
			if err != nil {
				return err
			}
			o, release, err := app.orchestrator(ctx, false)
			if err != nil {
				return err
			}
			defer release()

			n, err := o.Restore(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", plural(n, "tab"))
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group>...",
		Short: "Delete saved groups by id or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			var ids []string
			for _, ref := range args {
				g, err := resolveGroup(ctx, app.Groups, ref)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %v\n", ref, err)
					continue
				}
				ids = append(ids, g.ID)
			}
			if err := app.Groups.DeleteMany(ctx, ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", plural(len(ids), "group"))
			return nil
		},
	}
}

func newRemoveTabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-tab <group> <n>",
		Short: "Remove the n-th tab (1-based) from a saved group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("tab number: %w", err)
			}
			g, err := resolveGroup(ctx, app.Groups, args[0])
			if err != nil {
				return err
			}
			deleted, err := app.Groups.RemoveSnapshot(ctx, g.ID, n-1)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed the last tab; group %q deleted\n", g.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed tab %d from %q\n", n, g.Name)
			}
			return nil
		},
	}
}

func newDupesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Show duplicate tabs in the current window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			offline, _ := cmd.Flags().GetBool("offline")
			closeThem, _ := cmd.Flags().GetBool("close")

			h, release, err := OpenHost(ctx, app.Config, offline)
			if err != nil {
				return err
			}
			defer release()

			tabs, err := h.Query(ctx, host.Filter{CurrentWindow: true})
			if err != nil {
				return err
			}
			of := analyzer.DuplicateOf(tabs)
			if len(of) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicate tabs found")
				return nil
			}
			byID := make(map[int]types.LiveTab, len(tabs))
			for _, t := range tabs {
				byID[t.ID] = t
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, id := range analyzer.DuplicateIDs(tabs) {
				t := byID[id]
				fmt.Fprintf(w, "%d\t%s\t(same as %d)\n", t.ID, t.URL, of[id])
			}
			w.Flush()

			if !closeThem {
				return nil
			}
			n, err := newOrchestrator(app, h).CloseDuplicates(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %s\n", plural(n, "duplicate tab"))
			return nil
		},
	}
	cmd.Flags().Bool("close", false, "close the duplicates (pinned tabs stay open)")
	return cmd
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			if force, _ := cmd.Flags().GetBool("force"); !force {
				p := newLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				for _, q := range []string{
					"Delete all saved groups? This cannot be undone.",
					"Are you absolutely sure?",
				} {
					ok, err := p.confirm(q)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}
			}
			if err := app.Groups.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data cleared")
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "skip the confirmation prompts")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many groups and tabs are saved",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			groups, err := app.Groups.List(ctx)
			if err != nil {
				return err
			}
			size, err := export.Size(ctx, app.Docs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), analyzer.Describe(analyzer.ComputeStats(groups, size)))
			return nil
		},
	}
}
