package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/lotas/tabtidy/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of all data, or the saved groups as markdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			ctx := cmd.Context()
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("output")

			var data []byte
			switch format {
			case "json":
				var err error
				data, err = export.Dump(ctx, app.Docs)
				if err != nil {
					return err
				}
			case "markdown", "md":
				groups, err := app.Groups.List(ctx)
				if err != nil {
					return err
				}
				data = []byte(export.Markdown(groups))
			default:
				return fmt.Errorf("unknown format %q (use json or markdown)", format)
			}

			if outPath == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if outPath == "auto" {
				outPath = export.FileName(time.Now())
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "json", "json (full backup) or markdown")
	cmd.Flags().StringP("output", "o", "", `output file ("auto" for a timestamped name); stdout if empty`)
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace saved data with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			b, err := export.ParseBackup(data)
			if err != nil {
				return err
			}

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				p := newLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				ok, err := p.confirm(fmt.Sprintf("Import %s? This will replace your current data.", plural(len(b.Groups), "group")))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}
			if err := export.Restore(cmd.Context(), app.Docs, app.Groups, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", plural(len(b.Groups), "group"))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}
