// Package cli provides the tabtidy command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lotas/tabtidy/internal/applog"
	"github.com/lotas/tabtidy/internal/config"
	"github.com/lotas/tabtidy/internal/firefox"
	"github.com/lotas/tabtidy/internal/groupstore"
	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/server"
	"github.com/lotas/tabtidy/internal/storage"
	"github.com/lotas/tabtidy/internal/tabops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connectTimeout bounds how long commands wait for the extension.
const connectTimeout = 60 * time.Second

// App holds what every command needs: configuration and the opened store.
type App struct {
	Config *config.Config
	Docs   *storage.SQLiteStore
	Groups *groupstore.Store
}

// Close closes the database.
func (a *App) Close() error {
	if a.Docs != nil {
		return a.Docs.Close()
	}
	return nil
}

// HostFunc opens the tab host commands act on. The returned func releases it.
type HostFunc func(ctx context.Context, cfg *config.Config, offline bool) (host.TabHost, func(), error)

// OpenHost is the host used by commands. Tests replace it.
var OpenHost HostFunc = openHost

// openHost connects to the extension, or reads the Firefox session file of
// the configured profile when offline.
func openHost(ctx context.Context, cfg *config.Config, offline bool) (host.TabHost, func(), error) {
	if offline {
		profiles, err := firefox.DiscoverProfiles()
		if err != nil {
			return nil, nil, fmt.Errorf("discover profiles: %w", err)
		}
		p, err := firefox.SelectProfile(profiles, cfg.Profile)
		if err != nil {
			return nil, nil, err
		}
		applog.Info("host.offline", "profile", p.Name)
		return firefox.NewSessionHost(p.Path), func() {}, nil
	}

	srv := server.New(cfg.Port)
	srvCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := srv.ListenAndServe(srvCtx); err != nil {
			applog.Error("server.listen", err)
		}
	}()

	fmt.Fprintln(os.Stderr, "Waiting for extension connection...")
	waitCtx, waitCancel := context.WithTimeout(ctx, connectTimeout)
	defer waitCancel()
	if err := srv.WaitConnected(waitCtx); err != nil {
		cancel()
		return nil, nil, err
	}
	return server.NewBridge(srv, cfg.HostTimeout), cancel, nil
}

func openApp(cfg *config.Config) (*App, error) {
	docs, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &App{
		Config: cfg,
		Docs:   docs,
		Groups: groupstore.New(docs, groupstore.WithMaxNamePrompts(cfg.MaxNamePrompts)),
	}, nil
}

// orchestrator opens the host and wraps it for tab actions.
func (a *App) orchestrator(ctx context.Context, offline bool) (*tabops.Orchestrator, func(), error) {
	h, release, err := OpenHost(ctx, a.Config, offline)
	if err != nil {
		return nil, nil, err
	}
	return newOrchestrator(a, h), release, nil
}

func newOrchestrator(a *App, h host.TabHost) *tabops.Orchestrator {
	return tabops.New(h, a.Config.PlaceholderURL)
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *App {
	return cmd.Context().Value(appKey{}).(*App)
}

// NewRootCmd creates the root command. Without a subcommand it starts the
// interactive UI.
func NewRootCmd(version string) *cobra.Command {
	v, vErr := config.New()
	var app *App

	root := &cobra.Command{
		Use:           "tabtidy",
		Short:         "Save, restore and tidy browser tab groups",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if vErr != nil {
				return vErr
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := applog.Init(cfg.LogDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
			}
			app, err = openApp(cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			defer applog.Close()
			if app != nil {
				return app.Close()
			}
			return nil
		},
		RunE: runTUI,
	}

	flags := root.PersistentFlags()
	flags.String("db", "", "path to the database file")
	flags.Int("port", 0, "WebSocket port the extension connects to")
	flags.String("profile", "", "Firefox profile used with --offline")
	flags.String("placeholder-url", "", "URL opened when a close would empty the window")
	flags.Bool("offline", false, "read tabs from the Firefox session file instead of the extension")
	if vErr == nil {
		bindFlags(v, root)
	}

	root.AddCommand(
		newTUICmd(),
		newSaveCmd(),
		newListCmd(),
		newRestoreCmd(),
		newDeleteCmd(),
		newRemoveTabCmd(),
		newDupesCmd(),
		newExportCmd(),
		newImportCmd(),
		newClearCmd(),
		newStatsCmd(),
		newSettingsCmd(),
		newProfilesCmd(),
	)
	return root
}

func bindFlags(v *viper.Viper, root *cobra.Command) {
	for key, flag := range map[string]string{
		"db_path":         "db",
		"port":            "port",
		"profile":         "profile",
		"placeholder_url": "placeholder-url",
	} {
		// Only flags the user actually set override the config.
		_ = v.BindPFlag(key, root.PersistentFlags().Lookup(flag))
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
