// Package cmd wires the ctags command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canonicaltags/ctags/cmd/cloud"
	"github.com/canonicaltags/ctags/cmd/fixtures"
	"github.com/canonicaltags/ctags/cmd/migrate"
	"github.com/canonicaltags/ctags/cmd/related"
	"github.com/canonicaltags/ctags/cmd/tags"
	"github.com/canonicaltags/ctags/internal/conf"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/runtime"
)

// App owns the root command and the runtime it builds before any
// sub-command runs.
type App struct {
	build      runtime.BuildInfo
	configFile string
	rc         *runtime.Context
	root       *cobra.Command
}

// NewApp creates the command tree.
func NewApp(build runtime.BuildInfo) *App {
	app := &App{build: build}
	provider := func() *runtime.Context { return app.rc }

	rootCmd := &cobra.Command{
		Use:           "ctags",
		Short:         "Canonical tag vocabulary and tagging engine",
		Version:       fmt.Sprintf("%s (built %s)", build.Version, build.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, &app.configFile); err != nil {
		// Flag names are static, so a bind failure is a programming error.
		panic(err)
	}

	migrateCmd := migrate.Command(provider)
	subcommands := []*cobra.Command{
		migrateCmd,
		tags.Command(provider),
		cloud.Command(provider),
		related.Command(provider),
		fixtures.Command(provider),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !needsRuntime(cmd) {
			return nil
		}
		if err := app.initialize(cmd); err != nil {
			return err
		}
		if cmd != migrateCmd {
			return app.rc.RequireSchema()
		}
		return nil
	}

	app.root = rootCmd
	return app
}

// needsRuntime excludes cobra's built-in help and completion commands.
func needsRuntime(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

// initialize loads settings and builds the runtime, stamping the command
// context with a fresh trace id.
func (a *App) initialize(cmd *cobra.Command) error {
	settings, err := conf.Load(a.configFile)
	if err != nil {
		return errors.New(err).
			Component("cmd").
			Category(errors.CategoryConfiguration).
			Build()
	}

	rc, err := runtime.New(settings, a.build)
	if err != nil {
		return err
	}
	a.rc = rc

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(rc.WithTrace(ctx, uuid.NewString()))
	return nil
}

// Command returns the root command.
func (a *App) Command() *cobra.Command {
	return a.root
}

// Execute runs the command line and releases the runtime, whether or not
// the command succeeded.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	err := a.root.ExecuteContext(ctx)
	if a.rc != nil {
		if cerr := a.rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
		a.rc = nil
	}
	return err
}

// setupFlags defines the global flags and binds them to their settings keys.
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/ctags, /etc/ctags)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("db", "", "SQLite database path")
	flags.String("locale", "", "Display locale for names and ordering (en, ja, es, pt)")

	bindings := map[string]string{
		"debug":                  "debug",
		"database.path":          "db",
		"tagging.default_locale": "locale",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}
