// Package fixtures provides the fixture dump and load commands.
package fixtures

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonicaltags/ctags/internal/fixtures"
	"github.com/canonicaltags/ctags/internal/runtime"
)

// Command creates the fixtures parent command.
func Command(rt runtime.Provider) *cobra.Command {
	fixturesCmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Dump or load the tag vocabulary as YAML",
	}
	fixturesCmd.AddCommand(dumpCommand(rt), loadCommand(rt))
	return fixturesCmd
}

func dumpCommand(rt runtime.Provider) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write every tag and alias as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rc := rt()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}

			return fixtures.Dump(cmd.Context(), rc.Store, rc.Engine.Locale(), w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default: stdout)")
	return cmd
}

func loadCommand(rt runtime.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Upsert tags and aliases from a YAML fixture; '-' reads stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			result, err := fixtures.Load(cmd.Context(), rc.Store, r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d tags and %d aliases\n", result.Tags, result.Aliases)
			return err
		},
	}
}
