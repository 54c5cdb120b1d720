// Package migrate provides the schema migration command.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonicaltags/ctags/internal/runtime"
)

// Command creates the migrate command.
func Command(rt runtime.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tagging tables",
		Long:  `Migrate creates the tag, alias, entity type and association tables, applying the configured table prefix. Running it again is safe.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			if err := rc.Store.Initialize(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Schema ready at %s\n", rc.Store.Path())
			return err
		},
	}
}
