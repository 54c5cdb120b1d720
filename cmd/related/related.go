// Package related provides the related entities command.
package related

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/canonicaltags/ctags/cmd/cliutil"
	"github.com/canonicaltags/ctags/internal/runtime"
	"github.com/canonicaltags/ctags/internal/tagging"
)

// Command creates the related command.
func Command(rt runtime.Provider) *cobra.Command {
	var (
		target  string
		limit   int
		records bool
	)

	cmd := &cobra.Command{
		Use:   "related <entity-type> <entity-id>",
		Short: "Rank entities by the number of tags they share with one entity",
		Long: `Related ranks entities of --target (default: the same type) by shared tags, most shared first.
With --records the ranked entities are read from the host table registered under catalog.sources.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			id, err := cliutil.ParseID("entity id", args[1])
			if err != nil {
				return err
			}
			source := tagging.EntityRef{Type: args[0], ID: id}
			if target == "" {
				target = source.Type
			}
			if limit < 0 {
				limit = rc.Settings.Tagging.RelatedLimit
			}
			scope := tagging.Scope{Type: target}

			w := cliutil.NewTable(cmd.OutOrStdout())
			if records {
				found, err := rc.Engine.RelatedRecords(cmd.Context(), source, scope, limit)
				if err != nil {
					return err
				}
				for _, r := range found {
					fmt.Fprintf(w, "%s:%d", target, r.ID)
					for _, k := range slices.Sorted(maps.Keys(r.Fields)) {
						fmt.Fprintf(w, "\t%s=%v", k, r.Fields[k])
					}
					fmt.Fprintln(w)
				}
				return w.Flush()
			}

			ranked, err := rc.Engine.RelatedEntities(cmd.Context(), source, scope, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ENTITY\tSHARED")
			for _, r := range ranked {
				fmt.Fprintf(w, "%s\t%d\n", r.Ref, r.Shared)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Entity type to rank (default: the source type)")
	cmd.Flags().IntVar(&limit, "limit", -1, "Maximum entities, 0 for all (default: tagging.related_limit)")
	cmd.Flags().BoolVar(&records, "records", false, "Print the host records of the ranked entities")
	return cmd
}
