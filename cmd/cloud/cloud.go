// Package cloud provides the tag cloud command.
package cloud

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonicaltags/ctags/cmd/cliutil"
	"github.com/canonicaltags/ctags/internal/runtime"
	"github.com/canonicaltags/ctags/internal/tagging"
)

// Command creates the cloud command.
func Command(rt runtime.Provider) *cobra.Command {
	var (
		steps        int
		distribution string
		minCount     int
	)

	cmd := &cobra.Command{
		Use:   "cloud <entity-type>",
		Short: "Print the tag cloud of an entity type",
		Long:  `Cloud weights every tag used by entities of the given type into a font size between 1 and --steps. Output is sorted by tag name in the display locale.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			opts := tagging.CloudOptions{Steps: steps, MinCount: minCount}
			if opts.Steps == 0 {
				opts.Steps = rc.Settings.Tagging.CloudSteps
			}
			if distribution == "" {
				distribution = rc.Settings.Tagging.CloudDistribution
			}
			dist, err := tagging.ParseDistribution(distribution)
			if err != nil {
				return err
			}
			opts.Distribution = dist

			cloud, err := rc.Engine.Cloud(cmd.Context(), tagging.Scope{Type: args[0]}, opts)
			if err != nil {
				return err
			}

			locale := rc.Engine.Locale()
			tagging.SortCloudByName(cloud, locale)

			w := cliutil.NewTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "TAG\tNAME\tCOUNT\tSIZE")
			for _, c := range cloud {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", c.Tag.ID, c.Tag.DisplayName(locale), c.Count, c.FontSize)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 0, "Number of font sizes (default: tagging.cloud_steps)")
	cmd.Flags().StringVar(&distribution, "distribution", "", "linear or logarithmic (default: tagging.cloud_distribution)")
	cmd.Flags().IntVar(&minCount, "min-count", 0, "Omit tags used fewer times than this")
	return cmd
}
