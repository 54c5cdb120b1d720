// Package tags provides the tag vocabulary administration commands.
package tags

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonicaltags/ctags/cmd/cliutil"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/runtime"
)

// Command creates the tags parent command.
func Command(rt runtime.Provider) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect and administer the tag vocabulary",
	}

	tagsCmd.AddCommand(
		listCommand(rt),
		showCommand(rt),
		createCommand(rt),
		approveCommand(rt),
		renameCommand(rt),
		deleteCommand(rt),
		aliasCommand(rt),
		suggestCommand(rt),
	)
	return tagsCmd
}

func listCommand(rt runtime.Provider) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags ordered by display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			if pageSize == 0 {
				pageSize = rc.Settings.Tagging.AdminPageSize
			}

			result, err := rc.Engine.ListTags(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}

			locale := rc.Engine.Locale()
			w := cliutil.NewTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tAPPROVED")
			for _, tag := range result.Tags {
				fmt.Fprintf(w, "%d\t%s\t%s\n", tag.ID, tag.DisplayName(locale), cliutil.Approved(tag, locale))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			pages := (result.Total + int64(result.PageSize) - 1) / int64(result.PageSize)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d tags)\n", result.Page, max(pages, 1), result.Total)
			return err
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Tags per page (default: tagging.admin_page_size)")
	return cmd
}

func showCommand(rt runtime.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tag-id>",
		Short: "Show every localized name, approval flag and alias of a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			id, err := cliutil.ParseID("tag id", args[0])
			if err != nil {
				return err
			}

			tag, err := rc.Engine.GetTag(cmd.Context(), id)
			if err != nil {
				return err
			}
			aliases, err := rc.Engine.AliasesForTag(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printTag(cmd.OutOrStdout(), tag, aliases)
		},
	}
}

func printTag(out io.Writer, tag *entities.Tag, aliases []*entities.TagAlias) error {
	w := cliutil.NewTable(out)
	fmt.Fprintf(w, "Tag %d\n", tag.ID)
	fmt.Fprintln(w, "LOCALE\tNAME\tAPPROVED")
	for _, l := range entities.Locales {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l, tag.Name(l), cliutil.Approved(tag, l))
	}
	if len(aliases) > 0 {
		names := make([]string, len(aliases))
		for i, a := range aliases {
			names[i] = a.Name
		}
		fmt.Fprintf(w, "Aliases: %s\n", strings.Join(names, ", "))
	}
	return w.Flush()
}

func createCommand(rt runtime.Provider) *cobra.Command {
	var names map[string]string

	cmd := &cobra.Command{
		Use:   "create [tag-id]",
		Short: "Create a tag, letting the database assign the id when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			var id uint
			if len(args) == 1 {
				var err error
				if id, err = cliutil.ParseID("tag id", args[0]); err != nil {
					return err
				}
			}

			localized := make(map[entities.Locale]string, len(names))
			for code, name := range names {
				locale, err := cliutil.Locale(rc, code)
				if err != nil {
					return err
				}
				localized[locale] = name
			}

			tag, err := rc.Engine.CreateTag(cmd.Context(), id, localized)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created tag %d %s\n", tag.ID, tag.DisplayName(rc.Engine.Locale()))
			return err
		},
	}

	cmd.Flags().StringToStringVarP(&names, "name", "n", nil, "Localized name as locale=name, repeatable")
	return cmd
}

func approveCommand(rt runtime.Provider) *cobra.Command {
	var locale string
	var revoke bool

	cmd := &cobra.Command{
		Use:   "approve <tag-id>",
		Short: "Approve a tag's name in one locale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			id, err := cliutil.ParseID("tag id", args[0])
			if err != nil {
				return err
			}
			l, err := cliutil.Locale(rc, locale)
			if err != nil {
				return err
			}

			if err := rc.Engine.SetApproved(cmd.Context(), id, l, !revoke); err != nil {
				return err
			}
			verb := "Approved"
			if revoke {
				verb = "Revoked approval of"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s tag %d in %s\n", verb, id, l)
			return err
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Locale to approve (default: display locale)")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Clear the approval flag instead")
	return cmd
}

func renameCommand(rt runtime.Provider) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "rename <tag-id> <name>",
		Short: "Set a tag's name in one locale; an empty name clears it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			id, err := cliutil.ParseID("tag id", args[0])
			if err != nil {
				return err
			}
			l, err := cliutil.Locale(rc, locale)
			if err != nil {
				return err
			}

			if err := rc.Engine.SetName(cmd.Context(), id, l, args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Renamed tag %d in %s to %q\n", id, l, strings.TrimSpace(args[1]))
			return err
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "", "Locale to rename (default: display locale)")
	return cmd
}

func deleteCommand(rt runtime.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag-id>",
		Short: "Delete a tag with its aliases and associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			id, err := cliutil.ParseID("tag id", args[0])
			if err != nil {
				return err
			}
			if err := rc.Engine.DeleteTag(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %d\n", id)
			return err
		},
	}
}

func aliasCommand(rt runtime.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "alias <tag-id> <alias>",
		Short: "Add an autocomplete alias for a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			id, err := cliutil.ParseID("tag id", args[0])
			if err != nil {
				return err
			}
			alias, err := rc.Engine.CreateAlias(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Alias %q now points at tag %d\n", alias.Name, id)
			return err
		},
	}
}

func suggestCommand(rt runtime.Provider) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Suggest tags whose aliases start with prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := rt()
			if limit == 0 {
				limit = rc.Settings.Tagging.AliasSuggestLimit
			}

			suggestions, err := rc.Engine.SuggestAliases(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			locale := rc.Engine.Locale()
			w := cliutil.NewTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ALIAS\tTAG\tNAME")
			for _, s := range suggestions {
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Alias.Name, s.Tag.ID, s.Tag.DisplayName(locale))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum suggestions (default: tagging.alias_suggest_limit)")
	return cmd
}
