// Package cliutil holds argument parsing and output helpers shared by the
// ctags sub-commands.
package cliutil

import (
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/canonicaltags/ctags/internal/conf"
	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/runtime"
)

// ParseID parses a positive numeric tag or entity id argument.
func ParseID(what, arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.Newf("%s must be a positive integer, got %q", what, arg).
			Component("cmd").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}

// Locale returns the locale named by flag, or the engine's display locale
// when flag is empty.
func Locale(rc *runtime.Context, flag string) (entities.Locale, error) {
	if flag == "" {
		return rc.Engine.Locale(), nil
	}
	locale, err := conf.NormalizeLocale(flag)
	if err != nil {
		return "", errors.New(err).
			Component("cmd").
			Category(errors.CategoryValidation).
			Build()
	}
	return locale, nil
}

// NewTable returns a tab-aligned writer. Callers must Flush it.
func NewTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Approved renders a tag's approval flag.
func Approved(tag *entities.Tag, locale entities.Locale) string {
	if tag.Approved(locale) {
		return "yes"
	}
	return "no"
}
