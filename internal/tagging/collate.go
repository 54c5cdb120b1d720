package tagging

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// Collator returns a case-insensitive collator for locale. Database ordering
// uses LOWER(name) byte order; collation is for human-facing output.
func Collator(locale entities.Locale) *collate.Collator {
	return collate.New(language.Make(string(locale)), collate.IgnoreCase)
}

// SortCloudByName orders cloud entries by tag name under the collation of
// locale, then by tag id.
func SortCloudByName(cloud []CloudTag, locale entities.Locale) {
	coll := Collator(locale)
	slices.SortStableFunc(cloud, func(a, b CloudTag) int {
		if c := coll.CompareString(a.Tag.Name(locale), b.Tag.Name(locale)); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag.ID, b.Tag.ID)
	})
}
