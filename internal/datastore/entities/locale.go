package entities

import "fmt"

// Locale identifies one of the fixed localized name columns of a Tag.
type Locale string

const (
	LocaleEn Locale = "en"
	LocaleJa Locale = "ja"
	LocaleEs Locale = "es"
	LocalePt Locale = "pt"
)

// Locales lists the supported locales in column order.
var Locales = []Locale{LocaleEn, LocaleJa, LocaleEs, LocalePt}

// DefaultLocale is used for display ordering when no locale is configured.
const DefaultLocale = LocaleEn

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	switch l {
	case LocaleEn, LocaleJa, LocaleEs, LocalePt:
		return true
	}
	return false
}

// NameColumn returns the database column holding the tag name for l.
func (l Locale) NameColumn() string {
	return "name_" + string(l)
}

// ApprovedColumn returns the database column holding the approval flag for l.
func (l Locale) ApprovedColumn() string {
	return "approved_" + string(l)
}

// ParseLocale validates a locale code.
func ParseLocale(s string) (Locale, error) {
	l := Locale(s)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported locale %q", s)
	}
	return l, nil
}
