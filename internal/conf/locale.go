// conf/locale.go maps user supplied locale codes onto the supported tag name columns

package conf

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// supportedTags lists the language tags matching entities.Locales, in the same order.
var supportedTags = func() []language.Tag {
	tags := make([]language.Tag, 0, len(entities.Locales))
	for _, l := range entities.Locales {
		tags = append(tags, language.Make(string(l)))
	}
	return tags
}()

// NormalizeLocale maps a BCP 47 code such as "pt-BR", "ja_JP" or "EN" onto
// one of the supported locales. Codes whose base language is not supported
// are rejected rather than matched to the closest fallback.
func NormalizeLocale(input string) (entities.Locale, error) {
	code := strings.TrimSpace(strings.ReplaceAll(input, "_", "-"))
	if code == "" {
		return "", fmt.Errorf("locale is empty")
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", input, err)
	}

	base, _ := tag.Base()
	for i, supported := range supportedTags {
		supportedBase, _ := supported.Base()
		if base == supportedBase {
			return entities.Locales[i], nil
		}
	}

	return "", fmt.Errorf("unsupported locale %q, expected one of %s", input, supportedList())
}

func supportedList() string {
	codes := make([]string, 0, len(entities.Locales))
	for _, l := range entities.Locales {
		codes = append(codes, string(l))
	}
	return strings.Join(codes, ", ")
}
