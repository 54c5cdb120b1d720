package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

func TestNormalizeLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  entities.Locale
	}{
		{"en", entities.LocaleEn},
		{"EN", entities.LocaleEn},
		{"en-GB", entities.LocaleEn},
		{"ja_JP", entities.LocaleJa},
		{"es-419", entities.LocaleEs},
		{"pt-BR", entities.LocalePt},
		{" pt ", entities.LocalePt},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeLocale(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeLocaleRejects(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "fr", "de-DE", "not a locale"} {
		_, err := NormalizeLocale(input)
		assert.Error(t, err, input)
	}
}
