package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCataloguesHaveSameKeys(t *testing.T) {
	for _, l := range Languages {
		assert.Len(t, catalogue[l], len(catalogue[Default]), "language %s", l)
		for key := range catalogue[Default] {
			assert.Contains(t, catalogue[l], key, "language %s", l)
		}
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "❌ Site not found", T(EN, "site_not_found"))
	assert.Equal(t, "❌ Сайт не найден", T(RU, "site_not_found"))
	assert.Equal(t, "❌ Sayt topilmadi", T(UZ, "site_not_found"))

	assert.Equal(t, T(Default, "welcome"), T(Lang("de"), "welcome"))
	assert.Equal(t, "missing_key", T(EN, "missing_key"))
}

func TestParse(t *testing.T) {
	l, ok := Parse(" RU ")
	assert.True(t, ok)
	assert.Equal(t, RU, l)

	_, ok = Parse("de")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	for _, l := range Languages {
		assert.NotEmpty(t, Name(l))
	}
}
