package messages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/messages"
)

func loadCatalog(t *testing.T) *messages.Catalog {
	t.Helper()
	c, err := messages.Load()
	require.NoError(t, err)
	return c
}

func TestLoad_BundledLocales(t *testing.T) {
	c := loadCatalog(t)
	locales := c.Locales()
	require.NotEmpty(t, locales)
	assert.Equal(t, messages.DefaultLocale, locales[0])
	assert.ElementsMatch(t, []string{"en", "zh_TW", "zh_CN"}, locales)
}

func TestResolve(t *testing.T) {
	c := loadCatalog(t)

	tests := []struct {
		locale   string
		expected string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"zh-TW", "zh_TW"},
		{"zh_TW", "zh_TW"},
		{"zh-CN", "zh_CN"},
		{"zh_CN", "zh_CN"},
		{"", "en"},
		{"not a locale!", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Resolve(tt.locale))
		})
	}
}

func TestFormat_Navigation(t *testing.T) {
	c := loadCatalog(t)
	assert.Equal(t, "3 / 12", c.Format("en", "highlightNavigation", "3", "12"))
	assert.Equal(t, "1 / 2", c.Format("zh_TW", "highlightNavigation", "1", "2"))
}

func TestFormat_Localized(t *testing.T) {
	c := loadCatalog(t)
	assert.Equal(t, "Scan completed. Found 5 matches.", c.Format("en", "scanCompleted", "5"))
	assert.Equal(t, "掃描完成，找到 5 個結果。", c.Format("zh-TW", "scanCompleted", "5"))
	assert.Equal(t, "已清除高亮", c.Format("zh-CN", "highlightsCleared"))
}

func TestFormat_Fallbacks(t *testing.T) {
	c := loadCatalog(t)

	// Only the default catalog defines this key
	assert.Equal(t, "Unknown action: bogus", c.Format("zh_TW", "unknownAction", "bogus"))
	assert.Equal(t, "noSuchKey", c.Format("en", "noSuchKey"))
}

func TestFormat_MissingArgumentsAreEmpty(t *testing.T) {
	c := loadCatalog(t)
	assert.Equal(t, " / ", c.Format("en", "highlightNavigation"))
}
