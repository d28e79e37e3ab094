package audience

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhrasebookFor(t *testing.T) {
	assert.Equal(t, phrasebooks["ko"], PhrasebookFor("ko-KR"))
	assert.Equal(t, phrasebooks["ko"], PhrasebookFor(" KO_kr "))
	assert.Equal(t, phrasebooks["en"], PhrasebookFor("de"))
	assert.Equal(t, phrasebooks["en"], PhrasebookFor(""))
}

func TestPhrasebooksAreComplete(t *testing.T) {
	for _, locale := range SupportedLocales() {
		book, ok := phrasebooks[locale]
		if !assert.True(t, ok, locale) {
			continue
		}
		for name, value := range map[string]string{
			"PerformedOnce":       book.PerformedOnce,
			"PerformedAtLeast":    book.PerformedAtLeast,
			"PerformedMoreThan":   book.PerformedMoreThan,
			"PerformedAtMost":     book.PerformedAtMost,
			"PerformedFewerThan":  book.PerformedFewerThan,
			"PerformedExactly":    book.PerformedExactly,
			"NeverPerformed":      book.NeverPerformed,
			"PerformedNotEqualTo": book.PerformedNotEqualTo,
			"NegativeCount":       book.NegativeCount,
			"ZeroExactly":         book.ZeroExactly,
			"ZeroAtMost":          book.ZeroAtMost,
			"ZeroFewerThan":       book.ZeroFewerThan,
			"AutoAddedLabel":      book.AutoAddedLabel,
			"EmptySummary":        book.EmptySummary,
		} {
			assert.NotEmpty(t, value, "%s.%s", locale, name)
		}
	}
}

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{"en": "Audience", "KO": "오디언스"}
	assert.Equal(t, "오디언스", ResolveLocalizedValue(values, "ko-kr", "fallback"))
	assert.Equal(t, "Audience", ResolveLocalizedValue(values, "fr", "fallback"))
	assert.Equal(t, "fallback", ResolveLocalizedValue(nil, "en", "fallback"))
}
