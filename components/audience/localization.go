package audience

import (
	"strings"
)

// DefaultLocale is used when a viewer locale has no phrasebook.
const DefaultLocale = "en"

// Phrasebook holds the sentence templates for one language. Every template
// receives the event name followed by the count arguments listed in its comment.
type Phrasebook struct {
	PerformedOnce       string // event
	PerformedAtLeast    string // event, n
	PerformedMoreThan   string // event, n
	PerformedAtMost     string // event, n
	PerformedFewerThan  string // event, n
	PerformedExactly    string // event, n
	NeverPerformed      string // event
	PerformedNotEqualTo string // event, n, n+1

	NegativeCount string
	ZeroExactly   string
	ZeroAtMost    string
	ZeroFewerThan string

	AutoAddedLabel string
	EmptySummary   string
}

var phrasebooks = map[string]Phrasebook{
	"en": {
		PerformedOnce:       "performed %s at least once",
		PerformedAtLeast:    "performed %s at least %d times",
		PerformedMoreThan:   "performed %s more than %d times",
		PerformedAtMost:     "performed %s at most %d times",
		PerformedFewerThan:  "performed %s fewer than %d times",
		PerformedExactly:    "performed %s exactly %d times",
		NeverPerformed:      "never performed %s",
		PerformedNotEqualTo: "performed %s a count not equal to %d (0 or %d or more)",
		NegativeCount:       "cannot set a negative count condition; please set the condition again",
		ZeroExactly:         "users who performed the event 0 times have no population to query",
		ZeroAtMost:          "users who performed the event at most 0 times have no population to query",
		ZeroFewerThan:       "users who performed the event fewer than 1 time (0 times) have no population to query",
		AutoAddedLabel:      "auto added",
		EmptySummary:        "define a condition to see its summary here",
	},
	"ko": {
		PerformedOnce:       "%s을(를) 1회 이상 한 유저",
		PerformedAtLeast:    "%s을(를) %d회 이상 한 유저",
		PerformedMoreThan:   "%s을(를) %d회 초과로 한 유저",
		PerformedAtMost:     "%s을(를) %d회 이하로 한 유저",
		PerformedFewerThan:  "%s을(를) %d회 미만으로 한 유저",
		PerformedExactly:    "%s을(를) 정확히 %d회 한 유저",
		NeverPerformed:      "%s을(를) 한 번도 안 한 유저",
		PerformedNotEqualTo: "%s이(가) %d회가 아닌 유저 (0회 또는 %d회+)",
		NegativeCount:       "음수 조건은 설정할 수 없습니다. 조건을 다시 설정해주세요.",
		ZeroExactly:         "이벤트를 0회 수행한 유저는 모수가 없어 검색할 수 없습니다.",
		ZeroAtMost:          "이벤트를 0회 이하로 수행한 유저는 모수가 없어 검색할 수 없습니다.",
		ZeroFewerThan:       "이벤트를 1회 미만(0회) 수행한 유저는 모수가 없어 검색할 수 없습니다.",
		AutoAddedLabel:      "자동 추가",
		EmptySummary:        "조건을 정의하면 여기에 요약이 표시됩니다.",
	},
}

// PhrasebookFor selects the phrasebook for locale. Language-region pairs
// (`ko-kr`) fall back to their base language, then to DefaultLocale.
func PhrasebookFor(locale string) Phrasebook {
	for _, candidate := range localeCandidates(locale) {
		if book, ok := phrasebooks[candidate]; ok {
			return book
		}
	}
	return phrasebooks[DefaultLocale]
}

// SupportedLocales lists the locales with a phrasebook.
func SupportedLocales() []string {
	return []string{"en", "ko"}
}

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	return fallback
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{DefaultLocale}
	}
	candidates := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, DefaultLocale)
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}
