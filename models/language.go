package models

import "fmt"

// Language is the display locale tag selected for a session
type Language string

const (
	LanguageEnglish Language = "EN"
	LanguageYoruba  Language = "YOR"
	LanguageIgbo    Language = "IGB"
	LanguageHausa   Language = "HAU"
)

// DefaultLanguage is used when a session does not pick one
const DefaultLanguage = LanguageEnglish

var allLanguages = []Language{LanguageEnglish, LanguageYoruba, LanguageIgbo, LanguageHausa}

// AllLanguages returns the supported languages
func AllLanguages() []Language {
	out := make([]Language, len(allLanguages))
	copy(out, allLanguages)
	return out
}

// IsValid reports whether l is supported
func (l Language) IsValid() bool {
	for _, known := range allLanguages {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLanguage converts a raw string into a supported Language
func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if !l.IsValid() {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return l, nil
}
