package extract

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a supported request language code.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Marathi Language = "mr"
)

// Languages lists the supported languages in matcher preference order.
var Languages = []Language{English, Hindi, Marathi}

var matcher = language.NewMatcher([]language.Tag{
	language.MustParse(string(English)),
	language.MustParse(string(Hindi)),
	language.MustParse(string(Marathi)),
})

// ParseLanguage maps a BCP 47 tag such as "hi" or "mr-IN" onto a supported
// language.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return "", errors.New("language is required")
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", s, err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return Languages[idx], nil
}

// EnglishName returns the language's name in English, e.g. "Marathi".
func (l Language) EnglishName() string {
	tag, err := language.Parse(string(l))
	if err != nil {
		return string(l)
	}
	return display.English.Tags().Name(tag)
}
