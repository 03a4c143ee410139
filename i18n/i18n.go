// Package i18n holds the bot's message catalogue.
package i18n

import "strings"

// Lang is a supported interface language.
type Lang string

const (
	UZ Lang = "uz"
	RU Lang = "ru"
	EN Lang = "en"

	// Default is used for users who have not chosen a language yet.
	Default = EN
)

// Languages lists the selectable languages in menu order.
var Languages = []Lang{UZ, RU, EN}

var names = map[Lang]string{
	UZ: "🇺🇿 Oʻzbek",
	RU: "🇷🇺 Русский",
	EN: "🇺🇸 English",
}

// Name returns the display name of l, flag included.
func Name(l Lang) string {
	return names[l]
}

// Parse accepts a language code in any case.
func Parse(code string) (Lang, bool) {
	l := Lang(strings.ToLower(strings.TrimSpace(code)))
	_, ok := catalogue[l]
	return l, ok
}

// T returns the message for key in lang. Unknown languages fall back to
// Default and unknown keys are returned unchanged.
func T(lang Lang, key string) string {
	if msg, ok := catalogue[lang][key]; ok {
		return msg
	}
	if msg, ok := catalogue[Default][key]; ok {
		return msg
	}
	return key
}
