// Package normalize folds Polish place names into comparable forms.
//
// Display keeps word boundaries ("Praga-Południe" -> "praga poludnie") and is
// used for full-scan comparisons. Code drops them ("pragapoludnie") and is the
// ASCII key stored in the catalog.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacritics maps each Polish letter, upper or lower case, to its lowercase
// ASCII base. It is deliberately explicit: ł has no Unicode decomposition.
var diacritics = map[rune]rune{
	'ą': 'a', 'ć': 'c', 'ę': 'e', 'ł': 'l', 'ń': 'n', 'ó': 'o', 'ś': 's', 'ż': 'z', 'ź': 'z',
	'Ą': 'a', 'Ć': 'c', 'Ę': 'e', 'Ł': 'l', 'Ń': 'n', 'Ó': 'o', 'Ś': 's', 'Ż': 'z', 'Ź': 'z',
}

func foldRune(r rune) rune {
	if base, ok := diacritics[r]; ok {
		return base
	}
	return r
}

// folder composes combining sequences (geocoders may return NFD text), maps
// the diacritic table, then lowercases. Transformers carry state, so a fresh
// chain is built per call.
func folder() transform.Transformer {
	return transform.Chain(norm.NFC, runes.Map(foldRune), cases.Lower(language.Und))
}

func fold(text string) string {
	out := strings.TrimSpace(text)
	// Mapping a composed letter can expose a further combining mark
	// ("s" + two acute accents), so repeat until nothing changes. Each
	// changing round composes at least one pair, which bounds the loop.
	for range utf8.RuneCountInString(out) + 1 {
		next := foldOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func foldOnce(text string) string {
	out, _, err := transform.String(folder(), text)
	if err != nil {
		// Only reachable on invalid UTF-8 the transformers refuse; fall back
		// to the same steps without x/text.
		return strings.ToLower(strings.Map(foldRune, text))
	}
	return out
}

// Display returns the comparison form of text: trimmed, diacritic-free,
// lowercase, whitespace runs collapsed to one space, hyphens replaced by
// spaces. The hyphen step runs last, so "a - b" becomes "a   b".
func Display(text string) string {
	t := strings.Join(strings.Fields(fold(text)), " ")
	return strings.ReplaceAll(t, "-", " ")
}

// Code returns the ASCII catalog key for text: Display's folding with every
// whitespace and hyphen removed. Removing a separator can bring a combining
// mark next to a letter it composes with, so folding runs again until the
// key is stable.
func Code(text string) string {
	code := stripSeparators(fold(text))
	for range utf8.RuneCountInString(code) + 1 {
		next := stripSeparators(fold(code))
		if next == code {
			break
		}
		code = next
	}
	return code
}

func stripSeparators(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
