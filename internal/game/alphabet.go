// internal/game/alphabet.go
//
// Alphabet bookkeeping for the two supported languages.
// Responsibilities:
//   - Canonical normalization: lowercase plus collapsing ё to е, so look-alike
//     variants never break comparisons.
//   - Classifying a word into exactly one alphabet (or mixed/invalid).
//   - Uppercase alphabet boards and the remaining-letters display built from
//     the correct/absent sets accumulated during a session.
//
// Notes:
//   - The canonical Russian alphabet deliberately excludes Ё: after
//     normalization it can never appear in a stored word or a scored guess.

package game

import "strings"

const (
	russianUpper = "АБВГДЕЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ"
	englishUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Normalize lowercases a word and collapses ё to е.
// Every word is normalized before storage and before every comparison.
func Normalize(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	return strings.ReplaceAll(word, "ё", "е")
}

// Classification is the result of examining a word's letters.
type Classification int

const (
	ClassRussian Classification = iota
	ClassEnglish
	ClassMixed   // letters from both alphabets
	ClassInvalid // at least one non-alphabetic character
)

// Classify reports which alphabet a normalized word draws its letters from.
// A word with letters from both alphabets is ClassMixed; any character
// outside both alphabets makes it ClassInvalid.
func Classify(word string) Classification {
	var ru, en bool
	for _, r := range word {
		switch {
		case r >= 'а' && r <= 'я' || r == 'ё':
			ru = true
		case r >= 'a' && r <= 'z':
			en = true
		default:
			return ClassInvalid
		}
	}
	switch {
	case ru && en:
		return ClassMixed
	case ru:
		return ClassRussian
	case en:
		return ClassEnglish
	default:
		return ClassInvalid // empty string
	}
}

// Matches reports whether a normalized word uses only letters of lang.
func Matches(lang Language, word string) bool {
	c := Classify(word)
	return (lang == LangRussian && c == ClassRussian) ||
		(lang == LangEnglish && c == ClassEnglish)
}

// Alphabet returns the uppercase letters of lang in alphabet order.
func Alphabet(lang Language) string {
	if lang == LangRussian {
		return russianUpper
	}
	return englishUpper
}

// RemainingLetters lists the uppercase letters of lang that appear in neither
// the correct nor the absent set, space-separated for chat display.
func RemainingLetters(lang Language, correct, absent LetterSet) string {
	var b strings.Builder
	for _, r := range Alphabet(lang) {
		if correct.Has(r) || absent.Has(r) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
