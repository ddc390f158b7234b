// internal/game/scorer.go
//
// Feedback scorer for a single guess against a secret word.
// Responsibilities:
//   - Score guesses using the classic two-pass algorithm with correct
//     handling of repeated letters.
//   - Report which letters the attempt proved present (exact or partial)
//     and which it proved absent.
//
// Preconditions:
//   - secret and guess are equal-length, non-empty, and pre-normalized
//     (lowercase, single alphabet, ё collapsed) by the caller.

package game

import (
	"strings"
	"unicode"
)

// Score evaluates guess against secret and returns the uppercased guess for
// display, the per-position marks, and the letters the attempt classified as
// present in or absent from the secret word.
//
// Pass 1: mark exact positions and count the remaining (non-exact) secret
// letters per rune.
//
// Pass 2: for each non-exact position, consume a remaining count for that
// letter if one is left (partial), otherwise mark it absent.
//
// A single pass checking "is guess[i] anywhere in secret" would over-count a
// letter that repeats in the guess but not in the secret; decrementing the
// remaining counts prevents that.
func Score(secret, guess string) (display string, marks []Mark, correct, absent LetterSet) {
	secretRunes := []rune(secret)
	guessRunes := []rune(guess)
	n := len(guessRunes)

	marks = make([]Mark, n)
	correct = NewLetterSet()
	absent = NewLetterSet()

	// Remaining counts for the non-exact secret letters.
	counts := make(map[rune]int, n)
	exact := make([]bool, n)

	for i := 0; i < n; i++ {
		if guessRunes[i] == secretRunes[i] {
			exact[i] = true
			marks[i] = MarkExact
			correct.Add(unicode.ToUpper(guessRunes[i]))
		} else {
			counts[secretRunes[i]]++
		}
	}

	for i := 0; i < n; i++ {
		if exact[i] {
			continue
		}
		r := guessRunes[i]
		if counts[r] > 0 {
			marks[i] = MarkPartial
			counts[r]--
			correct.Add(unicode.ToUpper(r))
		} else {
			marks[i] = MarkAbsent
			absent.Add(unicode.ToUpper(r))
		}
	}

	// A letter can be partial at one position and absent at another; presence
	// always wins within a single attempt.
	for r := range correct {
		absent.Remove(r)
	}

	return strings.ToUpper(guess), marks, correct, absent
}
