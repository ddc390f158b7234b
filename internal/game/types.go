// internal/game/types.go
//
// Core type definitions for the feedback scorer.
// Defines:
//   - Mark: per-letter result of a guess (exact/partial/absent).
//   - Language: which of the two supported alphabets a word belongs to.
//   - LetterSet: accumulated per-letter knowledge across attempts.

package game

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - MarkExact:   letter is correct and in the correct position.
//   - MarkPartial: letter exists in the secret word but in a different position.
//   - MarkAbsent:  letter does not exist in the secret word at all.
type Mark int

const (
	MarkExact Mark = iota
	MarkPartial
	MarkAbsent
)

// Symbol renders a mark as the square shown in chat.
func (m Mark) Symbol() string {
	switch m {
	case MarkExact:
		return "🟩"
	case MarkPartial:
		return "🟨"
	default:
		return "⬜"
	}
}

// Feedback renders a mark sequence as a string of squares, one per letter.
func Feedback(marks []Mark) string {
	var b []byte
	for _, m := range marks {
		b = append(b, m.Symbol()...)
	}
	return string(b)
}

// Language identifies the alphabet a session is played in.
type Language string

const (
	LangRussian Language = "russian"
	LangEnglish Language = "english"
)

// DisplayName is the human-readable form used in chat messages.
func (l Language) DisplayName() string {
	if l == LangRussian {
		return "Russian"
	}
	return "English"
}

// LetterSet is a set of uppercase letters.
type LetterSet map[rune]struct{}

// NewLetterSet builds a set from the given letters.
func NewLetterSet(letters ...rune) LetterSet {
	s := make(LetterSet, len(letters))
	for _, r := range letters {
		s[r] = struct{}{}
	}
	return s
}

func (s LetterSet) Add(r rune)      { s[r] = struct{}{} }
func (s LetterSet) Remove(r rune)   { delete(s, r) }
func (s LetterSet) Has(r rune) bool { _, ok := s[r]; return ok }

// Sorted returns the letters in ascending rune order.
func (s LetterSet) Sorted() []rune {
	out := make([]rune, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// String joins the sorted letters with single spaces, for chat display.
func (s LetterSet) String() string {
	var b []byte
	for i, r := range s.Sorted() {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, string(r)...)
	}
	return string(b)
}
