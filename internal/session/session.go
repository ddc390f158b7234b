// internal/session/session.go
//
// State for a single word-duel session between two participants.
// Defines:
//   - State: the session lifecycle (awaiting word → awaiting guess → finished).
//   - Attempt: one scored guess (display form + feedback squares).
//   - Session: the full per-pair game state.

package session

import (
	"time"

	"github.com/vkotusenko/wordduel/internal/game"
)

// State is the lifecycle stage of a session. Transitions are linear:
// AwaitingWord → AwaitingGuess → Finished. Finished sessions are removed
// from the store, never archived.
type State int

const (
	AwaitingWord State = iota
	AwaitingGuess
	Finished
)

func (s State) String() string {
	switch s {
	case AwaitingWord:
		return "awaiting_word"
	case AwaitingGuess:
		return "awaiting_guess"
	default:
		return "finished"
	}
}

// Attempt is one recorded guess: the uppercased guess and its feedback squares.
type Attempt struct {
	Display  string
	Feedback string
}

// Session holds the state of one word-duel round.
//
// Setter and Guesser form the session's key as an ordered pair: a session
// from A→B is distinct from B→A. Handles are captured at creation time and
// are not migrated if a participant's handle later changes.
type Session struct {
	ID            string
	Setter        string
	Guesser       string
	SetterHandle  string
	GuesserHandle string

	// Secret is set exactly once, normalized, while state is AwaitingWord.
	Secret   string
	Language game.Language

	State       State
	Attempts    []Attempt
	MaxAttempts int

	// Accumulated letter knowledge across attempts. Mutually exclusive:
	// a letter proven correct is removed from Absent and never re-added.
	Correct game.LetterSet
	Absent  game.LetterSet

	CreatedAt time.Time
}

// Remaining is the number of attempts the guesser has left.
func (s *Session) Remaining() int {
	return s.MaxAttempts - len(s.Attempts)
}
