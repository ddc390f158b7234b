// internal/session/errors.go
//
// Typed errors returned by the session engine. All of them are user-input
// validation outcomes: the dispatcher relays a rejection message to the
// originating participant and the session state is left unchanged.

package session

import "errors"

var (
	// ErrDuplicateSession: a session for the same ordered pair already exists.
	ErrDuplicateSession = errors.New("session already exists for this pair")

	// ErrInvalidWord: secret word length out of range or non-alphabetic.
	ErrInvalidWord = errors.New("invalid secret word")

	// ErrMixedAlphabet: secret word mixes letters of both alphabets.
	ErrMixedAlphabet = errors.New("word mixes alphabets")

	// ErrInvalidGuess: guess length mismatch or non-alphabetic.
	ErrInvalidGuess = errors.New("invalid guess")

	// ErrAlphabetMismatch: guess uses a different alphabet than the secret word.
	ErrAlphabetMismatch = errors.New("guess alphabet does not match session language")

	// ErrNoActiveSession: no session matches the participant in the required state.
	ErrNoActiveSession = errors.New("no active session")
)
