// internal/session/engine.go
//
// The session state machine. Owns every mutation of a session's lifecycle:
//   - createSession: insert a fresh AwaitingWord session for an ordered pair.
//   - setSecretWord: validate, normalize, infer language, open guessing.
//   - submitGuess: score the guess, track letter knowledge, decide
//     win/loss/continue, remove finished sessions.
//   - incrementMaxAttempts: setter grants the guesser one extra attempt.
//   - cancelSession: drop any session involving a participant.
//
// Every operation returns a Result carrying outbound notification
// instructions; delivery is the dispatcher's job, so the engine stays
// unit-testable without any chat transport.
//
// Concurrency: each operation acquires the store's per-key lock for the
// session it mutates, so at most one mutation is in flight per ordered pair.
// Locks are released before the caller performs any outbound I/O.

package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vkotusenko/wordduel/internal/game"
)

// Store is the session registry the engine mutates. Implementations must
// guarantee atomic insertion per ordered key and provide per-key mutual
// exclusion via LockKey.
type Store interface {
	// Create inserts s keyed by its ordered (setter, guesser) pair.
	// Returns ErrDuplicateSession if the key is already present.
	Create(s *Session) error

	// Get retrieves the session for the ordered pair, if any.
	Get(setter, guesser string) (*Session, bool)

	// Delete removes the session for the ordered pair.
	Delete(setter, guesser string)

	// FindByGuesser returns the first session where the participant is the
	// guesser and the session is in state st.
	FindByGuesser(guesser string, st State) (*Session, bool)

	// FindByParticipant returns every session involving the participant,
	// in either role, setter-role sessions first.
	FindByParticipant(id string) []*Session

	// LockKey blocks until the pair's mutation lock is held and returns the
	// release function.
	LockKey(setter, guesser string) func()
}

// Outcome classifies the effect of a successful operation.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeCancelled
)

// Notification is one outbound delivery instruction: send Text to Handle.
// Celebrate asks the dispatcher to follow up with the celebration animation;
// Board marks the guesser's board message, whose previous copy the
// dispatcher deletes best-effort before sending the new one.
type Notification struct {
	Handle    string
	Text      string
	Celebrate bool
	Board     bool
}

// Result is the success payload of an engine operation.
type Result struct {
	Session       *Session
	Outcome       Outcome
	AttemptNumber int
	Remaining     int
	Notifications []Notification
}

// Config carries the tunable game limits.
type Config struct {
	MaxAttempts int // starting attempt budget per session
	MinWordLen  int
	MaxWordLen  int
}

const (
	DefaultMaxAttempts = 6
	DefaultMinWordLen  = 4
	DefaultMaxWordLen  = 8
)

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MinWordLen <= 0 {
		c.MinWordLen = DefaultMinWordLen
	}
	if c.MaxWordLen <= 0 {
		c.MaxWordLen = DefaultMaxWordLen
	}
	return c
}

// Engine applies session operations against a Store.
type Engine struct {
	store Store
	cfg   Config
	log   zerolog.Logger
}

// NewEngine constructs an Engine. Zero Config fields fall back to defaults.
func NewEngine(store Store, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{store: store, cfg: cfg.withDefaults(), log: log}
}

// CreateSession inserts a new AwaitingWord session for the ordered pair.
// Fails with ErrDuplicateSession if one already exists; the reversed pair is
// an independent key.
func (e *Engine) CreateSession(setter, guesser, setterHandle, guesserHandle string) (*Result, error) {
	s := &Session{
		ID:            uuid.NewString(),
		Setter:        setter,
		Guesser:       guesser,
		SetterHandle:  setterHandle,
		GuesserHandle: guesserHandle,
		State:         AwaitingWord,
		MaxAttempts:   e.cfg.MaxAttempts,
		Correct:       game.NewLetterSet(),
		Absent:        game.NewLetterSet(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.store.Create(s); err != nil {
		return nil, err
	}
	e.log.Info().
		Str("session", s.ID).
		Str("setter", setter).
		Str("guesser", guesser).
		Msg("session created")

	return &Result{
		Session: s,
		Notifications: []Notification{
			{Handle: setterHandle, Text: fmt.Sprintf(msgWordPrompt, setter, e.cfg.MinWordLen, e.cfg.MaxWordLen)},
			{Handle: guesserHandle, Text: fmt.Sprintf(msgWaitForWord, setter)},
		},
	}, nil
}

// SetSecretWord validates and stores the secret word, infers the session
// language, and transitions the session to AwaitingGuess.
func (e *Engine) SetSecretWord(setter, guesser, word string) (*Result, error) {
	unlock := e.store.LockKey(setter, guesser)
	defer unlock()

	s, ok := e.store.Get(setter, guesser)
	if !ok || s.State != AwaitingWord {
		return nil, ErrNoActiveSession
	}

	word = game.Normalize(word)
	n := len([]rune(word))
	if n < e.cfg.MinWordLen || n > e.cfg.MaxWordLen {
		return nil, ErrInvalidWord
	}
	switch game.Classify(word) {
	case game.ClassRussian:
		s.Language = game.LangRussian
	case game.ClassEnglish:
		s.Language = game.LangEnglish
	case game.ClassMixed:
		return nil, ErrMixedAlphabet
	default:
		return nil, ErrInvalidWord
	}

	s.Secret = word
	s.State = AwaitingGuess
	e.log.Info().
		Str("session", s.ID).
		Str("setter", setter).
		Str("guesser", guesser).
		Str("language", string(s.Language)).
		Int("length", n).
		Msg("word set")

	return &Result{
		Session: s,
		Notifications: []Notification{
			{Handle: s.SetterHandle, Text: msgWordSet},
			{Handle: s.GuesserHandle, Text: fmt.Sprintf(msgGuessPrompt, setter, n, s.Language.DisplayName())},
		},
	}, nil
}

// SubmitGuess scores a guess for the guesser's active session and applies
// the win/loss/continue transition. Finished sessions are deleted before the
// result is returned; the loss notification reveals the secret word.
func (e *Engine) SubmitGuess(guesser, guess string) (*Result, error) {
	probe, ok := e.store.FindByGuesser(guesser, AwaitingGuess)
	if !ok {
		return nil, ErrNoActiveSession
	}

	unlock := e.store.LockKey(probe.Setter, probe.Guesser)
	defer unlock()

	// Re-check under the lock: a cancel or a concurrent final guess may have
	// removed the session between lookup and lock acquisition.
	s, ok := e.store.Get(probe.Setter, probe.Guesser)
	if !ok || s.State != AwaitingGuess {
		return nil, ErrNoActiveSession
	}

	guess = game.Normalize(guess)
	if len([]rune(guess)) != len([]rune(s.Secret)) {
		return nil, ErrInvalidGuess
	}
	switch game.Classify(guess) {
	case game.ClassInvalid:
		return nil, ErrInvalidGuess
	default:
		if !game.Matches(s.Language, guess) {
			return nil, ErrAlphabetMismatch
		}
	}

	display, marks, correct, absent := game.Score(s.Secret, guess)
	feedback := game.Feedback(marks)
	s.Attempts = append(s.Attempts, Attempt{Display: display, Feedback: feedback})

	// Merge letter knowledge: correctness wins ties. A letter proven correct
	// by this attempt leaves the absent set; a letter already known correct
	// is never added to it.
	for r := range correct {
		s.Correct.Add(r)
		s.Absent.Remove(r)
	}
	for r := range absent {
		if !s.Correct.Has(r) {
			s.Absent.Add(r)
		}
	}

	n := len(s.Attempts)
	e.log.Info().
		Str("session", s.ID).
		Str("guesser", guesser).
		Str("guess", guess).
		Int("attempt", n).
		Int("max", s.MaxAttempts).
		Msg("guess scored")

	res := &Result{
		Session:       s,
		AttemptNumber: n,
		Remaining:     s.Remaining(),
		Notifications: []Notification{
			{Handle: s.SetterHandle, Text: fmt.Sprintf(msgAttempt, n, s.MaxAttempts, display, feedback)},
			{Handle: s.GuesserHandle, Text: e.boardText(s), Board: true},
		},
	}

	switch {
	case guess == s.Secret:
		s.State = Finished
		e.store.Delete(s.Setter, s.Guesser)
		res.Outcome = OutcomeWin
		res.Notifications = append(res.Notifications,
			Notification{Handle: s.GuesserHandle, Text: msgGuesserWin, Celebrate: true},
			Notification{Handle: s.SetterHandle, Text: fmt.Sprintf(msgSetterWin, guesser)},
		)
		e.log.Info().Str("session", s.ID).Str("guesser", guesser).Int("attempts", n).Msg("game won")

	case n >= s.MaxAttempts:
		s.State = Finished
		e.store.Delete(s.Setter, s.Guesser)
		res.Outcome = OutcomeLoss
		res.Notifications = append(res.Notifications,
			Notification{Handle: s.GuesserHandle, Text: fmt.Sprintf(msgOutOfAttempts, strings.ToUpper(s.Secret))},
			Notification{Handle: s.SetterHandle, Text: fmt.Sprintf(msgSetterLoss, guesser, s.MaxAttempts)},
		)
		e.log.Info().Str("session", s.ID).Str("guesser", guesser).Str("secret", s.Secret).Msg("game lost")

	default:
		res.Outcome = OutcomeContinue
		res.Notifications = append(res.Notifications,
			Notification{Handle: s.GuesserHandle, Text: fmt.Sprintf(msgTryAgain, res.Remaining)},
		)
	}
	return res, nil
}

// IncrementMaxAttempts raises the attempt budget of the session the
// participant is setting, by one. Monotonic; there is no way back down.
func (e *Engine) IncrementMaxAttempts(setter string) (*Result, error) {
	var probe *Session
	for _, s := range e.store.FindByParticipant(setter) {
		if s.Setter == setter && s.State == AwaitingGuess {
			probe = s
			break
		}
	}
	if probe == nil {
		return nil, ErrNoActiveSession
	}

	unlock := e.store.LockKey(probe.Setter, probe.Guesser)
	defer unlock()

	s, ok := e.store.Get(probe.Setter, probe.Guesser)
	if !ok || s.State != AwaitingGuess {
		return nil, ErrNoActiveSession
	}
	s.MaxAttempts++
	e.log.Info().Str("session", s.ID).Int("max", s.MaxAttempts).Msg("attempt added")

	return &Result{
		Session:   s,
		Remaining: s.Remaining(),
		Notifications: []Notification{
			{Handle: s.SetterHandle, Text: msgAttemptAdded},
			{Handle: s.GuesserHandle, Text: msgAttemptGiven},
		},
	}, nil
}

// CancelSession deletes the first session involving the participant, in any
// state. The canceller and their partner are both notified.
func (e *Engine) CancelSession(participant string) (*Result, error) {
	all := e.store.FindByParticipant(participant)
	if len(all) == 0 {
		return nil, ErrNoActiveSession
	}
	probe := all[0]

	unlock := e.store.LockKey(probe.Setter, probe.Guesser)
	defer unlock()

	s, ok := e.store.Get(probe.Setter, probe.Guesser)
	if !ok {
		return nil, ErrNoActiveSession
	}
	s.State = Finished
	e.store.Delete(s.Setter, s.Guesser)

	ownHandle, peerHandle := s.SetterHandle, s.GuesserHandle
	if participant == s.Guesser {
		ownHandle, peerHandle = s.GuesserHandle, s.SetterHandle
	}
	e.log.Info().Str("session", s.ID).Str("by", participant).Msg("session cancelled")

	return &Result{
		Session: s,
		Outcome: OutcomeCancelled,
		Notifications: []Notification{
			{Handle: ownHandle, Text: msgCancelled},
			{Handle: peerHandle, Text: fmt.Sprintf(msgCancelledByPeer, participant)},
		},
	}, nil
}

// Partner reports the other participant of any session involving id, with
// their handle. Used by the dispatcher for the in-game /say relay.
func (e *Engine) Partner(id string) (name, handle string, err error) {
	for _, s := range e.store.FindByParticipant(id) {
		if s.State != AwaitingGuess {
			continue
		}
		if s.Setter == id {
			return s.Guesser, s.GuesserHandle, nil
		}
		return s.Setter, s.SetterHandle, nil
	}
	return "", "", ErrNoActiveSession
}

// boardText renders the guesser's running board: attempt history in two
// columns, the untouched letters of the session alphabet, then the known
// correct and known absent letters.
func (e *Engine) boardText(s *Session) string {
	var b strings.Builder
	for i, a := range s.Attempts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "`%s` | `%s`", a.Display, a.Feedback)
	}
	fmt.Fprintf(&b, "\n\n%s", game.RemainingLetters(s.Language, s.Correct, s.Absent))
	fmt.Fprintf(&b, "\n\n🟩🟨: %s", s.Correct)
	fmt.Fprintf(&b, "\n\n⬜: %s", s.Absent)
	return b.String()
}
