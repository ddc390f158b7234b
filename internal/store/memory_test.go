package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vkotusenko/wordduel/internal/session"
)

func newSession(setter, guesser string) *session.Session {
	return &session.Session{
		ID:      setter + "/" + guesser,
		Setter:  setter,
		Guesser: guesser,
		State:   session.AwaitingWord,
	}
}

func TestCreateGetDelete(t *testing.T) {
	m := NewMemory()

	if err := m.Create(newSession("alice", "bob")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Create(newSession("alice", "bob")); !errors.Is(err, session.ErrDuplicateSession) {
		t.Errorf("duplicate Create: err = %v, want ErrDuplicateSession", err)
	}
	// The reversed pair is a distinct key.
	if err := m.Create(newSession("bob", "alice")); err != nil {
		t.Errorf("reversed Create: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}

	s, ok := m.Get("alice", "bob")
	if !ok || s.ID != "alice/bob" {
		t.Errorf("Get(alice, bob) = %v, %v", s, ok)
	}

	m.Delete("alice", "bob")
	if _, ok := m.Get("alice", "bob"); ok {
		t.Error("session survived Delete")
	}
	if _, ok := m.Get("bob", "alice"); !ok {
		t.Error("Delete removed the reversed pair too")
	}

	// Deleting a missing key is a no-op.
	m.Delete("alice", "bob")
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestFindByGuesser(t *testing.T) {
	m := NewMemory()

	if _, ok := m.FindByGuesser("bob", session.AwaitingGuess); ok {
		t.Error("empty store should find nothing")
	}

	first := newSession("alice", "bob")
	second := newSession("carol", "bob")
	second.State = session.AwaitingGuess
	if err := m.Create(first); err != nil {
		t.Fatal(err)
	}
	if err := m.Create(second); err != nil {
		t.Fatal(err)
	}

	// State filters; the guesser can sit in several sessions at once.
	s, ok := m.FindByGuesser("bob", session.AwaitingGuess)
	if !ok || s.Setter != "carol" {
		t.Errorf("FindByGuesser(AwaitingGuess) = %v, %v", s, ok)
	}
	s, ok = m.FindByGuesser("bob", session.AwaitingWord)
	if !ok || s.Setter != "alice" {
		t.Errorf("FindByGuesser(AwaitingWord) = %v, %v", s, ok)
	}

	m.Delete("carol", "bob")
	if _, ok := m.FindByGuesser("bob", session.AwaitingGuess); ok {
		t.Error("deleted session still found via the guesser index")
	}
}

func TestFindByParticipantOrdersSetterFirst(t *testing.T) {
	m := NewMemory()
	if err := m.Create(newSession("alice", "bob")); err != nil {
		t.Fatal(err)
	}
	if err := m.Create(newSession("carol", "alice")); err != nil {
		t.Fatal(err)
	}

	all := m.FindByParticipant("alice")
	if len(all) != 2 {
		t.Fatalf("got %d sessions, want 2", len(all))
	}
	if all[0].Setter != "alice" {
		t.Errorf("setter-role session should come first, got %s/%s", all[0].Setter, all[0].Guesser)
	}
	if all[1].Guesser != "alice" {
		t.Errorf("guesser-role session should come second, got %s/%s", all[1].Setter, all[1].Guesser)
	}

	if got := m.FindByParticipant("nobody"); len(got) != 0 {
		t.Errorf("unknown participant: got %d sessions", len(got))
	}
}

func TestLockKeySerializesSamePair(t *testing.T) {
	m := NewMemory()

	unlock := m.LockKey("alice", "bob")

	acquired := make(chan struct{})
	go func() {
		u := m.LockKey("alice", "bob")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second LockKey acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second LockKey never acquired after release")
	}
}

func TestLockKeyIndependentPairs(t *testing.T) {
	m := NewMemory()

	u1 := m.LockKey("alice", "bob")
	defer u1()

	done := make(chan struct{})
	go func() {
		u := m.LockKey("bob", "alice")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reversed-pair lock blocked behind an unrelated lock")
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	m := NewMemory()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Create(newSession("alice", "bob"))
		}()
	}
	wg.Wait()
	close(errs)

	var created int
	for err := range errs {
		if err == nil {
			created++
		} else if !errors.Is(err, session.ErrDuplicateSession) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("%d creates succeeded, want exactly 1", created)
	}
}
