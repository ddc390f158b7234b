// internal/store/memory.go
//
// In-memory implementation of the session.Store interface.
// Sessions are ephemeral: a process restart loses everything in flight,
// which is an accepted limitation.
//
// Characteristics:
//   - Sessions keyed by the ordered (setter, guesser) pair in a map.
//   - A secondary guesser → keys index maintained together with
//     create/delete, so finding "the guesser's active session" never scans.
//   - Map access guarded by an RWMutex; per-pair mutation serialization via
//     dedicated key locks handed out by LockKey. Key locks live for the
//     process lifetime so two waiters can never end up on different mutexes
//     for the same pair.

package store

import (
	"sync"

	"github.com/vkotusenko/wordduel/internal/session"
)

// Key is the ordered participant pair identifying a session.
// (A, B) and (B, A) are distinct keys.
type Key struct {
	Setter  string
	Guesser string
}

// Memory is a map-backed session.Store.
type Memory struct {
	mu        sync.RWMutex
	sessions  map[Key]*session.Session
	byGuesser map[string][]Key // insertion-ordered keys per guesser

	lockMu sync.Mutex
	locks  map[Key]*sync.Mutex
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions:  make(map[Key]*session.Session),
		byGuesser: make(map[string][]Key),
		locks:     make(map[Key]*sync.Mutex),
	}
}

// Create inserts s, failing with ErrDuplicateSession if the ordered pair is
// already present. Insertion and index update happen under one lock.
func (m *Memory) Create(s *session.Session) error {
	k := Key{Setter: s.Setter, Guesser: s.Guesser}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[k]; exists {
		return session.ErrDuplicateSession
	}
	m.sessions[k] = s
	m.byGuesser[s.Guesser] = append(m.byGuesser[s.Guesser], k)
	return nil
}

// Get returns the session for the ordered pair, if present.
func (m *Memory) Get(setter, guesser string) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[Key{Setter: setter, Guesser: guesser}]
	return s, ok
}

// Delete removes the session and its index entry.
func (m *Memory) Delete(setter, guesser string) {
	k := Key{Setter: setter, Guesser: guesser}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[k]; !ok {
		return
	}
	delete(m.sessions, k)
	keys := m.byGuesser[guesser]
	for i, kk := range keys {
		if kk == k {
			m.byGuesser[guesser] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(m.byGuesser[guesser]) == 0 {
		delete(m.byGuesser, guesser)
	}
}

// FindByGuesser returns the first session, in creation order, where the
// participant is the guesser and the state matches.
func (m *Memory) FindByGuesser(guesser string, st session.State) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, k := range m.byGuesser[guesser] {
		if s := m.sessions[k]; s != nil && s.State == st {
			return s, true
		}
	}
	return nil, false
}

// FindByParticipant returns every session involving the participant,
// setter-role sessions first.
func (m *Memory) FindByParticipant(id string) []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var asSetter, asGuesser []*session.Session
	for k, s := range m.sessions {
		switch id {
		case k.Setter:
			asSetter = append(asSetter, s)
		case k.Guesser:
			asGuesser = append(asGuesser, s)
		}
	}
	return append(asSetter, asGuesser...)
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LockKey acquires the pair's mutation lock and returns its release func.
// Cross-pair operations proceed in parallel; two operations on the same pair
// are serialized in acquisition order.
func (m *Memory) LockKey(setter, guesser string) func() {
	k := Key{Setter: setter, Guesser: guesser}
	m.lockMu.Lock()
	l, ok := m.locks[k]
	if !ok {
		l = &sync.Mutex{}
		m.locks[k] = l
	}
	m.lockMu.Unlock()
	l.Lock()
	return l.Unlock
}
