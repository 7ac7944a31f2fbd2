package session

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/user"
)

// Store is the single source of truth for the current Session.
type Store struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	state     Session
	persister Persister
	clock     clockwork.Clock
	logger    core.Logger

	listeners map[int]func(Session)
	nextID    int
}

type StoreOption func(*Store)

func WithClock(clock clockwork.Clock) StoreOption {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(logger core.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore restores the persisted session, if any, so a restart does not require a new login.
func NewStore(persister Persister, opts ...StoreOption) (*Store, error) {
	s := &Store{
		persister: persister,
		clock:     clockwork.NewRealClock(),
		logger:    core.NopLogger{},
		listeners: make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := persister.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	// an authenticated session without credentials is corrupt: start anonymous
	if state.IsAuthenticated && (state.User == nil || state.Token == "") {
		s.logger.Warn("discarding inconsistent persisted session")
		state = Session{}
	}
	s.state = state
	return s, nil
}

// Read returns the current snapshot. It never blocks on I/O.
func (s *Store) Read() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) LoginSuccess(usr user.User, token string) {
	s.Dispatch(LoginSuccess{User: usr, Token: token})
}

// Logout is idempotent.
func (s *Store) Logout() {
	s.Dispatch(Logout{})
}

// Expire forces the Authenticated -> Anonymous transition on behalf of an external actor.
func (s *Store) Expire() {
	s.Dispatch(Expire{})
}

// Dispatch applies action, persists the new state and notifies subscribers.
// Persistence failures are logged: a transition itself never fails.
func (s *Store) Dispatch(action Action) {
	// notifyMu keeps listener calls in transition order
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, action, s.clock.Now())
	s.state = next
	listeners := make([]func(Session), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	if next == prev {
		return
	}
	if err := s.persister.Save(next); err != nil {
		s.logger.Error("persisting session", errors.Wrap(err, "saving session"))
	}
	for _, fn := range listeners {
		fn(next)
	}
}

// Subscribe registers fn to be called after every state change.
// fn must not Dispatch synchronously.
// The returned func unsubscribes; it is safe to call more than once.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
