package sessionstore

import (
	"sync"

	"github.com/trezcool/appraise/core/session"
)

// MemPersister keeps the session in memory. It records every save for tests.
type MemPersister struct {
	mu    sync.RWMutex
	saved []session.Session
	err   error
}

var _ session.Persister = (*MemPersister)(nil)

func NewMemPersister(initial ...session.Session) *MemPersister {
	return &MemPersister{saved: initial}
}

func (p *MemPersister) Load() (session.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.saved) == 0 {
		return session.Session{}, nil
	}
	return p.saved[len(p.saved)-1], nil
}

func (p *MemPersister) Save(sess session.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, sess)
	return nil
}

// FailWith makes every following Save return err.
func (p *MemPersister) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Saved returns a copy of every session saved so far.
func (p *MemPersister) Saved() []session.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]session.Session, len(p.saved))
	copy(out, p.saved)
	return out
}
