// Package guard gates authenticated-only screens on the current session.
package guard

import (
	"sync"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/session"
)

// DefaultEntry is the public screen anonymous visitors are sent to.
const DefaultEntry = "welcome"

// Decision is the outcome of a guard check.
type Decision struct {
	Allow    bool
	Redirect string
	// Notice is set once, on the first check after an involuntary logout.
	Notice *core.Notice
}

// Guard remembers whether it has seen an authenticated session, which is what
// tells a timed-out user apart from a visitor who never logged in.
type Guard struct {
	mu               sync.Mutex
	entry            string
	wasAuthenticated bool
}

func New(entry string) *Guard {
	if entry == "" {
		entry = DefaultEntry
	}
	return &Guard{entry: entry}
}

// Check decides whether protected content may be rendered for sess.
func (g *Guard) Check(sess session.Session) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sess.IsAuthenticated {
		g.wasAuthenticated = true
		return Decision{Allow: true}
	}

	dec := Decision{Redirect: g.entry}
	if g.wasAuthenticated {
		g.wasAuthenticated = false
		if sess.Expired {
			notice := core.SessionTimeoutNotice()
			dec.Notice = &notice
		}
	}
	return dec
}

// Watch checks the current session right away, then again on every store change,
// so a revoked session evicts the user immediately. Call stop to unsubscribe.
func (g *Guard) Watch(store *session.Store, onDecision func(Decision)) (stop func()) {
	stop = store.Subscribe(func(sess session.Session) {
		onDecision(g.Check(sess))
	})
	onDecision(g.Check(store.Read()))
	return stop
}
