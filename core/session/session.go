// Package session holds the process-wide authentication state: who is logged in
// and which bearer token authorizes requests.
//
// State only changes through Reduce; the Store applies actions, persists the
// result and notifies subscribers in transition order.
package session

import (
	"time"

	"github.com/trezcool/appraise/core/user"
)

// Session is a snapshot of the authentication state.
// Screens must read IsAuthenticated: a token alone never means "logged in".
type Session struct {
	User            *user.User `json:"user"`
	Token           string     `json:"token"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	// Expired is set when the session ended without the user asking (token expiry, 401).
	Expired   bool      `json:"expired"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Action is one of LoginSuccess, Logout or Expire.
type Action interface {
	isAction()
}

type (
	LoginSuccess struct {
		User  user.User
		Token string
	}

	Logout struct{}

	// Expire ends the session involuntarily. User and Token are kept so the
	// expiry stays observable independently of token deletion.
	Expire struct{}
)

func (LoginSuccess) isAction() {}
func (Logout) isAction()       {}
func (Expire) isAction()       {}

// Reduce is the transition function of the session state machine.
func Reduce(s Session, action Action, now time.Time) Session {
	switch a := action.(type) {
	case LoginSuccess:
		// a login without credentials is not a login
		if a.Token == "" || a.User.ID == "" {
			return s
		}
		usr := a.User
		return Session{User: &usr, Token: a.Token, IsAuthenticated: true, UpdatedAt: now}
	case Logout:
		if s.User == nil && s.Token == "" && !s.IsAuthenticated && !s.Expired {
			return s
		}
		return Session{UpdatedAt: now}
	case Expire:
		if !s.IsAuthenticated {
			return s
		}
		s.IsAuthenticated = false
		s.Expired = true
		s.UpdatedAt = now
		return s
	default:
		return s
	}
}

// Persister reads and writes the session to durable storage.
type Persister interface {
	Load() (Session, error)
	Save(Session) error
}
