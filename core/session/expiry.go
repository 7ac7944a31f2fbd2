package session

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/jonboulle/clockwork"

	"github.com/trezcool/appraise/core"
)

// TokenExpiry reads the exp claim of a JWT bearer token.
// The signature is not verified: the server stays the authority, this only schedules the local timeout.
func TokenExpiry(token string) (time.Time, bool) {
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0), true
}

// WatchExpiry forces store.Expire() once the current token expires.
// It re-arms on every store change and returns when ctx is done.
// Tokens that are not JWTs (or carry no exp) never expire locally.
func WatchExpiry(ctx context.Context, store *Store, clock clockwork.Clock, logger core.Logger) {
	changed := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(Session) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		var timer clockwork.Timer
		var fire <-chan time.Time

		if sess := store.Read(); sess.IsAuthenticated {
			if exp, ok := TokenExpiry(sess.Token); ok {
				if wait := exp.Sub(clock.Now()); wait > 0 {
					timer = clock.NewTimer(wait)
					fire = timer.Chan()
				} else {
					logger.Info("session token already expired")
					store.Expire()
					continue
				}
			}
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-changed:
			if timer != nil {
				timer.Stop()
			}
		case <-fire:
			logger.Info("session token expired")
			store.Expire()
		}
	}
}
