package makerworks

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Keep-alive defaults
const (
	DefaultKeepAliveInterval = 5 * time.Minute
	minKeepAliveDelay        = 15 * time.Second
)

// KeepAlive periodically re-validates the session by forcing an
// identity resolution. It is deliberately external to the session
// store: the store's own contract contains no timers. When the bearer
// token is a JWT carrying an expiry claim, revalidation is pulled ahead
// of the expiry; opaque tokens fall back to the fixed interval.
type KeepAlive struct {
	store    *SessionStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// KeepAliveOption configures a KeepAlive.
type KeepAliveOption func(*KeepAlive)

// WithKeepAliveLogger sets the keep-alive logger.
func WithKeepAliveLogger(l *slog.Logger) KeepAliveOption {
	return func(k *KeepAlive) { k.logger = l }
}

// NewKeepAlive creates a keep-alive for the given store. A zero
// interval uses DefaultKeepAliveInterval.
func NewKeepAlive(store *SessionStore, interval time.Duration, opts ...KeepAliveOption) *KeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	k := &KeepAlive{
		store:    store,
		interval: interval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Run re-validates the session until ctx is cancelled. Ticks while
// logged out are skipped; resolution failures are logged and the loop
// keeps going, since the store has already resolved the session closed.
func (k *KeepAlive) Run(ctx context.Context) {
	timer := time.NewTimer(k.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if k.store.Token() != "" {
			if _, err := k.store.FetchUser(ctx, true); err != nil {
				k.logger.Warn("session keep-alive revalidation failed", slog.Any("error", err))
			}
		}
		timer.Reset(k.nextDelay())
	}
}

// nextDelay returns the time until the next revalidation, pulled ahead
// of the token expiry when one is known.
func (k *KeepAlive) nextDelay() time.Duration {
	delay := k.interval

	if exp := tokenExpiry(k.store.Token()); !exp.IsZero() {
		// Revalidate at 80% of the remaining token lifetime.
		ahead := time.Duration(float64(exp.Sub(k.now())) * 0.8)
		if ahead < delay {
			delay = ahead
		}
	}
	if delay < minKeepAliveDelay {
		delay = minKeepAliveDelay
	}
	return delay
}

// tokenExpiry extracts the expiry claim from a JWT bearer token without
// validating its signature; the client never verifies server tokens.
// Returns the zero time for opaque or claimless tokens.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
