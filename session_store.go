package makerworks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// NotifyLevel classifies a user-visible notification.
type NotifyLevel string

// Notification levels
const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyError   NotifyLevel = "error"
)

// Notifier receives user-visible notifications emitted by the stores.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(level NotifyLevel, message string)
}

// IdentityClient resolves the current authenticated identity. The API
// client implements it with GET /auth/me.
type IdentityClient interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// SessionState is an immutable snapshot of the session store, delivered
// to subscribers after each committed change.
type SessionState struct {
	User     *User
	Token    string
	Loading  bool
	Resolved bool
}

// sessionPersisted is the serialized subset of session state. Fields are
// omitted when empty so a logged-out envelope carries no credential.
type sessionPersisted struct {
	User     *User  `json:"user,omitempty"`
	Token    string `json:"token,omitempty"`
	Resolved bool   `json:"resolved,omitempty"`
}

type fetchCall struct {
	done chan struct{}
	user *User
	err  error
}

// SessionStore is the single source of truth for "who is signed in".
// It owns the bearer token and the identity-resolution lifecycle,
// persists a serializable subset to a Backend on every change, and
// notifies subscribers after each committed mutation.
//
// The store outlives individual views: a caller abandoning a FetchUser
// simply lets the store commit after the fact.
type SessionStore struct {
	mu       sync.Mutex
	user     *User
	token    string
	loading  bool
	resolved bool
	inflight *fetchCall

	backend  Backend
	identity IdentityClient
	notifier Notifier
	logger   *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(SessionState)
	nextSub int
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithIdentityClient binds the client used by FetchUser.
func WithIdentityClient(ic IdentityClient) SessionOption {
	return func(s *SessionStore) { s.identity = ic }
}

// WithNotifier sets the sink for user-visible notifications.
func WithNotifier(n Notifier) SessionOption {
	return func(s *SessionStore) { s.notifier = n }
}

// WithSessionLogger sets the store's logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *SessionStore) { s.logger = l }
}

// NewSessionStore creates a session store hydrated from the backend.
// A missing, corrupt, or newer-versioned envelope yields an empty
// session, never an error.
func NewSessionStore(backend Backend, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:    make(map[int]func(SessionState)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rehydrate()
	return s
}

// SetIdentityClient binds the client used by FetchUser. The client and
// the store reference each other, so bootstrap wires the client after
// the store exists.
func (s *SessionStore) SetIdentityClient(ic IdentityClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ic
}

func (s *SessionStore) rehydrate() {
	data, err := s.backend.Load(context.Background(), SessionKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("session rehydration failed, starting empty", slog.Any("error", err))
		}
		return
	}

	var st sessionPersisted
	if err := unmarshalEnvelope(data, &st); err != nil {
		s.logger.Warn("discarding unreadable session state", slog.Any("error", err))
		return
	}
	s.user = st.User
	s.token = st.Token
	s.resolved = st.Resolved
}

// State returns a snapshot of the current session state.
func (s *SessionStore) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *SessionStore) stateLocked() SessionState {
	return SessionState{User: s.user, Token: s.token, Loading: s.loading, Resolved: s.resolved}
}

// User returns the authenticated identity, or nil when signed out.
func (s *SessionStore) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token implements TokenSource for the HTTP client.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Loading reports whether an identity resolution is in flight.
func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Resolved reports whether an identity-resolution attempt has completed,
// regardless of its outcome.
func (s *SessionStore) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Subscribe registers fn to run after each committed state change and
// returns a cancel function. Callbacks run outside the store lock, in
// subscription order.
func (s *SessionStore) Subscribe(fn func(SessionState)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *SessionStore) publish(st SessionState) {
	s.subMu.Lock()
	fns := make([]func(SessionState), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (s *SessionStore) notify(level NotifyLevel, message string) {
	if s.notifier != nil {
		s.notifier.Notify(level, message)
	}
}

// SetUser replaces the authenticated identity and marks the session
// resolved. When the user carries an avatar URL it is cached under a
// dedicated key for fast-path display before full rehydration.
func (s *SessionStore) SetUser(u *User) {
	s.mu.Lock()
	s.user = u
	s.resolved = true
	s.persistLocked()
	s.cacheAvatarLocked(u)
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
}

// SetToken replaces the bearer token. The HTTP client reads it through
// the TokenSource interface on each outgoing request.
func (s *SessionStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.persistLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
}

// Logout resets the session to its empty state, clears the avatar cache
// and the persisted credential, and emits one user-visible notification.
// Calling it when already logged out is a no-op, and a session that only
// resolved unauthenticated resets silently: no credential, no farewell.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	if s.emptyLocked() {
		s.mu.Unlock()
		return
	}
	hadCredential := s.user != nil || s.token != ""
	s.clearLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
	if hadCredential {
		s.notify(NotifyInfo, "Signed out.")
	}
}

// HandleUnauthorized is the 401 entry point wired to the HTTP client.
// Repeated 401s after the first produce no further side effects.
func (s *SessionStore) HandleUnauthorized() {
	s.mu.Lock()
	if s.user == nil && s.token == "" {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
	s.notify(NotifyError, "Session expired. Please sign in again.")
}

func (s *SessionStore) emptyLocked() bool {
	return s.user == nil && s.token == "" && !s.loading && !s.resolved
}

// clearLocked zeroes all session fields, including resolved, so the
// next FetchUser performs a fresh resolution.
func (s *SessionStore) clearLocked() {
	s.user = nil
	s.token = ""
	s.loading = false
	s.resolved = false
	s.persistLocked()
	s.deleteAvatarLocked()
}

// FetchUser resolves the current identity. When the session is already
// resolved and force is false it returns the cached user without a
// network call. Concurrent calls share a single in-flight request.
//
// Failures resolve the session closed: user and token are cleared and
// resolved is set, so views never retry in a loop. The error is still
// returned for the caller to surface.
func (s *SessionStore) FetchUser(ctx context.Context, force bool) (*User, error) {
	s.mu.Lock()
	if s.resolved && !force {
		u := s.user
		s.mu.Unlock()
		return u, nil
	}
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.user, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.token == "" {
		// No credential to present: resolve unauthenticated.
		changed := !s.resolved
		s.resolved = true
		s.persistLocked()
		st := s.stateLocked()
		s.mu.Unlock()
		if changed {
			s.publish(st)
		}
		return nil, nil
	}
	identity := s.identity
	if identity == nil {
		s.mu.Unlock()
		return nil, ErrNoIdentityClient
	}
	call := &fetchCall{done: make(chan struct{})}
	s.inflight = call
	s.loading = true
	st := s.stateLocked()
	s.mu.Unlock()
	s.publish(st)

	// The lock is not held across the network call; a 401 handled by
	// HandleUnauthorized during this window commits the same terminal state.
	user, err := identity.CurrentUser(ctx)

	s.mu.Lock()
	s.inflight = nil
	s.loading = false
	if err != nil {
		s.logger.Warn("identity resolution failed", slog.Any("error", err))
		s.user = nil
		s.token = ""
		s.resolved = true
		s.persistLocked()
		s.deleteAvatarLocked()
		st = s.stateLocked()
		s.mu.Unlock()

		call.err = wrapOpError("fetch user", err)
		close(call.done)
		s.publish(st)
		return nil, call.err
	}

	s.user = user
	s.resolved = true
	s.persistLocked()
	s.cacheAvatarLocked(user)
	st = s.stateLocked()
	s.mu.Unlock()

	call.user = user
	close(call.done)
	s.publish(st)
	return user, nil
}

// IsAuthenticated reports whether a signed-in, non-guest identity with a
// credential is present. Both token and user are required.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil && s.user.Role != RoleGuest
}

// HasRole reports whether the current user holds the given role, either
// through the normalized directory group or the role field itself.
func (s *SessionStore) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || role == "" {
		return false
	}
	group := GroupPrefix + strings.ToUpper(role[:1]) + role[1:]
	for _, g := range s.user.Groups {
		if g == group {
			return true
		}
	}
	return s.user.Role == role
}

// CachedAvatarURL returns the avatar URL cached by SetUser, or an empty
// string when none is stored.
func (s *SessionStore) CachedAvatarURL(ctx context.Context) string {
	data, err := s.backend.Load(ctx, AvatarCacheKey)
	if err != nil {
		return ""
	}
	var url string
	if err := unmarshalEnvelope(data, &url); err != nil {
		return ""
	}
	return url
}

func (s *SessionStore) persistLocked() {
	data, err := marshalEnvelope(sessionPersisted{User: s.user, Token: s.token, Resolved: s.resolved})
	if err == nil {
		err = s.backend.Save(context.Background(), SessionKey, data)
	}
	if err != nil {
		s.logger.Warn("persist session state", slog.Any("error", err))
	}
}

func (s *SessionStore) cacheAvatarLocked(u *User) {
	if u == nil || u.AvatarURL == "" {
		s.deleteAvatarLocked()
		return
	}
	data, err := marshalEnvelope(u.AvatarURL)
	if err == nil {
		err = s.backend.Save(context.Background(), AvatarCacheKey, data)
	}
	if err != nil {
		s.logger.Warn("cache avatar url", slog.Any("error", err))
	}
}

func (s *SessionStore) deleteAvatarLocked() {
	if err := s.backend.Delete(context.Background(), AvatarCacheKey); err != nil {
		s.logger.Warn("clear avatar cache", slog.Any("error", err))
	}
}
