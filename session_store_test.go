package makerworks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	mu    sync.Mutex
	calls int
	user  *User
	err   error
	delay time.Duration
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*User, error) {
	f.mu.Lock()
	f.calls++
	user, err, delay := f.user, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	cp := *user
	return &cp, nil
}

func (f *fakeIdentity) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ NotifyLevel, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func testUser() *User {
	return &User{
		ID:       "u-1",
		Username: "printrage",
		Email:    "printrage@example.com",
		Role:     RoleUser,
		Groups:   []string{"MakerWorks-User"},
	}
}

func TestNewSessionStore_StartsEmpty(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())

	st := s.State()
	assert.Nil(t, st.User)
	assert.Empty(t, st.Token)
	assert.False(t, st.Loading)
	assert.False(t, st.Resolved)
	assert.False(t, s.IsAuthenticated())
}

func TestNewSessionStore_RehydratesPersistedState(t *testing.T) {
	backend := NewMemoryBackend()

	first := NewSessionStore(backend)
	first.SetToken("tok-abc")
	first.SetUser(testUser())

	second := NewSessionStore(backend)
	require.NotNil(t, second.User())
	assert.Equal(t, "printrage", second.User().Username)
	assert.Equal(t, "tok-abc", second.Token())
	assert.True(t, second.Resolved())
	assert.True(t, second.IsAuthenticated())
}

func TestNewSessionStore_CorruptStateStartsEmpty(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save(context.Background(), SessionKey, []byte("{not json")))

	s := NewSessionStore(backend)
	assert.Nil(t, s.User())
	assert.False(t, s.Resolved())
}

func TestNewSessionStore_NewerEnvelopeVersionStartsEmpty(t *testing.T) {
	backend := NewMemoryBackend()
	data, err := json.Marshal(map[string]any{
		"state":   map[string]any{"token": "tok"},
		"version": EnvelopeVersion + 1,
	})
	require.NoError(t, err)
	require.NoError(t, backend.Save(context.Background(), SessionKey, data))

	s := NewSessionStore(backend)
	assert.Empty(t, s.Token())
}

func TestSetUser_MarksResolvedAndCachesAvatar(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewSessionStore(backend)

	u := testUser()
	u.AvatarURL = "https://cdn.makerworks.test/avatars/u-1.png"
	s.SetUser(u)

	assert.True(t, s.Resolved())
	assert.Equal(t, u.AvatarURL, s.CachedAvatarURL(context.Background()))

	// A user without an avatar clears the cache key.
	s.SetUser(testUser())
	assert.Empty(t, s.CachedAvatarURL(context.Background()))
}

func TestIsAuthenticated_RequiresTokenAndUser(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())

	s.SetUser(testUser())
	assert.False(t, s.IsAuthenticated(), "user without token is not authenticated")

	s.SetToken("tok-abc")
	assert.True(t, s.IsAuthenticated())

	s.SetToken("")
	assert.False(t, s.IsAuthenticated())
}

func TestIsAuthenticated_GuestRoleIsNotAuthenticated(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())
	s.SetToken("tok-abc")
	s.SetUser(&User{ID: "u-2", Role: RoleGuest})

	assert.False(t, s.IsAuthenticated())
}

func TestHasRole_GroupAndRoleField(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())
	s.SetUser(&User{ID: "u-3", Role: RoleUser, Groups: []string{"MakerWorks-Admin"}})

	assert.True(t, s.HasRole("admin"), "matches normalized group")
	assert.True(t, s.HasRole("user"), "matches role field")
	assert.False(t, s.HasRole("operator"))
	assert.False(t, s.HasRole(""))
}

func TestLogout_ResetsEverything(t *testing.T) {
	backend := NewMemoryBackend()
	notifier := &recordingNotifier{}
	s := NewSessionStore(backend, WithNotifier(notifier))

	u := testUser()
	u.AvatarURL = "https://cdn.makerworks.test/avatars/u-1.png"
	s.SetToken("tok-abc")
	s.SetUser(u)

	s.Logout()

	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
	assert.False(t, s.Resolved())
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.CachedAvatarURL(context.Background()))
	assert.Equal(t, 1, notifier.count())

	// The persisted envelope no longer carries a user or token field.
	data, err := backend.Load(context.Background(), SessionKey)
	require.NoError(t, err)
	var env struct {
		State map[string]json.RawMessage `json:"state"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.NotContains(t, env.State, "user")
	assert.NotContains(t, env.State, "token")
}

func TestLogout_SilentAfterUnauthenticatedResolve(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSessionStore(NewMemoryBackend(), WithNotifier(notifier))

	// No token: the fetch resolves unauthenticated without a network call.
	u, err := s.FetchUser(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.True(t, s.Resolved())

	s.Logout()

	assert.False(t, s.Resolved(), "logout still resets resolved")
	assert.Zero(t, notifier.count(), "no sign-out message for a session that never held a credential")
}

func TestLogout_IdempotentWhenAlreadyLoggedOut(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSessionStore(NewMemoryBackend(), WithNotifier(notifier))

	events := 0
	cancel := s.Subscribe(func(SessionState) { events++ })
	defer cancel()

	s.Logout()
	s.Logout()

	assert.Zero(t, events, "no state change events for no-op logouts")
	assert.Zero(t, notifier.count())
}

func TestFetchUser_Success(t *testing.T) {
	identity := &fakeIdentity{user: testUser()}
	s := NewSessionStore(NewMemoryBackend(), WithIdentityClient(identity))
	s.SetToken("tok-abc")

	u, err := s.FetchUser(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "printrage", u.Username)
	assert.True(t, s.Resolved())
	assert.False(t, s.Loading())
	assert.True(t, s.IsAuthenticated())
}

func TestFetchUser_MemoizesResolvedSession(t *testing.T) {
	identity := &fakeIdentity{user: testUser()}
	s := NewSessionStore(NewMemoryBackend(), WithIdentityClient(identity))
	s.SetToken("tok-abc")

	_, err := s.FetchUser(context.Background(), false)
	require.NoError(t, err)
	_, err = s.FetchUser(context.Background(), false)
	require.NoError(t, err)
	_, err = s.FetchUser(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, identity.callCount(), "resolved session performs no further network calls")

	_, err = s.FetchUser(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, identity.callCount(), "force bypasses memoization")
}

func TestFetchUser_NoTokenResolvesUnauthenticated(t *testing.T) {
	identity := &fakeIdentity{user: testUser()}
	s := NewSessionStore(NewMemoryBackend(), WithIdentityClient(identity))

	u, err := s.FetchUser(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.True(t, s.Resolved())
	assert.Zero(t, identity.callCount(), "no credential, no network call")
}

func TestFetchUser_FailureResolvesClosed(t *testing.T) {
	identity := &fakeIdentity{err: errors.New("boom")}
	s := NewSessionStore(NewMemoryBackend(), WithIdentityClient(identity))
	s.SetToken("tok-abc")

	u, err := s.FetchUser(context.Background(), false)
	require.Error(t, err)
	assert.Nil(t, u)
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token(), "failed resolution clears the credential")
	assert.True(t, s.Resolved(), "a failed resolution is still a resolution")
	assert.False(t, s.Loading())
}

func TestFetchUser_ConcurrentCallsShareOneRequest(t *testing.T) {
	identity := &fakeIdentity{user: testUser(), delay: 50 * time.Millisecond}
	s := NewSessionStore(NewMemoryBackend(), WithIdentityClient(identity))
	s.SetToken("tok-abc")

	const n = 8
	var wg sync.WaitGroup
	results := make([]*User, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.FetchUser(context.Background(), false)
			assert.NoError(t, err)
			results[i] = u
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, identity.callCount(), "concurrent callers share the in-flight request")
	for _, u := range results {
		require.NotNil(t, u)
		assert.Equal(t, "printrage", u.Username)
	}
}

func TestFetchUser_WithoutClientReturnsError(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())
	s.SetToken("tok-abc")

	_, err := s.FetchUser(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoIdentityClient)
}

func TestHandleUnauthorized_LogsOutExactlyOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSessionStore(NewMemoryBackend(), WithNotifier(notifier))
	s.SetToken("tok-abc")
	s.SetUser(testUser())

	events := 0
	cancel := s.Subscribe(func(SessionState) { events++ })
	defer cancel()

	s.HandleUnauthorized()
	s.HandleUnauthorized()
	s.HandleUnauthorized()

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, events, "repeated 401s produce a single transition")
	assert.Equal(t, 1, notifier.count())
}

func TestSubscribe_DeliversSnapshotsAndCancels(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())

	var got []SessionState
	cancel := s.Subscribe(func(st SessionState) { got = append(got, st) })

	s.SetToken("tok-abc")
	s.SetUser(testUser())
	require.Len(t, got, 2)
	assert.Equal(t, "tok-abc", got[0].Token)
	assert.NotNil(t, got[1].User)

	cancel()
	s.Logout()
	assert.Len(t, got, 2, "cancelled subscriber receives no further events")
}
