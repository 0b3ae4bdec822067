package makerworks

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/admin/users", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": "u-1", "username": "printrage", "role": "admin"},
			{"id": "u-2", "username": "benchy_fan", "role": "user", "is_active": false}
		]`))
	})
	client := newTestClient(t, handler, Config{TokenSource: StaticToken("tok-admin")})

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "printrage", users[0].Username)
	assert.False(t, users[1].IsActive)
}

func TestUserModeration_HitsPerUserEndpoints(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, handler, Config{TokenSource: StaticToken("tok-admin")})
	ctx := context.Background()

	require.NoError(t, client.PromoteUser(ctx, "u-2"))
	require.NoError(t, client.DemoteUser(ctx, "u-2"))
	require.NoError(t, client.ResetUserPassword(ctx, "u-2"))
	require.NoError(t, client.DeleteUser(ctx, "u-2"))

	assert.Equal(t, []call{
		{http.MethodPost, "/admin/users/u-2/promote"},
		{http.MethodPost, "/admin/users/u-2/demote"},
		{http.MethodPost, "/admin/users/u-2/reset-password"},
		{http.MethodDelete, "/admin/users/u-2"},
	}, calls)
}

func TestUserModeration_ForbiddenForNonAdmins(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "admins only"}`))
	})
	client := newTestClient(t, handler, Config{TokenSource: StaticToken("tok-user")})

	_, err := client.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)

	err = client.PromoteUser(context.Background(), "u-2")
	assert.ErrorIs(t, err, ErrForbidden)
}
