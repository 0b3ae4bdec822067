package makerworks

import (
	"context"
	"io"
)

// SignIn authenticates with username and password and returns the
// bearer token with the signed-in identity.
func (c *Client) SignIn(ctx context.Context, username, password string) (*Credentials, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var creds Credentials
	if err := c.Post(ctx, "/auth/signin", body, &creds); err != nil {
		return nil, wrapOpError("sign in", err)
	}
	return &creds, nil
}

// SignUp creates an account and returns the new credentials.
func (c *Client) SignUp(ctx context.Context, req SignupRequest) (*Credentials, error) {
	var creds Credentials
	if err := c.Post(ctx, "/auth/signup", req, &creds); err != nil {
		return nil, wrapOpError("sign up", err)
	}
	return &creds, nil
}

// CurrentUser returns the identity behind the current bearer token.
// It implements IdentityClient for the session store.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/auth/me", &user); err != nil {
		return nil, wrapOpError("current user", err)
	}
	return &user, nil
}

// SignOut invalidates the session server-side. Local logout proceeds
// regardless of the outcome, so callers treat errors as advisory.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.Post(ctx, "/auth/signout", nil, nil); err != nil {
		return wrapOpError("sign out", err)
	}
	return nil
}

// UpdateProfile applies a partial update to the current user's profile
// and returns the updated identity.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	if err := c.Patch(ctx, "/users/me", update, &user); err != nil {
		return nil, wrapOpError("update profile", err)
	}
	return &user, nil
}

// DeleteAccount permanently removes the current user's account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.Delete(ctx, "/users/me"); err != nil {
		return wrapOpError("delete account", err)
	}
	return nil
}

// UploadAvatar uploads a new avatar image and returns its URL.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.upload(ctx, "/users/avatar", "file", filename, r, nil, &resp); err != nil {
		return "", wrapOpError("upload avatar", err)
	}
	return resp.URL, nil
}
