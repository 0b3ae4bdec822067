package makerworks

import (
	"context"
	"fmt"
)

// ListUsers returns every registered user (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.Get(ctx, "/admin/users", &users); err != nil {
		return nil, wrapOpError("list users", err)
	}
	return users, nil
}

// PromoteUser grants a user the admin role (admin only).
func (c *Client) PromoteUser(ctx context.Context, id string) error {
	if err := c.Post(ctx, fmt.Sprintf("/admin/users/%s/promote", id), nil, nil); err != nil {
		return wrapOpError("promote user", err)
	}
	return nil
}

// DemoteUser revokes a user's admin role and suspends the account
// (admin only).
func (c *Client) DemoteUser(ctx context.Context, id string) error {
	if err := c.Post(ctx, fmt.Sprintf("/admin/users/%s/demote", id), nil, nil); err != nil {
		return wrapOpError("demote user", err)
	}
	return nil
}

// DeleteUser permanently removes another user's account (admin only).
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.Delete(ctx, fmt.Sprintf("/admin/users/%s", id)); err != nil {
		return wrapOpError("delete user", err)
	}
	return nil
}

// ResetUserPassword triggers a password reset for a user (admin only).
func (c *Client) ResetUserPassword(ctx context.Context, id string) error {
	if err := c.Post(ctx, fmt.Sprintf("/admin/users/%s/reset-password", id), nil, nil); err != nil {
		return wrapOpError("reset user password", err)
	}
	return nil
}
