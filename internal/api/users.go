package api

import (
	"context"

	"github.com/nhle/trakker/internal/model"
)

// GetCurrentUser fetches the signed-in user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.call(ctx, get("/users/me", "Failed to fetch user", "No user data returned"), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateCurrentUser patches the signed-in user's profile.
func (c *Client) UpdateCurrentUser(ctx context.Context, req model.UpdateUserRequest) (*model.User, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var user model.User
	if err := c.call(ctx, patch("/users/me", "Failed to update user", "No user data returned"), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
