package api

import (
	"context"

	"github.com/nhle/trakker/internal/model"
)

// StartLogin asks the server to email a one-time password.
func (c *Client) StartLogin(ctx context.Context, email string) error {
	req := model.StartLoginRequest{Email: email}
	if err := c.validate(req); err != nil {
		return err
	}

	op := post("/auth/email/start", "Failed to send code", "")
	op.public = true
	return c.call(ctx, op, req, nil)
}

// VerifyLogin exchanges the emailed code for a token pair.
func (c *Client) VerifyLogin(ctx context.Context, email, otp string) (*model.TokenPair, error) {
	req := model.VerifyLoginRequest{Email: email, OTP: otp}
	if err := c.validate(req); err != nil {
		return nil, err
	}

	op := post("/auth/email/verify", "Failed to verify code", "No token data returned")
	op.public = true

	var pair model.TokenPair
	if err := c.call(ctx, op, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// RefreshToken exchanges a refresh token for a new pair. It is called by
// the refresher; most callers never need it directly.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	req := model.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := c.validate(req); err != nil {
		return nil, err
	}

	op := post("/auth/refresh", "Token refresh failed", "No token data returned")
	op.public = true

	var pair model.TokenPair
	if err := c.call(ctx, op, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}
