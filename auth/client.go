package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"storefront-core/dtos"
	"storefront-core/rest"
	"storefront-core/session"

	"github.com/golang-jwt/jwt/v5"
)

type OTPType string

const (
	OTPSignup   OTPType = "signup"
	OTPRecovery OTPType = "recovery"
	OTPEmail    OTPType = "email"
)

// Client talks to the identity endpoints and owns the session transitions:
// sign-in and OTP verification begin the session, sign-out ends it.
type Client struct {
	rest     *rest.Client
	sessions *session.Holder
	now      func() time.Time
}

func New(rc *rest.Client, sessions *session.Holder) *Client {
	return &Client{rest: rc, sessions: sessions, now: time.Now}
}

// SignUp registers the account; the store emails a signup code to confirm it.
func (c *Client) SignUp(ctx context.Context, email, password string) (dtos.AuthUser, error) {
	body := dtos.Credentials{Email: email, Password: password}
	if err := dtos.Validate(body); err != nil {
		return dtos.AuthUser{}, fmt.Errorf("sign up: %w", err)
	}

	var user dtos.AuthUser
	err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   rest.AuthPath + "/signup",
		Body:   body,
	}, &user)
	if err != nil {
		return dtos.AuthUser{}, fmt.Errorf("sign up: %w", err)
	}
	return user, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (session.Session, error) {
	var resp dtos.SessionResponse
	err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   rest.AuthPath + "/token",
		Query:  url.Values{"grant_type": {"password"}},
		Body:   dtos.Credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return session.Session{}, fmt.Errorf("sign in: %w", err)
	}
	return c.begin(resp), nil
}

// SendOTP emails a one-time sign-in code.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.requestCode(ctx, "/otp", email)
}

// ResetPasswordForEmail emails a recovery code. Redeem it with VerifyOTP
// (OTPRecovery), then call UpdatePassword.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.requestCode(ctx, "/recover", email)
}

func (c *Client) requestCode(ctx context.Context, path, email string) error {
	body := dtos.OTPRequest{Email: email}
	if err := dtos.Validate(body); err != nil {
		return fmt.Errorf("request code: %w", err)
	}
	err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   rest.AuthPath + path,
		Body:   body,
	}, nil)
	if err != nil {
		return fmt.Errorf("request code: %w", err)
	}
	return nil
}

// VerifyOTP redeems code and begins the session. Failures are *OTPError
// with a user-facing message chosen by HTTP status.
func (c *Client) VerifyOTP(ctx context.Context, email, code string, kind OTPType) (session.Session, error) {
	var resp dtos.SessionResponse
	err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   rest.AuthPath + "/verify",
		Body:   dtos.VerifyRequest{Email: email, Token: code, Type: string(kind)},
	}, &resp)
	if err != nil {
		return session.Session{}, newOTPError(err)
	}
	return c.begin(resp), nil
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	if _, ok := c.sessions.Current(); !ok {
		return session.ErrUnauthenticated
	}
	body := dtos.PasswordUpdate{Password: password}
	if err := dtos.Validate(body); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPut,
		Path:   rest.AuthPath + "/user",
		Body:   body,
	}, nil)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SignOut ends the local session even when the store call fails.
func (c *Client) SignOut(ctx context.Context) error {
	defer c.sessions.End()

	if _, ok := c.sessions.Current(); !ok {
		return nil
	}
	err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   rest.AuthPath + "/logout",
	}, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (c *Client) begin(resp dtos.SessionResponse) session.Session {
	s := session.Session{
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
		AccessToken: resp.AccessToken,
		ExpiresAt:   tokenExpiry(resp.AccessToken),
	}
	if s.ExpiresAt.IsZero() && resp.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	c.sessions.Begin(s)
	return s
}

// tokenExpiry reads exp without verifying the signature; the store verifies.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
