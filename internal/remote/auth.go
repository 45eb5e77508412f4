package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/badoux/checkmail"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/model"
)

const minPasswordLength = 6

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "login"
	if strings.TrimSpace(username) == "" || password == "" {
		return "", apperr.NewValidationError(op, "username and password are required")
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, op, request{
		method: http.MethodPost,
		path:   "/login/",
		body:   strings.NewReader(form.Encode()),
		ctype:  "application/x-www-form-urlencoded",
		public: true,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", apperr.New(apperr.Unknown, op, "server returned no access token")
	}
	return out.AccessToken, nil
}

// Signup registers an account. The email format is checked before any
// request is made.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	const op = "signup"
	email = strings.TrimSpace(email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return apperr.NewValidationError(op, "invalid email address")
	}
	if len(password) < minPasswordLength {
		return apperr.NewValidationError(op, "password must be at least 6 characters")
	}
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return apperr.Wrap(apperr.Unknown, op, err)
	}
	return c.do(ctx, op, request{
		method: http.MethodPost,
		path:   "/signup/",
		body:   body,
		ctype:  "application/json",
		public: true,
	}, nil)
}

// Me returns the signed-in user's profile and balance.
func (c *Client) Me(ctx context.Context) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, "get profile", request{method: http.MethodGet, path: "/users/me/"}, &p)
	return p, err
}
