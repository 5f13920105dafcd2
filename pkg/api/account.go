package api

import (
	"context"
	"net/http"

	"github.com/harrisonrobin/steady/pkg/model"
)

// AuthResponse is returned by the sign-in endpoints. Deployments have used
// several names for the token field.
type AuthResponse struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"access_token"`
	JWT         string      `json:"jwt"`
	IDToken     string      `json:"id_token"`
	Message     string      `json:"message"`
	User        *model.User `json:"user"`
}

// BearerToken returns whichever token field the server filled in.
func (r *AuthResponse) BearerToken() string {
	for _, t := range []string{r.Token, r.AccessToken, r.JWT, r.IDToken} {
		if t != "" {
			return t
		}
	}
	return ""
}

type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	DOB             string `json:"dob"`
}

type ProfileUpdate struct {
	Name        *string                `json:"name,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{
		method:         http.MethodPost,
		path:           "/login",
		body:           map[string]string{"email": email, "password": password},
		out:            &out,
		checksPassword: true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/signup", body: req, out: &out, checksPassword: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleLogin exchanges a Google ID token for a session. extra is required
// the first time an email signs in.
func (c *Client) GoogleLogin(ctx context.Context, idToken string, extra *model.ProfileInfo) (*AuthResponse, error) {
	body := struct {
		IDToken   string             `json:"id_token"`
		ExtraData *model.ProfileInfo `json:"extra_data,omitempty"`
	}{IDToken: idToken, ExtraData: extra}

	var out AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/google-login", body: body, out: &out, checksPassword: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.get(ctx, "/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateMe(ctx context.Context, upd ProfileUpdate) error {
	var ack Ack
	return c.do(ctx, request{method: http.MethodPatch, path: "/me", body: upd, out: &ack})
}

func (c *Client) ChangePassword(ctx context.Context, current, next, confirm string) error {
	var ack Ack
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/change-password",
		body: map[string]string{
			"current_password": current,
			"new_password":     next,
			"confirm_password": confirm,
		},
		out:            &ack,
		checksPassword: true,
	})
}

// SetPassword gives a Google account a password.
func (c *Client) SetPassword(ctx context.Context, next, confirm string) error {
	var ack Ack
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/set-password",
		body:   map[string]string{"new_password": next, "confirm_password": confirm},
		out:    &ack,
	})
}

func (c *Client) Gender(ctx context.Context) (string, error) {
	var out struct {
		Gender string `json:"gender"`
	}
	if err := c.get(ctx, "/gender", &out); err != nil {
		return "", err
	}
	return out.Gender, nil
}
