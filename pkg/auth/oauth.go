package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/steady/pkg/config"
	"github.com/harrisonrobin/steady/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const (
	// ClientSecretsFile is the Google OAuth client downloaded from the Cloud
	// Console, stored in steady's config directory.
	ClientSecretsFile = "credentials.json"

	// GoogleTokenFile caches the Google access/refresh token used for the
	// Calendar API. It is separate from the backend session.
	GoogleTokenFile = "google_token.json"

	// LocalhostAuthPort is the port the local redirect listener binds.
	LocalhostAuthPort = "6789"
)

// SignInScopes request an ID token carrying the user's email and name.
var SignInScopes = []string{"openid", "email", "profile"}

// ErrNoIDToken is returned when Google's token response lacks an id_token.
var ErrNoIDToken = errors.New("google did not return an ID token")

// GetConfig creates an oauth2.Config from the client secrets file and scopes.
func GetConfig(scopes []string) (*oauth2.Config, error) {
	log := logger.For("auth")
	xdgConfigBase, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}

	clientSecretsFile := filepath.Join(xdgConfigBase, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	parsedURL, parseErr := url.Parse(cfg.RedirectURL)
	switch {
	case cfg.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" || cfg.RedirectURL == "":
		cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		log.Debugf("using local redirect %s", cfg.RedirectURL)
	case parseErr != nil:
		log.Warnf("could not parse RedirectURL '%s': %v. Using it as is.", cfg.RedirectURL, parseErr)
	case parsedURL.Hostname() == "localhost" || parsedURL.Hostname() == "127.0.0.1":
		// The listener always binds LocalhostAuthPort, so the redirect must match it.
		if parsedURL.Port() != "" && parsedURL.Port() != LocalhostAuthPort {
			log.Warnf("credentials.json redirect port '%s' does not match %s; forcing %s",
				parsedURL.Port(), LocalhostAuthPort, LocalhostAuthPort)
		}
		parsedURL.Host = net.JoinHostPort(parsedURL.Hostname(), LocalhostAuthPort)
		cfg.RedirectURL = parsedURL.String()
	default:
		log.Warnf("configured RedirectURL %s is not a localhost callback; sign-in may not complete", cfg.RedirectURL)
	}

	return cfg, nil
}

// GetClient returns an *http.Client authorised for scopes. A cached token is
// reused and refreshed; otherwise the browser flow runs.
func GetClient(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := GetConfig(scopes)
	if err != nil {
		return nil, err
	}

	xdgConfigBase, err := config.GetXdgHome()
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(xdgConfigBase, GoogleTokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		logger.For("auth").Infof("no Google token found at %s, starting browser authorization", tokenFile)
		tok, err = getTokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := cfg.TokenSource(ctx, tok)
	current, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh Google token: %w", err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		if err := saveToken(tokenFile, current); err != nil {
			logger.For("auth").WithError(err).Warn("could not persist refreshed Google token")
		}
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(current, src)), nil
}

// GoogleIDToken runs the browser flow for SignInScopes and returns the raw
// Google ID token. ID tokens are short-lived, so nothing is cached.
func GoogleIDToken(ctx context.Context) (string, error) {
	cfg, err := GetConfig(SignInScopes)
	if err != nil {
		return "", err
	}
	tok, err := getTokenFromWeb(ctx, cfg)
	if err != nil {
		return "", err
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return "", ErrNoIDToken
	}
	return raw, nil
}

// VerifyIDToken checks the token's signature and audience and returns the
// email it was issued for.
func VerifyIDToken(ctx context.Context, raw, audience string) (string, error) {
	payload, err := idtoken.Validate(ctx, raw, audience)
	if err != nil {
		return "", fmt.Errorf("invalid Google ID token: %w", err)
	}
	email, _ := payload.Claims["email"].(string)
	return email, nil
}

// getTokenFromWeb runs the authorization code flow, capturing the redirect
// on a local listener.
func getTokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	log := logger.For("auth")
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	state := uuid.NewString()

	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "State mismatch", http.StatusBadRequest)
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- errors.New("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Shutdown(context.Background())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to sign in:\n%s\n", authURL)
	log.Debug("waiting for authorization code")

	select {
	case authCode := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := cfg.Exchange(exchangeCtx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, errors.New("authorization timed out. Please try again")
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken writes an oauth2.Token to a JSON file only the owner can read.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// ForgetGoogleToken removes the cached Calendar token so the next GetClient
// call re-authorises.
func ForgetGoogleToken() error {
	dir, err := config.GetXdgHome()
	if err != nil {
		return err
	}
	tokenFile := filepath.Join(dir, GoogleTokenFile)
	if err := os.Remove(tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file '%s': %w", tokenFile, err)
	}
	return nil
}
