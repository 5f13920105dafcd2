package auth

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeJWT(exp int64) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := enc.EncodeToString([]byte(fmt.Sprintf(`{"sub":"7","exp":%d}`, exp)))
	return header + "." + payload + ".sig"
}

func TestNewBearerTokenReadsExpiry(t *testing.T) {
	exp := time.Now().Add(12 * time.Hour).Unix()
	tok := NewBearerToken(fakeJWT(exp))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, exp, tok.Expiry.Unix())

	opaque := NewBearerToken("mock-jwt-token-123")
	assert.True(t, opaque.Expiry.IsZero())
}

func TestSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steady", SessionFile)
	store, err := OpenSessionStore(path)
	require.NoError(t, err)

	_, ok := store.Token()
	assert.False(t, ok, "empty store has no credential")

	user := &model.User{ID: "7", Email: "a@example.com", Name: "Ada", AuthProvider: model.ProviderPassword}
	require.NoError(t, store.Save(NewBearerToken("abc"), user))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := OpenSessionStore(path)
	require.NoError(t, err)
	tok, ok := reopened.Token()
	require.True(t, ok)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "Ada", reopened.User().Name)

	require.NoError(t, reopened.Clear())
	_, ok = reopened.Token()
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, reopened.Clear(), "clearing twice is fine")
}

func TestSessionStoreIgnoresExpiredToken(t *testing.T) {
	store, err := OpenSessionStore(filepath.Join(t.TempDir(), SessionFile))
	require.NoError(t, err)
	require.NoError(t, store.Save(NewBearerToken(fakeJWT(time.Now().Add(-time.Minute).Unix())), nil))

	_, ok := store.Token()
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore("t1")
	tok, ok := m.Token()
	require.True(t, ok)
	assert.Equal(t, "t1", tok.AccessToken)

	require.NoError(t, m.Clear())
	_, ok = m.Token()
	assert.False(t, ok)
	assert.Equal(t, 1, m.Cleared())
}

func writeClientSecrets(t *testing.T, redirect string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STEADY_HOME", dir)
	secrets := fmt.Sprintf(`{"installed": {
		"client_id": "id.apps.googleusercontent.com",
		"client_secret": "secret",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token",
		"redirect_uris": [%q]
	}}`, redirect)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(secrets), 0600))
}

func TestGetConfigForcesLocalPort(t *testing.T) {
	writeClientSecrets(t, "http://localhost")
	cfg, err := GetConfig(SignInScopes)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:"+LocalhostAuthPort, cfg.RedirectURL)
	assert.Equal(t, SignInScopes, cfg.Scopes)

	writeClientSecrets(t, "http://127.0.0.1:9999/cb")
	cfg, err = GetConfig(SignInScopes)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:"+LocalhostAuthPort+"/cb", cfg.RedirectURL)
}

func TestGetConfigReplacesOOB(t *testing.T) {
	writeClientSecrets(t, "urn:ietf:wg:oauth:2.0:oob")
	cfg, err := GetConfig(SignInScopes)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:"+LocalhostAuthPort+"/oauth2callback", cfg.RedirectURL)
}

func TestGetConfigMissingSecrets(t *testing.T) {
	t.Setenv("STEADY_HOME", t.TempDir())
	_, err := GetConfig(SignInScopes)
	assert.Error(t, err)
}
