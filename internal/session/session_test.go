package session

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmnotify/internal/model"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestDecodeUserInfo(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{
		"cognito:username": "alice",
		"email":            "alice@example.com",
		"custom:user_id":   "u-1",
	})
	u, err := DecodeUserInfo(tok, "")
	require.NoError(t, err)
	assert.Equal(t, UserInfo{Username: "alice", Email: "alice@example.com", UserID: "u-1", Provider: ProviderCognito}, u)
	assert.True(t, u.SignedIn())

	_, err = DecodeUserInfo("not-a-jwt", ProviderOther)
	assert.Error(t, err)
}

func TestDecodeUserInfoMissingClaims(t *testing.T) {
	u, err := DecodeUserInfo(signedToken(t, jwt.MapClaims{"email": 5}), ProviderOther)
	require.NoError(t, err)
	assert.Equal(t, UserInfo{Provider: ProviderOther}, u)
	assert.False(t, u.SignedIn())
	assert.ErrorIs(t, u.RequireUserID(), model.ErrUserIDNotPresent)
}

func TestCurrentWithoutToken(t *testing.T) {
	s := NewTokenStore(keyring.NewArrayKeyring(nil))
	u, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UserInfo{Provider: ProviderCognito}, u)
}

func TestFileBackendRoundTrip(t *testing.T) {
	s, err := Open(Config{Backends: []string{"file"}, FileDir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.IDToken()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.ErrorIs(t, s.SaveIDToken("  "), model.ErrEmptyToken)

	tok := signedToken(t, jwt.MapClaims{"cognito:username": "bob", "custom:user_id": "u-2"})
	require.NoError(t, s.SaveIDToken(tok))
	require.NoError(t, s.SaveProvider(ProviderOther))

	u, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, ProviderOther, u.Provider)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	u, err = s.Current(context.Background())
	require.NoError(t, err)
	assert.False(t, u.SignedIn())
	assert.Equal(t, ProviderCognito, u.Provider)
}

func TestParseProvider(t *testing.T) {
	assert.Equal(t, ProviderOther, ParseProvider("other"))
	assert.Equal(t, ProviderCognito, ParseProvider("github"))
}
