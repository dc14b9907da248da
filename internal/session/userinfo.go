package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"rmnotify/internal/model"
)

type Provider string

const (
	ProviderCognito Provider = "cognito"
	ProviderOther   Provider = "other"
)

// ParseProvider maps unknown values to cognito.
func ParseProvider(s string) Provider {
	if Provider(s) == ProviderOther {
		return ProviderOther
	}
	return ProviderCognito
}

type UserInfo struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	UserID   string   `json:"user_id"`
	Provider Provider `json:"provider"`
}

// SignedIn reports whether the profile came from a token.
func (u UserInfo) SignedIn() bool { return u.UserID != "" || u.Username != "" }

// RequireUserID fails with model.ErrUserIDNotPresent for tokens that carry no
// custom:user_id claim; cloud calls are keyed by it.
func (u UserInfo) RequireUserID() error {
	if u.UserID == "" {
		return model.ErrUserIDNotPresent
	}
	return nil
}

// DecodeUserInfo reads the profile claims from an ID token. The signature is
// not verified; the token was issued to this client by the identity provider.
func DecodeUserInfo(idToken string, provider Provider) (UserInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return UserInfo{}, fmt.Errorf("session: decode id token: %w", err)
	}
	if provider == "" {
		provider = ProviderCognito
	}
	return UserInfo{
		Username: claimString(claims, "cognito:username"),
		Email:    claimString(claims, "email"),
		UserID:   claimString(claims, "custom:user_id"),
		Provider: provider,
	}, nil
}

func claimString(c jwt.MapClaims, key string) string {
	s, _ := c[key].(string)
	return s
}
