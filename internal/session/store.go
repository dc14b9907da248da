// Package session keeps the signed-in user's identity token in the platform
// keyring and derives the user profile from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"

	"rmnotify/internal/model"
)

const (
	ServiceName = "rmnotify"

	keyIDToken  = "id_token"
	keyProvider = "provider"
)

// ErrNoToken is returned when no identity token is stored.
var ErrNoToken = model.ErrEmptyToken

type Config struct {
	// Backends are keyring backend names; empty means every platform backend
	// followed by the encrypted file backend.
	Backends []string
	FileDir  string
}

var defaultBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.SecretServiceBackend,
	keyring.WinCredBackend,
	keyring.PassBackend,
	keyring.FileBackend,
}

// TokenStore reads and writes the session items.
type TokenStore struct {
	ring keyring.Keyring
}

// Open opens the configured keyring.
func Open(cfg Config) (*TokenStore, error) {
	backends := defaultBackends
	if len(cfg.Backends) > 0 {
		backends = make([]keyring.BackendType, 0, len(cfg.Backends))
		for _, b := range cfg.Backends {
			backends = append(backends, keyring.BackendType(strings.TrimSpace(b)))
		}
	}
	dir := cfg.FileDir
	if dir == "" {
		dir = "~/.config/rmnotify/credentials"
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              ServiceName,
		AllowedBackends:          backends,
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("rmnotify-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &TokenStore{ring: ring}, nil
}

// NewTokenStore wraps an already opened keyring.
func NewTokenStore(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

func (s *TokenStore) SaveIDToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrNoToken
	}
	return s.set(keyIDToken, token)
}

// IDToken returns ErrNoToken when nothing is stored.
func (s *TokenStore) IDToken() (string, error) {
	v, err := s.get(keyIDToken)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	return v, err
}

func (s *TokenStore) SaveProvider(p Provider) error {
	return s.set(keyProvider, string(p))
}

// Provider returns the stored sign-in provider, cognito when unset.
func (s *TokenStore) Provider() (Provider, error) {
	v, err := s.get(keyProvider)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return ProviderCognito, nil
	}
	if err != nil {
		return ProviderCognito, err
	}
	return ParseProvider(v), nil
}

// Clear removes every session item. Missing items are not an error.
func (s *TokenStore) Clear() error {
	var errs []error
	for _, k := range []string{keyIDToken, keyProvider} {
		err := s.ring.Remove(k)
		if err == nil || errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
			continue
		}
		errs = append(errs, fmt.Errorf("deleting credential %q: %w", k, err))
	}
	return errors.Join(errs...)
}

// Current decodes the stored token. With no token it returns the signed-out
// profile (empty fields, cognito provider).
func (s *TokenStore) Current(ctx context.Context) (UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return UserInfo{}, err
	}
	provider, err := s.Provider()
	if err != nil {
		return UserInfo{}, err
	}
	tok, err := s.IDToken()
	if errors.Is(err, ErrNoToken) {
		return UserInfo{Provider: ProviderCognito}, nil
	}
	if err != nil {
		return UserInfo{}, err
	}
	return DecodeUserInfo(tok, provider)
}

func (s *TokenStore) get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", err
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (s *TokenStore) set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: ServiceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}
