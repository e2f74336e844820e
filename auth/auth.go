// Package auth implements the bootstrap-then-authenticate admin session
// scheme over the store's admin and sessions tables. The first successful
// login creates the singleton account; every later login must match it.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"short-link-registry/model"
	"short-link-registry/shortcode"
	"short-link-registry/store"
)

const (
	saltLength = 16
	// tokenLength is well past short-code length to resist brute force.
	tokenLength = 48
)

// ErrInvalidCredentials covers missing credentials, unknown usernames and
// wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service authenticates the admin and manages sessions. Storage is
// injected; there is no global state.
type Service struct {
	store *store.Store
}

// NewService creates an auth service over the given store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// hashWithSalt returns hex(sha256(salt || password)).
func hashWithSalt(password, salt string) string {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

// Login authenticates the admin and returns a fresh session token. If no
// account exists yet, the submitted credentials become the account and the
// login proceeds against them. Sessions expiry is a known gap; CreatedAt is
// persisted so an age check can be added here later.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	count, err := s.store.AdminCount(ctx)
	if err != nil {
		return "", err
	}
	if count == 0 {
		salt, err := shortcode.Token(saltLength)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		account := model.AdminAccount{
			Username:     username,
			PasswordHash: hashWithSalt(password, salt),
			Salt:         salt,
		}
		switch err := s.store.CreateAdmin(ctx, account); err {
		case nil:
			log.Info().Str("username", username).Msg("Admin account bootstrapped")
		case store.ErrAdminExists:
			// Lost the bootstrap race; authenticate against the winner.
			log.Warn().Str("username", username).Msg("Concurrent bootstrap, account already exists")
		default:
			return "", err
		}
	}

	account, err := s.store.GetAdmin(ctx, username)
	if err == store.ErrNotFound {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	submitted := hashWithSalt(password, account.Salt)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(account.PasswordHash)) != 1 {
		log.Warn().Str("username", username).Msg("Admin login failed")
		return "", ErrInvalidCredentials
	}

	token, err := shortcode.Token(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	if err := s.store.CreateSession(ctx, model.Session{Token: token}); err != nil {
		return "", err
	}

	log.Info().Str("username", username).Msg("Admin logged in")
	return token, nil
}

// Validate reports whether a session row with this token exists.
func (s *Service) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.store.SessionExists(ctx, token)
}

// Logout revokes the session. It is idempotent: revoking an unknown or
// already-revoked token succeeds.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
