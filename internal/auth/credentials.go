package auth

import (
	"context"
	"errors"
	"fmt"

	"user-service/internal/user"
)

// UserStore is the read side of the user repository the auth core needs.
// A miss is reported as user.ErrNotFound.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
}

type CredentialVerifier struct {
	store  UserStore
	hasher PasswordHasher
}

func NewCredentialVerifier(store UserStore, hasher PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{store: store, hasher: hasher}
}

// Authenticate returns the user owning username when password matches its
// stored hash. Unknown usernames and wrong passwords both yield
// ErrAuthFailure.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := v.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrAuthFailure
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !v.hasher.Verify(password, u.PasswordHash) {
		return user.User{}, ErrAuthFailure
	}

	return u, nil
}
