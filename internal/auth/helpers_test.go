package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user-service/internal/user"
)

var errStoreDown = errors.New("store down")

// failingStore simulates an unavailable persistence layer.
type failingStore struct{}

func (failingStore) FindByUsername(context.Context, string) (user.User, error) {
	return user.User{}, errStoreDown
}

func (failingStore) FindByID(context.Context, string) (user.User, error) {
	return user.User{}, errStoreDown
}

type fixture struct {
	store    *user.MemoryRepository
	hasher   *BcryptHasher
	codec    *TokenCodec
	verifier *CredentialVerifier
	gate     *AccessGate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := user.NewMemoryRepository()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	codec, err := NewTokenCodec("test-secret-key", "HS256")
	require.NoError(t, err)

	return &fixture{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		verifier: NewCredentialVerifier(store, hasher),
		gate:     NewAccessGate(codec, store),
	}
}

func (f *fixture) addUser(t *testing.T, username, password string, active, admin bool) user.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     active,
		IsAdmin:      admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.store.Create(context.Background(), u))
	return u
}

func (f *fixture) token(t *testing.T, subject string) string {
	t.Helper()
	token, err := f.codec.Encode(subject, DefaultTokenTTL)
	require.NoError(t, err)
	return token
}
