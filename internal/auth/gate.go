package auth

import (
	"context"
	"errors"
	"fmt"

	"user-service/internal/user"
)

// Level selects how many gates a route passes through.
type Level int

const (
	LevelAuthenticated Level = iota
	LevelActive
	LevelAdmin
)

// TokenDecoder is satisfied by *TokenCodec.
type TokenDecoder interface {
	Decode(token string) (string, error)
}

// AccessGate turns a bearer token into a Principal and applies the active and
// admin policies. It only reads from the store; every call looks the user up
// again so deactivation takes effect on the next request.
type AccessGate struct {
	tokens TokenDecoder
	store  UserStore
}

func NewAccessGate(tokens TokenDecoder, store UserStore) *AccessGate {
	return &AccessGate{tokens: tokens, store: store}
}

// ResolvePrincipal fails with ErrUnauthenticated when the token is absent,
// does not decode, or names a user that no longer exists.
func (g *AccessGate) ResolvePrincipal(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthenticated
	}

	username, err := g.tokens.Decode(token)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	u, err := g.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("lookup principal: %w", err)
	}

	return principalFromUser(u), nil
}

func (g *AccessGate) RequireActive(p Principal) (Principal, error) {
	if !p.IsActive {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}

func (g *AccessGate) RequireAdmin(p Principal) (Principal, error) {
	if !p.IsAdmin {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

// Authorize runs the gates in order: resolve, then active, then admin. An
// inactive admin is rejected by the active check before the admin check runs.
func (g *AccessGate) Authorize(ctx context.Context, token string, level Level) (Principal, error) {
	p, err := g.ResolvePrincipal(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	if level == LevelAuthenticated {
		return p, nil
	}

	if p, err = g.RequireActive(p); err != nil {
		return Principal{}, err
	}
	if level == LevelActive {
		return p, nil
	}

	return g.RequireAdmin(p)
}
