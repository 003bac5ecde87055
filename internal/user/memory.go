package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps users in process memory. Used by tests and by the
// memory:// database URL.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]User
	names map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]User),
		names: make(map[string]string),
	}
}

func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) List(_ context.Context, offset, limit int) ([]User, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("list users: negative offset %d or limit %d", offset, limit)
	}

	r.mu.RLock()
	users := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	if offset >= len(users) {
		return []User{}, nil
	}
	end := len(users)
	if limit < end-offset {
		end = offset + limit
	}
	return users[offset:end], nil
}

func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *MemoryRepository) Create(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[u.Username]; ok {
		return ErrUsernameTaken
	}
	if _, ok := r.byID[u.ID]; ok {
		return ErrUsernameTaken
	}
	r.byID[u.ID] = u
	r.names[u.Username] = u.ID
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := r.names[u.Username]; taken && owner != u.ID {
		return ErrUsernameTaken
	}

	delete(r.names, current.Username)
	r.byID[u.ID] = u
	r.names[u.Username] = u.ID
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.names, u.Username)
	return nil
}
