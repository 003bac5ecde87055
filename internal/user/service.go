package user

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Hasher turns a plaintext password into the stored opaque hash.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

type ValidationError struct {
	Err error
}

func (e ValidationError) Error() string {
	return e.Err.Error()
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

type Service struct {
	repo   Repository
	hasher Hasher
	now    func() time.Time
}

func NewService(repo Repository, hasher Hasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return Page{}, err
	}

	result := Page{
		PageNumber:       page,
		PageSize:         pageSize,
		TotalRecordCount: total,
		Records:          []User{},
	}

	// Pages whose offset would not fit in an int lie past any real table.
	inRange := page <= (math.MaxInt-pageSize)/pageSize
	if inRange {
		first := (page - 1) * pageSize
		records, err := s.repo.List(ctx, first, pageSize)
		if err != nil {
			return Page{}, err
		}
		result.Records = records
	}

	if inRange && page*pageSize < total {
		next := fmt.Sprintf("/users?page=%d&page_size=%d", page+1, pageSize)
		result.Pagination.Next = &next
	}
	if page > 1 {
		previous := fmt.Sprintf("/users?page=%d&page_size=%d", page-1, pageSize)
		result.Pagination.Previous = &previous
	}

	return result, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return User{}, ValidationError{Err: err}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := s.now()
	u := User{
		ID:           id.String(),
		Username:     in.Username,
		PasswordHash: hash,
		IsActive:     active,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}

	return u, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	if err := in.Validate(); err != nil {
		return User{}, ValidationError{Err: err}
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}

	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// EnsureAdmin seeds the bootstrap administrator. An existing account with the
// same username gets its password reset and its active/admin flags raised.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)

	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required together")
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		_, err := s.Create(ctx, CreateInput{Username: username, Password: password, IsAdmin: true})
		return err
	}

	active, admin := true, true
	_, err = s.Update(ctx, existing.ID, UpdateInput{Password: &password, IsActive: &active, IsAdmin: &admin})
	return err
}
