package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"iot-device-manager/internal/domain/user"

	"github.com/google/uuid"
)

// UserRepository is an in-memory user store for local runs and tests.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*user.User
	byUsername map[string]uuid.UUID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[uuid.UUID]*user.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[u.Username]; exists {
		return user.ErrUserAlreadyExists
	}
	if u.Email != nil {
		for _, existing := range r.byID {
			if existing.Email != nil && *existing.Email == *u.Email {
				return user.ErrEmailAlreadyExists
			}
		}
	}

	now := time.Now()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	r.byID[u.ID] = &stored
	r.byUsername[u.Username] = u.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return withoutPassword(u), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return withoutPassword(r.byID[id]), nil
}

func (r *UserRepository) GetCredentials(ctx context.Context, username string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*user.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, withoutPassword(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func withoutPassword(u *user.User) *user.User {
	c := *u
	c.PasswordHashed = ""
	return &c
}
