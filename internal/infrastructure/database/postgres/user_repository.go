package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iot-device-manager/internal/domain/user"
	"iot-device-manager/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// publicUserColumns is every user column except the password hash.
var publicUserColumns = []string{"id", "username", "email", "role", "created_at", "updated_at"}

// UserRepository implements domain.User.Repository interface
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	dbModel := toUserModel(u)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isDuplicateKey(err) {
			return r.conflict(ctx, u)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = dbModel.ID
	u.CreatedAt = dbModel.CreatedAt
	u.UpdatedAt = dbModel.UpdatedAt

	return nil
}

// conflict reports which unique column a rejected insert collided with.
// Translated driver errors drop the constraint name, so the username is looked up.
func (r *UserRepository) conflict(ctx context.Context, u *user.User) error {
	if u.Email == nil {
		return user.ErrUserAlreadyExists
	}
	var n int64
	err := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).Where("username = ?", u.Username).Count(&n).Error
	if err != nil || n > 0 {
		return user.ErrUserAlreadyExists
	}
	return user.ErrEmailAlreadyExists
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return r.first(r.public(ctx), "id = ?", userID)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.first(r.public(ctx), "username = ?", username)
}

func (r *UserRepository) GetCredentials(ctx context.Context, username string) (*user.User, error) {
	return r.first(r.db.DB.WithContext(ctx), "username = ?", username)
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	var dbModels []models.UserModel
	err := r.public(ctx).Order("created_at ASC").Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]*user.User, len(dbModels))
	for i := range dbModels {
		users[i] = toUserEntity(&dbModels[i])
	}

	return users, nil
}

func (r *UserRepository) public(ctx context.Context) *gorm.DB {
	return r.db.DB.WithContext(ctx).Select(publicUserColumns)
}

func (r *UserRepository) first(tx *gorm.DB, query string, arg interface{}) (*user.User, error) {
	var dbModel models.UserModel
	err := tx.Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHashed,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		PasswordHashed: m.PasswordHash,
		Role:           user.Role(m.Role),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
