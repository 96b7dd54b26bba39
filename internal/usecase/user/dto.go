package user

import (
	"time"

	domainUser "iot-device-manager/internal/domain/user"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=32"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Email     *string         `json:"email,omitempty"`
	Role      domainUser.Role `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
}

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
