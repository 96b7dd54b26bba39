package user

import (
	"context"
	"errors"
	"fmt"

	"iot-device-manager/internal/config"
	domainUser "iot-device-manager/internal/domain/user"
	"iot-device-manager/internal/logger"
	appErrors "iot-device-manager/pkg/errors"
	"iot-device-manager/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements user use cases
type Service struct {
	userRepo domainUser.Repository
	jwt      config.JWTConfig
}

// NewService creates a new user service
func NewService(userRepo domainUser.Repository, jwtCfg config.JWTConfig) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwtCfg,
	}
}

// Register creates a regular user and signs them in.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Username = utils.SanitizeString(req.Username)
	if req.Email != nil {
		req.Email = utils.StringPtr(utils.SanitizeEmail(*req.Email))
		if *req.Email == "" {
			req.Email = nil
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.CreateUser(ctx, req.Username, req.Password, req.Email, domainUser.RoleUser)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// CreateUser persists a user with the given role. The password is hashed here
// and never leaves this function in plaintext.
func (s *Service) CreateUser(ctx context.Context, username, password string, email *string, role domainUser.Role) (*domainUser.User, error) {
	if !role.IsValid() {
		return nil, domainUser.ErrInvalidUserRole
	}

	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		logger.Warn("Registration attempt with existing username",
			zap.String("username", username),
			zap.String("event", "registration_failed_duplicate_username"),
		)
		return nil, domainUser.ErrUserAlreadyExists
	}
	if !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domainUser.User{
		Username:       username,
		Email:          email,
		PasswordHashed: hashedPassword,
		Role:           role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHashed = ""

	logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.String("event", "user_registered"),
	)

	return user, nil
}

// Login returns ErrInvalidCredentials for an unknown username and for a wrong
// password alike.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Username = utils.SanitizeString(req.Username)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetCredentials(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with unknown username",
				zap.String("username", req.Username),
				zap.String("event", "user_not_found"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHashed, req.Password) {
		logger.Warn("Login attempt with wrong password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}
	user.PasswordHashed = ""

	logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "user_login"),
	)

	return s.issue(user)
}

// VerifyToken distinguishes ErrTokenExpired from ErrTokenInvalid.
func (s *Service) VerifyToken(token string) (*utils.Claims, error) {
	return utils.ValidateToken(token, s.jwt.Secret)
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*UserResponse, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*UserResponse, len(users))
	for i, u := range users {
		responses[i] = ToUserResponse(u)
	}
	return responses, nil
}

func (s *Service) issue(user *domainUser.User) (*AuthResponse, error) {
	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username, string(user.Role), s.jwt.Secret, s.jwt.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      ToUserResponse(user),
	}, nil
}
