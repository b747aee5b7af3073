package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/pkg/utils"
)

var errInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}

type AuthService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	UserCode string `json:"user_code,omitempty"`
	Role     string `json:"role"`
}

// RegisterInput describes a new campus account
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Phone    string
	UserCode string
	Role     string
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	response, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditRepo, &user.ID, "user_login", "user", user.ID, fmt.Sprintf("User %s logged in", username))

	return response, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	tokenHash := utils.HashRefreshToken(refreshToken)

	token, err := s.userRepo.FindRefreshTokenByHash(tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", newError(KindUnauthorized, "invalid or revoked refresh token")
		}
		return "", err
	}

	if time.Now().After(token.ExpiresAt) {
		return "", newError(KindUnauthorized, "refresh token expired")
	}

	accessToken, err := utils.GenerateAccessToken(token.User.ID, token.User.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(refreshToken string) error {
	tokenHash := utils.HashRefreshToken(refreshToken)

	if err := s.userRepo.RevokeRefreshTokenByHash(tokenHash); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(input RegisterInput) (*LoginResponse, error) {
	user, err := s.CreateUser(input)
	if err != nil {
		return nil, err
	}

	response, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditRepo, &user.ID, "user_registration", "user", user.ID, fmt.Sprintf("User %s registered", user.Username))

	return response, nil
}

// CreateUser stores a new account without issuing tokens
func (s *AuthService) CreateUser(input RegisterInput) (*models.User, error) {
	if input.Role == "" {
		input.Role = models.RoleStudent
	}
	if !models.ValidRole(input.Role) {
		return nil, invalid("unknown role %q", input.Role)
	}

	existing, err := s.userRepo.FindUserByUsername(input.Username)
	if err == nil && existing != nil {
		return nil, conflict("username already exists")
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		UserCode:     strings.TrimSpace(input.UserCode),
		Role:         input.Role,
	}
	if user.Name == "" {
		user.Name = user.Username
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		if isDuplicate(err) {
			return nil, conflict("username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*LoginResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Only the hash of the refresh token is stored
	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(refreshTokenModel); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			UserCode: user.UserCode,
			Role:     user.Role,
		},
	}, nil
}
