package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"time"

	"reportflow/internal/model"
	"reportflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department" binding:"required"`
}

type UpdateUserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	CreatedAt  string    `json:"created_at"`
	UpdatedAt  string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo       repository.UserRepository
	db         *gorm.DB
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewUserService returns a new instance of UserService. The JWT secret is
// injected rather than read from the environment here.
func NewUserService(repo repository.UserRepository, db *gorm.DB, jwtSecret []byte) UserService {
	return &userService{
		repo:       repo,
		db:         db,
		jwtSecret:  jwtSecret,
		accessTTL:  24 * time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Phone:      user.Phone,
		Role:       user.Role,
		Department: user.Department,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, errors.New("invalid role: must be staff, manager, gm, or admin")
	}
	if !model.ValidDepartment(req.Department) {
		return nil, errors.New("invalid department")
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   string(hashedPassword),
		Role:       req.Role,
		Department: req.Department,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var stored model.RefreshToken
	if err := s.db.WithContext(ctx).First(&stored, "token = ?", refreshToken).Error; err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.db.WithContext(ctx).Delete(&stored).Error
		return nil, errors.New("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID.String())
	if err != nil {
		return nil, errors.New("user not found")
	}

	// Rotate: the old refresh token is single-use.
	if err := s.db.WithContext(ctx).Delete(&stored).Error; err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", refreshToken).Delete(&model.RefreshToken{}).Error
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.ID.String(),
		"role":       user.Role,
		"department": user.Department,
		"iat":        now.Unix(),
		"exp":        now.Add(s.accessTTL).Unix(),
	})

	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, errors.New("failed to generate refresh token")
	}
	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.db.WithContext(ctx).Create(&refresh).Error; err != nil {
		return nil, err
	}

	return &TokenResponse{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Role != "" {
		if !model.ValidRole(req.Role) {
			return nil, errors.New("invalid role: must be staff, manager, gm, or admin")
		}
		user.Role = req.Role
	}

	if req.Department != "" {
		if !model.ValidDepartment(req.Department) {
			return nil, errors.New("invalid department")
		}
		user.Department = req.Department
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = req.Email
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}
	return s.repo.Delete(ctx, id)
}
