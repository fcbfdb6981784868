package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type UserService struct {
	DB         DBLayer
	Tokens     *auth.TokenManager
	Cache      auth.IdentityCache
	Events     kafka.Publisher
	Logger     *logger.Logger
	BcryptCost int
	now        func() time.Time
}

func NewUserService(db DBLayer, tokens *auth.TokenManager, cache auth.IdentityCache, events kafka.Publisher, log *logger.Logger, bcryptCost int) *UserService {
	return &UserService{
		DB:         db,
		Tokens:     tokens,
		Cache:      cache,
		Events:     events,
		Logger:     log,
		BcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a student or teacher account and signs a token for it.
// Admin accounts are only created by an existing admin or the seed command.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role == models.RoleAdmin {
		return nil, apperr.Validation("cannot self-register with the admin role")
	}

	email := normalizeEmail(req.Email)
	if _, err := s.DB.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("a user with email %s already exists", email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		StudentID:    req.StudentID,
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.Logger.LogSecurity("USER_REGISTERED", fmt.Sprintf("%s (%s)", user.Email, user.Role))
	kafka.PublishAsync(s.Events, s.Logger, models.NewDomainEvent(models.EventUserRegistered, user.ID, user.ID, user))

	return s.authResponse(user)
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.DB.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.Logger.LogSecurity("LOGIN_FAILED", normalizeEmail(req.Email))
			return nil, apperr.Authentication("invalid credentials")
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.Logger.LogSecurity("LOGIN_FAILED", user.Email)
		return nil, apperr.Authentication("invalid credentials")
	}
	return s.authResponse(user)
}

func (s *UserService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		StudentID: user.StudentID,
		Token:     token,
	}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.DB.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.DB.ListUsers(ctx)
}

// UpdateUser applies an admin's partial update.
func (s *UserService) UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if _, err := s.DB.GetUserByEmail(ctx, email); err == nil {
				return nil, apperr.Conflict("a user with email %s already exists", email)
			} else if !errors.Is(err, apperr.ErrNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, s.BcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.StudentID != nil {
		user.StudentID = *req.StudentID
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.DB.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.DB.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.Logger.LogSecurity("USER_DELETED", id)
	return nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		s.Logger.Warn("AUTH", fmt.Sprintf("Failed to invalidate cached identity %s: %v", id, err))
	}
}
