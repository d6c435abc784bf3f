package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUserAlreadyExists = errors.New("username already exists")

type AuthService struct {
	store  repository.Store
	tokens *TokenService
}

func NewAuthService(store repository.Store, tokens *TokenService) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// Register creates a regular user account. Roles are fixed at creation; there
// is no role-change operation.
func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Username:     dto.Username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	created, err := s.store.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.User, *domain.AuthResponseDTO, error) {
	user, err := s.store.Users().FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("issuing token: %w", err)
	}

	return user, &domain.AuthResponseDTO{
		AccessToken: token,
		UserID:      user.ID,
		Role:        user.Role,
	}, nil
}

// EnsureAdminAccount creates the bootstrap admin unless an admin already
// exists. Called once at startup; safe to call repeatedly.
func (s *AuthService) EnsureAdminAccount(ctx context.Context, username, password string) error {
	_, err := s.store.Users().FindFirstByRole(ctx, domain.RoleAdmin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking for existing admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	_, err = s.store.Users().Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	log.Printf("admin user created: username=%s", username)
	return nil
}
