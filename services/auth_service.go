package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/repositories"
	"github.com/tns-project/tns-server/utils"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input models.Credentials) (*models.Admin, error)
	Login(ctx context.Context, input models.Credentials) (string, *models.Admin, error)
	ListAdmins(ctx context.Context) ([]*models.Admin, error)
	RemoveAdmin(ctx context.Context, id int, currentAdminID int) error
}

type authService struct {
	adminRepo repositories.AdminRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(adminRepo repositories.AdminRepository, jwtSecret string) AuthService {
	return &authService{
		adminRepo: adminRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

func (s *authService) Register(ctx context.Context, input models.Credentials) (*models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{Email: email, PasswordHash: hash}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrAdminEmailConflict) {
			return nil, ErrAdminEmailConflict
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	admin.PasswordHash = ""
	return admin, nil
}

func (s *authService) Login(ctx context.Context, input models.Credentials) (string, *models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find admin by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"admin_id": admin.ID,
		"email":    admin.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	admin.PasswordHash = ""
	return token, admin, nil
}

func (s *authService) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	admins, err := s.adminRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	for _, admin := range admins {
		admin.PasswordHash = ""
	}
	return admins, nil
}

func (s *authService) RemoveAdmin(ctx context.Context, id int, currentAdminID int) error {
	if id == currentAdminID {
		return ErrForbiddenOperation
	}
	if err := s.adminRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("failed to delete admin %d: %w", id, err)
	}
	return nil
}
