package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"branchdesk/internal/crypto"
	"branchdesk/internal/metrics"
	"branchdesk/internal/models"
	"branchdesk/internal/repository"
	"branchdesk/internal/token"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

// TokenIssuer mints session tokens. *token.Manager satisfies it.
type TokenIssuer interface {
	Issue(id token.Identity) (string, time.Time, error)
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type AuthService interface {
	Register(ctx context.Context, input models.RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input models.LoginInput) (*AuthResult, error)
	GetCurrentUser(ctx context.Context, claims *token.Claims) (*models.User, error)
}

type authService struct {
	repos   repository.Manager
	hasher  crypto.PasswordHasher
	tokens  TokenIssuer
	rules   *CounterRules
	metrics *metrics.Metrics
	logger  *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	repos repository.Manager,
	hasher crypto.PasswordHasher,
	tokens TokenIssuer,
	rules *CounterRules,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repos:   repos,
		hasher:  hasher,
		tokens:  tokens,
		rules:   rules,
		metrics: m,
		logger:  logger,
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegister(in models.RegisterInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Role, validation.In(string(models.RoleMember), string(models.RoleBEC), string(models.RoleNEC))),
		validation.Field(&in.BranchID, validation.Min(int64(1))),
		validation.Field(&in.NECPosition, validation.Length(0, 255)),
		validation.Field(&in.BECPosition, validation.Length(0, 255)),
	)
}

func (s *authService) Register(ctx context.Context, input models.RegisterInput) (*AuthResult, error) {
	result, err := s.register(ctx, input)
	s.metrics.AuthEvent("register", outcome(err))
	return result, err
}

func (s *authService) register(ctx context.Context, input models.RegisterInput) (*AuthResult, error) {
	input.Email = NormalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if err := validationFailure(validateRegister(input)); err != nil {
		return nil, err
	}
	role, _ := models.ParseRole(input.Role)

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       models.StatusActive,
		BranchID:     input.BranchID,
		IsBECMember:  input.IsBECMember,
		NECPosition:  input.NECPosition,
		BECPosition:  input.BECPosition,
	}

	var result *AuthResult
	err = s.repos.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		users := s.repos.Users(q)

		exists, err := users.EmailExists(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}

		if err := users.Create(ctx, user); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return ErrEmailTaken
			case errors.Is(err, repository.ErrReferenced):
				return fieldError("branch_id", "branch does not exist")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if user.BranchID != nil {
			if err := s.rules.MemberJoined(ctx, q, *user.BranchID); err != nil {
				if errors.Is(err, ErrBranchNotFound) {
					return fieldError("branch_id", "branch does not exist")
				}
				return fmt.Errorf("failed to update branch member count: %w", err)
			}
		}

		signed, expiresAt, err := s.tokens.Issue(identityOf(user))
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}

		result = &AuthResult{User: user, Token: signed, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("Registration failed", zap.Error(err))
		}
		return nil, err
	}

	user.PasswordHash = ""
	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return result, nil
}

func (s *authService) Login(ctx context.Context, input models.LoginInput) (*AuthResult, error) {
	result, err := s.login(ctx, input)
	s.metrics.AuthEvent("login", outcome(err))
	return result, err
}

func (s *authService) login(ctx context.Context, input models.LoginInput) (*AuthResult, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repos.Users(s.repos.DB()).GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn the same hashing cost as a real comparison.
			_, _ = s.hasher.Verify(s.dummy(), input.Password)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, input.Password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok || !user.IsActive() {
		return nil, ErrInvalidCredentials
	}

	signed, expiresAt, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	user.PasswordHash = ""
	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &AuthResult{User: user, Token: signed, ExpiresAt: expiresAt}, nil
}

// GetCurrentUser re-reads the token holder. Claims may outlive the row.
func (s *authService) GetCurrentUser(ctx context.Context, claims *token.Claims) (*models.User, error) {
	user, err := s.repos.Users(s.repos.DB()).GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("branchdesk-timing-equalizer")
		if err != nil {
			s.logger.Warn("Failed to build dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func identityOf(u *models.User) token.Identity {
	return token.Identity{
		ID:          u.ID,
		Role:        u.Role,
		BranchID:    u.BranchID,
		IsBECMember: u.IsBECMember,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case isClientError(err):
		return "rejected"
	default:
		return "error"
	}
}

// isClientError reports whether err is caused by the request rather than
// the server.
func isClientError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrEmailTaken, ErrInvalidCredentials, ErrForbidden,
		ErrUserNotFound, ErrBranchNotFound, ErrAlumniNotFound, ErrAlumniExists, ErrBranchInUse,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
