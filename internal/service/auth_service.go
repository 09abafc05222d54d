package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/fluxo-portal/internal/auth"
	"github.com/spec-kit/fluxo-portal/internal/config"
	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/events"
	"github.com/spec-kit/fluxo-portal/internal/repository"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

const (
	msgInvalidCredentials = "Credenciais inválidas"
	msgDuplicateEmail     = "Já existe uma conta com este e-mail"
	msgDuplicateAdmin     = "Já existe um utilizador com este e-mail"
	msgInvalidAdminToken  = "Token inválido"
	msgAdminNotConfigured = "Token de configuração não está definido no servidor"
	msgPasswordTooLong    = "A palavra-passe é demasiado longa"
)

// LoginInput carries the login form.
type LoginInput struct {
	Email    string `field:"email" validate:"required,email" msg:"Informe um e-mail válido"`
	Password string `field:"password" validate:"required" msg:"Informe a sua palavra-passe"`
}

// RegisterInput carries the client registration form. ConfirmPassword is only
// compared, never stored.
type RegisterInput struct {
	Name            string `field:"name" validate:"min=3" msg:"Informe o seu nome completo"`
	Email           string `field:"email" validate:"required,email" msg:"E-mail inválido"`
	Password        string `field:"password" validate:"min=8,max=72" msg:"A palavra-passe deve ter pelo menos 8 caracteres"`
	ConfirmPassword string `field:"confirmPassword" validate:"eqfield=Password" msg:"As palavras-passe não coincidem"`
	Company         string `field:"company"`
	Phone           string `field:"phone"`
}

// AdminRegisterInput carries the administrator provisioning payload.
type AdminRegisterInput struct {
	Token    string `json:"token" field:"token" validate:"-"`
	Name     string `json:"name" field:"name" validate:"min=3" msg:"Informe o nome do administrador"`
	Email    string `json:"email" field:"email" validate:"required,email" msg:"E-mail inválido"`
	Password string `json:"password" field:"password" validate:"min=12,max=72" msg:"A palavra-passe deve ter pelo menos 12 caracteres"`
	Phone    string `json:"phone" field:"phone"`
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	validator  *inputValidator
	bcryptCost int
	adminToken string
	// dummyHash is compared on unknown emails so both failures cost one bcrypt run.
	dummyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := auth.NormalizeCost(cfg.Auth.BcryptCost)
	dummyHash, err := auth.HashPassword(uuid.NewString(), cost)
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", zap.Error(err))
	}
	return &AuthService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		validator:  newInputValidator(),
		bcryptCost: cost,
		adminToken: cfg.Auth.AdminSetupToken,
		dummyHash:  dummyHash,
	}
}

// Authenticate verifies credentials. An unknown email and a wrong password
// produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, input LoginInput) (domain.Identity, error) {
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.check(input); err != nil {
		return domain.Identity{}, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = auth.ComparePassword(s.dummyHash, input.Password)
		return domain.Identity{}, apperrors.NewInvalidCredentials(msgInvalidCredentials)
	}
	if err != nil {
		return domain.Identity{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		s.logger.Debug("password mismatch", zap.String("user_id", user.ID))
		return domain.Identity{}, apperrors.NewInvalidCredentials(msgInvalidCredentials)
	}
	return user.Identity(), nil
}

// Register creates a client account and returns its identity.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.Identity, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.check(input); err != nil {
		return domain.Identity{}, err
	}

	user := &domain.User{
		Name:    input.Name,
		Email:   input.Email,
		Role:    domain.RoleClient,
		Company: optional(input.Company),
		Phone:   optional(input.Phone),
	}
	if err := s.createUser(ctx, user, input.Password, msgDuplicateEmail); err != nil {
		return domain.Identity{}, err
	}
	return user.Identity(), nil
}

// RegisterAdmin provisions an administrator behind the setup token. It never
// touches a session.
func (s *AuthService) RegisterAdmin(ctx context.Context, input AdminRegisterInput) (*domain.User, error) {
	if s.adminToken == "" {
		return nil, apperrors.NewConfigurationError(msgAdminNotConfigured)
	}
	if subtle.ConstantTimeCompare([]byte(input.Token), []byte(s.adminToken)) != 1 {
		return nil, apperrors.NewInvalidToken(msgInvalidAdminToken)
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := s.validator.check(input); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:  input.Name,
		Email: input.Email,
		Role:  domain.RoleAdmin,
		Phone: optional(input.Phone),
	}
	if err := s.createUser(ctx, user, input.Password, msgDuplicateAdmin); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, user *domain.User, password, duplicateMsg string) error {
	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return apperrors.NewDuplicateEmail(duplicateMsg)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		// max=72 counts runes; multibyte passwords can still overflow.
		return apperrors.NewValidationError(invalidFormMessage, apperrors.FieldViolation{Field: "password", Message: msgPasswordTooLong})
	}
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperrors.NewDuplicateEmail(duplicateMsg)
		}
		return err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.Stringer("role", user.Role))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Actor:     events.Actor{UserID: &user.ID, Role: &user.Role},
		Timestamp: time.Now().UTC(),
		Payload:   events.UserRegisteredPayload{Email: user.Email, Role: user.Role},
	})
	return nil
}
