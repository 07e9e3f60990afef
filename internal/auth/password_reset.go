package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/redis"
	"github.com/angelmondragon/saastools-backend/pkg/security"
)

const (
	forgotPasswordMessage = "If an account exists for that email, a reset link has been sent."
	resetSuccessMessage   = "Password updated successfully"
	invalidResetMessage   = "Invalid or expired reset token"
	resetTokenBytes       = 32
)

// PasswordResetService issues and redeems one-time reset tokens.
type PasswordResetService interface {
	Forgot(ctx context.Context, email string) (*MessageResponse, error)
	Reset(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error)
}

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type resetTokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	PasswordResetKey(token string) string
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, resetURL string) bool
}

type PasswordResetParams struct {
	UserRepo       resetUserRepository
	Tokens         resetTokenStore
	Mailer         resetMailer
	PasswordConfig config.PasswordConfig
	AppConfig      config.AppConfig
	Logger         *logger.Logger
}

type passwordResetService struct {
	users       resetUserRepository
	tokens      resetTokenStore
	mailer      resetMailer
	passwordCfg config.PasswordConfig
	appURL      string
	ttl         time.Duration
	logg        *logger.Logger
}

func NewPasswordResetService(params PasswordResetParams) (PasswordResetService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	ttl := params.PasswordConfig.ResetTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &passwordResetService{
		users:       params.UserRepo,
		tokens:      params.Tokens,
		mailer:      params.Mailer,
		passwordCfg: params.PasswordConfig,
		appURL:      strings.TrimRight(params.AppConfig.URL, "/"),
		ttl:         ttl,
		logg:        params.Logger,
	}, nil
}

// Forgot always answers with the same message so account existence is not revealed.
func (s *passwordResetService) Forgot(ctx context.Context, email string) (*MessageResponse, error) {
	resp := &MessageResponse{Message: forgotPasswordMessage}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.GenerateToken(resetTokenBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	if err := s.tokens.Set(ctx, s.tokens.PasswordResetKey(token), user.ID.String(), s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_reset_requested")
	}
	if s.mailer != nil {
		resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.appURL, url.QueryEscape(token))
		s.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL)
	}
	return resp, nil
}

func (s *passwordResetService) Reset(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidResetMessage)
	}

	raw, err := s.tokens.GetDel(ctx, s.tokens.PasswordResetKey(token))
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidResetMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reset token")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidResetMessage)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidResetMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return &MessageResponse{Message: resetSuccessMessage}, nil
}
