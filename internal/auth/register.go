package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/users"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/security"
)

const (
	userExistsMessage      = "User already exists"
	registerSuccessMessage = "User registered successfully. Please check your email to verify your account."
)

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type welcomeMailer interface {
	SendWelcome(ctx context.Context, to, name, verificationURL string) bool
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
	AppConfig       config.AppConfig
	Mailer          welcomeMailer
	Logger          *logger.Logger
}

type registerService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
	appCfg      config.AppConfig
	mailer      welcomeMailer
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository factory required")
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		passwordCfg: params.PasswordConfig,
		appCfg:      params.AppConfig,
		mailer:      params.Mailer,
		logg:        params.Logger,
	}, nil
}

// NewDBRegisterService wires the register flow to a live database client.
func NewDBRegisterService(client *db.Client, params RegisterServiceParams) (RegisterService, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	params.TxRunner = client
	params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
		return users.NewRepository(tx)
	}
	return NewRegisterService(params)
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	token, err := security.GenerateToken(security.VerificationTokenBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification token")
	}

	role := enums.UserRoleSeller
	if s.appCfg.IsAdminEmail(email) {
		role = enums.UserRoleAdmin
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.userRepo(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, userExistsMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Email:             email,
			PasswordHash:      passwordHash,
			Name:              name,
			Role:              role,
			VerificationToken: &token,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, userExistsMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithUserID(ctx, created.ID.String())
		s.logg.Info(ctx, "user.registered")
	}
	if s.mailer != nil {
		s.mailer.SendWelcome(ctx, created.Email, created.Name, verificationURL(s.appCfg.URL, token))
	}

	return &RegisterResponse{Message: registerSuccessMessage, UserID: created.ID}, nil
}

func verificationURL(appURL, token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", strings.TrimRight(appURL, "/"), url.QueryEscape(token))
}
