package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidTokenMessage = "invalid email or token"

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, email notifications.Email, aggregate notifications.Aggregate) error
}

// RegisterService handles account creation and email confirmation.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Confirm(ctx context.Context, req ConfirmEmailRequest) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	Notifier       notifier
	PasswordConfig config.PasswordConfig
	TokenConfig    config.TokenConfig
}

type registerService struct {
	db          *db.Client
	notifier    notifier
	passwordCfg config.PasswordConfig
	tokenCfg    config.TokenConfig
	now         func() time.Time
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	return &registerService{
		db:          params.DB,
		notifier:    params.Notifier,
		passwordCfg: params.PasswordConfig,
		tokenCfg:    params.TokenConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates an inactive user and mails the confirmation token in the same transaction.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	userType, err := enums.ParseUserType(req.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user type")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if errors.Is(err, security.ErrEmptyPassword) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Company:      strings.TrimSpace(req.Company),
			Position:     strings.TrimSpace(req.Position),
			Type:         userType,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		token, err := issueToken(ctx, userRepo, user.ID, enums.TokenKindEmailConfirm, s.now().Add(s.tokenCfg.EmailConfirmTTL))
		if err != nil {
			return err
		}
		msg := notifications.ConfirmEmail(user.Email, user.FirstName, token)
		if err := s.notifier.Notify(ctx, tx, msg, notifications.UserAggregate(user.ID)); err != nil {
			return err
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Confirm activates the account when the token matches and has not expired.
func (s *registerService) Confirm(ctx context.Context, req ConfirmEmailRequest) error {
	email := normalizeEmail(req.Email)
	digest := security.HashOneTimeToken(req.Token)

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, invalidTokenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if _, err := userRepo.FindToken(ctx, user.ID, enums.TokenKindEmailConfirm, digest, s.now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, invalidTokenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup token")
		}

		if err := userRepo.Activate(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate user")
		}
		if err := userRepo.DeleteTokens(ctx, user.ID, enums.TokenKindEmailConfirm); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume token")
		}
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
