package auth

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecoveryService drives the password reset flow.
type RecoveryService interface {
	RequestReset(ctx context.Context, req PasswordResetRequest) error
	ConfirmReset(ctx context.Context, req PasswordResetConfirmRequest) error
}

// RecoveryServiceParams packages the dependencies for password resets.
type RecoveryServiceParams struct {
	DB             *db.Client
	Notifier       notifier
	PasswordConfig config.PasswordConfig
	TokenConfig    config.TokenConfig
}

type recoveryService struct {
	db          *db.Client
	notifier    notifier
	passwordCfg config.PasswordConfig
	tokenCfg    config.TokenConfig
	now         func() time.Time
}

// NewRecoveryService builds the password reset service.
func NewRecoveryService(params RecoveryServiceParams) (RecoveryService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	return &recoveryService{
		db:          params.DB,
		notifier:    params.Notifier,
		passwordCfg: params.PasswordConfig,
		tokenCfg:    params.TokenConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// RequestReset always succeeds for unknown or inactive addresses so accounts cannot be enumerated.
func (s *recoveryService) RequestReset(ctx context.Context, req PasswordResetRequest) error {
	email := normalizeEmail(req.Email)

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if !user.IsActive {
			return nil
		}

		// a new request invalidates earlier tokens
		if err := userRepo.DeleteTokens(ctx, user.ID, enums.TokenKindPasswordReset); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drop previous tokens")
		}
		token, err := issueToken(ctx, userRepo, user.ID, enums.TokenKindPasswordReset, s.now().Add(s.tokenCfg.PasswordResetTTL))
		if err != nil {
			return err
		}
		return s.notifier.Notify(ctx, tx, notifications.PasswordReset(user.Email, user.FirstName, token), notifications.UserAggregate(user.ID))
	})
}

func (s *recoveryService) ConfirmReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	email := normalizeEmail(req.Email)
	digest := security.HashOneTimeToken(req.Token)

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, invalidTokenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if _, err := userRepo.FindToken(ctx, user.ID, enums.TokenKindPasswordReset, digest, s.now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, invalidTokenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup token")
		}

		if err := userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
		}
		if err := userRepo.DeleteTokens(ctx, user.ID, enums.TokenKindPasswordReset); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume token")
		}
		return nil
	})
}

type tokenIssuer interface {
	CreateToken(ctx context.Context, userID uuid.UUID, kind enums.TokenKind, digest string, expiresAt time.Time) (*models.UserToken, error)
}

// issueToken stores the digest and returns the plain token for mailing.
func issueToken(ctx context.Context, repo tokenIssuer, userID uuid.UUID, kind enums.TokenKind, expiresAt time.Time) (string, error) {
	token, digest, err := security.NewOneTimeToken()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate token")
	}
	if _, err := repo.CreateToken(ctx, userID, kind, digest, expiresAt); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store token")
	}
	return token, nil
}
