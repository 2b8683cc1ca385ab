package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountService reads and edits the caller's own account.
type AccountService interface {
	Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateAccountRequest) (*users.UserDTO, error)
}

type accountService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewAccountService builds the account details service.
func NewAccountService(client *db.Client, passwordCfg config.PasswordConfig) (AccountService, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &accountService{db: client, passwordCfg: passwordCfg}, nil
}

func (s *accountService) Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := users.NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return users.FromModel(user), nil
}

func (s *accountService) Update(ctx context.Context, userID uuid.UUID, req UpdateAccountRequest) (*users.UserDTO, error) {
	var updated *users.UserDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}

		if req.Password != nil {
			if err := s.changePassword(ctx, userRepo, user.ID, user.PasswordHash, req); err != nil {
				return err
			}
		}

		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if email != user.Email {
				if _, err := userRepo.FindByEmail(ctx, email); err == nil {
					return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
				}
			}
			req.Email = &email
		}

		if err := userRepo.UpdateProfile(ctx, user.ID, users.UpdateProfileDTO{
			Email:     req.Email,
			FirstName: trimmed(req.FirstName),
			LastName:  trimmed(req.LastName),
			Company:   trimmed(req.Company),
			Position:  trimmed(req.Position),
		}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update account")
		}

		user, err = userRepo.FindByID(ctx, user.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
		}
		updated = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type passwordWriter interface {
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

func (s *accountService) changePassword(ctx context.Context, repo passwordWriter, userID uuid.UUID, currentHash string, req UpdateAccountRequest) error {
	if req.CurrentPassword == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "current_password is required to change the password")
	}
	ok, err := security.VerifyPassword(*req.CurrentPassword, currentHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}
	hash, err := security.HashPassword(*req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	if err := repo.UpdatePassword(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
