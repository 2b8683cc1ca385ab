package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
)

// Repository persists users and their one-time tokens.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// first loads one T matching conds; gorm.ErrRecordNotFound passes through.
func first[T any](ctx context.Context, db *gorm.DB, conds ...any) (*T, error) {
	out := new(T)
	if err := db.WithContext(ctx).First(out, conds...).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) user(ctx context.Context, id uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id)
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	u := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail expects an already normalised address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](ctx, r.db, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return first[models.User](ctx, r.db, "id = ?", id)
}

// UpdateLastLogin leaves updated_at alone.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.user(ctx, id).UpdateColumn("last_login_at", at.UTC()).Error
}

// Activate marks the account confirmed.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID) error {
	return r.user(ctx, id).Update("is_active", true).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.user(ctx, id).Update("password_hash", hash).Error
}

// UpdateProfile writes only the fields dto sets; an empty dto is a no-op.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) error {
	cols := dto.columns()
	if len(cols) == 0 {
		return nil
	}
	return r.user(ctx, id).Updates(cols).Error
}

// CreateToken stores the digest of a one-time token, never the token itself.
func (r *Repository) CreateToken(ctx context.Context, userID uuid.UUID, kind enums.TokenKind, digest string, expiresAt time.Time) (*models.UserToken, error) {
	tok := &models.UserToken{UserID: userID, Kind: kind, TokenHash: digest, ExpiresAt: expiresAt.UTC()}
	if err := r.db.WithContext(ctx).Create(tok).Error; err != nil {
		return nil, err
	}
	return tok, nil
}

// FindToken matches on owner, kind and digest and ignores expired rows.
func (r *Repository) FindToken(ctx context.Context, userID uuid.UUID, kind enums.TokenKind, digest string, now time.Time) (*models.UserToken, error) {
	return first[models.UserToken](ctx, r.db,
		"user_id = ? AND kind = ? AND token_hash = ? AND expires_at > ?", userID, kind, digest, now.UTC())
}

func (r *Repository) DeleteTokens(ctx context.Context, userID uuid.UUID, kind enums.TokenKind) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Delete(&models.UserToken{}).Error
}

// DeleteExpiredTokens returns how many rows went.
func (r *Repository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.UserToken{})
	return res.RowsAffected, res.Error
}
