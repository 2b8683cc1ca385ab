package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Buyer@Example.COM ",
		PasswordHash: "hash",
		FirstName:    "Ann",
		LastName:     "Lee",
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.Equal(t, enums.UserTypeBuyer, user.Type)
	assert.False(t, user.IsActive)

	found, err := repo.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.Activate(ctx, user.ID))
	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
	company := "Acme"
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, UpdateProfileDTO{Company: &company}))
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, UpdateProfileDTO{}))

	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.IsActive)
	assert.Equal(t, "new-hash", found.PasswordHash)
	assert.Equal(t, "Acme", found.Company)
	assert.Equal(t, "Ann", found.FirstName)
}

func TestRepositoryTokens(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	now := time.Now().UTC()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "a@example.com", PasswordHash: "h", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = repo.CreateToken(ctx, user.ID, enums.TokenKindEmailConfirm, "live", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.CreateToken(ctx, user.ID, enums.TokenKindEmailConfirm, "stale", now.Add(-time.Hour))
	require.NoError(t, err)

	_, err = repo.FindToken(ctx, user.ID, enums.TokenKindEmailConfirm, "live", now)
	require.NoError(t, err)
	_, err = repo.FindToken(ctx, user.ID, enums.TokenKindPasswordReset, "live", now)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "kind must match")
	_, err = repo.FindToken(ctx, user.ID, enums.TokenKindEmailConfirm, "stale", now)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "expired tokens are ignored")

	removed, err := repo.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, repo.DeleteTokens(ctx, user.ID, enums.TokenKindEmailConfirm))
	_, err = repo.FindToken(ctx, user.ID, enums.TokenKindEmailConfirm, "live", now)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
