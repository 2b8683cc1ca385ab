package contacts

import (
	"context"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists contacts. Every query is scoped to the owning user.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	var rows []models.Contact
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *Repository) Find(ctx context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	var row models.Contact
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update applies columns to the caller's contact and reports whether it matched.
func (r *Repository) Update(ctx context.Context, userID, id uuid.UUID, columns map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(columns)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.Contact{})
	return res.RowsAffected, res.Error
}
