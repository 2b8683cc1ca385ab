package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"gorm.io/gorm"
)

// maxErrorBytes caps stored failure text in both outbox_events and outbox_dlq.
const maxErrorBytes = 1024

// DLQRepository stores outbox rows the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx parks entry in the dead-letter table within the publisher's transaction.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ErrorMessage != nil {
		clipped := clip(*entry.ErrorMessage, maxErrorBytes)
		entry.ErrorMessage = &clipped
	}
	return tx.Create(&entry).Error
}

// PurgeBefore deletes dead letters recorded before cutoff. A nil tx runs on
// the repository connection.
func (r *DLQRepository) PurgeBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Where("failed_at < ?", cutoff).Delete(&models.OutboxDLQ{})
	return res.RowsAffected, res.Error
}

// clip shortens s to at most limit bytes without splitting a UTF-8 sequence.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
