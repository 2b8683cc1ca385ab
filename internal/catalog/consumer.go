package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"gorm.io/gorm"
)

const importConsumerName = "catalog-import"

// ImportConsumer applies queued price lists and records the outcome on the import row.
type ImportConsumer struct {
	db       txRunner
	repo     *Repository
	importer *Importer
	logg     *logger.Logger
	now      func() time.Time
}

func NewImportConsumer(db txRunner, repo *Repository, importer *Importer, logg *logger.Logger) (*ImportConsumer, error) {
	if db == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if importer == nil {
		return nil, fmt.Errorf("importer required")
	}
	return &ImportConsumer{
		db:       db,
		repo:     repo,
		importer: importer,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (c *ImportConsumer) Name() string {
	return importConsumerName
}

func (c *ImportConsumer) EventType() enums.OutboxEventType {
	return enums.EventCatalogImportRequested
}

// Handle returns an error only for failures worth a redelivery.
// Rejected documents mark the import failed and ack.
func (c *ImportConsumer) Handle(ctx context.Context, payload any) error {
	event, ok := payload.(*payloads.CatalogImportRequestedEvent)
	if !ok || event == nil {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unexpected payload %T", payload)
	}
	if c.logg != nil {
		ctx = c.logg.WithField(ctx, "import_id", event.ImportID.String())
	}

	row, err := c.repo.FindImportByID(ctx, event.ImportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.warn(ctx, "catalog import row missing, dropping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load catalog import: %w", err)
	}
	if row.Status.IsTerminal() {
		c.warn(ctx, "catalog import already finished")
		return nil
	}

	started := c.now().UTC()
	doc, err := ParseDocument(event.Format, event.Document)
	if err != nil {
		return c.fail(ctx, event, err, started)
	}

	err = c.db.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := c.importer.ImportTx(ctx, tx, row.UserID, doc)
		if err != nil {
			return err
		}
		return c.repo.WithTx(tx).MarkImportSucceeded(ctx, row.ID, result, started, c.now())
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return c.fail(ctx, event, err, started)
	}
	if err != nil {
		return fmt.Errorf("apply price list: %w", err)
	}
	return nil
}

func (c *ImportConsumer) fail(ctx context.Context, event *payloads.CatalogImportRequestedEvent, cause error, started time.Time) error {
	reason := cause.Error()
	if typed := pkgerrors.As(cause); typed != nil {
		reason = typed.Message()
		if details, ok := typed.Details().(map[string]string); ok {
			fields := make([]string, 0, len(details))
			for field := range details {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				reason = fmt.Sprintf("%s; %s %s", reason, field, details[field])
			}
		}
	}
	if err := c.repo.MarkImportFailed(ctx, event.ImportID, reason, started, c.now()); err != nil {
		return fmt.Errorf("mark catalog import failed: %w", err)
	}
	c.warn(ctx, "catalog import rejected: "+reason)
	return nil
}

func (c *ImportConsumer) warn(ctx context.Context, msg string) {
	if c.logg != nil {
		c.logg.Warn(ctx, msg)
	}
}
