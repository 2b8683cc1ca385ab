package partners

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const priceList = `
shop: Acme
categories: [{id: 1, name: Tools}]
goods:
  - {id: 5, category: 1, name: Hammer, model: H1, price: 10, price_rrc: 12, quantity: 4}
`

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(client, catalog.NewRepository(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return svc, conn
}

func TestRequestImportQueuesValidatedDocument(t *testing.T) {
	svc, conn := newTestService(t)
	partner := uuid.New()

	dto, err := svc.RequestImport(context.Background(), partner, enums.CatalogFormatYAML, []byte(priceList))
	require.NoError(t, err)
	assert.Equal(t, enums.CatalogImportPending, dto.Status)
	assert.Equal(t, "Acme", dto.ShopName)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventCatalogImportRequested, events[0].EventType)
	assert.Equal(t, dto.ID, events[0].AggregateID)

	envelope, err := outbox.DecodeEnvelope(events[0].Payload)
	require.NoError(t, err)
	var event payloads.CatalogImportRequestedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &event))
	assert.Equal(t, partner, event.UserID)
	assert.Equal(t, priceList, string(event.Document))

	got, err := svc.GetImport(context.Background(), partner, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, got.ID)

	_, err = svc.GetImport(context.Background(), uuid.New(), dto.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "imports are private to their owner")
}

func TestRequestImportRejectsInvalidDocumentWithoutSideEffects(t *testing.T) {
	svc, conn := newTestService(t)

	_, err := svc.RequestImport(context.Background(), uuid.New(), enums.CatalogFormatYAML, []byte("shop: Acme"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var n int64
	require.NoError(t, conn.Model(&models.CatalogImport{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSetStateTogglesPartnerShops(t *testing.T) {
	svc, conn := newTestService(t)
	partner := uuid.New()

	_, err := svc.SetState(context.Background(), partner, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, conn.Create(&models.Shop{UserID: partner, Name: "Acme", State: true}).Error)
	require.NoError(t, conn.Create(&models.Shop{UserID: uuid.New(), Name: "Other", State: true}).Error)

	shops, err := svc.SetState(context.Background(), partner, false)
	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.False(t, shops[0].State)

	var other models.Shop
	require.NoError(t, conn.First(&other, "name = ?", "Other").Error)
	assert.True(t, other.State)

	shops, err = svc.SetState(context.Background(), partner, true)
	require.NoError(t, err)
	assert.True(t, shops[0].State)
}
