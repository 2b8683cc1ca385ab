package orders

import (
	"context"
	"testing"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/internal/notifications"
	"github.com/angelmondragon/orderhub-backend/internal/users"
	"github.com/angelmondragon/orderhub-backend/pkg/db"
	"github.com/angelmondragon/orderhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	client *db.Client
	conn   *gorm.DB
	repo   Repository
	svc    Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	notifier, err := notifications.NewNotifier(outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	repo := NewRepository(conn)
	svc, err := NewService(repo, client, notifier)
	require.NoError(t, err)
	return &fixture{client: client, conn: conn, repo: repo, svc: svc}
}

func (f *fixture) user(t *testing.T, email string, kind enums.UserType) *models.User {
	t.Helper()
	u, err := users.NewRepository(f.conn).Create(context.Background(), users.CreateUserDTO{
		Email: email, PasswordHash: "h", FirstName: "F", LastName: "L", Type: kind, IsActive: true,
	})
	require.NoError(t, err)
	return u
}

// shop imports a generated price list for owner and returns its offers.
func (f *fixture) shop(t *testing.T, owner *models.User, name string, seed uint64, goods int) []models.ProductInfo {
	t.Helper()
	importer, err := catalog.NewImporter(f.client, nil)
	require.NoError(t, err)
	res, err := importer.Import(context.Background(), owner.ID, catalog.GenerateDocument(catalog.GenerateOptions{Shop: name, Seed: seed, Goods: goods}))
	require.NoError(t, err)
	var offers []models.ProductInfo
	require.NoError(t, f.conn.Where("shop_id = ?", res.ShopID).Order("external_id").Find(&offers).Error)
	return offers
}

func (f *fixture) contact(t *testing.T, owner *models.User) *models.Contact {
	t.Helper()
	c := &models.Contact{UserID: owner.ID, City: "Moscow", Street: "Tverskaya", Phone: "+7000"}
	require.NoError(t, f.conn.Create(c).Error)
	return c
}

func (f *fixture) basket(t *testing.T, owner *models.User, lines map[uuid.UUID]int) *models.Order {
	t.Helper()
	order := &models.Order{UserID: owner.ID, State: enums.OrderStateBasket}
	require.NoError(t, f.conn.Create(order).Error)
	for id, qty := range lines {
		require.NoError(t, f.conn.Create(&models.OrderItem{OrderID: order.ID, ProductInfoID: id, Quantity: qty}).Error)
	}
	return order
}

func (f *fixture) emails(t *testing.T) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventEmailRequested).Find(&rows).Error)
	return rows
}
