package orders

import (
	"context"
	"testing"

	"github.com/angelmondragon/orderhub-backend/pkg/db/models"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/angelmondragon/orderhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceMovesBasketToNewWithTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserTypeBuyer)
	partner := f.user(t, "partner@example.com", enums.UserTypeShop)
	offers := f.shop(t, partner, "Acme", 1, 2)
	contact := f.contact(t, buyer)
	basket := f.basket(t, buyer, map[uuid.UUID]int{offers[0].ID: 2})

	order, err := f.svc.Place(ctx, buyer.ID, basket.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStateNew, order.State)
	require.NotNil(t, order.Contact)
	assert.Equal(t, contact.ID, order.Contact.ID)
	assert.True(t, order.Total.Equal(offers[0].Price.Mul(decimal.NewFromInt(2))), "total %s", order.Total)

	emails := f.emails(t)
	require.Len(t, emails, 2, "buyer and partner are notified")
	for _, e := range emails {
		assert.Equal(t, basket.ID, e.AggregateID)
	}
}

func TestPlaceWithForeignContactLeavesBasket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserTypeBuyer)
	other := f.user(t, "other@example.com", enums.UserTypeBuyer)
	partner := f.user(t, "partner@example.com", enums.UserTypeShop)
	offers := f.shop(t, partner, "Acme", 1, 1)
	basket := f.basket(t, buyer, map[uuid.UUID]int{offers[0].ID: 1})

	_, err := f.svc.Place(ctx, buyer.ID, basket.ID, f.contact(t, other).ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.Place(ctx, buyer.ID, basket.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var reloaded models.Order
	require.NoError(t, f.conn.First(&reloaded, "id = ?", basket.ID).Error)
	assert.Equal(t, enums.OrderStateBasket, reloaded.State)
	assert.Nil(t, reloaded.ContactID)
	assert.Empty(t, f.emails(t))
}

func TestPlaceRejectsForeignAndEmptyBaskets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserTypeBuyer)
	other := f.user(t, "other@example.com", enums.UserTypeBuyer)
	contact := f.contact(t, buyer)

	foreign := f.basket(t, other, nil)
	_, err := f.svc.Place(ctx, buyer.ID, foreign.ID, contact.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	empty := f.basket(t, buyer, nil)
	_, err = f.svc.Place(ctx, buyer.ID, empty.ID, contact.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var reloaded models.Order
	require.NoError(t, f.conn.First(&reloaded, "id = ?", empty.ID).Error)
	assert.Equal(t, enums.OrderStateBasket, reloaded.State)

	_, err = f.svc.Place(ctx, buyer.ID, uuid.Nil, contact.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListAndGetExcludeBaskets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserTypeBuyer)
	partner := f.user(t, "partner@example.com", enums.UserTypeShop)
	offers := f.shop(t, partner, "Acme", 3, 3)
	contact := f.contact(t, buyer)

	var placed []uuid.UUID
	for _, offer := range offers {
		b := f.basket(t, buyer, map[uuid.UUID]int{offer.ID: 1})
		_, err := f.svc.Place(ctx, buyer.ID, b.ID, contact.ID)
		require.NoError(t, err)
		placed = append(placed, b.ID)
	}
	open := f.basket(t, buyer, map[uuid.UUID]int{offers[0].ID: 5})

	_, err := f.svc.Get(ctx, buyer.ID, open.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "baskets are not orders")
	got, err := f.svc.Get(ctx, buyer.ID, placed[0])
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.NotNil(t, got.Items[0].ProductInfo)

	seen := map[uuid.UUID]bool{}
	params := pagination.Params{Limit: 2}
	for {
		page, err := f.svc.List(ctx, buyer.ID, params)
		require.NoError(t, err)
		for i, o := range page.Orders {
			assert.NotEqual(t, enums.OrderStateBasket, o.State)
			assert.False(t, seen[o.ID])
			seen[o.ID] = true
			if i > 0 {
				assert.False(t, o.CreatedAt.After(page.Orders[i-1].CreatedAt), "newest first")
			}
		}
		if page.NextCursor == "" {
			break
		}
		params.Cursor = page.NextCursor
	}
	assert.Len(t, seen, 3)

	_, err = f.svc.List(ctx, buyer.ID, pagination.Params{Cursor: "???"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListForPartnerShowsOwnItemsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", enums.UserTypeBuyer)
	alpha := f.user(t, "alpha@example.com", enums.UserTypeShop)
	beta := f.user(t, "beta@example.com", enums.UserTypeShop)
	alphaOffers := f.shop(t, alpha, "Alpha", 1, 1)
	betaOffers := f.shop(t, beta, "Beta", 2, 1)
	contact := f.contact(t, buyer)

	mixed := f.basket(t, buyer, map[uuid.UUID]int{alphaOffers[0].ID: 3, betaOffers[0].ID: 1})
	_, err := f.svc.Place(ctx, buyer.ID, mixed.ID, contact.ID)
	require.NoError(t, err)
	f.basket(t, f.user(t, "late@example.com", enums.UserTypeBuyer), map[uuid.UUID]int{alphaOffers[0].ID: 1})

	page, err := f.svc.ListForPartner(ctx, alpha.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1, "open baskets are not incoming orders")
	order := page.Orders[0]
	require.Len(t, order.Items, 1)
	assert.Equal(t, alphaOffers[0].ID, order.Items[0].ProductInfo.ID)
	assert.True(t, order.Total.Equal(alphaOffers[0].Price.Mul(decimal.NewFromInt(3))))
	require.NotNil(t, order.Contact)

	assert.Len(t, f.emails(t), 3, "buyer plus one email per partner")

	page, err = f.svc.ListForPartner(ctx, uuid.New(), pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
}
