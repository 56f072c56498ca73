package services

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/stores"
)

type testEnv struct {
	mem      *stores.MemoryStores
	tokens   *stores.MemoryTokenStore
	activity *ActivityService
	carts    *CartService
	checkout *CheckoutService
	payment  *PaymentService
	orders   *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := stores.NewMemoryStores()
	mem.Catalog.Seed([]models.Product{
		{ID: "p1", Title: "Classic Espresso Beans 250g", Price: decimal.RequireFromString("10.00"), InStock: true},
		{ID: "p2", Title: "Colombia Single Origin 500g", Price: decimal.RequireFromString("18.90"), InStock: true},
		{ID: "p3", Title: "Stoneware Mug 350ml", Price: decimal.RequireFromString("14.25"), InStock: false},
	})
	tokens := stores.NewMemoryTokenStore()

	activity := NewActivityService(mem.Activity)
	return &testEnv{
		mem:      mem,
		tokens:   tokens,
		activity: activity,
		carts:    NewCartService(mem.Carts, mem.Catalog, activity),
		checkout: NewCheckoutService(mem.Carts, mem.Orders, tokens, activity, nil),
		payment:  NewPaymentService(mem.Orders, mem.Carts, tokens, activity, nil),
		orders:   NewOrderService(mem.Orders, nil),
	}
}

func testIdentity() Identity {
	return Identity{
		UserID:     gofakeit.UUID(),
		Username:   gofakeit.Username(),
		Role:       models.RoleCustomer,
		SourceAddr: gofakeit.IPv4Address(),
	}
}

func testCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		Name:    gofakeit.Name(),
		Email:   gofakeit.Email(),
		Address: gofakeit.Street(),
		Phone:   gofakeit.Phone(),
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validCard() CardInput {
	return CardInput{
		CardNumber:     "4111111111111111",
		Expiry:         "12/29",
		CVV:            "123",
		CardholderName: gofakeit.Name(),
	}
}
