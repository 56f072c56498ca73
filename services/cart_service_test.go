package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adilind/coffee-shop-api/models"
)

func TestGetCart_CreatesEmptyOnFirstAccess(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()

	cart, err := env.carts.GetCart(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestAddItem_SnapshotsTitleAndPrice(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()

	cart, err := env.carts.AddItem(context.Background(), id, "p1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	line := cart.Items[0]
	assert.Equal(t, "p1", line.ProductID)
	assert.Equal(t, "Classic Espresso Beans 250g", line.Title)
	assert.True(t, line.UnitPrice.Equal(mustDecimal("10.00")))
	assert.Equal(t, 2, line.Quantity)
}

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 2)
	require.NoError(t, err)
	cart, err := env.carts.AddItem(ctx, id, "p1", 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItem_Failures(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		quantity  int
		wantCode  string
		wantKind  Kind
	}{
		{"unknown product", "nope", 1, CodeProductNotFound, KindNotFound},
		{"out of stock", "p3", 1, CodeOutOfStock, KindConflict},
		{"zero quantity", "p1", 0, CodeInvalidQuantity, KindValidation},
		{"negative quantity", "p1", -2, CodeInvalidQuantity, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.carts.AddItem(ctx, id, tt.productID, tt.quantity)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}

	// None of the failures touched the cart
	cart, err := env.carts.GetCart(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSetQuantity_UpdatesLine(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 2)
	require.NoError(t, err)

	cart, err := env.carts.SetQuantity(ctx, id, "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 3)
	require.NoError(t, err)

	cart, err := env.carts.SetQuantity(ctx, id, "p1", 0)
	require.NoError(t, err)
	assert.Nil(t, cart.Find("p1"))

	// A fresh read agrees
	cart, err = env.carts.GetCart(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, cart.Find("p1"))
}

func TestSetQuantity_MissingLine(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()

	_, err := env.carts.SetQuantity(context.Background(), id, "p1", 2)
	require.Error(t, err)
	assert.Equal(t, CodeItemNotInCart, CodeOf(err))
}

func TestRemoveItem_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 1)
	require.NoError(t, err)

	cart, err := env.carts.RemoveItem(ctx, id, "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Removing again is a no-op success
	cart, err = env.carts.RemoveItem(ctx, id, "p1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearCart(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 1)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, id, "p2", 2)
	require.NoError(t, err)

	cart, err := env.carts.ClearCart(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = env.carts.ClearCart(ctx, id)
	require.NoError(t, err)
}

func TestCartNeverHoldsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 4)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, id, "p2", 1)
	require.NoError(t, err)
	_, err = env.carts.SetQuantity(ctx, id, "p1", 1)
	require.NoError(t, err)
	_, err = env.carts.SetQuantity(ctx, id, "p2", -3)
	require.NoError(t, err)
	_, err = env.carts.RemoveItem(ctx, id, "gone")
	require.NoError(t, err)

	cart, err := env.carts.GetCart(ctx, id)
	require.NoError(t, err)
	for _, line := range cart.Items {
		assert.GreaterOrEqual(t, line.Quantity, 1)
	}
}

func TestConcurrentAdds_SameUserSerialize(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := env.carts.AddItem(ctx, id, "p1", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	cart, err := env.carts.GetCart(ctx, id)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, workers*perWorker, cart.Items[0].Quantity)
}

func TestCartMutations_WriteActivityEntries(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 2)
	require.NoError(t, err)
	_, err = env.carts.SetQuantity(ctx, id, "p1", 5)
	require.NoError(t, err)
	_, err = env.carts.RemoveItem(ctx, id, "p1")
	require.NoError(t, err)
	_, err = env.carts.ClearCart(ctx, id)
	require.NoError(t, err)

	entries, err := env.activity.Query(ctx, id.Username, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Newest first
	assert.Equal(t, models.ActivityClearCart, entries[0].ActivityType)
	assert.Equal(t, models.ActivityRemoveFromCart, entries[1].ActivityType)
	assert.Equal(t, models.ActivityUpdateCart, entries[2].ActivityType)
	assert.Equal(t, models.ActivityAddToCart, entries[3].ActivityType)
	assert.Equal(t, "p1", entries[3].Details["product_id"])
	assert.Equal(t, "2", entries[3].Details["quantity"])
}
