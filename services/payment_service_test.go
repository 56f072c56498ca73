package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adilind/coffee-shop-api/models"
)

// pendingOrder builds a cart and checks it out, returning the pending order.
func pendingOrder(t *testing.T, env *testEnv, id Identity) models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := env.carts.AddItem(ctx, id, "p1", 3)
	require.NoError(t, err)
	order, _, err := env.checkout.CreateOrder(ctx, id, testCustomer())
	require.NoError(t, err)
	return order
}

func TestProcessPayment_Success(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()
	order := pendingOrder(t, env, id)

	paid, err := env.payment.ProcessPayment(ctx, id, order.ID, validCard())
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, paid.Status)
	require.NotNil(t, paid.Payment)
	assert.Equal(t, "card", paid.Payment.Method)
	assert.Equal(t, "1111", paid.Payment.MaskedLast4)
	assert.NotEmpty(t, paid.Payment.TransactionID)
	require.NotNil(t, paid.CompletedAt)

	// Successful charge clears the payer's cart
	cart, err := env.carts.GetCart(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	entries, err := env.activity.Query(ctx, id.Username, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPaymentSuccess, entries[0].ActivityType)
	assert.Equal(t, paid.ID, entries[0].Details["order_id"])
}

func TestProcessPayment_WhitespaceInCardNumber(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	order := pendingOrder(t, env, id)

	card := validCard()
	card.CardNumber = "4111 1111 1111 1111"
	paid, err := env.payment.ProcessPayment(context.Background(), id, order.ID, card)
	require.NoError(t, err)
	assert.Equal(t, "1111", paid.Payment.MaskedLast4)
}

func TestProcessPayment_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()
	order := pendingOrder(t, env, id)

	tests := []struct {
		name     string
		mutate   func(card *CardInput)
		wantCode string
	}{
		{"card too short", func(c *CardInput) { c.CardNumber = "41111111" }, CodeInvalidCardNumber},
		{"card too long", func(c *CardInput) { c.CardNumber = "41111111111111111111" }, CodeInvalidCardNumber},
		{"card not digits", func(c *CardInput) { c.CardNumber = "4111abcd11111111" }, CodeInvalidCardNumber},
		{"expiry month 13", func(c *CardInput) { c.Expiry = "13/29" }, CodeInvalidExpiry},
		{"expiry month 0", func(c *CardInput) { c.Expiry = "0/29" }, CodeInvalidExpiry},
		{"expiry wrong shape", func(c *CardInput) { c.Expiry = "1229" }, CodeInvalidExpiry},
		{"cvv too short", func(c *CardInput) { c.CVV = "12" }, CodeInvalidCVV},
		{"cvv too long", func(c *CardInput) { c.CVV = "12345" }, CodeInvalidCVV},
		{"cvv not digits", func(c *CardInput) { c.CVV = "12a" }, CodeInvalidCVV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			tt.mutate(&card)

			_, err := env.payment.ProcessPayment(ctx, id, order.ID, card)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, CodeOf(err))
			assert.Equal(t, KindValidation, KindOf(err))

			// The order stays pending and retryable
			current, err := env.orders.Get(ctx, id, order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPending, current.Status)
			assert.Nil(t, current.Payment)
		})
	}

	// Every rejection left an audit entry
	entries, err := env.activity.Query(ctx, id.Username, nil, nil)
	require.NoError(t, err)
	failures := 0
	for _, e := range entries {
		if e.ActivityType == models.ActivityPaymentFailure {
			failures++
			assert.Equal(t, order.ID, e.Details["order_id"])
		}
	}
	assert.Equal(t, len(tests), failures)

	// A corrected retry still succeeds
	paid, err := env.payment.ProcessPayment(ctx, id, order.ID, validCard())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, paid.Status)
}

// A past expiry date is accepted: only the MM/YY shape is validated.
func TestProcessPayment_PastExpiryAccepted(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	order := pendingOrder(t, env, id)

	card := validCard()
	card.Expiry = "1/20"
	paid, err := env.payment.ProcessPayment(context.Background(), id, order.ID, card)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, paid.Status)
}

func TestProcessPayment_SecondAttemptConflictsAndMutatesNothing(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()
	order := pendingOrder(t, env, id)

	first, err := env.payment.ProcessPayment(ctx, id, order.ID, validCard())
	require.NoError(t, err)

	_, err = env.payment.ProcessPayment(ctx, id, order.ID, validCard())
	require.Error(t, err)
	assert.Equal(t, CodeOrderNotPending, CodeOf(err))
	assert.Equal(t, KindConflict, KindOf(err))

	after, err := env.orders.Get(ctx, id, order.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(first, after, decimalComparer()); diff != "" {
		t.Errorf("order changed after rejected retry (-first +after):\n%s", diff)
	}
}

func TestProcessPayment_ConcurrentChargesSucceedExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()
	order := pendingOrder(t, env, id)

	const attempts = 6
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.payment.ProcessPayment(ctx, id, order.ID, validCard())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case CodeOf(err) == CodeOrderNotPending:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestProcessPayment_UnknownOrder(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()

	_, err := env.payment.ProcessPayment(context.Background(), id, "no-such-order", validCard())
	require.Error(t, err)
	assert.Equal(t, CodeOrderNotFound, CodeOf(err))
}

func TestProcessPayment_OtherUsersOrderHidden(t *testing.T) {
	env := newTestEnv(t)
	owner := testIdentity()
	stranger := testIdentity()
	order := pendingOrder(t, env, owner)

	_, err := env.payment.ProcessPayment(context.Background(), stranger, order.ID, validCard())
	require.Error(t, err)
	assert.Equal(t, CodeOrderNotFound, CodeOf(err))
}

func TestProcessPayment_CancelledOrderConflicts(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()
	order := pendingOrder(t, env, id)

	_, err := env.orders.Cancel(ctx, id, order.ID)
	require.NoError(t, err)

	_, err = env.payment.ProcessPayment(ctx, id, order.ID, validCard())
	require.Error(t, err)
	assert.Equal(t, CodeOrderNotPending, CodeOf(err))
}

func TestResolveToken_ExpiredTokenIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := testIdentity()
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, id, "p1", 1)
	require.NoError(t, err)
	_, token, err := env.checkout.CreateOrder(ctx, id, testCustomer())
	require.NoError(t, err)

	env.tokens.SetNow(func() time.Time { return time.Now().Add(time.Hour) })

	_, err = env.payment.ResolveToken(ctx, token)
	require.Error(t, err)
	assert.Equal(t, CodeCheckoutExpired, CodeOf(err))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func decimalComparer() cmp.Option {
	return cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
}
