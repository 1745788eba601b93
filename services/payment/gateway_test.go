package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mocca-storefront/types"
)

type fakeAPI struct {
	created  []types.CreateGatewayOrderRequest
	verified bool
	err      error
}

func (f *fakeAPI) CreateRazorpayOrder(_ context.Context, req types.CreateGatewayOrderRequest) (*types.GatewayOrder, error) {
	f.created = append(f.created, req)
	if f.err != nil {
		return nil, f.err
	}
	return &types.GatewayOrder{ID: "order_1", Amount: req.Amount * 100, Currency: req.Currency}, nil
}

func (f *fakeAPI) VerifyRazorpayPayment(_ context.Context, _ types.GatewayCallback) (*types.VerifyPaymentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.VerifyPaymentResponse{Success: f.verified}, nil
}

func newGateway() *Gateway {
	return NewGateway(Config{KeyID: "rzp_test", ThemeColor: "#3399cc"}, zap.NewNop())
}

func TestCreateOrderFloorsAmount(t *testing.T) {
	api := &fakeAPI{}

	order, err := newGateway().CreateOrder(context.Background(), api, decimal.RequireFromString("1499.99"))

	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	require.Len(t, api.created, 1)
	assert.Equal(t, int64(1499), api.created[0].Amount)
	assert.Equal(t, "INR", api.created[0].Currency)
}

func TestCreateOrderRejectsSubRupee(t *testing.T) {
	api := &fakeAPI{}
	_, err := newGateway().CreateOrder(context.Background(), api, decimal.RequireFromString("0.50"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, api.created)
}

func TestVerify(t *testing.T) {
	g := newGateway()
	cb := types.GatewayCallback{RazorpayOrderID: "o", RazorpayPaymentID: "p", RazorpaySignature: "s"}

	assert.NoError(t, g.Verify(context.Background(), &fakeAPI{verified: true}, cb))
	assert.ErrorIs(t, g.Verify(context.Background(), &fakeAPI{verified: false}, cb), ErrNotVerified)
	assert.ErrorIs(t, g.Verify(context.Background(), &fakeAPI{verified: true}, types.GatewayCallback{}), ErrIncompleteCallback)

	boom := errors.New("boom")
	assert.ErrorIs(t, g.Verify(context.Background(), &fakeAPI{err: boom}, cb), boom)
}

func TestWidgetOptions(t *testing.T) {
	order := &types.GatewayOrder{ID: "order_9", Amount: 49900, Currency: "INR"}
	prefill := types.Prefill{Name: "Asha", Email: "asha@example.com", Contact: "9876543210"}

	w := newGateway().WidgetOptions(order, prefill, DescriptionRetry)

	assert.Equal(t, "rzp_test", w.Key)
	assert.Equal(t, "order_9", w.OrderID)
	assert.Equal(t, int64(49900), w.Amount)
	assert.Equal(t, "MOCCA", w.Name)
	assert.Equal(t, DescriptionRetry, w.Description)
	assert.Equal(t, "#3399cc", w.Theme.Color)
	assert.Equal(t, prefill, w.Prefill)
}
