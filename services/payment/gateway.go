package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mocca-storefront/types"
	"mocca-storefront/utils"
)

const (
	DescriptionOrder = "Order Payment"
	DescriptionRetry = "Order Payment Retry"
)

var (
	ErrInvalidAmount      = errors.New("payment amount must be at least one rupee")
	ErrIncompleteCallback = errors.New("gateway callback is missing fields")
	ErrNotVerified        = errors.New("payment signature not verified")
)

// API is the part of the backend that talks to the payment gateway.
type API interface {
	CreateRazorpayOrder(ctx context.Context, req types.CreateGatewayOrderRequest) (*types.GatewayOrder, error)
	VerifyRazorpayPayment(ctx context.Context, cb types.GatewayCallback) (*types.VerifyPaymentResponse, error)
}

type Config struct {
	KeyID        string
	Currency     string
	MerchantName string
	ThemeColor   string
}

// Gateway prepares hosted-widget payments. Orders are created and verified
// by the backend, which holds the gateway secret.
type Gateway struct {
	cfg    Config
	logger *zap.Logger
}

func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.MerchantName == "" {
		cfg.MerchantName = "MOCCA"
	}
	return &Gateway{cfg: cfg, logger: logger}
}

func (g *Gateway) Currency() string {
	return g.cfg.Currency
}

// CreateOrder opens a gateway order for total, truncated to whole rupees.
func (g *Gateway) CreateOrder(ctx context.Context, api API, total decimal.Decimal) (*types.GatewayOrder, error) {
	amount := utils.WholeRupees(total)
	if amount < 1 {
		return nil, ErrInvalidAmount
	}
	order, err := api.CreateRazorpayOrder(ctx, types.CreateGatewayOrderRequest{
		Amount:   amount,
		Currency: g.cfg.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	if order.Currency == "" {
		order.Currency = g.cfg.Currency
	}
	g.logger.Info("gateway order created",
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount", order.Amount))
	return order, nil
}

// Verify checks a widget callback with the backend. A clean rejection is
// reported as ErrNotVerified; transport failures are returned as is.
func (g *Gateway) Verify(ctx context.Context, api API, cb types.GatewayCallback) error {
	if !cb.Complete() {
		return ErrIncompleteCallback
	}
	resp, err := api.VerifyRazorpayPayment(ctx, cb)
	if err != nil {
		return fmt.Errorf("verify payment: %w", err)
	}
	if !resp.Success {
		g.logger.Warn("gateway payment not verified",
			zap.String("gateway_order_id", cb.RazorpayOrderID),
			zap.String("message", resp.Message))
		return ErrNotVerified
	}
	return nil
}

// WidgetOptions builds the options the browser needs to open the hosted widget.
func (g *Gateway) WidgetOptions(order *types.GatewayOrder, prefill types.Prefill, description string) types.WidgetOptions {
	return types.WidgetOptions{
		Key:         g.cfg.KeyID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        g.cfg.MerchantName,
		Description: description,
		OrderID:     order.ID,
		Prefill:     prefill,
		Theme:       types.Theme{Color: g.cfg.ThemeColor},
	}
}
