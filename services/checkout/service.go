// Package checkout turns a cart or a Buy-Now selection into a backend order.
// It prices the lines, re-validates the coupon, branches on the payment method
// and reconciles the hosted-widget callbacks with the order status.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mocca-storefront/database"
	"mocca-storefront/models"
	"mocca-storefront/queue"
	"mocca-storefront/services/cart"
	"mocca-storefront/services/payment"
	"mocca-storefront/services/pricing"
	"mocca-storefront/types"
	"mocca-storefront/utils"
)

const ConfirmationPath = "/order-confirmation"

// Backend is the part of the shopper API checkout drives.
type Backend interface {
	payment.API
	Cart(ctx context.Context, userID string) (*models.CartDetails, error)
	Product(ctx context.Context, productID string) (*models.Product, error)
	DefaultAddress(ctx context.Context, userID string) (*models.Address, error)
	Coupons(ctx context.Context) (models.CouponList, error)
	WalletPayment(ctx context.Context, req models.WalletPayment) (*models.WalletPaymentResult, error)
	PlaceOrder(ctx context.Context, draft models.OrderDraft) (*models.PlaceOrderResult, error)
	Order(ctx context.Context, userID, orderID string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus) error
	CancelOrderItem(ctx context.Context, userID, orderID, productID string) (*models.MessageResponse, error)
	ReturnOrderItem(ctx context.Context, userID, orderID, productID, reason string) (*models.MessageResponse, error)
}

type Ledger interface {
	CreateAttempt(ctx context.Context, a *models.PaymentAttempt) error
	MarkAttempt(ctx context.Context, gatewayOrderID string, u database.AttemptUpdate) error
}

type Notifier interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) (*queue.Job, error)
}

type Config struct {
	Fees       pricing.Fees
	PendingTTL time.Duration
}

type Service struct {
	gateway    *payment.Gateway
	ledger     Ledger
	notifier   Notifier
	redis      *redis.Client
	fees       pricing.Fees
	pendingTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(cfg Config, gateway *payment.Gateway, ledger Ledger, notifier Notifier, rdb *redis.Client, logger *zap.Logger) *Service {
	ttl := cfg.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &Service{
		gateway:    gateway,
		ledger:     ledger,
		notifier:   notifier,
		redis:      rdb,
		fees:       cfg.Fees,
		pendingTTL: ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// BuyNow checks out a single product without touching the cart.
type BuyNow struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Source selects what is being checked out; a nil BuyNow means the cart.
type Source struct {
	BuyNow *BuyNow `json:"buyNow,omitempty"`
}

type Summary struct {
	Address         *models.Address   `json:"address"`
	AddressRequired bool              `json:"addressRequired"`
	Lines           []models.CartLine `json:"lines"`
	Coupons         models.CouponList `json:"coupons"`
	Totals          pricing.Totals    `json:"totals"`
}

type PlaceOrderRequest struct {
	Source        Source               `json:"source"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	PromoCode     string               `json:"promoCode"`
}

type Outcome string

const (
	OutcomePlaced          Outcome = "placed"
	OutcomeAwaitingPayment Outcome = "awaiting_payment"
)

type Result struct {
	Outcome  Outcome              `json:"outcome"`
	Message  string               `json:"message,omitempty"`
	OrderID  string               `json:"orderId,omitempty"`
	Redirect string               `json:"redirect,omitempty"`
	Widget   *types.WidgetOptions `json:"widget,omitempty"`
	Totals   *pricing.Totals      `json:"totals,omitempty"`
}

func (s *Service) lines(ctx context.Context, api Backend, userID string, src Source) ([]models.CartLine, error) {
	if bn := src.BuyNow; bn != nil {
		product, err := api.Product(ctx, bn.ProductID)
		if err != nil {
			return nil, err
		}
		req := models.CartItemRequest{UserID: userID, ProductID: bn.ProductID, Size: bn.Size, Quantity: bn.Quantity}
		if err := cart.ValidateAdd(req, product); err != nil {
			return nil, err
		}
		return []models.CartLine{pricing.BuyNowLine(*product, bn.Size, bn.Quantity)}, nil
	}

	details, err := api.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(details.Items) == 0 {
		return nil, models.ErrEmptyCart
	}
	return details.Items, nil
}

// Prepare loads everything the checkout page shows. The quote carries no
// discount until a coupon is applied.
func (s *Service) Prepare(ctx context.Context, api Backend, user *models.User, src Source) (*Summary, error) {
	var (
		addr    *models.Address
		coupons models.CouponList
		lines   []models.CartLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		addr, err = api.DefaultAddress(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		coupons, err = api.Coupons(gctx)
		return err
	})
	g.Go(func() (err error) {
		lines, err = s.lines(gctx, api, user.ID, src)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{
		Address:         addr,
		AddressRequired: addr == nil,
		Lines:           lines,
		Coupons:         activeCoupons(coupons),
		Totals:          pricing.Quote(lines, s.fees, decimal.Zero, ""),
	}, nil
}

func activeCoupons(all models.CouponList) models.CouponList {
	out := models.CouponList{}
	for _, c := range all {
		if c.Status {
			out = append(out, c)
		}
	}
	return out
}

// ApplyCoupon quotes the checkout with code applied.
func (s *Service) ApplyCoupon(ctx context.Context, api Backend, user *models.User, src Source, code string) (*pricing.Totals, error) {
	var (
		coupons models.CouponList
		lines   []models.CartLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		coupons, err = api.Coupons(gctx)
		return err
	})
	g.Go(func() (err error) {
		lines, err = s.lines(gctx, api, user.ID, src)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	discount, err := pricing.ApplyCoupon(pricing.Subtotal(lines), code, coupons, s.now())
	if err != nil {
		return nil, err
	}
	totals := pricing.Quote(lines, s.fees, discount, code)
	return &totals, nil
}

// PlaceOrder submits the checkout. Cash on delivery and wallet orders are
// placed immediately; gateway orders return widget options and are placed
// when the widget calls back.
func (s *Service) PlaceOrder(ctx context.Context, api Backend, user *models.User, req PlaceOrderRequest) (*Result, error) {
	if req.PaymentMethod == "" {
		return nil, ErrPaymentMethodRequired
	}
	if !req.PaymentMethod.IsValid() {
		return nil, &models.ValidationError{Fields: models.FieldErrors{"paymentMethod": "Unknown payment method"}}
	}
	promo := strings.TrimSpace(req.PromoCode)

	var (
		addr    *models.Address
		coupons models.CouponList
		lines   []models.CartLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		addr, err = api.DefaultAddress(gctx, user.ID)
		return err
	})
	if promo != "" {
		g.Go(func() (err error) {
			coupons, err = api.Coupons(gctx)
			return err
		})
	}
	g.Go(func() (err error) {
		lines, err = s.lines(gctx, api, user.ID, req.Source)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, ErrAddressRequired
	}

	discount := decimal.Zero
	if promo != "" {
		var err error
		discount, err = pricing.ApplyCoupon(pricing.Subtotal(lines), promo, coupons, s.now())
		if err != nil {
			return nil, err
		}
	}
	totals := pricing.Quote(lines, s.fees, discount, promo)

	draft := models.OrderDraft{
		UserID:         user.ID,
		Address:        *addr,
		Products:       pricing.DraftItems(lines),
		PaymentMethod:  req.PaymentMethod,
		TotalAmount:    totals.Total,
		PromoCode:      promo,
		DiscountAmount: discount,
	}

	switch req.PaymentMethod {
	case models.PaymentMethodCOD:
		draft.PaymentStatus = models.PaymentStatusPending
		return s.submit(ctx, api, user, draft, &totals)

	case models.PaymentMethodWallet:
		res, err := api.WalletPayment(ctx, models.WalletPayment{UserID: user.ID, TotalAmount: totals.Total})
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, &InsufficientBalanceError{Message: res.Message}
		}
		draft.PaymentStatus = models.PaymentStatusCompleted
		return s.submit(ctx, api, user, draft, &totals)

	default:
		draft.PaymentStatus = models.PaymentStatusPending
		order, err := s.gateway.CreateOrder(ctx, api, totals.Total)
		if err != nil {
			return nil, err
		}
		pending := &PendingPayment{
			Kind:           models.AttemptKindOrder,
			UserID:         user.ID,
			Email:          user.Email,
			Name:           user.Name,
			GatewayOrderID: order.ID,
			Amount:         totals.Total,
			Draft:          &draft,
		}
		if err := s.openAttempt(ctx, pending); err != nil {
			return nil, err
		}
		prefill := types.Prefill{Name: addr.Name, Email: user.Email, Contact: addr.Contact()}
		widget := s.gateway.WidgetOptions(order, prefill, payment.DescriptionOrder)
		return &Result{Outcome: OutcomeAwaitingPayment, Widget: &widget, Totals: &totals}, nil
	}
}

func (s *Service) openAttempt(ctx context.Context, p *PendingPayment) error {
	err := s.ledger.CreateAttempt(ctx, &models.PaymentAttempt{
		UserID:         p.UserID,
		OrderID:        p.OrderID,
		GatewayOrderID: p.GatewayOrderID,
		Amount:         p.Amount,
		Currency:       s.gateway.Currency(),
		Kind:           p.Kind,
	})
	if err != nil {
		return err
	}
	return s.savePending(ctx, p)
}

// submit places the order and only then reports it as placed.
func (s *Service) submit(ctx context.Context, api Backend, user *models.User, draft models.OrderDraft, totals *pricing.Totals) (*Result, error) {
	res, err := api.PlaceOrder(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order placed",
		zap.String("user_id", draft.UserID),
		zap.String("order_id", res.OrderID),
		zap.String("payment_method", string(draft.PaymentMethod)),
		zap.String("payment_status", string(draft.PaymentStatus)))

	s.notify(ctx, queue.JobTypeOrderConfirmation, map[string]interface{}{
		"email":         user.Email,
		"name":          user.Name,
		"orderId":       res.OrderID,
		"total":         utils.FormatINR(draft.TotalAmount),
		"paymentMethod": string(draft.PaymentMethod),
		"paymentStatus": string(draft.PaymentStatus),
	})
	return &Result{
		Outcome:  OutcomePlaced,
		Message:  res.Message,
		OrderID:  res.OrderID,
		Redirect: ConfirmationPath,
		Totals:   totals,
	}, nil
}

func (s *Service) notify(ctx context.Context, jobType queue.JobType, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Enqueue(ctx, jobType, data); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", string(jobType)), zap.Error(err))
	}
}

func (s *Service) markAttempt(ctx context.Context, gatewayOrderID string, u database.AttemptUpdate) {
	if err := s.ledger.MarkAttempt(ctx, gatewayOrderID, u); err != nil {
		s.logger.Error("failed to settle payment attempt",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("status", string(u.Status)),
			zap.Error(err))
	}
}

// ConfirmGatewayPayment handles the widget success callback.
func (s *Service) ConfirmGatewayPayment(ctx context.Context, api Backend, user *models.User, cb types.GatewayCallback) (*Result, error) {
	pending, err := s.takePending(ctx, user.ID, cb.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	verifyErr := s.gateway.Verify(ctx, api, cb)
	if verifyErr != nil {
		s.logger.Warn("gateway payment verification failed",
			zap.String("gateway_order_id", cb.RazorpayOrderID), zap.Error(verifyErr))
	}

	if pending.Kind == models.AttemptKindRetry {
		return s.settleRetry(ctx, api, user, pending, cb.RazorpayPaymentID, verifyErr)
	}

	if verifyErr != nil {
		s.submitFailed(ctx, api, user, pending, verifyErr.Error())
		return nil, &PaymentFailedError{Message: msgOrderVerifyFailed}
	}

	draft := *pending.Draft
	draft.PaymentStatus = models.PaymentStatusCompleted
	res, err := s.submit(ctx, api, user, draft, nil)
	if err != nil {
		// paid but not placed; keep the payment id for reconciliation
		s.markAttempt(ctx, pending.GatewayOrderID, database.AttemptUpdate{
			Status:    models.AttemptVerified,
			PaymentID: cb.RazorpayPaymentID,
			Reason:    fmt.Sprintf("order submission failed: %v", err),
		})
		return nil, err
	}
	s.markAttempt(ctx, pending.GatewayOrderID, database.AttemptUpdate{
		Status:    models.AttemptVerified,
		PaymentID: cb.RazorpayPaymentID,
		OrderID:   res.OrderID,
	})
	return res, nil
}

// FailGatewayPayment handles the widget payment.failed event.
func (s *Service) FailGatewayPayment(ctx context.Context, api Backend, user *models.User, failure types.GatewayFailure) error {
	pending, err := s.takePending(ctx, user.ID, failure.RazorpayOrderID)
	if err != nil {
		return err
	}
	reason := failure.Description
	if reason == "" {
		reason = failure.Reason
	}
	if reason == "" {
		reason = "payment failed in widget"
	}

	if pending.Kind == models.AttemptKindRetry {
		s.markAttempt(ctx, pending.GatewayOrderID, database.AttemptUpdate{
			Status:    models.AttemptFailed,
			PaymentID: failure.RazorpayPaymentID,
			OrderID:   pending.OrderID,
			Reason:    reason,
		})
		return &PaymentFailedError{Message: msgRetryWidgetFailed}
	}

	s.submitFailed(ctx, api, user, pending, reason)
	return &PaymentFailedError{Message: msgOrderWidgetFailed}
}

// submitFailed records the order with a Failed payment status so the shopper
// can retry it later.
func (s *Service) submitFailed(ctx context.Context, api Backend, user *models.User, pending *PendingPayment, reason string) {
	draft := *pending.Draft
	draft.PaymentStatus = models.PaymentStatusFailed

	update := database.AttemptUpdate{Status: models.AttemptFailed, Reason: reason}
	res, err := api.PlaceOrder(ctx, draft)
	if err != nil {
		s.logger.Error("failed to record failed order",
			zap.String("gateway_order_id", pending.GatewayOrderID), zap.Error(err))
		update.Reason = fmt.Sprintf("%s; failed order not recorded: %v", reason, err)
	} else {
		update.OrderID = res.OrderID
	}
	s.markAttempt(ctx, pending.GatewayOrderID, update)

	s.notify(ctx, queue.JobTypePaymentFailed, map[string]interface{}{
		"email": user.Email,
		"name":  user.Name,
		"total": utils.FormatINR(draft.TotalAmount),
	})
}

func (s *Service) settleRetry(ctx context.Context, api Backend, user *models.User, pending *PendingPayment, paymentID string, verifyErr error) (*Result, error) {
	if verifyErr != nil {
		s.markAttempt(ctx, pending.GatewayOrderID, database.AttemptUpdate{
			Status:    models.AttemptFailed,
			PaymentID: paymentID,
			OrderID:   pending.OrderID,
			Reason:    verifyErr.Error(),
		})
		return nil, &PaymentFailedError{Message: msgRetryVerifyFailed}
	}

	if err := api.UpdatePaymentStatus(ctx, pending.OrderID, models.PaymentStatusCompleted); err != nil {
		s.markAttempt(ctx, pending.GatewayOrderID, database.AttemptUpdate{
			Status:    models.AttemptVerified,
			PaymentID: paymentID,
			OrderID:   pending.OrderID,
			Reason:    fmt.Sprintf("status update failed: %v", err),
		})
		return nil, err
	}
	s.markAttempt(ctx, pending.GatewayOrderID, database.AttemptUpdate{
		Status:    models.AttemptVerified,
		PaymentID: paymentID,
		OrderID:   pending.OrderID,
	})
	s.notify(ctx, queue.JobTypeOrderConfirmation, map[string]interface{}{
		"email":         user.Email,
		"name":          user.Name,
		"orderId":       pending.OrderID,
		"total":         utils.FormatINR(pending.Amount),
		"paymentMethod": string(models.PaymentMethodRazorPay),
		"paymentStatus": string(models.PaymentStatusCompleted),
	})
	return &Result{Outcome: OutcomePlaced, Message: msgRetrySucceeded, OrderID: pending.OrderID}, nil
}

// RetryPayment opens a new gateway order for an order whose payment failed.
// The order itself is updated in place once the payment verifies.
func (s *Service) RetryPayment(ctx context.Context, api Backend, user *models.User, orderID string) (*Result, error) {
	order, err := api.Order(ctx, user.ID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentStatusFailed {
		return nil, ErrRetryNotAllowed
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, api, order.TotalAmount)
	if err != nil {
		return nil, err
	}
	pending := &PendingPayment{
		Kind:           models.AttemptKindRetry,
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		GatewayOrderID: gwOrder.ID,
		OrderID:        order.ID,
		Amount:         order.TotalAmount,
	}
	if err := s.openAttempt(ctx, pending); err != nil {
		return nil, err
	}

	prefill := types.Prefill{Name: order.Address.Name, Email: user.Email, Contact: order.Address.Contact()}
	widget := s.gateway.WidgetOptions(gwOrder, prefill, payment.DescriptionRetry)
	return &Result{Outcome: OutcomeAwaitingPayment, OrderID: order.ID, Widget: &widget}, nil
}

// CancelItem cancels one line of an order that has not been delivered.
// Orders whose gateway payment failed offer a payment retry instead.
func (s *Service) CancelItem(ctx context.Context, api Backend, user *models.User, orderID, productID string) (*models.MessageResponse, error) {
	order, err := api.Order(ctx, user.ID, orderID)
	if err != nil {
		return nil, err
	}
	item, ok := order.Item(productID)
	if !ok {
		return nil, ErrItemNotFound
	}
	if order.PaymentStatus == models.PaymentStatusFailed {
		return nil, ErrCancelAwaitsRetry
	}
	switch order.OrderStatus {
	case models.OrderStatusDelivered, models.OrderStatusCancelled, models.OrderStatusReturned:
		return nil, ErrCancelNotAllowed
	}
	if item.Closed() {
		return nil, ErrCancelNotAllowed
	}
	return api.CancelOrderItem(ctx, user.ID, orderID, productID)
}

// ReturnItem requests a return for one line of a delivered order.
func (s *Service) ReturnItem(ctx context.Context, api Backend, user *models.User, orderID, productID, reason string) (*models.MessageResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReturnReasonRequired
	}
	order, err := api.Order(ctx, user.ID, orderID)
	if err != nil {
		return nil, err
	}
	item, ok := order.Item(productID)
	if !ok {
		return nil, ErrItemNotFound
	}
	if order.OrderStatus != models.OrderStatusDelivered || item.Closed() {
		return nil, ErrReturnNotAllowed
	}
	return api.ReturnOrderItem(ctx, user.ID, orderID, productID, reason)
}

// IsUserError reports whether err carries a message meant for the shopper.
func IsUserError(err error) bool {
	var verr *models.ValidationError
	return Message(err) != "" || errors.As(err, &verr)
}
