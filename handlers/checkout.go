package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/checkout"
	"mocca-storefront/services/invoice"
	"mocca-storefront/types"
)

type CheckoutHandler struct {
	base
	checkout *checkout.Service
}

func NewCheckoutHandler(client *backend.Client, sessions *auth.Manager, svc *checkout.Service, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		base:     base{client: client, sessions: sessions, logger: logger},
		checkout: svc,
	}
}

func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var src checkout.Source
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &src); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	summary, err := h.checkout.Prepare(r.Context(), h.shopper(w, r), user(r), src)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", summary)
}

type couponRequest struct {
	checkout.Source
	Code string `json:"code"`
}

func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	totals, err := h.checkout.ApplyCoupon(r.Context(), h.shopper(w, r), user(r), req.Source, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Promo code applied", totals)
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.checkout.PlaceOrder(r.Context(), h.shopper(w, r), user(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Outcome == checkout.OutcomeAwaitingPayment {
		ok(w, "Complete the payment to place your order", res)
		return
	}
	created(w, placedMessage(res), res)
}

// VerifyPayment is called by the browser after the hosted widget reports success.
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var cb types.GatewayCallback
	if err := decodeJSON(r, &cb); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.checkout.ConfirmGatewayPayment(r.Context(), h.shopper(w, r), user(r), cb)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, placedMessage(res), res)
}

// PaymentFailure is called by the browser on the widget's payment.failed event.
func (h *CheckoutHandler) PaymentFailure(w http.ResponseWriter, r *http.Request) {
	var failure types.GatewayFailure
	if err := decodeJSON(r, &failure); err != nil {
		h.fail(w, r, err)
		return
	}
	// a recorded failure still answers with an error so the browser stays off
	// the confirmation page
	if err := h.checkout.FailGatewayPayment(r.Context(), h.shopper(w, r), user(r), failure); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", nil)
}

func placedMessage(res *checkout.Result) string {
	if res.Message != "" {
		return res.Message
	}
	return "Order placed successfully"
}

// Orders

func (h *CheckoutHandler) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.shopper(w, r).Orders(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", orders)
}

func (h *CheckoutHandler) Order(w http.ResponseWriter, r *http.Request) {
	order, err := h.shopper(w, r).Order(r.Context(), user(r).ID, vars(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", order)
}

func (h *CheckoutHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	order, err := h.shopper(w, r).Order(r.Context(), user(r).ID, vars(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := invoice.Render(&deferredWriter{w: w, filename: invoice.Filename(order.ID)}, order); err != nil {
		h.fail(w, r, err)
		return
	}
}

func (h *CheckoutHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	res, err := h.checkout.RetryPayment(r.Context(), h.shopper(w, r), user(r), vars(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Complete the payment to retry your order", res)
}

func (h *CheckoutHandler) CancelItem(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checkout.CancelItem(r.Context(), h.shopper(w, r), user(r), vars(r, "orderId"), vars(r, "productId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "Item cancelled"), nil)
}

type returnRequest struct {
	Reason string `json:"reason"`
}

func (h *CheckoutHandler) ReturnItem(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.checkout.ReturnItem(r.Context(), h.shopper(w, r), user(r), vars(r, "orderId"), vars(r, "productId"), strings.TrimSpace(req.Reason))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "Return requested"), nil)
}

// deferredWriter sets the PDF headers on the first write, so a render error
// can still be answered with JSON.
type deferredWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	if !d.started {
		d.started = true
		d.w.Header().Set("Content-Type", "application/pdf")
		d.w.Header().Set("Content-Disposition", `attachment; filename="`+d.filename+`"`)
		d.w.WriteHeader(http.StatusOK)
	}
	return d.w.Write(p)
}
