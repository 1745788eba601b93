package types

// GatewayOrder is the order created on the payment gateway before the hosted
// widget opens. Amount is in whole rupees as returned by the backend.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateGatewayOrderRequest is the body of create-razorpay-order.
type CreateGatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CreateGatewayOrderResponse struct {
	Order GatewayOrder `json:"order"`
}

// GatewayCallback is what the hosted widget hands back on success.
type GatewayCallback struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

func (c GatewayCallback) Complete() bool {
	return c.RazorpayOrderID != "" && c.RazorpayPaymentID != "" && c.RazorpaySignature != ""
}

type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GatewayFailure is the widget's payment.failed event.
type GatewayFailure struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId,omitempty"`
	Code              string `json:"code,omitempty"`
	Description       string `json:"description,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// WidgetOptions is handed to the browser to open the hosted checkout.
type WidgetOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}
