package checkout

import (
	"errors"

	"mocca-storefront/models"
	"mocca-storefront/services/cart"
	"mocca-storefront/services/pricing"
)

var (
	ErrAddressRequired       = errors.New("delivery address required")
	ErrPaymentMethodRequired = errors.New("payment method required")
	ErrInsufficientBalance   = errors.New("insufficient wallet balance")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrPaymentNotPending     = errors.New("no pending payment for gateway order")
	ErrRetryNotAllowed       = errors.New("order payment is not in failed state")
	ErrCancelNotAllowed      = errors.New("order item can no longer be cancelled")
	ErrCancelAwaitsRetry     = errors.New("order payment failed; retry payment instead of cancelling")
	ErrReturnNotAllowed      = errors.New("order item cannot be returned")
	ErrReturnReasonRequired  = errors.New("return reason required")
	ErrItemNotFound          = errors.New("product not in order")
)

// InsufficientBalanceError carries the wallet refusal message.
type InsufficientBalanceError struct {
	Message string
}

func (e *InsufficientBalanceError) Error() string {
	if e.Message == "" {
		return ErrInsufficientBalance.Error()
	}
	return ErrInsufficientBalance.Error() + ": " + e.Message
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// PaymentFailedError is a gateway payment that did not complete. Message is
// shown to the shopper as is.
type PaymentFailedError struct {
	Message string
}

func (e *PaymentFailedError) Error() string {
	return ErrPaymentFailed.Error() + ": " + e.Message
}

func (e *PaymentFailedError) Is(target error) bool {
	return target == ErrPaymentFailed
}

const (
	msgOrderVerifyFailed = `Payment verification failed. Order status updated to "Payment Failed".`
	msgOrderWidgetFailed = `Payment failed. Order status updated to "Payment Failed".`
	msgRetryVerifyFailed = "Payment verification failed. Please try again."
	msgRetryWidgetFailed = "Payment failed. Please try again."
	msgRetrySucceeded    = `Payment successful. Order status updated to "Completed".`
)

// Message returns the text shown to the shopper for a checkout error, or ""
// when err is not one the shopper can act on.
func Message(err error) string {
	var balance *InsufficientBalanceError
	var failed *PaymentFailedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &failed):
		return failed.Message
	case errors.As(err, &balance):
		if balance.Message != "" {
			return balance.Message
		}
		return "Insufficient wallet balance."
	case errors.Is(err, ErrAddressRequired):
		return "Please select a delivery address."
	case errors.Is(err, ErrPaymentMethodRequired):
		return "Please select a payment method before placing the order."
	case errors.Is(err, ErrPaymentNotPending):
		return "This payment was already processed or has expired."
	case errors.Is(err, ErrRetryNotAllowed):
		return "This order does not have a failed payment status."
	case errors.Is(err, ErrCancelNotAllowed):
		return "This item can no longer be cancelled."
	case errors.Is(err, ErrCancelAwaitsRetry):
		return "Payment for this order failed. Please retry the payment."
	case errors.Is(err, ErrReturnNotAllowed):
		return "Only delivered items can be returned."
	case errors.Is(err, ErrReturnReasonRequired):
		return "Please provide a reason for return."
	case errors.Is(err, ErrItemNotFound):
		return "This product is not part of the order."
	case errors.Is(err, models.ErrEmptyCart):
		return "Your cart is empty."
	}
	if msg := pricing.Message(err); msg != "" {
		return msg
	}
	return cart.Message(err)
}
