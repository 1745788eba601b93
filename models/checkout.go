package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type DraftItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	MainImage   string          `json:"mainImage"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderDraft is the order assembled by checkout and submitted to place-order.
type OrderDraft struct {
	UserID         string          `json:"userId"`
	Address        Address         `json:"address"`
	Products       []DraftItem     `json:"products"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PromoCode      string          `json:"promoCode,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
}

func (d OrderDraft) Validate() error {
	if d.UserID == "" {
		return errors.New("order draft without user")
	}
	if len(d.Products) == 0 {
		return ErrEmptyCart
	}
	if !d.PaymentMethod.IsValid() {
		return errors.New("order draft with unknown payment method")
	}
	if !d.PaymentStatus.IsValid() {
		return errors.New("order draft with unknown payment status")
	}
	if d.TotalAmount.IsNegative() {
		return errors.New("order draft with negative total")
	}
	return d.Address.Validate()
}

// Subtotal sums price times quantity over the draft lines.
func (d OrderDraft) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range d.Products {
		sum = sum.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return sum
}

// WalletPayment is the body of wallet-payment.
type WalletPayment struct {
	UserID      string          `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type WalletPaymentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PlaceOrderResult struct {
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}
