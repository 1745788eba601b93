package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartLine is one cart entry; the backend populates productId with the
// product document.
type CartLine struct {
	ID              string              `json:"_id,omitempty"`
	Product         Product             `json:"productId"`
	Size            string              `json:"size"`
	Quantity        int                 `json:"quantity"`
	DiscountedPrice decimal.NullDecimal `json:"discountedPrice"`
}

func (l CartLine) Validate() error {
	if err := l.Product.Validate(); err != nil {
		return fmt.Errorf("cart line %s: %w", l.ID, err)
	}
	if l.Size == "" {
		return fmt.Errorf("cart line %s: missing size", l.ID)
	}
	if l.Quantity < 1 {
		return fmt.Errorf("cart line %s: quantity %d", l.ID, l.Quantity)
	}
	return nil
}

type CartDetails struct {
	Items         []CartLine      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
}

func (c CartDetails) Validate() error {
	for _, l := range c.Items {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CartItemRequest is the body of add-to-cart and edit-quantity.
type CartItemRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (r CartItemRequest) Validate() error {
	if r.ProductID == "" {
		return &ValidationError{Fields: FieldErrors{"productId": "Product is required"}}
	}
	if r.Size == "" {
		return &ValidationError{Fields: FieldErrors{"size": "Please select a size"}}
	}
	return nil
}

var ErrEmptyCart = errors.New("cart is empty")
