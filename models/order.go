package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	MainImage    string          `json:"mainImage,omitempty"`
	Size         string          `json:"size"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Status       LineStatus      `json:"status,omitempty"`
	ReturnReason string          `json:"returnReason,omitempty"`
}

// UnmarshalJSON accepts productId either as an id or as the populated
// product document returned by order-details-view.
func (it *OrderItem) UnmarshalJSON(b []byte) error {
	type plain OrderItem
	var raw struct {
		plain
		ProductID json.RawMessage `json:"productId"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*it = OrderItem(raw.plain)

	ref := bytes.TrimSpace(raw.ProductID)
	switch {
	case len(ref) == 0 || bytes.Equal(ref, []byte("null")):
		it.ProductID = ""
	case ref[0] == '"':
		return json.Unmarshal(ref, &it.ProductID)
	default:
		var p struct {
			ID          string `json:"_id"`
			ProductName string `json:"productName"`
			MainImage   Images `json:"mainImage"`
		}
		if err := json.Unmarshal(ref, &p); err != nil {
			return err
		}
		it.ProductID = p.ID
		if it.ProductName == "" {
			it.ProductName = p.ProductName
		}
		if it.MainImage == "" && len(p.MainImage) > 0 {
			it.MainImage = p.MainImage[0]
		}
	}
	return nil
}

// Closed reports whether the line was cancelled or returned.
func (it OrderItem) Closed() bool {
	return it.Status.Closed()
}

type Order struct {
	ID             string          `json:"_id"`
	UserID         string          `json:"userId,omitempty"`
	OrderDate      Date            `json:"orderDate"`
	Address        Address         `json:"address"`
	Products       []OrderItem     `json:"products"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	OrderStatus    OrderStatus     `json:"orderStatus"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	PromoCode      string          `json:"promoCode,omitempty"`
}

func (o Order) Validate() error {
	if o.ID == "" {
		return errors.New("order without _id")
	}
	if o.TotalAmount.IsNegative() {
		return errors.New("order with negative total")
	}
	return nil
}

// Item returns the line for productID.
func (o Order) Item(productID string) (OrderItem, bool) {
	for _, it := range o.Products {
		if it.ProductID == productID {
			return it, true
		}
	}
	return OrderItem{}, false
}

type OrderList []Order

func (l OrderList) Validate() error {
	for _, o := range l {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OrderPage is the admin order listing.
type OrderPage struct {
	Data        []Order `json:"data"`
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
}

func (p OrderPage) Validate() error {
	return OrderList(p.Data).Validate()
}

type ItemAction struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason,omitempty"`
}

type PaymentStatusUpdate struct {
	OrderID       string        `json:"orderId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

type OrderStatusUpdate struct {
	OrderStatus OrderStatus `json:"orderStatus"`
}

func (u OrderStatusUpdate) Validate() error {
	if !u.OrderStatus.IsValid() {
		return &ValidationError{Fields: FieldErrors{"orderStatus": "Unknown order status"}}
	}
	return nil
}
