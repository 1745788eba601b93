package models

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

func (ps PaymentStatus) IsValid() bool {
	return ps == PaymentStatusPending || ps == PaymentStatusCompleted || ps == PaymentStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodRazorPay PaymentMethod = "Razor Pay"
	PaymentMethodWallet   PaymentMethod = "Wallet"
	PaymentMethodCOD      PaymentMethod = "Cash On Delivery"
)

func (pm PaymentMethod) IsValid() bool {
	return pm == PaymentMethodRazorPay || pm == PaymentMethodWallet || pm == PaymentMethodCOD
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusReturned   OrderStatus = "Returned"
)

func (os OrderStatus) IsValid() bool {
	switch os {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// LineStatus is the per-product status inside an order.
type LineStatus string

const (
	LineStatusActive    LineStatus = ""
	LineStatusCancelled LineStatus = "Cancelled"
	LineStatusReturned  LineStatus = "Returned"
)

// Closed reports whether the line can no longer be cancelled or returned.
func (ls LineStatus) Closed() bool {
	return ls == LineStatusCancelled || ls == LineStatusReturned
}
