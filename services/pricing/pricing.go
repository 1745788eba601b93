// Package pricing resolves unit prices, applies coupons and computes checkout
// totals. Every function is pure.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mocca-storefront/models"
	"mocca-storefront/utils"
)

var (
	ErrEmptyCode       = errors.New("promo code is empty")
	ErrCouponNotFound  = errors.New("promo code not found")
	ErrCouponNotActive = errors.New("promo code outside its validity window")
)

// BelowMinimumError rejects a coupon whose minimum purchase is not met.
type BelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("subtotal below coupon minimum of %s", e.Minimum.String())
}

// Message returns the text shown to the shopper for a coupon rejection, or
// an empty string when err is not one.
func Message(err error) string {
	var below *BelowMinimumError
	switch {
	case errors.Is(err, ErrEmptyCode):
		return "Please enter a promo code."
	case errors.Is(err, ErrCouponNotFound):
		return "Invalid promo code."
	case errors.Is(err, ErrCouponNotActive):
		return "Promo code is not valid today."
	case errors.As(err, &below):
		return fmt.Sprintf("Minimum purchase amount is ₹%s.", below.Minimum.String())
	}
	return ""
}

// IsCouponError reports whether err is one of the coupon rejections.
func IsCouponError(err error) bool {
	return Message(err) != ""
}

// Fees are the flat charges added on top of the subtotal.
type Fees struct {
	DeliveryFee decimal.Decimal
	GST         decimal.Decimal
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	GST         decimal.Decimal `json:"gst"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	PromoCode   string          `json:"promoCode,omitempty"`
}

// UnitPrice picks the line snapshot price first, then an active offer price,
// then the sale price. A zero snapshot counts as absent.
func UnitPrice(line models.CartLine) decimal.Decimal {
	if line.DiscountedPrice.Valid && line.DiscountedPrice.Decimal.IsPositive() {
		return line.DiscountedPrice.Decimal
	}
	p := line.Product
	if p.OfferStatus && p.OfferPrice.IsPositive() {
		return p.OfferPrice
	}
	return p.SalePrice
}

// BuyNowLine lifts a single product into a cart line so both checkout entry
// points share UnitPrice.
func BuyNowLine(product models.Product, size string, quantity int) models.CartLine {
	return models.CartLine{
		Product:  product,
		Size:     size,
		Quantity: quantity,
	}
}

func Subtotal(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(UnitPrice(l).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// FindCoupon matches the code exactly.
func FindCoupon(coupons []models.Coupon, code string) (models.Coupon, bool) {
	for _, c := range coupons {
		if c.Code == code {
			return c, true
		}
	}
	return models.Coupon{}, false
}

// ApplyCoupon validates code against coupons at now and returns the discount
// for subtotal. The checks run in a fixed order and the first failure wins.
// A coupon disabled by an admin is treated as unknown.
func ApplyCoupon(subtotal decimal.Decimal, code string, coupons []models.Coupon, now time.Time) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, ErrEmptyCode
	}
	coupon, ok := FindCoupon(coupons, code)
	if !ok || !coupon.Status {
		return decimal.Zero, ErrCouponNotFound
	}
	if !utils.WithinWindow(now, coupon.ValidFrom.Time, coupon.ValidTo.Time) {
		return decimal.Zero, ErrCouponNotActive
	}
	if subtotal.LessThan(coupon.MinPurchaseAmount) {
		return decimal.Zero, &BelowMinimumError{Minimum: coupon.MinPurchaseAmount}
	}
	return decimal.Min(utils.Percent(subtotal, coupon.Discount), coupon.MaxDiscountAmount), nil
}

// Quote computes the totals for lines with an already-validated discount.
func Quote(lines []models.CartLine, fees Fees, discount decimal.Decimal, promoCode string) Totals {
	subtotal := Subtotal(lines)
	total := subtotal.Add(fees.DeliveryFee).Add(fees.GST).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fees.DeliveryFee,
		GST:         fees.GST,
		Discount:    discount,
		Total:       total,
		PromoCode:   promoCode,
	}
}

// GatewayAmount is the whole-rupee amount sent to the payment gateway.
func GatewayAmount(total decimal.Decimal) int64 {
	return utils.WholeRupees(total)
}

// DraftItems snapshots the resolved unit price of every line.
func DraftItems(lines []models.CartLine) []models.DraftItem {
	items := make([]models.DraftItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.DraftItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.ProductName,
			MainImage:   l.Product.Thumbnail(),
			Size:        l.Size,
			Quantity:    l.Quantity,
			Price:       UnitPrice(l),
		})
	}
	return items
}
