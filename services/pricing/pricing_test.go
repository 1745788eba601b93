package pricing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mocca-storefront/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func coupon(code, pct, min, max string) models.Coupon {
	return models.Coupon{
		Code:              code,
		Discount:          dec(pct),
		MinPurchaseAmount: dec(min),
		MaxDiscountAmount: dec(max),
		ValidFrom:         models.NewDate(now.AddDate(0, 0, -10)),
		ValidTo:           models.NewDate(now.AddDate(0, 0, 10)),
		Status:            true,
	}
}

func TestApplyCouponCapsAtMaxDiscount(t *testing.T) {
	coupons := []models.Coupon{coupon("SAVE10", "10", "500", "100")}

	discount, err := ApplyCoupon(dec("2000"), "SAVE10", coupons, now)

	require.NoError(t, err)
	assert.True(t, discount.Equal(dec("100")), "got %s", discount)
}

func TestApplyCouponBelowMinimum(t *testing.T) {
	coupons := []models.Coupon{coupon("BIG", "10", "3000", "500")}

	discount, err := ApplyCoupon(dec("2000"), "BIG", coupons, now)

	var below *BelowMinimumError
	require.True(t, errors.As(err, &below))
	assert.True(t, below.Minimum.Equal(dec("3000")))
	assert.Equal(t, "Minimum purchase amount is ₹3000.", Message(err))
	assert.True(t, discount.IsZero())
}

func TestApplyCouponExpired(t *testing.T) {
	c := coupon("OLD", "50", "1", "100000")
	c.ValidTo = models.NewDate(now.Add(-time.Hour))

	discount, err := ApplyCoupon(dec("100000"), "OLD", []models.Coupon{c}, now)

	assert.ErrorIs(t, err, ErrCouponNotActive)
	assert.True(t, discount.IsZero())
}

func TestApplyCouponNotYetValid(t *testing.T) {
	c := coupon("SOON", "10", "1", "100")
	c.ValidFrom = models.NewDate(now.Add(time.Hour))

	_, err := ApplyCoupon(dec("500"), "SOON", []models.Coupon{c}, now)

	assert.ErrorIs(t, err, ErrCouponNotActive)
}

func TestApplyCouponCheckOrder(t *testing.T) {
	coupons := []models.Coupon{coupon("SAVE10", "10", "500", "100")}

	tests := []struct {
		name    string
		code    string
		want    error
		message string
	}{
		{"empty code", "", ErrEmptyCode, "Please enter a promo code."},
		{"unknown code", "NOPE", ErrCouponNotFound, "Invalid promo code."},
		{"case sensitive", "save10", ErrCouponNotFound, "Invalid promo code."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyCoupon(dec("2000"), tt.code, coupons, now)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsCouponError(err))
			assert.Equal(t, tt.message, Message(err))
		})
	}
	assert.False(t, IsCouponError(errors.New("boom")))
}

func TestApplyCouponDisabled(t *testing.T) {
	c := coupon("SAVE10", "10", "500", "150")
	c.Status = false

	discount, err := ApplyCoupon(dec("2000"), "SAVE10", []models.Coupon{c}, now)

	assert.ErrorIs(t, err, ErrCouponNotFound)
	assert.Equal(t, "Invalid promo code.", Message(err))
	assert.True(t, discount.IsZero())
}

func TestZeroDiscountedPriceUsesSalePrice(t *testing.T) {
	var line models.CartLine
	require.NoError(t, json.Unmarshal([]byte(`{
		"productId": {"_id": "p1", "productName": "Tee", "salePrice": 1000},
		"size": "M", "quantity": 2, "discountedPrice": 0
	}`), &line))

	assert.True(t, UnitPrice(line).Equal(dec("1000")), "got %s", UnitPrice(line))
	assert.True(t, Subtotal([]models.CartLine{line}).Equal(dec("2000")))
	assert.True(t, DraftItems([]models.CartLine{line})[0].Price.Equal(dec("1000")))
}

func TestApplyCouponPercentUnderCap(t *testing.T) {
	coupons := []models.Coupon{coupon("SAVE10", "10", "500", "1000")}

	discount, err := ApplyCoupon(dec("1234.50"), "SAVE10", coupons, now)

	require.NoError(t, err)
	assert.Equal(t, "123.45", discount.StringFixed(2))
}

func TestUnitPricePrecedence(t *testing.T) {
	product := models.Product{
		ID:          "p1",
		ProductName: "Linen shirt",
		SalePrice:   dec("600"),
		OfferPrice:  dec("500"),
		OfferStatus: true,
	}

	tests := []struct {
		name string
		line models.CartLine
		want string
	}{
		{
			name: "discounted price wins",
			line: models.CartLine{Product: product, Quantity: 1, DiscountedPrice: decimal.NewNullDecimal(dec("450"))},
			want: "450",
		},
		{
			name: "active offer",
			line: models.CartLine{Product: product, Quantity: 1},
			want: "500",
		},
		{
			name: "zero discounted price falls through to offer",
			line: models.CartLine{Product: product, Quantity: 1, DiscountedPrice: decimal.NewNullDecimal(decimal.Zero)},
			want: "500",
		},
		{
			name: "inactive offer falls back to sale price",
			line: func() models.CartLine {
				p := product
				p.OfferStatus = false
				return models.CartLine{Product: p, Quantity: 1}
			}(),
			want: "600",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, UnitPrice(tt.line).Equal(dec(tt.want)), "got %s", UnitPrice(tt.line))
		})
	}
}

func TestBuyNowLineUsesSameResolution(t *testing.T) {
	product := models.Product{ID: "p1", ProductName: "Tee", SalePrice: dec("799"), OfferPrice: dec("599"), OfferStatus: true}

	line := BuyNowLine(product, "M", 2)

	assert.True(t, UnitPrice(line).Equal(dec("599")))
	assert.True(t, Subtotal([]models.CartLine{line}).Equal(dec("1198")))
}

func TestQuoteTotals(t *testing.T) {
	lines := []models.CartLine{
		{Product: models.Product{ID: "a", SalePrice: dec("1000")}, Quantity: 2},
		{Product: models.Product{ID: "b", SalePrice: dec("250.50")}, Quantity: 1},
	}
	fees := Fees{DeliveryFee: dec("40"), GST: dec("12")}

	totals := Quote(lines, fees, dec("100"), "SAVE10")

	assert.Equal(t, "2250.50", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "2202.50", totals.Total.StringFixed(2))
	assert.Equal(t, "SAVE10", totals.PromoCode)
}

func TestQuoteWithoutCouponEqualsSubtotal(t *testing.T) {
	lines := []models.CartLine{{Product: models.Product{ID: "a", SalePrice: dec("899")}, Quantity: 3}}

	totals := Quote(lines, Fees{}, decimal.Zero, "")

	assert.True(t, totals.Total.Equal(totals.Subtotal))
}

func TestGatewayAmountFloors(t *testing.T) {
	assert.Equal(t, int64(2202), GatewayAmount(dec("2202.99")))
}

func TestDraftItemsSnapshotResolvedPrice(t *testing.T) {
	lines := []models.CartLine{{
		Product:         models.Product{ID: "a", ProductName: "Hoodie", SalePrice: dec("1500"), MainImage: []string{"img1", "img2"}},
		Size:            "L",
		Quantity:        2,
		DiscountedPrice: decimal.NewNullDecimal(dec("1200")),
	}}

	items := DraftItems(lines)

	require.Len(t, items, 1)
	assert.Equal(t, "img1", items[0].MainImage)
	assert.True(t, items[0].Price.Equal(dec("1200")))
}
