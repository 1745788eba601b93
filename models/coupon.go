package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID                string          `json:"_id,omitempty"`
	Name              string          `json:"name"`
	Code              string          `json:"code"`
	Discount          decimal.Decimal `json:"discount"`
	MinPurchaseAmount decimal.Decimal `json:"minPurchaseAmount"`
	MaxDiscountAmount decimal.Decimal `json:"maxDiscountAmount"`
	ValidFrom         Date            `json:"validFrom"`
	ValidTo           Date            `json:"validTo"`
	Status            bool            `json:"status"`
}

// Validate checks the admin coupon form.
func (c Coupon) Validate() error {
	f := FieldErrors{}
	f.Require("name", c.Name, "Coupon name is required")
	f.Require("code", c.Code, "Coupon code is required")
	if !c.Discount.IsPositive() || c.Discount.GreaterThan(decimal.NewFromInt(100)) {
		f["discount"] = "Discount must be between 1 and 100"
	}
	if !c.MinPurchaseAmount.IsPositive() {
		f["minPurchaseAmount"] = "Minimum purchase amount must be greater than 0"
	}
	if !c.MaxDiscountAmount.IsPositive() {
		f["maxDiscountAmount"] = "Maximum discount amount must be greater than 0"
	}
	if c.ValidFrom.IsZero() {
		f["validFrom"] = "Valid from date is required"
	}
	if c.ValidTo.IsZero() {
		f["validTo"] = "Valid to date is required"
	}
	if !c.ValidFrom.IsZero() && !c.ValidTo.IsZero() && c.ValidFrom.After(c.ValidTo.Time) {
		f["validTo"] = "Valid to date must be after valid from date"
	}
	return f.Err()
}

// CouponList is the shopper coupon listing.
type CouponList []Coupon

func (l CouponList) Validate() error {
	for _, c := range l {
		if c.Code == "" {
			return errors.New("coupon without code")
		}
	}
	return nil
}
