package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Offer       decimal.Decimal `json:"offer"`
	Visibility  bool            `json:"visibility"`
	Status      bool            `json:"status"`
}

func (c Category) Validate() error {
	f := FieldErrors{}
	f.Require("category", c.Name, "Category name is required.")
	if c.Offer.IsNegative() || c.Offer.GreaterThan(decimal.NewFromInt(100)) {
		f["offer"] = "Offer must be between 0 and 100"
	}
	return f.Err()
}

type CategoryList []Category

// CategoryRef decodes either a populated category or a bare category id.
type CategoryRef struct {
	Category
}

func (c *CategoryRef) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		return json.Unmarshal(b, &c.ID)
	}
	return json.Unmarshal(b, &c.Category)
}

// Images decodes either a single image URL or a list of them.
type Images []string

func (im *Images) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*im = Images{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*im = many
	return nil
}

type Size struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type Product struct {
	ID            string          `json:"_id"`
	ProductName   string          `json:"productName"`
	Description   string          `json:"description,omitempty"`
	BrandName     string          `json:"brandName,omitempty"`
	Category      *CategoryRef    `json:"category,omitempty"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	OfferPrice    decimal.Decimal `json:"offerPrice"`
	OfferStatus   bool            `json:"offerStatus"`
	Sizes         []Size          `json:"size"`
	StockQuantity int             `json:"stockQuantity"`
	MainImage     Images          `json:"mainImage"`
	IsListed      bool            `json:"isListed"`
	AverageRating float64         `json:"averageRating,omitempty"`
}

// Validate is applied to backend responses.
func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New("product without _id")
	}
	if p.ProductName == "" {
		return errors.New("product without productName")
	}
	if !p.SalePrice.IsPositive() {
		return errors.New("product salePrice must be positive")
	}
	return nil
}

// Thumbnail returns the first image or an empty string.
func (p Product) Thumbnail() string {
	if len(p.MainImage) == 0 {
		return ""
	}
	return p.MainImage[0]
}

// SizeStock reports the stock of the named size and whether the size exists.
func (p Product) SizeStock(name string) (int, bool) {
	for _, s := range p.Sizes {
		if s.Name == name {
			return s.Stock, true
		}
	}
	return 0, false
}

// ProductInput is the admin create/update form.
type ProductInput struct {
	ProductName string          `json:"productName"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	BrandName   string          `json:"brandName"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	OfferPrice  decimal.Decimal `json:"offerPrice"`
	Sizes       []Size          `json:"size"`
	MainImage   []string        `json:"mainImage"`
}

func (p ProductInput) Validate() error {
	f := FieldErrors{}
	f.Require("productName", p.ProductName, "Product name is required")
	f.Require("description", p.Description, "Description is required")
	f.Require("category", p.Category, "Category is required")
	f.Require("brandName", p.BrandName, "Brand name is required")
	if !p.SalePrice.IsPositive() {
		f["salePrice"] = "Sale price must be greater than 0"
	}
	if !p.OfferPrice.IsPositive() {
		f["offerPrice"] = "Offer price must be greater than 0"
	} else if p.OfferPrice.GreaterThan(p.SalePrice) {
		f["offerPrice"] = "Offer price must be less than sale price"
	}
	if len(p.Sizes) == 0 {
		f["size"] = "At least one size is required"
	}
	for _, s := range p.Sizes {
		if s.Name == "" || s.Stock < 0 {
			f["size"] = "Each size needs a name and a non-negative stock"
			break
		}
	}
	if len(p.MainImage) == 0 {
		f["mainImage"] = "Main image is required"
	}
	return f.Err()
}

type ProductPage struct {
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func (p ProductPage) Validate() error {
	for _, prod := range p.Data {
		if err := prod.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type Review struct {
	ID        string `json:"_id,omitempty"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt *Date  `json:"createdAt,omitempty"`
}

func (r Review) Validate() error {
	f := FieldErrors{}
	if r.Rating < 1 || r.Rating > 5 {
		f["rating"] = "Please select a rating between 1 and 5."
	}
	f.Require("comment", r.Comment, "Please write a review.")
	return f.Err()
}
