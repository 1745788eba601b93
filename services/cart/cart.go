package cart

import (
	"errors"
	"fmt"

	"mocca-storefront/models"
)

const (
	MinQuantity = 1
	MaxQuantity = 5
)

var (
	ErrQuantityOutOfRange = errors.New("quantity must be between 1 and 5")
	ErrSizeRequired       = errors.New("size not selected")
	ErrLoginRequired      = errors.New("login required to add to cart")
	ErrUnknownSize        = errors.New("size not offered for product")
)

// InsufficientStockError is returned when a size has fewer units than requested.
type InsufficientStockError struct {
	Size      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d left in size %s", e.Available, e.Size)
}

// Message returns the text shown to the shopper for a cart rejection.
func Message(err error) string {
	var stock *InsufficientStockError
	switch {
	case errors.Is(err, ErrQuantityOutOfRange):
		return "Quantity must be between 1 and 5"
	case errors.Is(err, ErrSizeRequired):
		return "Please select a size"
	case errors.Is(err, ErrLoginRequired):
		return "Please log in to add items to your cart"
	case errors.Is(err, ErrUnknownSize):
		return "Selected size is not available"
	case errors.As(err, &stock):
		return fmt.Sprintf("Only %d left in size %s", stock.Available, stock.Size)
	}
	return ""
}

func ValidateQuantity(q int) error {
	if q < MinQuantity || q > MaxQuantity {
		return ErrQuantityOutOfRange
	}
	return nil
}

// Step applies an increment (+1) or decrement (-1) and refuses to leave the
// allowed range.
func Step(current, delta int) (int, error) {
	next := current + delta
	if err := ValidateQuantity(next); err != nil {
		return current, err
	}
	return next, nil
}

// ValidateAdd checks an add-to-cart request. product may be nil when the
// caller has not loaded it; the stock check is skipped then.
func ValidateAdd(req models.CartItemRequest, product *models.Product) error {
	if req.UserID == "" {
		return ErrLoginRequired
	}
	if req.Size == "" {
		return ErrSizeRequired
	}
	if err := ValidateQuantity(req.Quantity); err != nil {
		return err
	}
	if product == nil {
		return nil
	}
	stock, ok := product.SizeStock(req.Size)
	if !ok {
		return ErrUnknownSize
	}
	if stock < req.Quantity {
		return &InsufficientStockError{Size: req.Size, Available: stock}
	}
	return nil
}

// FindLine returns the cart line for product and size.
func FindLine(details models.CartDetails, productID, size string) (models.CartLine, bool) {
	for _, l := range details.Items {
		if l.Product.ID == productID && l.Size == size {
			return l, true
		}
	}
	return models.CartLine{}, false
}
