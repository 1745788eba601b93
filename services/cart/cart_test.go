package cart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mocca-storefront/models"
)

func TestStepBounds(t *testing.T) {
	tests := []struct {
		name    string
		current int
		delta   int
		want    int
		wantErr bool
	}{
		{"increment inside range", 2, 1, 3, false},
		{"increment blocked at max", 5, 1, 5, true},
		{"decrement inside range", 3, -1, 2, false},
		{"decrement blocked at min", 1, -1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Step(tt.current, tt.delta)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrQuantityOutOfRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAdd(t *testing.T) {
	product := &models.Product{
		ID:    "p1",
		Sizes: []models.Size{{Name: "S", Stock: 2}, {Name: "M", Stock: 10}},
	}

	assert.ErrorIs(t, ValidateAdd(models.CartItemRequest{ProductID: "p1", Size: "M", Quantity: 1}, product), ErrLoginRequired)
	assert.ErrorIs(t, ValidateAdd(models.CartItemRequest{UserID: "u", ProductID: "p1", Quantity: 1}, product), ErrSizeRequired)
	assert.ErrorIs(t, ValidateAdd(models.CartItemRequest{UserID: "u", ProductID: "p1", Size: "M", Quantity: 6}, product), ErrQuantityOutOfRange)
	assert.ErrorIs(t, ValidateAdd(models.CartItemRequest{UserID: "u", ProductID: "p1", Size: "XL", Quantity: 1}, product), ErrUnknownSize)

	err := ValidateAdd(models.CartItemRequest{UserID: "u", ProductID: "p1", Size: "S", Quantity: 3}, product)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)

	assert.NoError(t, ValidateAdd(models.CartItemRequest{UserID: "u", ProductID: "p1", Size: "M", Quantity: 5}, product))
	assert.NoError(t, ValidateAdd(models.CartItemRequest{UserID: "u", ProductID: "p1", Size: "XL", Quantity: 5}, nil))
}

func TestFindLine(t *testing.T) {
	details := models.CartDetails{Items: []models.CartLine{
		{Product: models.Product{ID: "p1"}, Size: "S", Quantity: 1},
		{Product: models.Product{ID: "p1"}, Size: "M", Quantity: 4},
	}}

	line, ok := FindLine(details, "p1", "M")
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)

	_, ok = FindLine(details, "p2", "M")
	assert.False(t, ok)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Quantity must be between 1 and 5", Message(ErrQuantityOutOfRange))
	assert.Equal(t, "Only 2 left in size S", Message(&InsufficientStockError{Size: "S", Available: 2}))
	assert.Empty(t, Message(errors.New("other")))
}
