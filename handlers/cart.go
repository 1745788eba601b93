package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mocca-storefront/models"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/cart"
	"mocca-storefront/services/pricing"
	"mocca-storefront/utils"
)

type CartHandler struct {
	base
}

func NewCartHandler(client *backend.Client, sessions *auth.Manager, logger *zap.Logger) *CartHandler {
	return &CartHandler{base{client: client, sessions: sessions, logger: logger}}
}

type cartView struct {
	Items    []models.CartLine `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Count    int               `json:"count"`
}

func newCartView(details *models.CartDetails) cartView {
	view := cartView{Items: details.Items, Subtotal: pricing.Subtotal(details.Items)}
	if view.Items == nil {
		view.Items = []models.CartLine{}
	}
	for _, l := range details.Items {
		view.Count += l.Quantity
	}
	return view
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	details, err := h.shopper(w, r).Cart(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", newCartView(details))
}

// AddItem checks the size and stock against the current product before
// handing the line to the backend.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.UserID = user(r).ID
	if req.Quantity == 0 {
		req.Quantity = cart.MinQuantity
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	api := h.shopper(w, r)
	product, err := api.Product(r.Context(), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := cart.ValidateAdd(req, product); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := api.AddToCart(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, relay(resp, "Added to cart"), nil)
}

// SetQuantity replaces the quantity of a line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req models.CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.UserID = user(r).ID
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := cart.ValidateQuantity(req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.shopper(w, r).EditQuantity(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Quantity updated", nil)
}

// StepItem moves a line's quantity one step up or down.
func (h *CartHandler) StepItem(w http.ResponseWriter, r *http.Request) {
	var delta int
	switch vars(r, "direction") {
	case "increment":
		delta = 1
	case "decrement":
		delta = -1
	default:
		h.fail(w, r, &models.ValidationError{Fields: models.FieldErrors{"direction": "Direction must be increment or decrement"}})
		return
	}

	u := user(r)
	api := h.shopper(w, r)
	details, err := api.Cart(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	line, found := cart.FindLine(*details, vars(r, "productId"), vars(r, "size"))
	if !found {
		utils.SendErrorResponse(w, http.StatusNotFound, "This item is not in your cart")
		return
	}
	next, err := cart.Step(line.Quantity, delta)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if delta > 0 {
		if stock, known := line.Product.SizeStock(line.Size); known && stock < next {
			h.fail(w, r, &cart.InsufficientStockError{Size: line.Size, Available: stock})
			return
		}
	}

	req := models.CartItemRequest{UserID: u.ID, ProductID: line.Product.ID, Size: line.Size, Quantity: next}
	if err := api.EditQuantity(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Quantity updated", map[string]int{"quantity": next})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.UserID = user(r).ID
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.shopper(w, r).RemoveItem(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Item removed", nil)
}

func (h *CartHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.shopper(w, r).Wishlist(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	ok(w, "", products)
}

func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	resp, err := h.shopper(w, r).AddToWishlist(r.Context(), user(r).ID, vars(r, "productId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, relay(resp, "Added to wishlist"), nil)
}

func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.shopper(w, r).RemoveFromWishlist(r.Context(), user(r).ID, vars(r, "productId")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Removed from wishlist", nil)
}
