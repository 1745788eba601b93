package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"mocca-storefront/models"
	"mocca-storefront/types"
)

// Shopper is the storefront side of the backend, mounted under /user.
type Shopper struct {
	c      *Client
	tokens TokenSource
}

func (s *Shopper) call(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	return s.c.call(ctx, shopperAudience, s.tokens, method, path, query, in, out)
}

// Suggestion is a search-as-you-type hit.
type Suggestion struct {
	ID          string        `json:"_id"`
	ProductName string        `json:"productName"`
	MainImage   models.Images `json:"mainImage"`
}

// Auth

func (s *Shopper) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := s.call(ctx, http.MethodPost, "/userlogin", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) Register(ctx context.Context, req models.RegisterRequest) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.call(ctx, http.MethodPost, "/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) SendOTP(ctx context.Context, email string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.call(ctx, http.MethodPost, "/send-otp", nil, models.OTPRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) VerifyOTP(ctx context.Context, email, otp string) (*models.OTPResponse, error) {
	var out models.OTPResponse
	if err := s.call(ctx, http.MethodPost, "/verify-otp", nil, models.OTPRequest{Email: email, OTP: otp}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) ResetPassword(ctx context.Context, req models.ForgotPasswordRequest) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.call(ctx, http.MethodPost, "/change-newpassword", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile

func (s *Shopper) UserDetails(ctx context.Context, userID string) (*models.User, error) {
	// user-details keys the record by _id, userlogin by id.
	var out struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Image   string `json:"image"`
		Status  bool   `json:"status"`
	}
	if err := s.call(ctx, http.MethodGet, pathEscape("user-details", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	u := models.User{ID: out.ID, Name: out.Name, Email: out.Email, Phone: out.Phone, Image: out.Image, Status: out.Status}
	if u.ID == "" {
		u.ID = out.MongoID
	}
	if u.ID == "" {
		u.ID = userID
	}
	return &u, nil
}

func (s *Shopper) UpdateProfile(ctx context.Context, userID string, req models.ProfileUpdate) error {
	return s.call(ctx, http.MethodPut, pathEscape("update-profile", userID), nil, req, nil)
}

func (s *Shopper) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return s.call(ctx, http.MethodPut, pathEscape("change-password", userID), nil, req, nil)
}

// Catalog

func (s *Shopper) Products(ctx context.Context, query url.Values) (*models.ProductPage, error) {
	var out models.ProductPage
	if err := s.call(ctx, http.MethodGet, "/get-allproducts", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) Product(ctx context.Context, productID string) (*models.Product, error) {
	var out models.Product
	if err := s.call(ctx, http.MethodGet, pathEscape("product-info", productID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) Categories(ctx context.Context) (models.CategoryList, error) {
	var out models.CategoryList
	if err := s.call(ctx, http.MethodGet, "/get-category-user", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Shopper) SearchSuggestions(ctx context.Context, q string) ([]Suggestion, error) {
	var out []Suggestion
	if err := s.call(ctx, http.MethodGet, "/search-suggestions", url.Values{"q": {q}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Shopper) OfferProducts(ctx context.Context) ([]models.Product, error) {
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := s.call(ctx, http.MethodGet, "/offer-products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (s *Shopper) TopSelling(ctx context.Context) (*models.TopSelling, error) {
	var out models.TopSelling
	if err := s.call(ctx, http.MethodGet, "/top-selling", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) Reviews(ctx context.Context, productID string) ([]models.Review, error) {
	var out []models.Review
	if err := s.call(ctx, http.MethodGet, pathEscape("product-info", productID, "reviews"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Shopper) AddReview(ctx context.Context, productID string, review models.Review) error {
	return s.call(ctx, http.MethodPost, pathEscape("product-info", productID, "review"), nil, review, nil)
}

// Cart

func (s *Shopper) Cart(ctx context.Context, userID string) (*models.CartDetails, error) {
	var out models.CartDetails
	if err := s.call(ctx, http.MethodGet, pathEscape("get-cartdetails", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) AddToCart(ctx context.Context, req models.CartItemRequest) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.call(ctx, http.MethodPost, "/add-to-cart", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) EditQuantity(ctx context.Context, req models.CartItemRequest) error {
	return s.call(ctx, http.MethodPut, "/edit-quantity", nil, req, nil)
}

func (s *Shopper) RemoveItem(ctx context.Context, req models.CartItemRequest) error {
	req.Quantity = 0
	return s.call(ctx, http.MethodDelete, "/remove-item", nil, req, nil)
}

// Wishlist

func (s *Shopper) Wishlist(ctx context.Context, userID string) ([]models.Product, error) {
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := s.call(ctx, http.MethodGet, pathEscape("get-wishlist", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (s *Shopper) AddToWishlist(ctx context.Context, userID, productID string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.call(ctx, http.MethodPost, pathEscape("add-wishlist", userID, productID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	return s.call(ctx, http.MethodDelete, pathEscape("remove-from-wishlist", userID, productID), nil, nil, nil)
}

// Addresses

func (s *Shopper) Addresses(ctx context.Context, userID string) (models.AddressList, error) {
	var out models.AddressList
	if err := s.call(ctx, http.MethodGet, pathEscape("get-addresses", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DefaultAddress returns nil without error when the shopper has none.
func (s *Shopper) DefaultAddress(ctx context.Context, userID string) (*models.Address, error) {
	var out *models.Address
	err := s.call(ctx, http.MethodGet, pathEscape("default-address", userID), nil, nil, &out)
	if StatusOf(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Name == "" {
		return nil, nil
	}
	return out, nil
}

func (s *Shopper) AddAddress(ctx context.Context, addr models.Address) error {
	return s.call(ctx, http.MethodPost, "/add-address", nil, addr, nil)
}

func (s *Shopper) UpdateAddress(ctx context.Context, addressID string, addr models.Address) error {
	return s.call(ctx, http.MethodPut, pathEscape("edit-address", addressID), nil, addr, nil)
}

func (s *Shopper) DeleteAddress(ctx context.Context, addressID string) error {
	return s.call(ctx, http.MethodDelete, pathEscape("delete-address", addressID), nil, nil, nil)
}

func (s *Shopper) SetDefaultAddress(ctx context.Context, addressID, userID string) error {
	body := map[string]string{"userId": userID}
	return s.call(ctx, http.MethodPatch, pathEscape("set-default-address", addressID), nil, body, nil)
}

// Wallet

func (s *Shopper) Wallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var out models.Wallet
	if err := s.call(ctx, http.MethodGet, pathEscape("wallet", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WalletPayment debits the wallet. A refusal from the backend, whether as a
// 4xx or as success=false, comes back as a result with Success unset.
func (s *Shopper) WalletPayment(ctx context.Context, req models.WalletPayment) (*models.WalletPaymentResult, error) {
	var out models.WalletPaymentResult
	err := s.call(ctx, http.MethodPost, "/wallet-payment", nil, req, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusUnauthorized {
		return &models.WalletPaymentResult{Success: false, Message: apiErr.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Coupons and orders

func (s *Shopper) Coupons(ctx context.Context) (models.CouponList, error) {
	var out models.CouponList
	if err := s.call(ctx, http.MethodGet, "/coupon-details", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Shopper) PlaceOrder(ctx context.Context, draft models.OrderDraft) (*models.PlaceOrderResult, error) {
	var out models.PlaceOrderResult
	if err := s.call(ctx, http.MethodPost, "/place-order", nil, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) Orders(ctx context.Context, userID string) (models.OrderList, error) {
	var out models.OrderList
	if err := s.call(ctx, http.MethodGet, pathEscape("order-details", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Shopper) Order(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var out models.Order
	if err := s.call(ctx, http.MethodGet, pathEscape("order-details-view", userID, orderID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) CancelOrderItem(ctx context.Context, userID, orderID, productID string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	body := models.ItemAction{ProductID: productID}
	if err := s.call(ctx, http.MethodPut, pathEscape("cancel-order", userID, orderID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Shopper) ReturnOrderItem(ctx context.Context, userID, orderID, productID, reason string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	body := models.ItemAction{ProductID: productID, Reason: reason}
	if err := s.call(ctx, http.MethodPut, pathEscape("return-order", userID, orderID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePaymentStatus changes the payment status of an existing order in place.
func (s *Shopper) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus) error {
	body := models.PaymentStatusUpdate{OrderID: orderID, PaymentStatus: status}
	return s.call(ctx, http.MethodPost, "/update-order-status", nil, body, nil)
}

// Payment gateway

func (s *Shopper) CreateRazorpayOrder(ctx context.Context, req types.CreateGatewayOrderRequest) (*types.GatewayOrder, error) {
	var out types.CreateGatewayOrderResponse
	if err := s.call(ctx, http.MethodPost, "/create-razorpay-order", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Order.ID == "" {
		return nil, ErrMalformedResponse
	}
	return &out.Order, nil
}

func (s *Shopper) VerifyRazorpayPayment(ctx context.Context, cb types.GatewayCallback) (*types.VerifyPaymentResponse, error) {
	var out types.VerifyPaymentResponse
	if err := s.call(ctx, http.MethodPost, "/verify-razorpay-payment", nil, cb, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
