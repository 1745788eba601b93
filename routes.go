package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mocca-storefront/handlers"
	"mocca-storefront/middleware"
)

type routerDeps struct {
	logger   *zap.Logger
	auth     *handlers.AuthHandler
	catalog  *handlers.CatalogHandler
	cart     *handlers.CartHandler
	account  *handlers.AccountHandler
	checkout *handlers.CheckoutHandler
	admin    *handlers.AdminHandler
	health   *handlers.HealthHandler
}

func newRouter(d routerDeps) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", d.health.Check).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", d.health.Check).Methods(http.MethodGet)

	adminRoutes(api.PathPrefix("/admin").Subrouter(), d)

	guest := middleware.RequireGuest()
	api.Handle("/auth/register", guest(http.HandlerFunc(d.auth.Register))).Methods(http.MethodPost)
	api.Handle("/auth/login", guest(http.HandlerFunc(d.auth.Login))).Methods(http.MethodPost)
	api.HandleFunc("/auth/send-otp", d.auth.SendOTP).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-otp", d.auth.VerifyOTP).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", d.auth.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", d.auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/me", d.auth.Me).Methods(http.MethodGet)

	// Catalog
	api.HandleFunc("/products", d.catalog.Products).Methods(http.MethodGet)
	api.HandleFunc("/products/offers", d.catalog.Offers).Methods(http.MethodGet)
	api.HandleFunc("/products/top-selling", d.catalog.TopSelling).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", d.catalog.Product).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}/reviews", d.catalog.Reviews).Methods(http.MethodGet)
	api.HandleFunc("/categories", d.catalog.Categories).Methods(http.MethodGet)
	api.HandleFunc("/search-suggestions", d.catalog.SearchSuggestions).Methods(http.MethodGet)

	shopper := api.NewRoute().Subrouter()
	shopper.Use(middleware.RequireAuth(d.logger))

	shopper.HandleFunc("/products/{id}/reviews", d.catalog.AddReview).Methods(http.MethodPost)

	// Account
	shopper.HandleFunc("/profile", d.account.Profile).Methods(http.MethodGet)
	shopper.HandleFunc("/profile", d.account.UpdateProfile).Methods(http.MethodPut)
	shopper.HandleFunc("/profile/password", d.account.ChangePassword).Methods(http.MethodPut)
	shopper.HandleFunc("/addresses", d.account.Addresses).Methods(http.MethodGet)
	shopper.HandleFunc("/addresses", d.account.AddAddress).Methods(http.MethodPost)
	shopper.HandleFunc("/addresses/default", d.account.DefaultAddress).Methods(http.MethodGet)
	shopper.HandleFunc("/addresses/{id}", d.account.UpdateAddress).Methods(http.MethodPut)
	shopper.HandleFunc("/addresses/{id}", d.account.DeleteAddress).Methods(http.MethodDelete)
	shopper.HandleFunc("/addresses/{id}/default", d.account.SetDefaultAddress).Methods(http.MethodPatch)
	shopper.HandleFunc("/wallet", d.account.Wallet).Methods(http.MethodGet)

	// Cart and wishlist
	shopper.HandleFunc("/cart", d.cart.GetCart).Methods(http.MethodGet)
	shopper.HandleFunc("/cart/items", d.cart.AddItem).Methods(http.MethodPost)
	shopper.HandleFunc("/cart/items", d.cart.SetQuantity).Methods(http.MethodPut)
	shopper.HandleFunc("/cart/items", d.cart.RemoveItem).Methods(http.MethodDelete)
	shopper.HandleFunc("/cart/items/{productId}/{size}/{direction}", d.cart.StepItem).Methods(http.MethodPatch)
	shopper.HandleFunc("/wishlist", d.cart.Wishlist).Methods(http.MethodGet)
	shopper.HandleFunc("/wishlist/{productId}", d.cart.AddToWishlist).Methods(http.MethodPost)
	shopper.HandleFunc("/wishlist/{productId}", d.cart.RemoveFromWishlist).Methods(http.MethodDelete)

	// Checkout and orders
	shopper.HandleFunc("/checkout/summary", d.checkout.Summary).Methods(http.MethodPost)
	shopper.HandleFunc("/checkout/coupon", d.checkout.ApplyCoupon).Methods(http.MethodPost)
	shopper.HandleFunc("/checkout/orders", d.checkout.PlaceOrder).Methods(http.MethodPost)
	shopper.HandleFunc("/checkout/razorpay/verify", d.checkout.VerifyPayment).Methods(http.MethodPost)
	shopper.HandleFunc("/checkout/razorpay/failure", d.checkout.PaymentFailure).Methods(http.MethodPost)
	shopper.HandleFunc("/orders", d.checkout.Orders).Methods(http.MethodGet)
	shopper.HandleFunc("/orders/{orderId}", d.checkout.Order).Methods(http.MethodGet)
	shopper.HandleFunc("/orders/{orderId}/invoice", d.checkout.Invoice).Methods(http.MethodGet)
	shopper.HandleFunc("/orders/{orderId}/retry-payment", d.checkout.RetryPayment).Methods(http.MethodPost)
	shopper.HandleFunc("/orders/{orderId}/items/{productId}/cancel", d.checkout.CancelItem).Methods(http.MethodPut)
	shopper.HandleFunc("/orders/{orderId}/items/{productId}/return", d.checkout.ReturnItem).Methods(http.MethodPut)

	return router
}

func adminRoutes(r *mux.Router, d routerDeps) {
	h := d.admin
	r.Handle("/login", middleware.RequireAdminGuest()(http.HandlerFunc(h.Login))).Methods(http.MethodPost)

	p := r.NewRoute().Subrouter()
	p.Use(middleware.RequireAdmin(d.logger))

	p.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	p.HandleFunc("/products", h.Products).Methods(http.MethodGet)
	p.HandleFunc("/products", h.AddProduct).Methods(http.MethodPost)
	p.HandleFunc("/products/categories", h.ProductCategories).Methods(http.MethodGet)
	p.HandleFunc("/products/{id}", h.Product).Methods(http.MethodGet)
	p.HandleFunc("/products/{id}", h.UpdateProduct).Methods(http.MethodPut)
	p.HandleFunc("/products/{id}/toggle", h.ToggleProduct).Methods(http.MethodPatch)
	p.HandleFunc("/products/{id}/offer", h.ToggleOffer).Methods(http.MethodPatch)

	p.HandleFunc("/categories", h.Categories).Methods(http.MethodGet)
	p.HandleFunc("/categories", h.AddCategory).Methods(http.MethodPost)
	p.HandleFunc("/categories/{id}", h.UpdateCategory).Methods(http.MethodPut)
	p.HandleFunc("/categories/{id}", h.DeleteCategory).Methods(http.MethodDelete)

	p.HandleFunc("/coupons", h.Coupons).Methods(http.MethodGet)
	p.HandleFunc("/coupons", h.AddCoupon).Methods(http.MethodPost)
	p.HandleFunc("/coupons/{id}/toggle", h.ToggleCoupon).Methods(http.MethodPatch)
	p.HandleFunc("/coupons/{id}", h.DeleteCoupon).Methods(http.MethodDelete)

	p.HandleFunc("/orders", h.Orders).Methods(http.MethodGet)
	p.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods(http.MethodPut)

	p.HandleFunc("/customers", h.Customers).Methods(http.MethodGet)
	p.HandleFunc("/customers/{id}/toggle", h.ToggleCustomer).Methods(http.MethodPatch)
	p.HandleFunc("/customers/{id}", h.DeleteCustomer).Methods(http.MethodDelete)

	p.HandleFunc("/sales-report", h.SalesReport).Methods(http.MethodGet)
	p.HandleFunc("/sales-report/download/{format}", h.DownloadSalesReport).Methods(http.MethodGet)
	p.HandleFunc("/top-selling", h.TopSelling).Methods(http.MethodGet)

	p.HandleFunc("/uploads", h.Upload).Methods(http.MethodPost)
	p.HandleFunc("/payment-attempts", h.PaymentAttempts).Methods(http.MethodGet)
	p.HandleFunc("/notifications/failed", h.FailedNotifications).Methods(http.MethodGet)
	p.HandleFunc("/notifications/{jobId}/retry", h.RetryNotification).Methods(http.MethodPost)
}
