package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"mocca-storefront/models"
)

// Admin is the back-office side of the backend, mounted under /admin.
type Admin struct {
	c      *Client
	tokens TokenSource
}

func (a *Admin) call(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	return a.c.call(ctx, adminAudience, a.tokens, method, path, query, in, out)
}

type AdminProductPage struct {
	Products    []models.Product `json:"products"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

func (p AdminProductPage) Validate() error {
	for _, prod := range p.Products {
		if prod.ID == "" {
			return errors.New("product without _id")
		}
	}
	return nil
}

type CustomerPage struct {
	Users      models.CustomerList `json:"users"`
	TotalCount int                 `json:"totalCount"`
}

func pageQuery(page, limit int) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

func (a *Admin) Login(ctx context.Context, req models.LoginRequest) (*models.AdminLoginResponse, error) {
	var out models.AdminLoginResponse
	if err := a.call(ctx, http.MethodPost, "/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Products

func (a *Admin) Products(ctx context.Context, page, limit int) (*AdminProductPage, error) {
	var out AdminProductPage
	if err := a.call(ctx, http.MethodGet, "/get-products", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) Product(ctx context.Context, productID string) (*models.Product, error) {
	var out models.Product
	if err := a.call(ctx, http.MethodGet, pathEscape("edit-product-details", productID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) AddProduct(ctx context.Context, in models.ProductInput) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := a.call(ctx, http.MethodPost, "/add-product", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) UpdateProduct(ctx context.Context, productID string, in models.ProductInput) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := a.call(ctx, http.MethodPut, pathEscape("update-product", productID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) ToggleProduct(ctx context.Context, productID string) error {
	return a.call(ctx, http.MethodPut, pathEscape("toggle-product", productID), nil, map[string]string{"_id": productID}, nil)
}

func (a *Admin) ToggleOffer(ctx context.Context, productID string) error {
	return a.call(ctx, http.MethodPut, pathEscape("toggle-offer", productID), nil, map[string]string{"_id": productID}, nil)
}

// Categories

// ProductCategories is the short list used by the product form.
func (a *Admin) ProductCategories(ctx context.Context) (models.CategoryList, error) {
	var out models.CategoryList
	if err := a.call(ctx, http.MethodGet, "/list-category", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Admin) Categories(ctx context.Context) (models.CategoryList, error) {
	var out models.CategoryList
	if err := a.call(ctx, http.MethodGet, "/get-category", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Admin) AddCategory(ctx context.Context, c models.Category) error {
	return a.call(ctx, http.MethodPost, "/add-category", nil, c, nil)
}

func (a *Admin) UpdateCategory(ctx context.Context, categoryID string, c models.Category) error {
	c.ID = categoryID
	return a.call(ctx, http.MethodPatch, pathEscape("update-categories", categoryID), nil, c, nil)
}

func (a *Admin) DeleteCategory(ctx context.Context, categoryID string) error {
	return a.call(ctx, http.MethodDelete, pathEscape("delete-categories", categoryID), nil, nil, nil)
}

// Coupons

func (a *Admin) Coupons(ctx context.Context) (models.CouponList, error) {
	var out models.CouponList
	if err := a.call(ctx, http.MethodGet, "/get-coupons", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Admin) AddCoupon(ctx context.Context, c models.Coupon) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := a.call(ctx, http.MethodPost, "/add-coupon", nil, c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) ToggleCoupon(ctx context.Context, couponID string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := a.call(ctx, http.MethodPatch, pathEscape("coupon-status", couponID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) DeleteCoupon(ctx context.Context, couponID string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := a.call(ctx, http.MethodDelete, pathEscape("delete-coupon", couponID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders

func (a *Admin) Orders(ctx context.Context, page, limit int) (*models.OrderPage, error) {
	var out models.OrderPage
	if err := a.call(ctx, http.MethodGet, "/get-allorders", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	body := models.OrderStatusUpdate{OrderStatus: status}
	return a.call(ctx, http.MethodPut, pathEscape("update-order-status", orderID), nil, body, nil)
}

// Customers

func (a *Admin) Customers(ctx context.Context, page int) (*CustomerPage, error) {
	var out CustomerPage
	if err := a.call(ctx, http.MethodGet, "/userlist", pageQuery(page, 0), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) DeleteCustomer(ctx context.Context, customerID string) error {
	return a.call(ctx, http.MethodDelete, pathEscape("deleteUser", customerID), nil, nil, nil)
}

// ToggleCustomer blocks or unblocks a customer. The backend mounts this one
// under a second /admin segment.
func (a *Admin) ToggleCustomer(ctx context.Context, customerID string) error {
	return a.call(ctx, http.MethodPatch, pathEscape("admin", "toggleStatus", customerID), nil, nil, nil)
}

// Reports

func reportQuery(q models.SalesReportQuery) url.Values {
	v := url.Values{"filter": {string(q.Filter)}}
	if q.StartDate != "" {
		v.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("endDate", q.EndDate)
	}
	return v
}

func (a *Admin) SalesReport(ctx context.Context, q models.SalesReportQuery) (*models.SalesReport, error) {
	var out models.SalesReport
	if err := a.call(ctx, http.MethodGet, "/sales-report", reportQuery(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadSalesReport fetches the exported report; format is "pdf" or "excel".
func (a *Admin) DownloadSalesReport(ctx context.Context, q models.SalesReportQuery, format string) (*Download, error) {
	return a.c.download(ctx, adminAudience, a.tokens, "/sales-report/download-"+format, reportQuery(q))
}

func (a *Admin) TopSelling(ctx context.Context) (*models.TopSelling, error) {
	var out models.TopSelling
	if err := a.call(ctx, http.MethodGet, "/top-selling", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
