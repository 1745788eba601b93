package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mocca-storefront/models"
	"mocca-storefront/queue"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/media"
	"mocca-storefront/utils"
)

const adminPageSize = 10

// AttemptStore is the read side of the payment-attempt ledger.
type AttemptStore interface {
	ListAttempts(ctx context.Context, limit, offset int) ([]models.PaymentAttempt, error)
	AttemptsForOrder(ctx context.Context, orderID string) ([]models.PaymentAttempt, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// NotificationQueue exposes the notifications that exhausted their retries.
type NotificationQueue interface {
	FailedJobs(ctx context.Context) ([]queue.Job, error)
	RetryJob(ctx context.Context, jobID string) error
}

type AdminHandler struct {
	base
	attempts      AttemptStore
	uploader      ImageUploader
	notifications NotificationQueue
}

func NewAdminHandler(client *backend.Client, sessions *auth.Manager, attempts AttemptStore, uploader ImageUploader, notifications NotificationQueue, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		base:          base{client: client, sessions: sessions, logger: logger},
		attempts:      attempts,
		uploader:      uploader,
		notifications: notifications,
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.client.Admin(nil).Login(r.Context(), req)
	if err != nil {
		h.logger.Warn("admin login failed", zap.String("email", req.Email), zap.String("ip", r.RemoteAddr))
		h.fail(w, r, err)
		return
	}

	st := auth.FromContext(r.Context())
	st.AdminToken = resp.AdminToken
	st.AdminRefreshToken = resp.RefreshToken
	if err := h.sessions.Save(w, r, st); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Could not start session")
		return
	}
	h.logger.Info("admin logged in", zap.String("email", req.Email))
	ok(w, "Login successful", nil)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := auth.FromContext(r.Context())
	st.AdminToken = ""
	st.AdminRefreshToken = ""

	var err error
	if st.IsAuthenticated() {
		err = h.sessions.Save(w, r, st)
	} else {
		err = h.sessions.Destroy(w, r)
	}
	if err != nil {
		h.logger.Error("failed to clear session", zap.Error(err))
	}
	ok(w, "Logged out", nil)
}

// Products

func (h *AdminHandler) Products(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin(w, r).Products(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", adminPageSize))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", page)
}

func (h *AdminHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.admin(w, r).Product(r.Context(), vars(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", product)
}

func (h *AdminHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeAndValidate(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.admin(w, r).AddProduct(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, relay(resp, "Product added"), nil)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeAndValidate(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.admin(w, r).UpdateProduct(r.Context(), vars(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "Product updated"), nil)
}

func (h *AdminHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.admin(w, r).ToggleProduct(r.Context(), vars(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Product listing updated", nil)
}

func (h *AdminHandler) ToggleOffer(w http.ResponseWriter, r *http.Request) {
	if err := h.admin(w, r).ToggleOffer(r.Context(), vars(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Product offer updated", nil)
}

// Categories

func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin(w, r).Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", categories)
}

// ProductCategories lists the categories offered in the product form.
func (h *AdminHandler) ProductCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin(w, r).ProductCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", categories)
}

func (h *AdminHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := decodeJSON(r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.admin(w, r).AddCategory(r.Context(), c); err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, "Category added", nil)
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := decodeJSON(r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.admin(w, r).UpdateCategory(r.Context(), vars(r, "id"), c); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Category updated", nil)
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.admin(w, r).DeleteCategory(r.Context(), vars(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Category deleted", nil)
}

// Coupons

func (h *AdminHandler) Coupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.admin(w, r).Coupons(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", coupons)
}

func (h *AdminHandler) AddCoupon(w http.ResponseWriter, r *http.Request) {
	var c models.Coupon
	if err := decodeJSON(r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.admin(w, r).AddCoupon(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, relay(resp, "Coupon added"), nil)
}

func (h *AdminHandler) ToggleCoupon(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin(w, r).ToggleCoupon(r.Context(), vars(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "Coupon status updated"), nil)
}

func (h *AdminHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin(w, r).DeleteCoupon(r.Context(), vars(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "Coupon deleted"), nil)
}

// Orders

func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin(w, r).Orders(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", adminPageSize))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", page)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req models.OrderStatusUpdate
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.admin(w, r).UpdateOrderStatus(r.Context(), vars(r, "id"), req.OrderStatus); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("order status updated",
		zap.String("order_id", vars(r, "id")),
		zap.String("order_status", string(req.OrderStatus)))
	ok(w, "Order status updated", nil)
}

// Customers

func (h *AdminHandler) Customers(w http.ResponseWriter, r *http.Request) {
	page, err := h.admin(w, r).Customers(r.Context(), queryInt(r, "page", 1))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", page)
}

func (h *AdminHandler) ToggleCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.admin(w, r).ToggleCustomer(r.Context(), vars(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Customer status updated", nil)
}

func (h *AdminHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.admin(w, r).DeleteCustomer(r.Context(), vars(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Customer deleted", nil)
}

// Reports

func reportQuery(r *http.Request) models.SalesReportQuery {
	q := r.URL.Query()
	filter := q.Get("filter")
	if filter == "" {
		filter = string(models.ReportDaily)
	}
	return models.SalesReportQuery{
		Filter:    models.ReportFilter(filter),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
}

func (h *AdminHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	q := reportQuery(r)
	if err := q.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.admin(w, r).SalesReport(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", report)
}

// DownloadSalesReport streams the backend export through unchanged.
func (h *AdminHandler) DownloadSalesReport(w http.ResponseWriter, r *http.Request) {
	format := vars(r, "format")
	if format != "pdf" && format != "excel" {
		h.fail(w, r, &models.ValidationError{Fields: models.FieldErrors{"format": "Format must be pdf or excel"}})
		return
	}
	q := reportQuery(r)
	if err := q.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	dl, err := h.admin(w, r).DownloadSalesReport(r.Context(), q, format)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if dl.ContentType != "" {
		w.Header().Set("Content-Type", dl.ContentType)
	}
	disposition := dl.ContentDisposition
	if disposition == "" {
		ext := "pdf"
		if format == "excel" {
			ext = "xlsx"
		}
		disposition = `attachment; filename="sales-report-` + string(q.Filter) + "." + ext + `"`
	}
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Body)
}

func (h *AdminHandler) TopSelling(w http.ResponseWriter, r *http.Request) {
	top, err := h.admin(w, r).TopSelling(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", top)
}

// Uploads

func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadBytes+(1<<16))
	if err := r.ParseMultipartForm(media.MaxUploadBytes); err != nil {
		h.fail(w, r, media.ErrTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, &models.ValidationError{Fields: models.FieldErrors{"file": "Please choose an image"}})
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !media.Allowed(ct) {
		h.fail(w, r, media.ErrUnsupportedType)
		return
	}
	url, err := h.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, "Image uploaded", map[string]string{"url": url})
}

// Payment attempts

func (h *AdminHandler) PaymentAttempts(w http.ResponseWriter, r *http.Request) {
	var (
		attempts []models.PaymentAttempt
		err      error
	)
	if orderID := r.URL.Query().Get("orderId"); orderID != "" {
		attempts, err = h.attempts.AttemptsForOrder(r.Context(), orderID)
	} else {
		limit := queryInt(r, "limit", 20)
		page := queryInt(r, "page", 1)
		attempts, err = h.attempts.ListAttempts(r.Context(), limit, (page-1)*limit)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if attempts == nil {
		attempts = []models.PaymentAttempt{}
	}
	ok(w, "", attempts)
}

func (h *AdminHandler) FailedNotifications(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.notifications.FailedJobs(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", jobs)
}

// RetryNotification puts a failed notification back on the queue.
func (h *AdminHandler) RetryNotification(w http.ResponseWriter, r *http.Request) {
	jobID := vars(r, "jobId")
	if err := h.notifications.RetryJob(r.Context(), jobID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("notification requeued by admin", zap.String("job_id", jobID))
	ok(w, "Notification requeued", nil)
}
