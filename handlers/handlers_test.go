package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mocca-storefront/database"
	"mocca-storefront/models"
	"mocca-storefront/queue"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/cart"
	"mocca-storefront/services/checkout"
	"mocca-storefront/services/invoice"
	"mocca-storefront/services/media"
	"mocca-storefront/services/payment"
	"mocca-storefront/services/pricing"
)

type testEnv struct {
	backend  *http.ServeMux
	client   *backend.Client
	sessions *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{
		backend:  mux,
		client:   backend.NewClientWithHTTP(srv.URL, srv.Client(), zap.NewNop()),
		sessions: auth.NewManager(auth.Options{Secret: "0123456789abcdef0123456789abcdef", MaxAge: 3600}, zap.NewNop()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func asShopper(r *http.Request) *http.Request {
	st := &auth.State{User: &models.User{ID: "u1", Name: "Asha", Email: "asha@example.com"}, AccessToken: "access"}
	return r.WithContext(auth.WithState(r.Context(), st))
}

func asAdmin(r *http.Request) *http.Request {
	return r.WithContext(auth.WithState(r.Context(), &auth.State{AdminToken: "adm"}))
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func sessionFrom(t *testing.T, m *auth.Manager, rec *httptest.ResponseRecorder) *auth.State {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return m.Load(req)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errBadJSON, http.StatusBadRequest},
		{&models.ValidationError{Fields: models.FieldErrors{"email": "required"}}, http.StatusBadRequest},
		{pricing.ErrCouponNotActive, http.StatusUnprocessableEntity},
		{&checkout.InsufficientBalanceError{Message: "low"}, http.StatusPaymentRequired},
		{&checkout.PaymentFailedError{Message: "declined"}, http.StatusPaymentRequired},
		{checkout.ErrPaymentNotPending, http.StatusConflict},
		{checkout.ErrItemNotFound, http.StatusNotFound},
		{checkout.ErrRetryNotAllowed, http.StatusBadRequest},
		{cart.ErrQuantityOutOfRange, http.StatusBadRequest},
		{invoice.ErrNotDelivered, http.StatusConflict},
		{media.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{media.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{media.ErrNotConfigured, http.StatusServiceUnavailable},
		{backend.ErrSessionExpired, http.StatusUnauthorized},
		{fmt.Errorf("call: %w", backend.ErrBackendUnavailable), http.StatusServiceUnavailable},
		{&backend.APIError{Status: http.StatusNotFound}, http.StatusNotFound},
		{&backend.APIError{Status: http.StatusUnprocessableEntity}, http.StatusBadRequest},
		{&backend.APIError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{fmt.Errorf("decode: %w", backend.ErrMalformedResponse), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestMessageForHidesServerErrors(t *testing.T) {
	assert.Equal(t, "Out of stock", messageFor(&backend.APIError{Status: 400, Message: "Out of stock"}))
	assert.Equal(t, "Something went wrong. Please try again.", messageFor(&backend.APIError{Status: 500, Message: "stack trace"}))
	assert.Equal(t, "Quantity must be between 1 and 5", messageFor(cart.ErrQuantityOutOfRange))
}

// Auth

func TestLoginStoresSession(t *testing.T) {
	env := newTestEnv(t)
	env.backend.HandleFunc("/user/userlogin", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accessToken": "access-1",
			"user":        map[string]string{"id": "u1", "name": "Asha", "email": req.Email},
		})
	})
	h := NewAuthHandler(env.client, env.sessions, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Email: "asha@example.com", Password: "secret"}))
	rec := serve(h.Login, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := sessionFrom(t, env.sessions, rec)
	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, "u1", st.UserID())
	assert.Equal(t, "access-1", st.AccessToken)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Email: "asha@example.com", Password: "wrong"}))
	rec = serve(h.Login, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeEnvelope(t, rec).Message)
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	env := newTestEnv(t)
	called := false
	env.backend.HandleFunc("/user/userlogin", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	h := NewAuthHandler(env.client, env.sessions, zap.NewNop())

	rec := serve(h.Login, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Contains(t, resp.Errors, "email")
	assert.Contains(t, resp.Errors, "password")
	assert.False(t, called)
}

// Cart

func cartWith(qty, stock int) map[string]interface{} {
	return map[string]interface{}{
		"items": []interface{}{map[string]interface{}{
			"_id": "l1",
			"productId": map[string]interface{}{
				"_id": "p1", "productName": "Linen Shirt", "salePrice": 1000,
				"size": []interface{}{map[string]interface{}{"name": "M", "stock": stock}},
			},
			"size":     "M",
			"quantity": qty,
		}},
		"totalAmount": 1000 * qty,
	}
}

type cartBackend struct {
	mu    sync.Mutex
	edits []models.CartItemRequest
}

func (c *cartBackend) install(env *testEnv, qty, stock int) {
	env.backend.HandleFunc("/user/get-cartdetails/u1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cartWith(qty, stock))
	})
	env.backend.HandleFunc("/user/edit-quantity", func(w http.ResponseWriter, r *http.Request) {
		var req models.CartItemRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		c.mu.Lock()
		c.edits = append(c.edits, req)
		c.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
}

func stepRequest(size, direction string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/cart/items/p1/"+size+"/"+direction, nil)
	req = mux.SetURLVars(req, map[string]string{"productId": "p1", "size": size, "direction": direction})
	return asShopper(req)
}

func TestStepItemStopsAtMaximum(t *testing.T) {
	env := newTestEnv(t)
	fake := &cartBackend{}
	fake.install(env, cart.MaxQuantity, 10)
	h := NewCartHandler(env.client, env.sessions, zap.NewNop())

	rec := serve(h.StepItem, stepRequest("M", "increment"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be between 1 and 5", decodeEnvelope(t, rec).Message)
	assert.Empty(t, fake.edits)

	rec = serve(h.StepItem, stepRequest("M", "decrement"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, fake.edits, 1)
	assert.Equal(t, 4, fake.edits[0].Quantity)
	assert.Equal(t, "u1", fake.edits[0].UserID)
}

func TestStepItemStopsAtMinimum(t *testing.T) {
	env := newTestEnv(t)
	fake := &cartBackend{}
	fake.install(env, cart.MinQuantity, 10)
	h := NewCartHandler(env.client, env.sessions, zap.NewNop())

	rec := serve(h.StepItem, stepRequest("M", "decrement"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fake.edits)
}

func TestStepItemChecksStock(t *testing.T) {
	env := newTestEnv(t)
	fake := &cartBackend{}
	fake.install(env, 2, 2)
	h := NewCartHandler(env.client, env.sessions, zap.NewNop())

	rec := serve(h.StepItem, stepRequest("M", "increment"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only 2 left in size M", decodeEnvelope(t, rec).Message)
	assert.Empty(t, fake.edits)
}

func TestStepItemUnknownLine(t *testing.T) {
	env := newTestEnv(t)
	(&cartBackend{}).install(env, 2, 10)
	h := NewCartHandler(env.client, env.sessions, zap.NewNop())

	rec := serve(h.StepItem, stepRequest("XL", "increment"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h.StepItem, stepRequest("M", "sideways"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Checkout

type nopLedger struct{}

func (nopLedger) CreateAttempt(context.Context, *models.PaymentAttempt) error { return nil }
func (nopLedger) MarkAttempt(context.Context, string, database.AttemptUpdate) error {
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	jobs []queue.JobType
}

func (n *recordingNotifier) Enqueue(_ context.Context, jobType queue.JobType, _ map[string]interface{}) (*queue.Job, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, jobType)
	return &queue.Job{Type: jobType}, nil
}

var testAddress = map[string]interface{}{
	"_id": "a1", "name": "Asha", "mobile": "9876543210", "pincode": "560001",
	"houseNo": "12", "street": "MG Road", "town": "Indiranagar", "city": "Bengaluru", "state": "Karnataka",
}

func newCheckoutHandler(t *testing.T, env *testEnv, notifier checkout.Notifier) *CheckoutHandler {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	gateway := payment.NewGateway(payment.Config{KeyID: "rzp_test", Currency: "INR", MerchantName: "MOCCA"}, zap.NewNop())
	svc := checkout.NewService(checkout.Config{}, gateway, nopLedger{}, notifier, rdb, zap.NewNop())
	return NewCheckoutHandler(env.client, env.sessions, svc, zap.NewNop())
}

func TestPlaceOrderCashOnDelivery(t *testing.T) {
	env := newTestEnv(t)
	(&cartBackend{}).install(env, 2, 10)
	env.backend.HandleFunc("/user/default-address/u1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, testAddress)
	})
	var placed []models.OrderDraft
	env.backend.HandleFunc("/user/place-order", func(w http.ResponseWriter, r *http.Request) {
		var draft models.OrderDraft
		_ = json.NewDecoder(r.Body).Decode(&draft)
		placed = append(placed, draft)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Order placed", "orderId": "ord_1"})
	})
	notifier := &recordingNotifier{}
	h := newCheckoutHandler(t, env, notifier)

	body := jsonBody(t, checkout.PlaceOrderRequest{PaymentMethod: models.PaymentMethodCOD})
	rec := serve(h.PlaceOrder, asShopper(httptest.NewRequest(http.MethodPost, "/api/checkout/orders", body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, string(checkout.OutcomePlaced), data["outcome"])
	assert.Equal(t, checkout.ConfirmationPath, data["redirect"])
	assert.Equal(t, "ord_1", data["orderId"])

	require.Len(t, placed, 1)
	assert.Equal(t, models.PaymentStatusPending, placed[0].PaymentStatus)
	assert.Equal(t, "2000", placed[0].TotalAmount.String())
	assert.Equal(t, []queue.JobType{queue.JobTypeOrderConfirmation}, notifier.jobs)
}

func TestPlaceOrderRequiresPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	h := newCheckoutHandler(t, env, &recordingNotifier{})

	rec := serve(h.PlaceOrder, asShopper(httptest.NewRequest(http.MethodPost, "/api/checkout/orders", strings.NewReader(`{}`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please select a payment method before placing the order.", decodeEnvelope(t, rec).Message)
}

func orderJSON(status models.OrderStatus) map[string]interface{} {
	return map[string]interface{}{
		"_id":       "ord_1",
		"orderDate": "2024-06-01T10:00:00Z",
		"address":   testAddress,
		"products": []interface{}{map[string]interface{}{
			"productId": "p1", "productName": "Linen Shirt", "size": "M", "quantity": 1, "price": 1000,
		}},
		"paymentMethod":  models.PaymentMethodCOD,
		"paymentStatus":  models.PaymentStatusPending,
		"orderStatus":    status,
		"totalAmount":    1000,
		"discountAmount": 0,
	}
}

func invoiceRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/orders/ord_1/invoice", nil)
	return asShopper(mux.SetURLVars(req, map[string]string{"orderId": "ord_1"}))
}

func TestInvoice(t *testing.T) {
	env := newTestEnv(t)
	status := models.OrderStatusShipped
	env.backend.HandleFunc("/user/order-details-view/u1/ord_1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orderJSON(status))
	})
	h := newCheckoutHandler(t, env, &recordingNotifier{})

	rec := serve(h.Invoice, invoiceRequest())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	status = models.OrderStatusDelivered
	rec = serve(h.Invoice, invoiceRequest())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Invoice_ord_1.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

// Admin

type fakeAttempts struct {
	limit, offset int
	orderID       string
}

func (f *fakeAttempts) ListAttempts(_ context.Context, limit, offset int) ([]models.PaymentAttempt, error) {
	f.limit, f.offset = limit, offset
	return nil, nil
}

func (f *fakeAttempts) AttemptsForOrder(_ context.Context, orderID string) ([]models.PaymentAttempt, error) {
	f.orderID = orderID
	return []models.PaymentAttempt{{ID: "att1", OrderID: orderID}}, nil
}

type fakeUploader struct {
	filename string
	body     []byte
}

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	f.filename = filename
	f.body, _ = io.ReadAll(r)
	return "https://res.example.com/" + filename, nil
}

type fakeJobs struct {
	failed  []queue.Job
	retried []string
}

func (f *fakeJobs) FailedJobs(context.Context) ([]queue.Job, error) {
	return f.failed, nil
}

func (f *fakeJobs) RetryJob(_ context.Context, jobID string) error {
	for i, j := range f.failed {
		if j.ID == jobID {
			f.failed = append(f.failed[:i], f.failed[i+1:]...)
			f.retried = append(f.retried, jobID)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", queue.ErrJobNotFound, jobID)
}

func TestAdminFailedNotifications(t *testing.T) {
	env := newTestEnv(t)
	jobs := &fakeJobs{failed: []queue.Job{{ID: "j1", Type: queue.JobTypePaymentFailed, Data: map[string]interface{}{"order_id": "ord_1"}}}}
	h := NewAdminHandler(env.client, env.sessions, &fakeAttempts{}, &fakeUploader{}, jobs, zap.NewNop())

	rec := serve(h.FailedNotifications, asAdmin(httptest.NewRequest(http.MethodGet, "/api/admin/notifications/failed", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeEnvelope(t, rec).Data.([]interface{})
	require.Len(t, listed, 1)
	assert.Equal(t, "j1", listed[0].(map[string]interface{})["id"])

	req := httptest.NewRequest(http.MethodPost, "/api/admin/notifications/j1/retry", nil)
	rec = serve(h.RetryNotification, asAdmin(mux.SetURLVars(req, map[string]string{"jobId": "j1"})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"j1"}, jobs.retried)

	rec = serve(h.RetryNotification, asAdmin(mux.SetURLVars(req, map[string]string{"jobId": "j1"})))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminLoginStoresToken(t *testing.T) {
	env := newTestEnv(t)
	env.backend.HandleFunc("/admin/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"adminToken": "adm-1"})
	})
	h := NewAdminHandler(env.client, env.sessions, &fakeAttempts{}, &fakeUploader{}, &fakeJobs{}, zap.NewNop())

	rec := serve(h.Login, httptest.NewRequest(http.MethodPost, "/api/admin/login", jsonBody(t, models.LoginRequest{Email: "admin@mocca.store", Password: "pw"})))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := sessionFrom(t, env.sessions, rec)
	assert.True(t, st.IsAdmin())
	assert.False(t, st.IsAuthenticated())
}

func TestAdminPaymentAttempts(t *testing.T) {
	env := newTestEnv(t)
	attempts := &fakeAttempts{}
	h := NewAdminHandler(env.client, env.sessions, attempts, &fakeUploader{}, &fakeJobs{}, zap.NewNop())

	rec := serve(h.PaymentAttempts, asAdmin(httptest.NewRequest(http.MethodGet, "/api/admin/payment-attempts?page=3&limit=5", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, attempts.limit)
	assert.Equal(t, 10, attempts.offset)
	assert.Equal(t, []interface{}{}, decodeEnvelope(t, rec).Data)

	rec = serve(h.PaymentAttempts, asAdmin(httptest.NewRequest(http.MethodGet, "/api/admin/payment-attempts?orderId=ord_1", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord_1", attempts.orderID)
}

func TestAdminSalesReportValidatesCustomRange(t *testing.T) {
	env := newTestEnv(t)
	h := NewAdminHandler(env.client, env.sessions, &fakeAttempts{}, &fakeUploader{}, &fakeJobs{}, zap.NewNop())

	rec := serve(h.SalesReport, asAdmin(httptest.NewRequest(http.MethodGet, "/api/admin/sales-report?filter=custom&startDate=2024-06-10&endDate=2024-06-01", nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Errors, "endDate")
}

func TestAdminDownloadSalesReport(t *testing.T) {
	env := newTestEnv(t)
	env.backend.HandleFunc("/admin/sales-report/download-pdf", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weekly", r.URL.Query().Get("filter"))
		assert.Equal(t, "Bearer adm", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-report"))
	})
	h := NewAdminHandler(env.client, env.sessions, &fakeAttempts{}, &fakeUploader{}, &fakeJobs{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/sales-report/download/pdf?filter=weekly", nil)
	rec := serve(h.DownloadSalesReport, asAdmin(mux.SetURLVars(req, map[string]string{"format": "pdf"})))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales-report-weekly.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-report", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/admin/sales-report/download/csv", nil)
	rec = serve(h.DownloadSalesReport, asAdmin(mux.SetURLVars(req, map[string]string{"format": "csv"})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return asAdmin(req)
}

func TestAdminUpload(t *testing.T) {
	env := newTestEnv(t)
	uploader := &fakeUploader{}
	h := NewAdminHandler(env.client, env.sessions, &fakeAttempts{}, uploader, &fakeJobs{}, zap.NewNop())
	png := []byte("\x89PNG\r\n\x1a\n0000")

	rec := serve(h.Upload, multipartUpload(t, "file", "shirt.png", "image/png", png))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "shirt.png", uploader.filename)
	assert.Equal(t, png, uploader.body)
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "https://res.example.com/shirt.png", data["url"])

	rec = serve(h.Upload, multipartUpload(t, "file", "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = serve(h.Upload, multipartUpload(t, "other", "shirt.png", "image/png", png))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Health

func TestHealthReportsDegradedDependency(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	rec := serve(NewHealthHandler(up, up).Check, httptest.NewRequest(http.MethodGet, "/health", nil))
	var report healthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "ok", report.Status)

	rec = serve(NewHealthHandler(up, down).Check, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "connected", report.Database)
	assert.Equal(t, "error", report.Redis)
}
