package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mocca-storefront/database"
	"mocca-storefront/handlers"
	"mocca-storefront/models"
	"mocca-storefront/queue"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/checkout"
	"mocca-storefront/services/media"
	"mocca-storefront/services/payment"
)

type nopLedger struct{}

func (nopLedger) CreateAttempt(context.Context, *models.PaymentAttempt) error { return nil }
func (nopLedger) MarkAttempt(context.Context, string, database.AttemptUpdate) error {
	return nil
}
func (nopLedger) ListAttempts(context.Context, int, int) ([]models.PaymentAttempt, error) {
	return nil, nil
}
func (nopLedger) AttemptsForOrder(context.Context, string) ([]models.PaymentAttempt, error) {
	return nil, nil
}

type nopNotifier struct{}

func (nopNotifier) Enqueue(_ context.Context, t queue.JobType, _ map[string]interface{}) (*queue.Job, error) {
	return &queue.Job{Type: t}, nil
}

func (nopNotifier) FailedJobs(context.Context) ([]queue.Job, error) { return []queue.Job{}, nil }
func (nopNotifier) RetryJob(_ context.Context, id string) error {
	return fmt.Errorf("%w: %s", queue.ErrJobNotFound, id)
}

type backendLog struct {
	mu    sync.Mutex
	paths []string
}

func (b *backendLog) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

func newTestRouter(t *testing.T) (http.Handler, *backendLog) {
	t.Helper()
	log := &backendLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.mu.Lock()
		log.paths = append(log.paths, r.URL.Path)
		log.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := zap.NewNop()
	client := backend.NewClientWithHTTP(srv.URL, srv.Client(), logger)
	sessions := auth.NewManager(auth.Options{Secret: "0123456789abcdef0123456789abcdef", MaxAge: 3600}, logger)
	gateway := payment.NewGateway(payment.Config{KeyID: "rzp_test", Currency: "INR"}, logger)
	svc := checkout.NewService(checkout.Config{}, gateway, nopLedger{}, nopNotifier{}, rdb, logger)
	up := handlers.PingFunc(func(context.Context) error { return nil })

	router := newRouter(routerDeps{
		logger:   logger,
		auth:     handlers.NewAuthHandler(client, sessions, logger),
		catalog:  handlers.NewCatalogHandler(client, sessions, logger),
		cart:     handlers.NewCartHandler(client, sessions, logger),
		account:  handlers.NewAccountHandler(client, sessions, logger),
		checkout: handlers.NewCheckoutHandler(client, sessions, svc, logger),
		admin:    handlers.NewAdminHandler(client, sessions, nopLedger{}, media.NewUploader(media.Config{}, logger), nopNotifier{}, logger),
		health:   handlers.NewHealthHandler(up, up),
	})
	return router, log
}

func request(h http.Handler, method, target string, st *auth.State) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if st != nil {
		req = req.WithContext(auth.WithState(req.Context(), st))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	shopperState = &auth.State{User: &models.User{ID: "u1"}, AccessToken: "access"}
	adminState   = &auth.State{AdminToken: "adm"}
)

func TestShopperRoutesRequireLogin(t *testing.T) {
	router, log := newTestRouter(t)

	for _, route := range [][2]string{
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/checkout/orders"},
		{http.MethodGet, "/api/orders/ord_1/invoice"},
		{http.MethodPost, "/api/products/p1/reviews"},
		{http.MethodGet, "/api/wallet"},
	} {
		rec := request(router, route[0], route[1], nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route[1])
	}
	assert.Empty(t, log.seen())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	router, log := newTestRouter(t)

	rec := request(router, http.MethodGet, "/api/admin/orders", shopperState)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(router, http.MethodGet, "/api/admin/payment-attempts", adminState)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(router, http.MethodGet, "/api/admin/notifications/failed", adminState)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = request(router, http.MethodPost, "/api/admin/notifications/j9/retry", shopperState)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = request(router, http.MethodPost, "/api/admin/notifications/j9/retry", adminState)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(router, http.MethodPost, "/api/admin/login", adminState)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, log.seen())
}

func TestGuestOnlyRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := request(router, http.MethodPost, "/api/auth/login", shopperState)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = request(router, http.MethodPost, "/api/auth/register", shopperState)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCatalogRoutesArePublic(t *testing.T) {
	router, log := newTestRouter(t)

	request(router, http.MethodGet, "/api/products/offers", nil)
	request(router, http.MethodGet, "/api/products/p1/reviews", nil)

	assert.Equal(t, []string{"/user/offer-products", "/user/product-info/p1/reviews"}, log.seen())
}

func TestHealthRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/api/health", nil).Code)
}
