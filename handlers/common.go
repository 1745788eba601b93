package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mocca-storefront/middleware"
	"mocca-storefront/models"
	"mocca-storefront/queue"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/checkout"
	"mocca-storefront/services/invoice"
	"mocca-storefront/services/media"
	"mocca-storefront/services/pricing"
	"mocca-storefront/utils"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("invalid request body")

// base is embedded by every handler group.
type base struct {
	client   *backend.Client
	sessions *auth.Manager
	logger   *zap.Logger
}

func (b *base) shopper(w http.ResponseWriter, r *http.Request) *backend.Shopper {
	return b.client.Shopper(b.sessions.ShopperTokens(w, r))
}

func (b *base) admin(w http.ResponseWriter, r *http.Request) *backend.Admin {
	return b.client.Admin(b.sessions.AdminTokens(w, r))
}

// user returns the logged-in shopper. Routes that call it sit behind
// RequireAuth, so the user is always present.
func user(r *http.Request) *models.User {
	st := auth.FromContext(r.Context())
	if st.User == nil {
		return &models.User{}
	}
	return st.User
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

func decodeAndValidate(r *http.Request, v interface{ Validate() error }) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return v.Validate()
}

func vars(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// statusFor maps a service or backend error to the HTTP status returned to
// the browser.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, errBadJSON), errors.As(err, &verr):
		return http.StatusBadRequest
	case pricing.IsCouponError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrInsufficientBalance), errors.Is(err, checkout.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, checkout.ErrPaymentNotPending):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrItemNotFound), errors.Is(err, queue.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, invoice.ErrNotDelivered):
		return http.StatusConflict
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, media.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case checkout.Message(err) != "":
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, backend.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	switch status := backend.StatusOf(err); {
	case status == http.StatusUnauthorized:
		return http.StatusUnauthorized
	case status == http.StatusForbidden, status == http.StatusNotFound, status == http.StatusConflict:
		return status
	case status >= 400 && status < 500:
		return http.StatusBadRequest
	case status >= 500:
		return http.StatusBadGateway
	}
	if errors.Is(err, backend.ErrMalformedResponse) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// messageFor is the text shown to the shopper for err.
func messageFor(err error) string {
	if msg := checkout.Message(err); msg != "" {
		return msg
	}
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, errBadJSON):
		return "Invalid request body"
	case errors.Is(err, backend.ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, backend.ErrUnauthorized):
		return "Please log in to continue"
	case errors.Is(err, backend.ErrBackendUnavailable):
		return "The store is temporarily unavailable. Please try again shortly."
	case errors.Is(err, queue.ErrJobNotFound):
		return "Notification not found among failed jobs"
	case errors.Is(err, invoice.ErrNotDelivered):
		return "Invoice is available once the order is delivered."
	case errors.Is(err, media.ErrTooLarge):
		return "Image must be 5 MB or smaller."
	case errors.Is(err, media.ErrUnsupportedType):
		return "Only JPEG, PNG, WebP or GIF images can be uploaded."
	case errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Message != "":
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		utils.SendValidationError(w, verr)
		return
	}
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= 500 {
		b.logger.Error("request failed", fields...)
	} else {
		b.logger.Debug("request rejected", fields...)
	}
	utils.SendErrorResponse(w, status, messageFor(err))
}

func ok(w http.ResponseWriter, message string, data interface{}) {
	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: message, Data: data})
}

func created(w http.ResponseWriter, message string, data interface{}) {
	utils.SendJSON(w, http.StatusCreated, models.APIResponse{Status: "success", Message: message, Data: data})
}

// relay returns the backend's message, or fallback when it sent none.
func relay(resp *models.MessageResponse, fallback string) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	return fallback
}
