package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mocca-storefront/models"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/utils"
)

type AuthHandler struct {
	base
}

func NewAuthHandler(client *backend.Client, sessions *auth.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{base{client: client, sessions: sessions, logger: logger}}
}

// Login authenticates the shopper with the backend and stores the tokens in
// the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.client.Shopper(nil).Login(r.Context(), req)
	if err != nil {
		h.logger.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		h.fail(w, r, err)
		return
	}

	st := auth.FromContext(r.Context())
	st.User = &resp.User
	st.AccessToken = resp.AccessToken
	st.RefreshToken = resp.RefreshToken
	if err := h.sessions.Save(w, r, st); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Could not start session")
		return
	}

	h.logger.Info("shopper logged in", zap.String("user_id", resp.User.ID))
	ok(w, "Login successful", resp.User)
}

// Logout drops the shopper tokens but keeps an admin login in the same browser.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := auth.FromContext(r.Context())
	uid := st.UserID()
	st.User = nil
	st.AccessToken = ""
	st.RefreshToken = ""

	var err error
	if st.IsAdmin() {
		err = h.sessions.Save(w, r, st)
	} else {
		err = h.sessions.Destroy(w, r)
	}
	if err != nil {
		h.logger.Error("failed to clear session", zap.Error(err))
	}
	h.logger.Info("shopper logged out", zap.String("user_id", uid))
	ok(w, "Logged out", nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.client.Shopper(nil).Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, relay(resp, "Registration successful"), nil)
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Email == "" {
		h.fail(w, r, &models.ValidationError{Fields: models.FieldErrors{"email": "Email is required"}})
		return
	}
	resp, err := h.client.Shopper(nil).SendOTP(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "OTP sent"), nil)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Email == "" || req.OTP == "" {
		h.fail(w, r, &models.ValidationError{Fields: models.FieldErrors{"otp": "Please enter the OTP sent to your email"}})
		return
	}
	resp, err := h.client.Shopper(nil).VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !resp.Success {
		utils.SendErrorResponse(w, http.StatusBadRequest, relay(&models.MessageResponse{Message: resp.Message}, "Invalid OTP"))
		return
	}
	ok(w, relay(&models.MessageResponse{Message: resp.Message}, "OTP verified"), nil)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.client.Shopper(nil).ResetPassword(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, relay(resp, "Password updated"), nil)
}

type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	Admin         bool         `json:"admin"`
	User          *models.User `json:"user,omitempty"`
}

// Me reports what the session currently holds. It never calls the backend.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	st := auth.FromContext(r.Context())
	view := sessionView{Authenticated: st.IsAuthenticated(), Admin: st.IsAdmin()}
	if view.Authenticated {
		view.User = st.User
	}
	ok(w, "", view)
}
