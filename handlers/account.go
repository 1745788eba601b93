package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mocca-storefront/models"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
)

type AccountHandler struct {
	base
}

func NewAccountHandler(client *backend.Client, sessions *auth.Manager, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{base{client: client, sessions: sessions, logger: logger}}
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.shopper(w, r).UserDetails(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", profile)
}

// UpdateProfile also refreshes the user kept in the session so the header
// shows the new name straight away.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	st := auth.FromContext(r.Context())
	if err := h.shopper(w, r).UpdateProfile(r.Context(), st.UserID(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	if st.User != nil {
		updated := *st.User
		updated.Name, updated.Email, updated.Phone = req.Name, req.Email, req.Phone
		if req.Image != "" {
			updated.Image = req.Image
		}
		st.User = &updated
		if err := h.sessions.Save(w, r, st); err != nil {
			h.logger.Warn("failed to refresh session user", zap.Error(err))
		}
	}
	ok(w, "Profile updated", st.User)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.shopper(w, r).ChangePassword(r.Context(), user(r).ID, req); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Password changed", nil)
}

func (h *AccountHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.shopper(w, r).Addresses(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if addresses == nil {
		addresses = models.AddressList{}
	}
	ok(w, "", addresses)
}

// DefaultAddress returns null data when the shopper has not set one.
func (h *AccountHandler) DefaultAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := h.shopper(w, r).DefaultAddress(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", addr)
}

func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if err := decodeAndValidate(r, &addr); err != nil {
		h.fail(w, r, err)
		return
	}
	addr.ID = ""
	addr.UserID = user(r).ID
	if err := h.shopper(w, r).AddAddress(r.Context(), addr); err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, "Address added", nil)
}

func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if err := decodeAndValidate(r, &addr); err != nil {
		h.fail(w, r, err)
		return
	}
	addr.UserID = user(r).ID
	if err := h.shopper(w, r).UpdateAddress(r.Context(), vars(r, "id"), addr); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Address updated", nil)
}

func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.shopper(w, r).DeleteAddress(r.Context(), vars(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Address deleted", nil)
}

func (h *AccountHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.shopper(w, r).SetDefaultAddress(r.Context(), vars(r, "id"), user(r).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "Default address updated", nil)
}

func (h *AccountHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.shopper(w, r).Wallet(r.Context(), user(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if wallet.Transactions == nil {
		wallet.Transactions = []models.WalletTransaction{}
	}
	ok(w, "", wallet)
}
