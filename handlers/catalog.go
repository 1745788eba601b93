package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mocca-storefront/models"
	"mocca-storefront/services/auth"
	"mocca-storefront/services/backend"
	"mocca-storefront/services/catalog"
)

type CatalogHandler struct {
	base
}

func NewCatalogHandler(client *backend.Client, sessions *auth.Manager, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{base{client: client, sessions: sessions, logger: logger}}
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := catalog.ParseQuery(r.URL.Query())
	page, err := h.shopper(w, r).Products(r.Context(), q.Values())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", page)
}

func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.shopper(w, r).Product(r.Context(), vars(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", product)
}

func (h *CatalogHandler) Offers(w http.ResponseWriter, r *http.Request) {
	products, err := h.shopper(w, r).OfferProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", products)
}

func (h *CatalogHandler) TopSelling(w http.ResponseWriter, r *http.Request) {
	top, err := h.shopper(w, r).TopSelling(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", top)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.shopper(w, r).Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", categories)
}

// SearchSuggestions answers an empty query with an empty list.
func (h *CatalogHandler) SearchSuggestions(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		ok(w, "", []backend.Suggestion{})
		return
	}
	suggestions, err := h.shopper(w, r).SearchSuggestions(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", suggestions)
}

func (h *CatalogHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.shopper(w, r).Reviews(r.Context(), vars(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, "", reviews)
}

func (h *CatalogHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var review models.Review
	if err := decodeJSON(r, &review); err != nil {
		h.fail(w, r, err)
		return
	}
	u := user(r)
	review.UserID = u.ID
	review.UserName = u.Name
	review.Comment = strings.TrimSpace(review.Comment)
	if err := review.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.shopper(w, r).AddReview(r.Context(), vars(r, "id"), review); err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, "Review submitted", nil)
}
