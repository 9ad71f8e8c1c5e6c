package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/repository"
	"bookborrow-funnel/internal/service"
)

// CartHandler exposes the user's cart synchronizer
type CartHandler struct {
	registry *service.CartRegistry
	catalog  repository.CatalogRepository
}

// NewCartHandler creates a new cart handler
func NewCartHandler(registry *service.CartRegistry, catalog repository.CatalogRepository) *CartHandler {
	return &CartHandler{registry: registry, catalog: catalog}
}

type cartResponse struct {
	State   domain.CartState   `json:"state"`
	Summary domain.CartSummary `json:"summary"`
}

type addItemRequest struct {
	BookID string `json:"bookId"`
	Mode   string `json:"mode,omitempty"`
}

type removeItemsRequest struct {
	CartItemIDs []string `json:"cartItemIds"`
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

func (h *CartHandler) cart(r *http.Request) (service.CartSynchronizer, domain.Session, bool) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return nil, sess, false
	}
	return h.registry.ForUser(sess.User.ID, sess.Credential), sess, true
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart service.CartSynchronizer, status int) {
	writeJSON(w, status, cartResponse{
		State:   cart.State(),
		Summary: cart.Summary(selectedFromQuery(r)),
	})
}

// GetCart refreshes from the remote cart, then returns it. Selection totals
// come from repeated or comma-separated "selected" query values.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, _, ok := h.cart(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if err := cart.Refresh(r.Context()); err != nil {
		writeServiceError(w, r, "GetCart", err)
		return
	}
	h.respond(w, r, cart, http.StatusOK)
}

// AddItem resolves the book and adds it to the caller's cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, sess, ok := h.cart(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.BookID) == "" {
		writeError(w, http.StatusBadRequest, "bookId is required")
		return
	}

	var preferred *domain.Mode
	if req.Mode != "" {
		m, ok := domain.ParseMode(req.Mode)
		if !ok {
			writeError(w, http.StatusBadRequest, "mode must be borrow or purchase")
			return
		}
		preferred = &m
	}

	book, err := h.catalog.GetBook(r.Context(), sess.Credential, req.BookID)
	if err != nil {
		writeServiceError(w, r, "AddCartItem", err)
		return
	}

	line, err := cart.AddItem(r.Context(), book, preferred)
	if err != nil {
		writeServiceError(w, r, "AddCartItem", err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// RemoveItems deletes the listed cart lines
func (h *CartHandler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	cart, _, ok := h.cart(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req removeItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cart.RemoveItems(r.Context(), req.CartItemIDs); err != nil {
		writeServiceError(w, r, "RemoveItems", err)
		return
	}
	h.respond(w, r, cart, http.StatusOK)
}

// SetItemMode is a local preview; the next GetCart restores the remote mode.
func (h *CartHandler) SetItemMode(w http.ResponseWriter, r *http.Request) {
	cart, _, ok := h.cart(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, ok := domain.ParseMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "mode must be borrow or purchase")
		return
	}
	if !cart.SetMode(mux.Vars(r)["bookId"], m) {
		writeError(w, http.StatusNotFound, "book is not in the cart")
		return
	}
	h.respond(w, r, cart, http.StatusOK)
}

// ClearCart empties the local cart without touching the remote one
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, _, ok := h.cart(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	cart.ClearLocal()
	h.respond(w, r, cart, http.StatusOK)
}

// Logout forgets the user's cart on this server.
func (h *CartHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	h.registry.Drop(sess.User.ID)
	w.WriteHeader(http.StatusNoContent)
}

func selectedFromQuery(r *http.Request) map[string]bool {
	values := r.URL.Query()["selected"]
	if len(values) == 0 {
		return nil
	}
	selected := make(map[string]bool)
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				selected[id] = true
			}
		}
	}
	return selected
}
