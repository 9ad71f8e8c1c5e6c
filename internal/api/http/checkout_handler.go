package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/service"
)

// CheckoutHandler serves the two ends of the provider redirect: the stash
// step before leaving and the payment-return view on the way back.
type CheckoutHandler struct {
	hints       service.CheckoutHintBridge
	reconciler  service.PaymentReconciler
	ordersURL   string
	checkoutURL string
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(hints service.CheckoutHintBridge, reconciler service.PaymentReconciler, ordersURL, checkoutURL string) *CheckoutHandler {
	return &CheckoutHandler{
		hints:       hints,
		reconciler:  reconciler,
		ordersURL:   ordersURL,
		checkoutURL: checkoutURL,
	}
}

type stashHintsRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

// StashCheckoutHints records the payment attempt the client is about to confirm
func (h *CheckoutHandler) StashCheckoutHints(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req stashHintsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hints := domain.CheckoutHints{AttemptID: req.PaymentIntentID, ConfirmationSecret: req.ClientSecret}
	if hints.Empty() {
		writeError(w, http.StatusBadRequest, "paymentIntentId or clientSecret is required")
		return
	}

	if err := h.hints.Stash(r.Context(), sess.User.ID, hints); err != nil {
		logger.ErrorContext(r.Context(), "Failed to stash checkout hints", "error", err, "user_id", sess.User.ID)
		writeError(w, http.StatusInternalServerError, "failed to stash checkout hints")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentResultView struct {
	Status      string
	AttemptID   string
	OrdersURL   string
	CheckoutURL string
}

var paymentResultTemplate = template.Must(template.New("payment_result").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Payment Result</title></head>
<body>
<main>
  <h1>Payment Result</h1>
  {{if eq .Status "succeeded"}}
  <section class="panel succeeded">
    <p>Payment succeeded!</p>
    {{if .AttemptID}}<p>Payment Intent: {{.AttemptID}}</p>{{end}}
  </section>
  {{else if eq .Status "processing"}}
  <section class="panel processing">
    <p>Payment processing...</p>
    <p>We'll update your order once it clears.</p>
    {{if .AttemptID}}<p>Payment Intent: {{.AttemptID}}</p>{{end}}
  </section>
  {{else}}
  <section class="panel not-completed">
    <p>Payment not completed.</p>
    <p>You can try again from the checkout page.</p>
  </section>
  {{end}}
  <nav>
    <a href="{{.CheckoutURL}}">Back to Checkout</a>
    <a href="{{.OrdersURL}}">View Orders</a>
  </nav>
</main>
</body>
</html>
`))

// PaymentReturn is the page the provider redirects back to. Canceled and
// unknown share one panel; the attempt keeps them apart for the JSON form.
func (h *CheckoutHandler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	q := r.URL.Query()
	redirect := domain.RedirectParams{
		AttemptID:          q.Get("payment_intent"),
		ConfirmationSecret: q.Get("payment_intent_client_secret"),
		RedirectStatus:     q.Get("redirect_status"),
	}

	attempt, err := h.reconciler.Reconcile(r.Context(), sess.User.ID, redirect)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// client went away
			return
		}
		writeServiceError(w, r, "PaymentReturn", err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, attempt)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view := paymentResultView{
		Status:      string(attempt.ResolvedStatus),
		AttemptID:   attempt.AttemptID,
		OrdersURL:   h.ordersURL,
		CheckoutURL: h.checkoutURL,
	}
	if err := paymentResultTemplate.Execute(w, view); err != nil {
		logger.WarnContext(r.Context(), "Failed to render payment result", "error", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || r.URL.Query().Get("format") == "json"
}
