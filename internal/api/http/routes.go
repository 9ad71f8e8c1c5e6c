package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter registers the BFF routes. Route names double as the keys of
// config.EndpointSecurityConfig.
func NewRouter(auth *AuthMiddleware, cart *CartHandler, checkout *CheckoutHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(auth.Handler)

	router.HandleFunc("/healthz", Health).Methods("GET").Name("Health")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/cart", cart.GetCart).Methods("GET").Name("GetCart")
	api.HandleFunc("/cart/items", cart.AddItem).Methods("POST").Name("AddCartItem")
	api.HandleFunc("/cart/items", cart.RemoveItems).Methods("DELETE").Name("RemoveItems")
	api.HandleFunc("/cart/items/{bookId}/mode", cart.SetItemMode).Methods("PUT").Name("SetItemMode")
	api.HandleFunc("/cart/clear", cart.ClearCart).Methods("POST").Name("ClearCart")
	api.HandleFunc("/session/logout", cart.Logout).Methods("POST").Name("Logout")
	api.HandleFunc("/checkout/hints", checkout.StashCheckoutHints).Methods("POST").Name("StashCheckoutHints")

	router.HandleFunc("/checkout/success", checkout.PaymentReturn).Methods("GET").Name("PaymentReturn")

	return router
}

// Instrument wraps the router with OpenTelemetry server spans.
func Instrument(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, "bookborrow-funnel",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Health reports that the process is serving
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
