package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpapi "bookborrow-funnel/internal/api/http"
	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/repository"
	"bookborrow-funnel/internal/security"
	"bookborrow-funnel/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockCartRepo struct {
	mock.Mock
}

func (m *MockCartRepo) GetCart(ctx context.Context, credential string) ([]repository.RemoteCartItem, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RemoteCartItem), args.Error(1)
}

func (m *MockCartRepo) AddItem(ctx context.Context, credential string, req repository.AddCartItemRequest) (string, error) {
	args := m.Called(ctx, credential, req)
	return args.String(0), args.Error(1)
}

func (m *MockCartRepo) RemoveItems(ctx context.Context, credential string, ids []string) (int, error) {
	args := m.Called(ctx, credential, ids)
	return args.Int(0), args.Error(1)
}

type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) GetBook(ctx context.Context, credential, bookID string) (*domain.Book, error) {
	args := m.Called(ctx, credential, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

type MockHintBridge struct {
	mock.Mock
}

func (m *MockHintBridge) Stash(ctx context.Context, scope string, hints domain.CheckoutHints) error {
	return m.Called(ctx, scope, hints).Error(0)
}

func (m *MockHintBridge) Take(ctx context.Context, scope string) (domain.CheckoutHints, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(domain.CheckoutHints), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, scope string, redirect domain.RedirectParams) (domain.PaymentAttempt, error) {
	args := m.Called(ctx, scope, redirect)
	return args.Get(0).(domain.PaymentAttempt), args.Error(1)
}

type fixture struct {
	cartRepo    *MockCartRepo
	catalogRepo *MockCatalogRepo
	hints       *MockHintBridge
	reconciler  *MockReconciler
	handler     http.Handler
	token       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cartRepo:    new(MockCartRepo),
		catalogRepo: new(MockCatalogRepo),
		hints:       new(MockHintBridge),
		reconciler:  new(MockReconciler),
	}
	tm := security.NewTokenManager(testSecret)
	token, err := tm.GenerateAccessToken("user-1", "reader@example.com", time.Hour)
	require.NoError(t, err)
	f.token = token

	registry := service.NewCartRegistry(f.cartRepo, f.catalogRepo, 4)
	f.handler = httpapi.NewRouter(
		httpapi.NewAuthMiddleware(tm),
		httpapi.NewCartHandler(registry, f.catalogRepo),
		httpapi.NewCheckoutHandler(f.hints, f.reconciler, "/borrowing", "/checkout"),
	)
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)
	rec := f.do("GET", "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	f := newFixture(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := f.do("GET", "/api/v1/cart", "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/cart", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("CookieAccepted", func(t *testing.T) {
		f.reconciler.On("Reconcile", mock.Anything, "user-1", domain.RedirectParams{}).
			Return(domain.PaymentAttempt{ResolvedStatus: domain.ResolvedStatusUnknown}, nil).Once()
		req := httptest.NewRequest("GET", "/checkout/success", nil)
		req.AddCookie(&http.Cookie{Name: httpapi.AccessTokenCookie, Value: f.token})
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCartHandlers(t *testing.T) {
	t.Run("GetCartRefreshes", func(t *testing.T) {
		f := newFixture(t)
		f.cartRepo.On("GetCart", mock.Anything, f.token).Return([]repository.RemoteCartItem{
			{CartItemID: "ci-1", BookID: "b1", ActionType: "borrow"},
		}, nil).Once()
		f.catalogRepo.On("GetBook", mock.Anything, f.token, "b1").
			Return(&domain.Book{ID: "b1", OwnerID: "o1", CanRent: true}, nil).Once()

		rec := f.do("GET", "/api/v1/cart?selected=ci-1", "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"item_id":"ci-1"`)
		assert.Contains(t, rec.Body.String(), `"selected_count":1`)
	})

	t.Run("GetCartRemoteFailure", func(t *testing.T) {
		f := newFixture(t)
		f.cartRepo.On("GetCart", mock.Anything, f.token).
			Return(nil, &repository.RemoteCallError{Op: "GetCart", StatusCode: 500, Err: errors.New("boom")}).Once()

		rec := f.do("GET", "/api/v1/cart", "", true)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("AddItemUnsupportedMode", func(t *testing.T) {
		f := newFixture(t)
		f.catalogRepo.On("GetBook", mock.Anything, f.token, "b1").
			Return(&domain.Book{ID: "b1", CanRent: true}, nil).Once()

		rec := f.do("POST", "/api/v1/cart/items", `{"bookId":"b1","mode":"purchase"}`, true)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		f.cartRepo.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AddItemSuccess", func(t *testing.T) {
		f := newFixture(t)
		f.catalogRepo.On("GetBook", mock.Anything, f.token, "b1").
			Return(&domain.Book{ID: "b1", OwnerID: "o1", CanSell: true}, nil).Once()
		f.cartRepo.On("AddItem", mock.Anything, f.token, mock.MatchedBy(func(r repository.AddCartItemRequest) bool {
			return r.BookID == "b1" && r.ActionType == domain.ModePurchase
		})).Return("ci-9", nil).Once()

		rec := f.do("POST", "/api/v1/cart/items", `{"bookId":"b1"}`, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"mode":"purchase"`)
	})

	t.Run("AddItemBadRequest", func(t *testing.T) {
		f := newFixture(t)
		assert.Equal(t, http.StatusBadRequest, f.do("POST", "/api/v1/cart/items", `{}`, true).Code)
		assert.Equal(t, http.StatusBadRequest, f.do("POST", "/api/v1/cart/items", `{"bookId":"b1","mode":"lease"}`, true).Code)
	})

	t.Run("AddItemUnknownBook", func(t *testing.T) {
		f := newFixture(t)
		f.catalogRepo.On("GetBook", mock.Anything, f.token, "nope").
			Return(nil, &repository.RemoteCallError{Op: "GetBook", StatusCode: 404, Err: errors.New("not found")}).Once()

		rec := f.do("POST", "/api/v1/cart/items", `{"bookId":"nope"}`, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("RemoveEmptySetIsNoOp", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do("DELETE", "/api/v1/cart/items", `{"cartItemIds":[]}`, true)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.cartRepo.AssertNotCalled(t, "RemoveItems", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SetModeMissingLine", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do("PUT", "/api/v1/cart/items/b1/mode", `{"mode":"borrow"}`, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ClearAndLogout", func(t *testing.T) {
		f := newFixture(t)
		assert.Equal(t, http.StatusOK, f.do("POST", "/api/v1/cart/clear", "", true).Code)
		assert.Equal(t, http.StatusNoContent, f.do("POST", "/api/v1/session/logout", "", true).Code)
	})
}

func TestCheckoutHandlers(t *testing.T) {
	t.Run("StashHints", func(t *testing.T) {
		f := newFixture(t)
		f.hints.On("Stash", mock.Anything, "user-1", domain.CheckoutHints{AttemptID: "pi_1", ConfirmationSecret: "pi_1_secret_x"}).
			Return(nil).Once()

		rec := f.do("POST", "/api/v1/checkout/hints", `{"paymentIntentId":"pi_1","clientSecret":"pi_1_secret_x"}`, true)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		f.hints.AssertExpectations(t)
	})

	t.Run("StashHintsEmpty", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do("POST", "/api/v1/checkout/hints", `{}`, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	panels := []struct {
		status domain.ResolvedStatus
		want   string
	}{
		{domain.ResolvedStatusSucceeded, "Payment succeeded!"},
		{domain.ResolvedStatusProcessing, "Payment processing..."},
		{domain.ResolvedStatusCanceled, "Payment not completed."},
		{domain.ResolvedStatusUnknown, "Payment not completed."},
	}
	for _, p := range panels {
		t.Run("PaymentReturn_"+string(p.status), func(t *testing.T) {
			f := newFixture(t)
			redirect := domain.RedirectParams{AttemptID: "pi_1", ConfirmationSecret: "pi_1_secret_x", RedirectStatus: "succeeded"}
			f.reconciler.On("Reconcile", mock.Anything, "user-1", redirect).
				Return(domain.PaymentAttempt{AttemptID: "pi_1", ResolvedStatus: p.status}, nil).Once()

			rec := f.do("GET", "/checkout/success?payment_intent=pi_1&payment_intent_client_secret=pi_1_secret_x&redirect_status=succeeded", "", true)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, p.want)
			assert.Contains(t, body, `href="/borrowing"`)
			assert.Contains(t, body, `href="/checkout"`)
		})
	}

	t.Run("PaymentReturnJSON", func(t *testing.T) {
		f := newFixture(t)
		f.reconciler.On("Reconcile", mock.Anything, "user-1", domain.RedirectParams{AttemptID: "pi_1"}).
			Return(domain.PaymentAttempt{AttemptID: "pi_1", ResolvedStatus: domain.ResolvedStatusProcessing}, nil).Once()

		rec := f.do("GET", "/checkout/success?payment_intent=pi_1&format=json", "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"resolved_status":"processing"`)
	})
}
