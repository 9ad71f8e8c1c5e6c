package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/payment"
	"bookborrow-funnel/internal/repository"
)

// MockCartRepo
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

// MockCatalogRepo
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

// MockProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) RetrievePaymentStatus(ctx context.Context, secret string) (payment.LookupResult, error) {
	args := m.Called(ctx, secret)
	return args.Get(0).(payment.LookupResult), args.Error(1)
}

// fakeHintStore is an in-test HintStore that can be told to fail
type fakeHintStore struct {
	mu      sync.Mutex
	data    map[string]string
	takeErr error
}

func newFakeHintStore() *fakeHintStore {
	return &fakeHintStore{data: map[string]string{}}
}

func (f *fakeHintStore) Put(_ context.Context, entries map[string]string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range entries {
		if v == "" {
			delete(f.data, k)
			continue
		}
		f.data[k] = v
	}
	return nil
}

func (f *fakeHintStore) Take(_ context.Context, keys ...string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			out[k] = v
		}
		delete(f.data, k)
	}
	if f.takeErr != nil {
		return nil, f.takeErr
	}
	return out, nil
}

func (f *fakeHintStore) Sweep(context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeHintStore) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func price(v float64) *float64 {
	return &v
}

func mode(m domain.Mode) *domain.Mode {
	return &m
}
