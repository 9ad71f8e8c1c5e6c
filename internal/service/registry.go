package service

import (
	"sync"
	"time"

	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/repository"
)

type registryEntry struct {
	cart     *cartSync
	lastUsed time.Time
}

// CartRegistry owns one CartSynchronizer per user. Views never construct a
// synchronizer themselves; they borrow the user's from here.
type CartRegistry struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	maxLookups  int
	now         func() time.Time

	mu    sync.Mutex
	carts map[string]*registryEntry
}

// NewCartRegistry creates an empty registry whose synchronizers share the
// given repositories and lookup bound.
func NewCartRegistry(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository, maxLookups int) *CartRegistry {
	return &CartRegistry{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		maxLookups:  maxLookups,
		now:         time.Now,
		carts:       make(map[string]*registryEntry),
	}
}

// ForUser returns the user's synchronizer, creating it on first use. The
// credential replaces the one held by an existing synchronizer, since bearer
// tokens rotate while the cart does not.
func (r *CartRegistry) ForUser(userID, credential string) CartSynchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.carts[userID]; ok {
		e.cart.setCredential(credential)
		e.lastUsed = r.now()
		return e.cart
	}
	c := newCartSync(r.cartRepo, r.catalogRepo, credential, r.maxLookups)
	r.carts[userID] = &registryEntry{cart: c, lastUsed: r.now()}
	return c
}

// Drop forgets the user's cart on logout. Operations still in flight on the
// dropped synchronizer finish without publishing.
func (r *CartRegistry) Drop(userID string) {
	r.mu.Lock()
	e, ok := r.carts[userID]
	delete(r.carts, userID)
	r.mu.Unlock()

	if ok {
		e.cart.ClearLocal()
		e.cart.Detach()
	}
}

// EvictIdle drops carts not handed out for longer than maxIdle. A cart with
// a remote call in flight is kept until the next pass.
func (r *CartRegistry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for userID, e := range r.carts {
		if e.lastUsed.After(cutoff) {
			continue
		}
		if !e.cart.ops.TryLock() {
			continue
		}
		e.cart.ClearLocal()
		e.cart.Detach()
		e.cart.ops.Unlock()
		delete(r.carts, userID)
		evicted++
	}
	if evicted > 0 {
		logger.Debug("Evicted idle carts", "count", evicted, "remaining", len(r.carts))
	}
	return evicted
}

// Len reports the number of carts currently held
func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
