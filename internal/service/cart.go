package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/repository"
)

const defaultMaxLookups = 8

type cartSync struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	maxLookups  int
	log         *slog.Logger

	// ops is held across the remote calls of Refresh, AddItem and
	// RemoveItems so no completed write is overwritten by a stale one.
	ops sync.Mutex

	mu         sync.RWMutex
	credential string
	lines      []domain.CartLine
	syncing    bool
	detached   bool
}

// NewCartSynchronizer creates a synchronizer with an empty local cart that
// calls the remote services with credential. maxLookups bounds the catalog
// lookups one refresh runs at once.
func NewCartSynchronizer(
	cartRepo repository.CartRepository,
	catalogRepo repository.CatalogRepository,
	credential string,
	maxLookups int,
) CartSynchronizer {
	return newCartSync(cartRepo, catalogRepo, credential, maxLookups)
}

func newCartSync(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository, credential string, maxLookups int) *cartSync {
	if maxLookups <= 0 {
		maxLookups = defaultMaxLookups
	}
	return &cartSync{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		credential:  credential,
		maxLookups:  maxLookups,
		log:         logger.WithService("cart"),
	}
}

// SelectMode picks the transaction mode for a new line. A preferred mode is
// used only if the book supports it; with no preference borrow wins over
// purchase.
func SelectMode(book *domain.Book, preferred *domain.Mode) (domain.Mode, error) {
	if preferred != nil {
		if preferred.Supports(book) {
			return *preferred, nil
		}
		return "", fmt.Errorf("%w: %s is not offered for book %s", ErrUnsupportedMode, *preferred, book.ID)
	}
	if domain.ModeBorrow.Supports(book) {
		return domain.ModeBorrow, nil
	}
	if domain.ModePurchase.Supports(book) {
		return domain.ModePurchase, nil
	}
	return "", fmt.Errorf("%w: book %s can be neither borrowed nor purchased", ErrUnsupportedMode, book.ID)
}

// Refresh rebuilds the local cart from the remote one. Lines whose book
// cannot be resolved are dropped. Nothing is published until every lookup
// has settled.
func (s *cartSync) Refresh(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	if !s.beginSync() {
		return ErrDetached
	}
	defer s.endSync()

	credential := s.currentCredential()
	remote, err := s.cartRepo.GetCart(ctx, credential)
	if err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}

	books := make([]*domain.Book, len(remote))
	var g errgroup.Group
	g.SetLimit(s.maxLookups)
	for i, item := range remote {
		i, item := i, item
		g.Go(func() error {
			book, err := s.catalogRepo.GetBook(ctx, credential, item.BookID)
			if err != nil {
				s.log.Warn("Dropping cart line",
					"error", fmt.Errorf("%w: %w", ErrCatalogItemUnresolved, err),
					"cart_item_id", item.CartItemID,
					"book_id", item.BookID)
				return nil
			}
			books[i] = book
			return nil
		})
	}
	_ = g.Wait()

	// A cancelled refresh would otherwise publish a cart emptied by failed lookups.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}

	lines := s.rebuild(remote, books)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return ErrDetached
	}
	s.lines = lines
	s.log.Debug("Cart refreshed", "remote_lines", len(remote), "lines", len(lines))
	return nil
}

// rebuild keeps remote order and the first line seen for each book.
func (s *cartSync) rebuild(remote []repository.RemoteCartItem, books []*domain.Book) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(remote))
	seen := make(map[string]bool, len(remote))
	for i, item := range remote {
		book := books[i]
		if book == nil {
			continue
		}
		mode, ok := domain.ParseMode(item.ActionType)
		if !ok {
			s.log.Warn("Dropping cart line with unknown action type",
				"cart_item_id", item.CartItemID, "action_type", item.ActionType)
			continue
		}
		if seen[book.ID] {
			s.log.Warn("Dropping duplicate cart line for book",
				"cart_item_id", item.CartItemID, "book_id", book.ID)
			continue
		}
		seen[book.ID] = true
		lines = append(lines, domain.CartLine{ItemID: item.CartItemID, Book: *book, Mode: mode})
	}
	return lines
}

// AddItem is idempotent on book id: a book already in the cart is returned
// without a remote call. The line is stored only after the remote add
// succeeds.
func (s *cartSync) AddItem(ctx context.Context, book *domain.Book, preferred *domain.Mode) (domain.CartLine, error) {
	if book == nil || book.ID == "" {
		return domain.CartLine{}, ErrInvalidBook
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	if line, ok := s.lineForBook(book.ID); ok {
		return line, nil
	}

	mode, err := SelectMode(book, preferred)
	if err != nil {
		return domain.CartLine{}, err
	}

	req := repository.AddCartItemRequest{
		BookID:     book.ID,
		OwnerID:    book.OwnerID,
		ActionType: mode,
		Deposit:    book.Deposit,
	}
	if mode == domain.ModePurchase {
		req.Price = book.SalePrice
	}

	itemID, err := s.cartRepo.AddItem(ctx, s.currentCredential(), req)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("add book %s to cart: %w", book.ID, err)
	}

	line := domain.CartLine{ItemID: itemID, Book: *book, Mode: mode}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return domain.CartLine{}, ErrDetached
	}
	s.lines = append(cloneLines(s.lines), line)
	return line, nil
}

// RemoveItems deletes the given lines remotely, then locally. A failed remote
// call leaves the local cart untouched.
func (s *cartSync) RemoveItems(ctx context.Context, itemIDs []string) error {
	ids := dedupe(itemIDs)
	if len(ids) == 0 {
		return nil
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	if _, err := s.cartRepo.RemoveItems(ctx, s.currentCredential(), ids); err != nil {
		return fmt.Errorf("remove cart items: %w", err)
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return ErrDetached
	}
	kept := make([]domain.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		if !drop[l.ItemID] {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	return nil
}

func (s *cartSync) ClearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// SetMode changes a line's mode locally only. It is a preview: capability
// flags are not checked, nothing is sent to the remote service, and the next
// Refresh restores the remote mode.
func (s *cartSync) SetMode(bookID string, mode domain.Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Book.ID == bookID {
			lines := cloneLines(s.lines)
			lines[i].Mode = mode
			s.lines = lines
			return true
		}
	}
	return false
}

func (s *cartSync) State() domain.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CartState{Lines: cloneLines(s.lines), SyncInProgress: s.syncing}
}

func (s *cartSync) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

func (s *cartSync) Summary(selected map[string]bool) domain.CartSummary {
	return domain.Summarize(s.Lines(), selected)
}

func (s *cartSync) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
}

func (s *cartSync) setCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
}

func (s *cartSync) currentCredential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *cartSync) lineForBook(bookID string) (domain.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.Book.ID == bookID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}

func (s *cartSync) beginSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.syncing = true
	return true
}

func (s *cartSync) endSync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = false
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
