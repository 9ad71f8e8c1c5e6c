package domain

import (
	"sort"
	"strings"
)

// Mode is the transaction a cart line represents.
type Mode string

const (
	ModeBorrow   Mode = "borrow"
	ModePurchase Mode = "purchase"
)

// ParseMode accepts the wire spelling of a mode, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBorrow:
		return ModeBorrow, true
	case ModePurchase:
		return ModePurchase, true
	}
	return "", false
}

// Supports reports whether the book's capability flags permit this mode.
func (m Mode) Supports(b *Book) bool {
	if b == nil {
		return false
	}
	switch m {
	case ModeBorrow:
		return b.CanRent
	case ModePurchase:
		return b.CanSell
	}
	return false
}

type CartLine struct {
	ItemID string `json:"item_id"` // issued by the remote cart service
	Book   Book   `json:"book"`
	Mode   Mode   `json:"mode"`
}

// Subtotal excludes shipping, which is priced at checkout.
func (l CartLine) Subtotal() float64 {
	if l.Mode == ModePurchase {
		return valueOrZero(l.Book.SalePrice)
	}
	return valueOrZero(l.Book.Deposit)
}

type CartState struct {
	Lines          []CartLine `json:"lines"`
	SyncInProgress bool       `json:"sync_in_progress"`
}

// UnknownOwner labels the group of lines whose book carries no owner id.
// The group itself is keyed by the empty owner id, so an owner literally
// named "Unknown" keeps a group of its own.
const UnknownOwner = "Unknown"

type OwnerGroup struct {
	OwnerID  string     `json:"owner_id"` // empty for the unknown-owner group
	Label    string     `json:"label"`
	Lines    []CartLine `json:"lines"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
}

type CartSummary struct {
	Groups        []OwnerGroup `json:"groups"`
	TotalCount    int          `json:"total_count"`
	TotalPrice    float64      `json:"total_price"`
	SelectedCount int          `json:"selected_count"`
	SelectedPrice float64      `json:"selected_price"`
}

// Summarize groups lines by owner (owners sorted, the unknown-owner group
// last) and totals the whole cart and the selected item ids.
func Summarize(lines []CartLine, selected map[string]bool) CartSummary {
	byOwner := make(map[string][]CartLine)
	for _, l := range lines {
		byOwner[l.Book.OwnerID] = append(byOwner[l.Book.OwnerID], l)
	}

	owners := make([]string, 0, len(byOwner))
	for k := range byOwner {
		owners = append(owners, k)
	}
	sort.Slice(owners, func(i, j int) bool {
		if owners[i] == "" {
			return false
		}
		if owners[j] == "" {
			return true
		}
		return owners[i] < owners[j]
	})

	var s CartSummary
	for _, owner := range owners {
		g := OwnerGroup{OwnerID: owner, Label: owner, Lines: byOwner[owner]}
		if owner == "" {
			g.Label = UnknownOwner
		}
		for _, l := range g.Lines {
			sub := l.Subtotal()
			g.Count++
			g.Subtotal += sub
			s.TotalCount++
			s.TotalPrice += sub
			if selected[l.ItemID] {
				s.SelectedCount++
				s.SelectedPrice += sub
			}
		}
		s.Groups = append(s.Groups, g)
	}
	return s
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
