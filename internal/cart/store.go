package cart

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
)

// QuantityAction adjusts a line's quantity.
type QuantityAction string

// Quantity actions.
const (
	QuantityPlus   QuantityAction = "plus"
	QuantityMinus  QuantityAction = "minus"
	QuantityDelete QuantityAction = "delete"
)

// OpKind identifies a pending cart operation.
type OpKind string

// Operation kinds.
const (
	OpAdd      OpKind = "add"
	OpUpdate   OpKind = "update"
	OpQuantity OpKind = "quantity"
)

// Operation is one optimistic cart mutation awaiting server confirmation.
type Operation struct {
	Seq         uint64         `json:"seq"`
	Kind        OpKind         `json:"kind"`
	Item        Item           `json:"item,omitempty"`   // add, update
	ItemID      string         `json:"itemId,omitempty"` // update, quantity
	Action      QuantityAction `json:"action,omitempty"` // quantity
	SubmittedAt time.Time      `json:"submittedAt"`
}

// Store is the two-layer cart state: the authoritative state last fetched
// from the commerce platform, plus an ordered overlay of pending optimistic
// operations. The displayed state is the authoritative state with pending
// operations re-applied in submission order. Only this store mutates cart
// state; everything else reads views and dispatches intents.
type Store struct {
	mu            sync.RWMutex
	logger        *slog.Logger
	authoritative State
	pending       []Operation
	nextSeq       uint64
}

// NewStore creates an empty cart store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// BuildItem synthesizes an optimistic cart line from a resolved variant and
// the unpriced configuration values. The id is a client-generated temporary
// one; the platform's authoritative id supersedes it on confirmation.
func BuildItem(variant catalog.Variant, productTitle, productHandle, imageURL, borderStyle, direction string) Item {
	return Item{
		ID:            "tmp_" + uuid.NewString(),
		MerchandiseID: variant.ID,
		ProductHandle: productHandle,
		Title:         productTitle,
		ImageURL:      imageURL,
		Quantity:      1,
		TotalAmount:   variant.Price,
		Attributes: []Attribute{
			{Key: AttrImageURL, Value: imageURL},
			{Key: AttrBorderStyle, Value: borderStyle},
			{Key: AttrDirection, Value: direction},
		},
		SelectedOptions: append([]catalog.SelectedOption(nil), variant.SelectedOptions...),
	}
}

// View returns the displayed state: authoritative plus pending operations
// in submission order.
func (s *Store) View() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() State {
	state := s.authoritative.clone()
	for _, op := range s.pending {
		state = applyOperation(state, op)
	}
	return state
}

// AddItem appends an optimistic add and returns the new displayed state and
// the operation's sequence number for later reconciliation.
func (s *Store) AddItem(item Item) (State, uint64) {
	return s.enqueue(Operation{Kind: OpAdd, Item: item})
}

// UpdateItem replaces the named line's price, attributes, and options with
// fresh values computed from the edited configuration and its re-resolved
// variant. The line id is retained.
func (s *Store) UpdateItem(itemID string, item Item) (State, uint64) {
	return s.enqueue(Operation{Kind: OpUpdate, ItemID: itemID, Item: item})
}

// UpdateItemQuantity applies a plus/minus/delete quantity intent.
func (s *Store) UpdateItemQuantity(itemID string, action QuantityAction) (State, uint64) {
	return s.enqueue(Operation{Kind: OpQuantity, ItemID: itemID, Action: action})
}

func (s *Store) enqueue(op Operation) (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	op.Seq = s.nextSeq
	op.SubmittedAt = time.Now()
	s.pending = append(s.pending, op)
	return s.viewLocked(), op.Seq
}

// LastSeq returns the sequence number of the most recently enqueued
// operation. Callers snapshot it before fetching authoritative state so
// Reconcile only clears operations that fetch could have observed.
func (s *Store) LastSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// Reconcile installs fresh authoritative state and drops pending operations
// submitted at or before throughSeq; they are either reflected in the new
// state or were rejected by the platform, and in both cases the
// authoritative record wins. Operations enqueued after the fetch began stay
// pending.
func (s *Store) Reconcile(authoritative State, throughSeq uint64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pending[:0]
	dropped := 0
	for _, op := range s.pending {
		if op.Seq > throughSeq {
			kept = append(kept, op)
		} else {
			dropped++
		}
	}
	s.pending = kept
	s.authoritative = recomputeTotals(authoritative)

	if dropped > 0 {
		s.logger.Debug("reconciled cart state",
			"cart_id", authoritative.ID,
			"dropped_ops", dropped,
			"still_pending", len(s.pending),
		)
	}
	return s.viewLocked()
}

// PendingCount returns the number of unconfirmed operations.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Authoritative returns the last confirmed platform state.
func (s *Store) Authoritative() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authoritative.clone()
}

// applyOperation replays one pending operation over a state copy. Totals are
// recomputed after every transition; they are never mutated directly.
func applyOperation(state State, op Operation) State {
	switch op.Kind {
	case OpAdd:
		state.Items = append(state.Items, op.Item)
	case OpUpdate:
		for i, it := range state.Items {
			if it.ID == op.ItemID {
				replaced := op.Item
				replaced.ID = it.ID
				state.Items[i] = replaced
				break
			}
		}
	case OpQuantity:
		state = applyQuantity(state, op.ItemID, op.Action)
	}
	return recomputeTotals(state)
}

func applyQuantity(state State, itemID string, action QuantityAction) State {
	for i, it := range state.Items {
		if it.ID != itemID {
			continue
		}

		newQuantity := it.Quantity
		switch action {
		case QuantityPlus:
			newQuantity++
		case QuantityMinus:
			newQuantity--
		case QuantityDelete:
			newQuantity = 0
		}

		if newQuantity <= 0 {
			state.Items = append(state.Items[:i], state.Items[i+1:]...)
			return state
		}

		state.Items[i].TotalAmount = rescaleTotal(it.TotalAmount, it.Quantity, newQuantity)
		state.Items[i].Quantity = newQuantity
		return state
	}
	return state
}

// rescaleTotal derives the unit price from the old total and quantity and
// scales it to the new quantity, in decimal-string arithmetic.
func rescaleTotal(total catalog.Money, oldQuantity, newQuantity int) catalog.Money {
	d, err := total.Decimal()
	if err != nil || oldQuantity <= 0 {
		return total
	}
	unit := d.Div(decimal.NewFromInt(int64(oldQuantity)))
	scaled := unit.Mul(decimal.NewFromInt(int64(newQuantity)))
	return catalog.Money{
		Amount:       scaled.StringFixed(2),
		CurrencyCode: total.CurrencyCode,
	}
}
