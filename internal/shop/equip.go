package shop

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/model"
)

// EquipState tracks one equip attempt.
//
//	Equipping -> Equipped
//	Equipping -> ConflictPending -> ForcedEquip | Cancelled
//	Equipping | ConflictPending -> Failed
type EquipState int

const (
	Equipping EquipState = iota
	Equipped
	ConflictPending
	ForcedEquip
	Cancelled
	Failed
)

func (s EquipState) String() string {
	switch s {
	case Equipping:
		return "equipping"
	case Equipped:
		return "equipped"
	case ConflictPending:
		return "conflict"
	case ForcedEquip:
		return "forced"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("EquipState(%d)", int(s))
}

// Done reports whether the attempt needs no further input.
func (s EquipState) Done() bool { return s != Equipping && s != ConflictPending }

// Equip is one attempt to put an item on, or take it off. The wallet does
// not change until the server accepts.
type Equip struct {
	w     *Wallet
	entry model.InventoryEntry
	on    bool

	mu    sync.Mutex
	state EquipState
	err   error
}

// NewEquip prepares an attempt for an owned item.
func (w *Wallet) NewEquip(itemID int, on bool) (*Equip, error) {
	op := fmt.Sprintf("equip item %d", itemID)
	if !on {
		op = fmt.Sprintf("unequip item %d", itemID)
	}
	wallet, loaded := w.cell.Get()
	if !loaded {
		return nil, apperr.NewValidationError(op, "inventory not loaded")
	}
	entry, ok := wallet.Entry(itemID)
	if !ok {
		return nil, apperr.NewValidationError(op, fmt.Sprintf("item %d is not owned", itemID))
	}
	return &Equip{w: w, entry: entry, on: on, state: Equipping}, nil
}

// Item is the item being equipped.
func (e *Equip) Item() model.Item { return e.entry.Item }

// State returns the current state.
func (e *Equip) State() EquipState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err is the error that moved the attempt to Failed.
func (e *Equip) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Occupant returns the item currently equipped in the same slot.
func (e *Equip) Occupant() (model.Item, bool) {
	wallet, _ := e.w.cell.Get()
	occ, ok := wallet.Equipped(e.entry.Item.Type)
	if !ok || occ.Item.ID == e.entry.Item.ID {
		return model.Item{}, false
	}
	return occ.Item, true
}

// Start sends the request. A taken slot moves the attempt to
// ConflictPending and returns no error; the caller then decides between
// Force and Cancel.
func (e *Equip) Start(ctx context.Context) (EquipState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Equipping {
		return e.state, e.err
	}
	err := e.w.api.Equip(ctx, e.entry.Item.ID, e.on, false)
	switch {
	case err == nil:
		e.settle(ctx, Equipped)
	case e.on && apperr.IsConflict(err):
		e.state = ConflictPending
		e.w.log.Info("slot taken", "item", e.entry.Item.ID, "slot", e.entry.Item.Type)
	default:
		e.fail(err)
	}
	return e.state, e.err
}

// Force replaces whatever occupies the slot.
func (e *Equip) Force(ctx context.Context) (EquipState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != ConflictPending {
		return e.state, apperr.NewValidationError("force equip", "no conflict to resolve")
	}
	if err := e.w.api.Equip(ctx, e.entry.Item.ID, true, true); err != nil {
		e.fail(err)
		return e.state, e.err
	}
	e.settle(ctx, ForcedEquip)
	return e.state, nil
}

// Cancel abandons a conflicting attempt without a request.
func (e *Equip) Cancel() EquipState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == ConflictPending {
		e.state = Cancelled
	}
	return e.state
}

func (e *Equip) fail(err error) {
	e.state, e.err = Failed, err
	e.w.log.Warn("equip failed", "item", e.entry.Item.ID, "err", err)
}

// settle records the server's acceptance. The wallet is refreshed; if that
// fails the accepted change is applied locally.
func (e *Equip) settle(ctx context.Context, st EquipState) {
	e.state = st
	err := e.w.Load(ctx)
	if err == nil {
		return
	}
	e.w.log.Warn("refresh after equip failed", "err", err)
	item, on := e.entry.Item, e.on
	amended := e.w.cell.Amend(func(v model.Wallet) model.Wallet {
		for i := range v.Inventory {
			entry := &v.Inventory[i]
			switch {
			case entry.Item.ID == item.ID:
				entry.IsEquipped = on
			case on && entry.Item.Type == item.Type:
				entry.IsEquipped = false
			}
		}
		return v
	})
	if !amended {
		e.w.log.Warn("purchase in flight, equip shows after the next load", "item", item.ID)
	}
}

// SetEquipped runs an attempt to completion. With force a taken slot is
// replaced; without it the attempt stops at ConflictPending.
func (w *Wallet) SetEquipped(ctx context.Context, itemID int, on, force bool) (*Equip, error) {
	e, err := w.NewEquip(itemID, on)
	if err != nil {
		return nil, err
	}
	st, err := e.Start(ctx)
	if err != nil {
		return e, err
	}
	if st == ConflictPending && force {
		_, err = e.Force(ctx)
	}
	return e, err
}
