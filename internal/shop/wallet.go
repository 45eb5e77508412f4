// Package shop holds the carrot balance and the inventory as one value and
// runs purchases and equips against it.
package shop

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/logging"
	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/optimistic"
	"github.com/idilsaglam/carrot/internal/remote"
)

// API is the slice of the backend the wallet needs.
type API interface {
	Me(ctx context.Context) (model.Profile, error)
	Inventory(ctx context.Context) ([]model.InventoryEntry, error)
	Purchase(ctx context.Context, itemID int) error
	Equip(ctx context.Context, itemID int, equipped, force bool) error
}

// Wallet is the client copy of the user's balance and inventory. It is
// created once per process, loaded after login and reset on logout.
type Wallet struct {
	api  API
	log  *log.Logger
	cell *optimistic.Cell[model.Wallet]

	mu      sync.Mutex
	profile model.Profile
}

func NewWallet(api API, logger *log.Logger) *Wallet {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Wallet{
		api:  api,
		log:  logger.WithPrefix("shop"),
		cell: optimistic.NewCell(model.Wallet.Clone),
	}
}

// Get returns the visible wallet and whether it was ever loaded.
func (w *Wallet) Get() (model.Wallet, bool) { return w.cell.Get() }

// Pending reports whether a purchase awaits the server.
func (w *Wallet) Pending() bool { return w.cell.Pending() }

// Profile returns the user fields from the last load.
func (w *Wallet) Profile() model.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.profile
}

// fetch reads the profile and the inventory concurrently.
func (w *Wallet) fetch(ctx context.Context) (model.Profile, model.Wallet, error) {
	var (
		profile model.Profile
		inv     []model.InventoryEntry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = w.api.Me(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		inv, err = w.api.Inventory(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Profile{}, model.Wallet{}, err
	}
	return profile, model.Wallet{Balance: profile.CarrotBalance, Inventory: inv}, nil
}

func (w *Wallet) setProfile(p model.Profile) {
	w.mu.Lock()
	w.profile = p
	w.mu.Unlock()
}

// Load replaces the wallet with the server's balance and inventory.
// Purchases still in flight become stale.
func (w *Wallet) Load(ctx context.Context) error {
	profile, wallet, err := w.fetch(ctx)
	if err != nil {
		return err
	}
	w.setProfile(profile)
	w.cell.Set(wallet)
	w.log.Debug("loaded", "balance", wallet.Balance, "items", len(wallet.Inventory))
	return nil
}

// Reset forgets everything, as on logout.
func (w *Wallet) Reset() {
	w.cell.Reset()
	w.setProfile(model.Profile{})
	w.log.Debug("reset")
}

// BeginPurchase checks the price against the balance, then shows the item
// as owned and the balance as debited. No request is sent when the check
// fails. Only one purchase is in flight at a time.
func (w *Wallet) BeginPurchase(item model.Item) (*optimistic.Pending, error) {
	op := fmt.Sprintf("purchase item %d", item.ID)
	visible, loaded := w.cell.Get()
	if !loaded {
		return nil, apperr.NewValidationError(op, "balance not loaded")
	}
	if item.Price < 0 {
		return nil, apperr.NewValidationError(op, "price cannot be negative")
	}
	if visible.Owns(item.ID) {
		return nil, apperr.New(apperr.Conflict, op, fmt.Sprintf("%s is already owned", item.Name))
	}
	if w.cell.Pending() {
		return nil, apperr.New(apperr.Conflict, op, "another purchase is still in flight")
	}
	confirmed, _ := w.cell.Confirmed()
	balance := min(visible.Balance, confirmed.Balance)
	if balance < item.Price {
		w.log.Debug("rejected", "op", op, "balance", balance, "price", item.Price)
		return nil, apperr.InsufficientFunds(op, balance, item.Price)
	}

	m, ok := w.cell.BeginIdle(func(v model.Wallet) model.Wallet {
		v.Balance -= item.Price
		v.Inventory = append(v.Inventory, model.InventoryEntry{Item: item})
		return v
	})
	if !ok {
		return nil, apperr.New(apperr.Conflict, op, "another purchase is still in flight")
	}
	w.log.Debug("applied", "op", op, "mutation", m.ID(), "price", item.Price)

	return optimistic.NewPending(func(ctx context.Context) error {
		if err := w.api.Purchase(remote.WithRequestID(ctx, m.ID().String()), item.ID); err != nil {
			// A discarded rollback means a reload already replaced the
			// wallet with the server's; the failure is reported either way.
			st := m.Rollback()
			w.log.Warn("purchase failed", "op", op, "mutation", m.ID(), "state", st, "err", err)
			return err
		}
		// The server may apply side effects the client cannot predict.
		profile, fresh, err := w.fetch(ctx)
		if err != nil {
			w.log.Warn("refresh after purchase failed", "op", op, "err", err)
			m.Confirm()
			return nil
		}
		w.setProfile(profile)
		st := m.ConfirmWith(fresh)
		w.log.Debug("confirmed", "op", op, "mutation", m.ID(), "state", st, "balance", fresh.Balance)
		return nil
	}), nil
}

// Purchase buys item and waits for the server.
func (w *Wallet) Purchase(ctx context.Context, item model.Item) error {
	p, err := w.BeginPurchase(item)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}
