package shop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/remote"
	"github.com/idilsaglam/carrot/internal/remote/remotetest"
)

type tokenAuth string

func (a tokenAuth) Headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + string(a)}
}
func (tokenAuth) Expire() {}

var (
	crown   = model.Item{ID: 1, Name: "Crown", Price: 100, Type: model.SlotHat}
	beanie  = model.Item{ID: 2, Name: "Beanie", Price: 30, Type: model.SlotHat}
	scarf   = model.Item{ID: 3, Name: "Scarf", Price: 40, Type: model.SlotAccessory}
	meadow  = model.Item{ID: 4, Name: "Meadow", Price: 0, Type: model.SlotBackground}
	catalog = map[int]model.Item{1: crown, 2: beanie, 3: scarf, 4: meadow}
)

const purchaseRoute = "POST /shop/purchase/"

func setup(t *testing.T, balance int, inv ...model.InventoryEntry) (*Wallet, *remotetest.Server) {
	t.Helper()
	srv := remotetest.New(t)
	srv.Profile.CarrotBalance = balance
	srv.Catalog = catalog
	srv.Inventory = inv
	client := remote.New(srv.URL, tokenAuth(srv.Token), remote.WithTimeout(5*time.Second))
	w := NewWallet(client, nil)
	require.NoError(t, w.Load(context.Background()))
	return w, srv
}

func TestLoad(t *testing.T) {
	w, _ := setup(t, 55, model.InventoryEntry{Item: scarf, IsEquipped: true})
	got, ok := w.Get()
	require.True(t, ok)
	assert.Equal(t, 55, got.Balance)
	assert.True(t, got.Owns(scarf.ID))
	assert.Equal(t, "Bunny", w.Profile().Name)
}

func TestInsufficientFundsSendsNothing(t *testing.T) {
	w, srv := setup(t, 70)

	err := w.Purchase(context.Background(), crown)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "insufficient funds")

	assert.Equal(t, 0, srv.Count(purchaseRoute))
	got, _ := w.Get()
	assert.Equal(t, 70, got.Balance)
	assert.Empty(t, got.Inventory)
}

func TestPurchaseDebitsAndOwns(t *testing.T) {
	w, srv := setup(t, 150)

	require.NoError(t, w.Purchase(context.Background(), crown))
	got, _ := w.Get()
	assert.Equal(t, 50, got.Balance)
	assert.True(t, got.Owns(crown.ID))
	assert.Equal(t, 50, srv.Balance())
	assert.False(t, w.Pending())
}

func TestPurchaseExactBalance(t *testing.T) {
	w, _ := setup(t, 30)
	require.NoError(t, w.Purchase(context.Background(), beanie))
	got, _ := w.Get()
	assert.Equal(t, 0, got.Balance)
}

func TestPurchaseIsVisibleBeforeResponse(t *testing.T) {
	w, srv := setup(t, 100)
	release := srv.Hold(purchaseRoute)

	p, err := w.BeginPurchase(scarf)
	require.NoError(t, err)
	got, _ := w.Get()
	assert.Equal(t, 60, got.Balance)
	assert.True(t, got.Owns(scarf.ID))
	assert.True(t, w.Pending())

	done := make(chan error, 1)
	go func() { done <- p.Send(context.Background()) }()
	release()
	require.NoError(t, <-done)
}

func TestPurchaseFailureRollsBack(t *testing.T) {
	w, srv := setup(t, 100)
	srv.Fail(purchaseRoute, 503)

	err := w.Purchase(context.Background(), scarf)
	require.Error(t, err)
	got, _ := w.Get()
	assert.Equal(t, 100, got.Balance)
	assert.False(t, got.Owns(scarf.ID))
}

func TestPurchasesDoNotOverlap(t *testing.T) {
	w, srv := setup(t, 200)
	srv.Fail(purchaseRoute, 503)

	first, err := w.BeginPurchase(crown)
	require.NoError(t, err)
	_, err = w.BeginPurchase(scarf)
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	require.Error(t, first.Send(context.Background()))
	assert.Equal(t, 1, srv.Count(purchaseRoute))
	got, _ := w.Get()
	assert.Equal(t, 200, got.Balance)
	assert.False(t, got.Owns(crown.ID))
	assert.False(t, got.Owns(scarf.ID))
	assert.False(t, w.Pending())

	require.NoError(t, w.Purchase(context.Background(), scarf), "free again once the first settles")
	got, _ = w.Get()
	assert.Equal(t, 160, got.Balance)
}

func TestPurchaseFailureAfterReloadIsReported(t *testing.T) {
	w, srv := setup(t, 200)
	release := srv.Hold(purchaseRoute)
	defer release()
	srv.Fail(purchaseRoute, 503)

	p, err := w.BeginPurchase(crown)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- p.Send(context.Background()) }()

	require.NoError(t, w.Load(context.Background()))
	release()

	require.Error(t, <-done)
	got, _ := w.Get()
	assert.Equal(t, 200, got.Balance)
	assert.False(t, got.Owns(crown.ID))
}

func TestPurchaseOwnedItem(t *testing.T) {
	w, srv := setup(t, 500, model.InventoryEntry{Item: scarf})
	err := w.Purchase(context.Background(), scarf)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 0, srv.Count(purchaseRoute))
}

func TestPurchaseBeforeLoad(t *testing.T) {
	w := NewWallet(nil, nil)
	_, err := w.BeginPurchase(meadow)
	assert.True(t, apperr.IsValidation(err))
}

func TestReset(t *testing.T) {
	w, _ := setup(t, 10)
	w.Reset()
	_, ok := w.Get()
	assert.False(t, ok)
	assert.Equal(t, model.Profile{}, w.Profile())
}

func TestEquipFreeSlot(t *testing.T) {
	w, _ := setup(t, 0, model.InventoryEntry{Item: scarf})

	e, err := w.SetEquipped(context.Background(), scarf.ID, true, false)
	require.NoError(t, err)
	assert.Equal(t, Equipped, e.State())
	got, _ := w.Get()
	entry, _ := got.Entry(scarf.ID)
	assert.True(t, entry.IsEquipped)
}

func TestEquipConflictWaitsForDecision(t *testing.T) {
	w, srv := setup(t, 0,
		model.InventoryEntry{Item: beanie, IsEquipped: true},
		model.InventoryEntry{Item: crown},
	)
	ctx := context.Background()

	e, err := w.NewEquip(crown.ID, true)
	require.NoError(t, err)
	st, err := e.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, ConflictPending, st)
	assert.False(t, st.Done())

	occ, ok := e.Occupant()
	require.True(t, ok)
	assert.Equal(t, beanie.ID, occ.ID)

	got, _ := w.Get()
	hat, _ := got.Equipped(model.SlotHat)
	assert.Equal(t, beanie.ID, hat.Item.ID, "unchanged until confirmed")

	st, err = e.Force(ctx)
	require.NoError(t, err)
	assert.Equal(t, ForcedEquip, st)
	got, _ = w.Get()
	hat, _ = got.Equipped(model.SlotHat)
	assert.Equal(t, crown.ID, hat.Item.ID)
	assert.Equal(t, 2, srv.Count("PUT /api/inventory/1/equip"))
}

func TestEquipConflictCancelled(t *testing.T) {
	w, srv := setup(t, 0,
		model.InventoryEntry{Item: beanie, IsEquipped: true},
		model.InventoryEntry{Item: crown},
	)

	e, err := w.SetEquipped(context.Background(), crown.ID, true, false)
	require.NoError(t, err)
	assert.Equal(t, ConflictPending, e.State())
	assert.Equal(t, Cancelled, e.Cancel())
	assert.Equal(t, 1, srv.Count("PUT /api/inventory/1/equip"))

	_, err = e.Force(context.Background())
	assert.True(t, apperr.IsValidation(err))

	got, _ := w.Get()
	hat, _ := got.Equipped(model.SlotHat)
	assert.Equal(t, beanie.ID, hat.Item.ID)
}

func TestEquipFailure(t *testing.T) {
	w, srv := setup(t, 0, model.InventoryEntry{Item: scarf})
	srv.Fail("PUT /api/inventory/3/equip", 500)

	e, err := w.SetEquipped(context.Background(), scarf.ID, true, false)
	require.Error(t, err)
	assert.Equal(t, Failed, e.State())
	assert.Equal(t, err, e.Err())
	got, _ := w.Get()
	entry, _ := got.Entry(scarf.ID)
	assert.False(t, entry.IsEquipped)
}

func TestUnequip(t *testing.T) {
	w, _ := setup(t, 0, model.InventoryEntry{Item: beanie, IsEquipped: true})

	e, err := w.SetEquipped(context.Background(), beanie.ID, false, false)
	require.NoError(t, err)
	assert.Equal(t, Equipped, e.State())
	got, _ := w.Get()
	_, ok := got.Equipped(model.SlotHat)
	assert.False(t, ok)
}

func TestEquipNotOwned(t *testing.T) {
	w, _ := setup(t, 0)
	_, err := w.NewEquip(crown.ID, true)
	assert.True(t, apperr.IsValidation(err))
}

func TestEquipRefreshFailureAppliesLocally(t *testing.T) {
	w, srv := setup(t, 0,
		model.InventoryEntry{Item: beanie, IsEquipped: true},
		model.InventoryEntry{Item: crown},
	)
	srv.Fail("GET /api/inventory", 500)

	e, err := w.SetEquipped(context.Background(), crown.ID, true, true)
	require.NoError(t, err)
	assert.Equal(t, ForcedEquip, e.State())
	got, _ := w.Get()
	hat, _ := got.Equipped(model.SlotHat)
	assert.Equal(t, crown.ID, hat.Item.ID)
}

func TestEquipFallbackWaitsForPurchaseInFlight(t *testing.T) {
	w, srv := setup(t, 200, model.InventoryEntry{Item: scarf})
	release := srv.Hold(purchaseRoute)
	defer release()

	p, err := w.BeginPurchase(crown)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- p.Send(context.Background()) }()

	srv.Fail("GET /api/inventory", 500)
	e, err := w.SetEquipped(context.Background(), scarf.ID, true, false)
	require.NoError(t, err)
	assert.Equal(t, Equipped, e.State())
	got, _ := w.Get()
	entry, _ := got.Entry(scarf.ID)
	assert.False(t, entry.IsEquipped, "pending purchase snapshot must stay intact")
	assert.True(t, w.Pending())

	release()
	require.NoError(t, <-done)
	got, _ = w.Get()
	assert.Equal(t, 100, got.Balance)
	assert.True(t, got.Owns(crown.ID))
	entry, _ = got.Entry(scarf.ID)
	assert.True(t, entry.IsEquipped)
}
