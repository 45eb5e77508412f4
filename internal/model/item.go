package model

import "fmt"

// Slot is the cosmetic slot an item occupies on the avatar.
// At most one item per slot is equipped at a time.
type Slot string

const (
	SlotHat        Slot = "hat"
	SlotAccessory  Slot = "accessory"
	SlotBackground Slot = "background"
)

// Slots lists the known slots in display order.
var Slots = []Slot{SlotHat, SlotAccessory, SlotBackground}

// ParseSlot accepts the wire names used by the shop.
func ParseSlot(s string) (Slot, error) {
	for _, sl := range Slots {
		if string(sl) == s {
			return sl, nil
		}
	}
	return "", fmt.Errorf("unknown slot %q", s)
}

// Item is a shop item. Price only matters in the shop context.
type Item struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Price int    `json:"price" yaml:"price"`
	Type  Slot   `json:"type" yaml:"type"`
}

// InventoryEntry is an owned item and whether it is on the avatar.
type InventoryEntry struct {
	Item       Item `json:"item" yaml:"item"`
	IsEquipped bool `json:"is_equipped" yaml:"is_equipped"`
}

// Profile is the /users/me/ payload.
type Profile struct {
	Name          string `json:"name" yaml:"name"`
	Email         string `json:"email" yaml:"email"`
	CarrotBalance int    `json:"carrot_balance" yaml:"carrot_balance"`
}

// Wallet pairs the carrot balance with the inventory. Both change together
// on purchase and equip, so they are always read and replaced as one value.
type Wallet struct {
	Balance   int              `json:"carrot_balance" yaml:"carrot_balance"`
	Inventory []InventoryEntry `json:"inventory" yaml:"inventory"`
}

// Clone returns a deep copy; the inventory slice is never shared.
func (w Wallet) Clone() Wallet {
	out := Wallet{Balance: w.Balance}
	if w.Inventory != nil {
		out.Inventory = make([]InventoryEntry, len(w.Inventory))
		copy(out.Inventory, w.Inventory)
	}
	return out
}

// Owns reports whether the item is in the inventory.
func (w Wallet) Owns(itemID int) bool {
	_, ok := w.Entry(itemID)
	return ok
}

// Entry returns the inventory entry for itemID.
func (w Wallet) Entry(itemID int) (InventoryEntry, bool) {
	for _, e := range w.Inventory {
		if e.Item.ID == itemID {
			return e, true
		}
	}
	return InventoryEntry{}, false
}

// Equipped returns the item currently equipped in slot, if any.
func (w Wallet) Equipped(slot Slot) (InventoryEntry, bool) {
	for _, e := range w.Inventory {
		if e.IsEquipped && e.Item.Type == slot {
			return e, true
		}
	}
	return InventoryEntry{}, false
}
