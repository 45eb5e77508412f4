package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/idilsaglam/carrot/internal/model"
)

// Inventory lists the owned items.
func (c *Client) Inventory(ctx context.Context) ([]model.InventoryEntry, error) {
	var out []model.InventoryEntry
	err := c.do(ctx, "list inventory", request{method: http.MethodGet, path: "/api/inventory"}, &out)
	if out == nil {
		out = []model.InventoryEntry{}
	}
	return out, err
}

type equipBody struct {
	ItemID     int  `json:"item_id"`
	IsEquipped bool `json:"is_equipped"`
	Force      bool `json:"force,omitempty"`
}

// Equip puts an item on (or takes it off) the avatar. Without force the
// server answers 409 when the item's slot is already taken.
func (c *Client) Equip(ctx context.Context, itemID int, equipped, force bool) error {
	return c.doJSON(ctx, fmt.Sprintf("equip item %d", itemID), http.MethodPut,
		fmt.Sprintf("/api/inventory/%d/equip", itemID),
		equipBody{ItemID: itemID, IsEquipped: equipped, Force: force}, nil)
}

// Purchase buys an item with carrots.
func (c *Client) Purchase(ctx context.Context, itemID int) error {
	return c.do(ctx, fmt.Sprintf("purchase item %d", itemID), request{
		method: http.MethodPost,
		path:   "/shop/purchase/",
		query:  url.Values{"item_id": {strconv.Itoa(itemID)}},
	}, nil)
}
