package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/idilsaglam/carrot/internal/model"
)

type categoryBody struct {
	Text string `json:"text"`
}

// ListCategories returns the user's categories in server order.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.do(ctx, "list categories", request{method: http.MethodGet, path: "/categories/"}, &out)
	if out == nil {
		out = []model.Category{}
	}
	return out, err
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, text string) (model.Category, error) {
	var out model.Category
	err := c.doJSON(ctx, "create category", http.MethodPost, "/categories/", categoryBody{Text: text}, &out)
	return out, err
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, id int, text string) error {
	return c.doJSON(ctx, fmt.Sprintf("update category %d", id), http.MethodPut,
		fmt.Sprintf("/categories/%d", id), categoryBody{Text: text}, nil)
}

// DeleteCategory deletes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.do(ctx, fmt.Sprintf("delete category %d", id), request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/categories/%d", id),
	}, nil)
}
