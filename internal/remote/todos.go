package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/idilsaglam/carrot/internal/model"
)

// NewTodo is the body of POST /todos/.
type NewTodo struct {
	Title       string     `json:"title"`
	Date        model.Date `json:"date"`
	CategoryIDs []int      `json:"category_ids,omitempty"`
}

// TodoPatch is a partial update; nil fields are not sent. ClearAlarm sends
// explicit nulls for both alarm fields.
type TodoPatch struct {
	Completed       *bool
	Title           *string
	CategoryIDs     *[]int
	AlarmTime       *string
	AlarmRepeatType *model.RepeatType
	ClearAlarm      bool
}

func (p TodoPatch) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if p.Completed != nil {
		m["completed"] = *p.Completed
	}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.CategoryIDs != nil {
		ids := *p.CategoryIDs
		if ids == nil {
			ids = []int{}
		}
		m["category_ids"] = ids
	}
	if p.ClearAlarm {
		m["alarm_time"] = nil
		m["alarm_repeat_type"] = nil
	} else {
		if p.AlarmTime != nil {
			m["alarm_time"] = *p.AlarmTime
		}
		if p.AlarmRepeatType != nil {
			m["alarm_repeat_type"] = *p.AlarmRepeatType
		}
	}
	return json.Marshal(m)
}

// ListTodos returns the todos of one day.
func (c *Client) ListTodos(ctx context.Context, date model.Date) ([]model.Todo, error) {
	var out []model.Todo
	err := c.do(ctx, "list todos", request{
		method: http.MethodGet,
		path:   "/todos/",
		query:  url.Values{"target_date": {date.String()}},
	}, &out)
	if out == nil {
		out = []model.Todo{}
	}
	return out, err
}

// CreateTodo creates a todo and returns it with its server id.
func (c *Client) CreateTodo(ctx context.Context, in NewTodo) (model.Todo, error) {
	var out model.Todo
	err := c.doJSON(ctx, "create todo", http.MethodPost, "/todos/", in, &out)
	return out, err
}

// UpdateTodo sends a partial update.
func (c *Client) UpdateTodo(ctx context.Context, id int, patch TodoPatch) error {
	return c.doJSON(ctx, fmt.Sprintf("update todo %d", id), http.MethodPut, fmt.Sprintf("/todos/%d/", id), patch, nil)
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.do(ctx, fmt.Sprintf("delete todo %d", id), request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/todos/%d/", id),
	}, nil)
}
