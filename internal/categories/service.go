// Package categories manages the user's todo categories with optimistic
// create, rename and delete, and assigns each one a display color.
package categories

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/logging"
	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/optimistic"
	"github.com/idilsaglam/carrot/internal/remote"
)

type API interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, text string) (model.Category, error)
	UpdateCategory(ctx context.Context, id int, text string) error
	DeleteCategory(ctx context.Context, id int) error
}

type mutation = optimistic.Mutation[int, model.Category]

type Service struct {
	api    API
	log    *log.Logger
	colors Colorer
	items  *optimistic.Collection[int, model.Category]

	mu     sync.Mutex
	tempID int
}

// New creates an empty category list. A nil colorer uses Stable over no
// palette, leaving colors blank.
func New(api API, colors Colorer, logger *log.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if colors == nil {
		colors = Stable{}
	}
	return &Service{
		api:    api,
		log:    logger.WithPrefix("categories"),
		colors: colors,
		items:  optimistic.NewCollection(func(c model.Category) int { return c.ID }),
	}
}

// Categories returns a copy of the list.
func (s *Service) Categories() []model.Category { return s.items.Snapshot() }

func (s *Service) Get(id int) (model.Category, bool) { return s.items.Get(id) }

func (s *Service) Pending(id int) bool { return s.items.Pending(id) }

// ColorOf returns the displayed color of category id, known or not.
func (s *Service) ColorOf(id int) string {
	if c, ok := s.items.Get(id); ok && c.Color != "" {
		return c.Color
	}
	return s.colors.For(id)
}

// Colorize fills in colors on categories embedded in other entities.
func (s *Service) Colorize(cats []model.Category) []model.Category {
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		c.Color = s.ColorOf(c.ID)
		out[i] = c
	}
	return out
}

// Resolve maps names or ids to known categories.
func (s *Service) Resolve(refs []string) ([]model.Category, error) {
	list := s.items.Snapshot()
	out := make([]model.Category, 0, len(refs))
outer:
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		for _, c := range list {
			if strings.EqualFold(c.Text, ref) || fmt.Sprint(c.ID) == ref {
				out = append(out, c)
				continue outer
			}
		}
		return nil, apperr.New(apperr.NotFound, "resolve category", fmt.Sprintf("no category %q", ref))
	}
	return out, nil
}

// Load fetches the categories and colors them.
func (s *Service) Load(ctx context.Context) error {
	list, err := s.api.ListCategories(ctx)
	if err != nil {
		return err
	}
	s.items.Replace(s.colors.Assign(list))
	s.log.Debug("loaded", "count", len(list))
	return nil
}

func (s *Service) Reset() { s.items.Reset() }

func (s *Service) settle(m *mutation, op string, err error) error {
	st := m.Resolve(err)
	fields := []any{"op", op, "id", m.Key(), "seq", m.Seq(), "mutation", m.ID(), "state", st}
	switch {
	case st == optimistic.Discarded:
		s.log.Debug("stale response discarded", fields...)
		return nil
	case err != nil:
		s.log.Warn("rolled back", append(fields, "err", err)...)
		return err
	}
	s.log.Debug("confirmed", fields...)
	return nil
}

func validText(op, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.NewValidationError(op, "category text cannot be empty")
	}
	return text, nil
}

// BeginCreate shows the new category under a temporary id until the
// server assigns one.
func (s *Service) BeginCreate(text string) (*optimistic.Pending, error) {
	const op = "create category"
	text, err := validText(op, text)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.tempID--
	draft := model.Category{ID: s.tempID, Text: text}
	s.mu.Unlock()

	m := s.items.BeginInsert(draft)
	return optimistic.NewPending(func(ctx context.Context) error {
		created, err := s.api.CreateCategory(remote.WithRequestID(ctx, m.ID().String()), text)
		if err != nil {
			return s.settle(m, op, err)
		}
		created.Color = s.colors.For(created.ID)
		m.ConfirmWith(created)
		s.log.Debug("confirmed", "op", op, "id", created.ID, "mutation", m.ID())
		return nil
	}), nil
}

func (s *Service) Create(ctx context.Context, text string) error {
	p, err := s.BeginCreate(text)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

func (s *Service) BeginRename(id int, text string) (*optimistic.Pending, error) {
	op := fmt.Sprintf("rename category %d", id)
	text, err := validText(op, text)
	if err != nil {
		return nil, err
	}
	if id < 0 {
		return nil, apperr.NewValidationError(op, "category is still being created")
	}
	m, ok := s.items.BeginUpdate(id, func(c model.Category) model.Category { c.Text = text; return c })
	if !ok {
		return nil, apperr.New(apperr.NotFound, op, fmt.Sprintf("category %d is not in the list", id))
	}
	return optimistic.NewPending(func(ctx context.Context) error {
		err := s.api.UpdateCategory(remote.WithRequestID(ctx, m.ID().String()), id, text)
		return s.settle(m, op, err)
	}), nil
}

func (s *Service) Rename(ctx context.Context, id int, text string) error {
	p, err := s.BeginRename(id, text)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

// BeginDelete removes category id. A 404 means it is already gone.
func (s *Service) BeginDelete(id int) (*optimistic.Pending, error) {
	op := fmt.Sprintf("delete category %d", id)
	if id < 0 {
		return nil, apperr.NewValidationError(op, "category is still being created")
	}
	if _, ok := s.items.Get(id); !ok {
		return nil, apperr.New(apperr.NotFound, op, fmt.Sprintf("category %d is not in the list", id))
	}
	m := s.items.BeginRemove(id)
	return optimistic.NewPending(func(ctx context.Context) error {
		err := s.api.DeleteCategory(remote.WithRequestID(ctx, m.ID().String()), id)
		if apperr.IsNotFound(err) {
			err = nil
		}
		return s.settle(m, op, err)
	}), nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	p, err := s.BeginDelete(id)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}
