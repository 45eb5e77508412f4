// Package todos keeps the todo list of one calendar day in sync with the
// backend, applying every edit optimistically.
package todos

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

// API is the slice of the backend the todo list needs.
type API interface {
	ListTodos(ctx context.Context, date model.Date) ([]model.Todo, error)
	CreateTodo(ctx context.Context, in remote.NewTodo) (model.Todo, error)
	UpdateTodo(ctx context.Context, id int, patch remote.TodoPatch) error
	DeleteTodo(ctx context.Context, id int) error
}

type mutation = optimistic.Mutation[int, model.Todo]

// Service owns the visible todo list. Callers only read copies.
type Service struct {
	api   API
	log   *log.Logger
	items *optimistic.Collection[int, model.Todo]

	mu      sync.Mutex
	date    model.Date
	loadGen uint64 // latest Load issued; older responses are dropped
	tempID  int
}

// New creates an empty list. logger may be nil.
func New(api API, logger *log.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		api: api,
		log: logger.WithPrefix("todos"),
		items: optimistic.NewCollection(
			func(t model.Todo) int { return t.ID },
			optimistic.WithClone[int](model.Todo.Clone),
		),
		date: model.Today(),
	}
}

// Date is the day currently shown.
func (s *Service) Date() model.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Day returns the day shown together with its list, read under one lock
// so the two never disagree.
func (s *Service) Day() (model.Date, []model.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date, s.items.Snapshot()
}

// Todos returns a copy of the visible list.
func (s *Service) Todos() []model.Todo { return s.items.Snapshot() }

// Get returns a copy of one todo.
func (s *Service) Get(id int) (model.Todo, bool) { return s.items.Get(id) }

// Pending reports whether a change to id awaits the server.
func (s *Service) Pending(id int) bool { return s.items.Pending(id) }

// Stats counts done and pending todos.
func (s *Service) Stats() (done, pending int) {
	for _, t := range s.items.Snapshot() {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return done, pending
}

// Load replaces the list with the server's todos for date. On failure the
// previous list stays.
func (s *Service) Load(ctx context.Context, date model.Date) error {
	return s.BeginLoad(date)(ctx)
}

// BeginLoad claims the next load generation and returns the fetch for date.
// When loads overlap only the latest claimed one is applied; an older one
// returns nil without touching the list.
func (s *Service) BeginLoad(date model.Date) func(context.Context) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	return func(ctx context.Context) error {
		list, err := s.api.ListTodos(ctx, date)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.loadGen {
			s.log.Debug("stale load discarded", "date", date, "gen", gen, "err", err)
			return nil
		}
		if err != nil {
			return err
		}
		s.date = date
		s.items.Replace(list)
		s.log.Debug("loaded", "date", date, "count", len(list))
		return nil
	}
}

// Reset empties the list, as on logout.
func (s *Service) Reset() { s.items.Reset() }

func (s *Service) nextTempID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempID--
	return s.tempID
}

// settle reconciles m with the outcome of its request. A superseded
// mutation is dropped silently: a newer one owns the entity.
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
	default:
		s.log.Debug("confirmed", fields...)
		return nil
	}
}

func (s *Service) notInList(op string, id int) error {
	return apperr.New(apperr.NotFound, op, fmt.Sprintf("todo %d is not in the list", id))
}

// Drafts carry negative ids until the server assigns one.
func stillCreating(op string) error {
	return apperr.NewValidationError(op, "todo is still being created")
}

func withMutation(ctx context.Context, m *mutation) context.Context {
	return remote.WithRequestID(ctx, m.ID().String())
}

// BeginCreate shows a new todo on the current day under a temporary id.
// Send swaps in the server's todo, or removes it on failure.
func (s *Service) BeginCreate(title string, categories []model.Category) (*optimistic.Pending, error) {
	const op = "create todo"
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.NewValidationError(op, "title cannot be empty")
	}
	draft := model.Todo{
		ID:         s.nextTempID(),
		Title:      title,
		Date:       s.Date(),
		Categories: append([]model.Category(nil), categories...),
	}
	m := s.items.BeginInsert(draft)
	s.log.Debug("applied", "op", op, "id", draft.ID, "mutation", m.ID())

	return optimistic.NewPending(func(ctx context.Context) error {
		created, err := s.api.CreateTodo(withMutation(ctx, m), remote.NewTodo{
			Title:       draft.Title,
			Date:        draft.Date,
			CategoryIDs: draft.CategoryIDs(),
		})
		if err != nil {
			return s.settle(m, op, err)
		}
		if st := m.ConfirmWith(created); st != optimistic.Confirmed {
			s.log.Debug("created todo left the list", "id", created.ID, "state", st)
		}
		return nil
	}), nil
}

// Create adds a todo and waits for the server.
func (s *Service) Create(ctx context.Context, title string, categories []model.Category) error {
	p, err := s.BeginCreate(title, categories)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

// beginPatch applies update to todo id and sends patch built from the
// updated todo.
func (s *Service) beginPatch(op string, id int, update func(model.Todo) model.Todo, patch func(model.Todo) remote.TodoPatch) (*optimistic.Pending, error) {
	if id < 0 {
		return nil, stillCreating(op)
	}
	m, ok := s.items.BeginUpdate(id, update)
	if !ok {
		return nil, s.notInList(op, id)
	}
	after, _ := s.items.Get(id)
	p := patch(after)
	s.log.Debug("applied", "op", op, "id", id, "seq", m.Seq(), "mutation", m.ID())

	return optimistic.NewPending(func(ctx context.Context) error {
		err := s.api.UpdateTodo(withMutation(ctx, m), id, p)
		return s.settle(m, op, err)
	}), nil
}

// BeginToggle flips completed on todo id.
func (s *Service) BeginToggle(id int) (*optimistic.Pending, error) {
	return s.beginPatch(fmt.Sprintf("toggle todo %d", id), id,
		func(t model.Todo) model.Todo { t.Completed = !t.Completed; return t },
		func(t model.Todo) remote.TodoPatch { return remote.TodoPatch{Completed: &t.Completed} },
	)
}

// Toggle flips completed and waits for the server.
func (s *Service) Toggle(ctx context.Context, id int) error {
	p, err := s.BeginToggle(id)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

// BeginRename changes the title of todo id.
func (s *Service) BeginRename(id int, title string) (*optimistic.Pending, error) {
	op := fmt.Sprintf("rename todo %d", id)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.NewValidationError(op, "title cannot be empty")
	}
	return s.beginPatch(op, id,
		func(t model.Todo) model.Todo { t.Title = title; return t },
		func(t model.Todo) remote.TodoPatch { return remote.TodoPatch{Title: &t.Title} },
	)
}

// Rename changes a title and waits for the server.
func (s *Service) Rename(ctx context.Context, id int, title string) error {
	p, err := s.BeginRename(id, title)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

// BeginSetCategories replaces the categories of todo id.
func (s *Service) BeginSetCategories(id int, categories []model.Category) (*optimistic.Pending, error) {
	cats := dedupe(categories)
	return s.beginPatch(fmt.Sprintf("set categories of todo %d", id), id,
		func(t model.Todo) model.Todo { t.Categories = cats; return t },
		func(t model.Todo) remote.TodoPatch {
			ids := t.CategoryIDs()
			return remote.TodoPatch{CategoryIDs: &ids}
		},
	)
}

// SetCategories replaces categories and waits for the server.
func (s *Service) SetCategories(ctx context.Context, id int, categories []model.Category) error {
	p, err := s.BeginSetCategories(id, categories)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

// BeginSetAlarm sets or, with a nil time, clears the alarm of todo id.
func (s *Service) BeginSetAlarm(id int, at *string, repeat model.RepeatType) (*optimistic.Pending, error) {
	op := fmt.Sprintf("set alarm of todo %d", id)
	if at != nil {
		norm, err := model.ParseAlarmTime(*at)
		if err != nil {
			return nil, apperr.NewValidationError(op, err.Error())
		}
		at = &norm
	}
	return s.beginPatch(op, id,
		func(t model.Todo) model.Todo {
			if at == nil {
				t.AlarmTime, t.AlarmRepeatType = nil, nil
				return t
			}
			a, r := *at, repeat
			t.AlarmTime, t.AlarmRepeatType = &a, &r
			return t
		},
		func(t model.Todo) remote.TodoPatch {
			if t.AlarmTime == nil {
				return remote.TodoPatch{ClearAlarm: true}
			}
			return remote.TodoPatch{AlarmTime: t.AlarmTime, AlarmRepeatType: t.AlarmRepeatType}
		},
	)
}

// SetAlarm sets or clears the alarm and waits for the server.
func (s *Service) SetAlarm(ctx context.Context, id int, at *string, repeat model.RepeatType) error {
	p, err := s.BeginSetAlarm(id, at, repeat)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

// BeginDelete removes todo id. A 404 from the server means it is already
// gone, which counts as success.
func (s *Service) BeginDelete(id int) (*optimistic.Pending, error) {
	op := fmt.Sprintf("delete todo %d", id)
	if id < 0 {
		return nil, stillCreating(op)
	}
	if _, ok := s.items.Get(id); !ok {
		return nil, s.notInList(op, id)
	}
	m := s.items.BeginRemove(id)
	s.log.Debug("applied", "op", op, "id", id, "seq", m.Seq(), "mutation", m.ID())

	return optimistic.NewPending(func(ctx context.Context) error {
		err := s.api.DeleteTodo(withMutation(ctx, m), id)
		if apperr.IsNotFound(err) {
			s.log.Debug("already deleted on server", "id", id)
			err = nil
		}
		return s.settle(m, op, err)
	}), nil
}

// Delete removes a todo and waits for the server.
func (s *Service) Delete(ctx context.Context, id int) error {
	p, err := s.BeginDelete(id)
	if err != nil {
		return err
	}
	return p.Send(ctx)
}

func dedupe(cats []model.Category) []model.Category {
	seen := make(map[int]bool, len(cats))
	out := make([]model.Category, 0, len(cats))
	for _, c := range cats {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out
}
