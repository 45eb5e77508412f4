// Package remotetest runs an in-memory carrot backend over httptest for
// tests, with per-route failure injection.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/idilsaglam/carrot/internal/model"
)

// Server is a fake backend. Exported fields may be seeded before use and
// read after; lock with Lock/Unlock while requests are in flight.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	Token    string
	Username string
	Password string
	Profile  model.Profile

	Todos      map[int]model.Todo
	Categories []model.Category
	Catalog    map[int]model.Item
	Inventory  []model.InventoryEntry

	nextID   int
	failures map[string][]int
	hold     map[string]chan struct{}
	requests []string
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		Token:    "test-token",
		Username: "bunny",
		Password: "carrots",
		Profile:  model.Profile{Name: "Bunny", Email: "bunny@example.com"},
		Todos:    map[int]model.Todo{},
		Catalog:  map[int]model.Item{},
		nextID:   100,
		failures: map[string][]int{},
		hold:     map[string]chan struct{}{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/", s.login)
	mux.HandleFunc("POST /signup/", s.signup)
	mux.HandleFunc("GET /users/me/", s.authed(s.me))
	mux.HandleFunc("GET /todos/", s.authed(s.listTodos))
	mux.HandleFunc("POST /todos/", s.authed(s.createTodo))
	mux.HandleFunc("PUT /todos/{id}/", s.authed(s.updateTodo))
	mux.HandleFunc("DELETE /todos/{id}/", s.authed(s.deleteTodo))
	mux.HandleFunc("GET /categories/", s.authed(s.listCategories))
	mux.HandleFunc("POST /categories/", s.authed(s.createCategory))
	mux.HandleFunc("PUT /categories/{id}", s.authed(s.updateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.authed(s.deleteCategory))
	mux.HandleFunc("GET /api/inventory", s.authed(s.inventory))
	mux.HandleFunc("PUT /api/inventory/{id}/equip", s.authed(s.equip))
	mux.HandleFunc("POST /shop/purchase/", s.authed(s.purchase))

	s.Server = httptest.NewServer(s.intercept(mux))
	t.Cleanup(s.Close)
	return s
}

// Lock guards the exported fields.
func (s *Server) Lock() { s.mu.Lock() }

// Unlock releases Lock.
func (s *Server) Unlock() { s.mu.Unlock() }

// Fail makes the next request matching "METHOD /path" answer status.
// Repeated calls queue further failures.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], status)
}

// Hold blocks requests on route until the returned func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold[route] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Requests returns "METHOD /path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count returns how many requests hit route.
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r == route {
			n++
		}
	}
	return n
}

// Balance returns the server-side carrot balance.
func (s *Server) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Profile.CarrotBalance
}

// AddTodo seeds a todo and returns its id.
func (s *Server) AddTodo(td model.Todo) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if td.ID == 0 {
		s.nextID++
		td.ID = s.nextID
	}
	s.Todos[td.ID] = td
	return td.ID
}

// Todo returns the server copy of a todo.
func (s *Server) Todo(id int) (model.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.Todos[id]
	return td, ok
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, route)
		ch := s.hold[route]
		var status int
		if q := s.failures[route]; len(q) > 0 {
			status, s.failures[route] = q[0], q[1:]
		}
		s.mu.Unlock()

		if ch != nil {
			<-ch
		}
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := "Bearer " + s.Token
		s.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad form")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.PostForm.Get("username") != s.Username || r.PostForm.Get("password") != s.Password {
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": s.Token, "token_type": "bearer"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.EqualFold(in.Email, s.Profile.Email) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"email": in.Email})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Profile)
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("target_date")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Todo{}
	for _, td := range s.Todos {
		if string(td.Date) == date {
			out = append(out, td)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) categoriesByID(ids []int) []model.Category {
	out := []model.Category{}
	for _, id := range ids {
		for _, c := range s.Categories {
			if c.ID == id {
				out = append(out, model.Category{ID: c.ID, Text: c.Text})
			}
		}
	}
	return out
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string     `json:"title"`
		Date        model.Date `json:"date"`
		CategoryIDs []int      `json:"category_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	td := model.Todo{ID: s.nextID, Title: in.Title, Date: in.Date, Categories: s.categoriesByID(in.CategoryIDs)}
	s.Todos[td.ID] = td
	writeJSON(w, http.StatusCreated, td)
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	td, found := s.Todos[id]
	if !found {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	if v, ok := in["completed"]; ok {
		_ = json.Unmarshal(v, &td.Completed)
	}
	if v, ok := in["title"]; ok {
		_ = json.Unmarshal(v, &td.Title)
	}
	if v, ok := in["category_ids"]; ok {
		var ids []int
		_ = json.Unmarshal(v, &ids)
		td.Categories = s.categoriesByID(ids)
	}
	if v, ok := in["alarm_time"]; ok {
		td.AlarmTime = nil
		_ = json.Unmarshal(v, &td.AlarmTime)
	}
	if v, ok := in["alarm_repeat_type"]; ok {
		td.AlarmRepeatType = nil
		_ = json.Unmarshal(v, &td.AlarmRepeatType)
	}
	s.Todos[id] = td
	writeJSON(w, http.StatusOK, td)
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.Todos[id]; !found {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	delete(s.Todos, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Category, len(s.Categories))
	copy(out, s.Categories)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := model.Category{ID: s.nextID, Text: in.Text}
	s.Categories = append(s.Categories, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			s.Categories[i].Text = in.Text
			writeJSON(w, http.StatusOK, s.Categories[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Category not found")
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Category not found")
}

func (s *Server) inventory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.InventoryEntry, len(s.Inventory))
	copy(out, s.Inventory)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) equip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		ItemID     int  `json:"item_id"`
		IsEquipped bool `json:"is_equipped"`
		Force      bool `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, e := range s.Inventory {
		if e.Item.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Item not in inventory")
		return
	}
	if !in.IsEquipped {
		s.Inventory[idx].IsEquipped = false
		writeJSON(w, http.StatusOK, s.Inventory[idx])
		return
	}
	slot := s.Inventory[idx].Item.Type
	for i, e := range s.Inventory {
		if i != idx && e.IsEquipped && e.Item.Type == slot {
			if !in.Force {
				writeError(w, http.StatusConflict, "Another item is already equipped in this slot")
				return
			}
			s.Inventory[i].IsEquipped = false
		}
	}
	s.Inventory[idx].IsEquipped = true
	writeJSON(w, http.StatusOK, s.Inventory[idx])
}

func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("item_id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "item_id is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.Catalog[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	for _, e := range s.Inventory {
		if e.Item.ID == id {
			writeError(w, http.StatusConflict, "Item already owned")
			return
		}
	}
	if s.Profile.CarrotBalance < item.Price {
		writeError(w, http.StatusBadRequest, "Not enough carrots")
		return
	}
	s.Profile.CarrotBalance -= item.Price
	s.Inventory = append(s.Inventory, model.InventoryEntry{Item: item})
	writeJSON(w, http.StatusOK, map[string]any{"carrot_balance": s.Profile.CarrotBalance})
}
