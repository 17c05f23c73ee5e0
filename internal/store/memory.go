package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/todoapp/internal/model"
)

// Prometheus metrics for the in-memory store.
var (
	todoItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "todo_items",
			Help: "Number of todo items currently stored, by completion state",
		},
		[]string{"state"},
	)

	todoOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_store_operations_total",
			Help: "Total number of successful todo store operations",
		},
		[]string{"operation"},
	)
)

// MemoryStore implements Store with in-memory storage. IDs come from a
// monotonically increasing counter and are never reused, and iteration
// order is insertion order regardless of deletions.
type MemoryStore struct {
	mu     sync.RWMutex
	todos  map[int64]model.Todo
	order  []int64
	nextID int64
}

// NewMemoryStore creates a new empty MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos:  make(map[int64]model.Todo),
		nextID: 1,
	}
}

// List returns all todos in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Todo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list todos: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]model.Todo, 0, len(s.order))
	for _, id := range s.order {
		todos = append(todos, s.todos[id])
	}

	return todos, nil
}

// Get retrieves a todo by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.Todo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get todo: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, exists := s.todos[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &todo, nil
}

// Create adds a new todo and returns it with a freshly assigned ID.
func (s *MemoryStore) Create(ctx context.Context, title string) (*model.Todo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create todo: %w", ctx.Err())
	default:
	}

	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo := model.Todo{
		ID:        s.nextID,
		Title:     title,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++

	s.todos[todo.ID] = todo
	s.order = append(s.order, todo.ID)

	todoItems.WithLabelValues("pending").Inc()
	todoOperations.WithLabelValues("create").Inc()

	return &todo, nil
}

// Update applies a partial update to an existing todo. Nil fields of the
// update are left unchanged; the todo is untouched on any error.
func (s *MemoryStore) Update(ctx context.Context, id int64, update model.TodoUpdate) (*model.Todo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update todo: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, exists := s.todos[id]
	if !exists {
		return nil, ErrNotFound
	}

	if update.Title != nil {
		todo.Title = *update.Title
	}
	if update.Completed != nil && *update.Completed != todo.Completed {
		s.moveItemGauge(todo.Completed, *update.Completed)
		todo.Completed = *update.Completed
	}

	s.todos[id] = todo
	todoOperations.WithLabelValues("update").Inc()

	return &todo, nil
}

// Toggle flips the completed flag of an existing todo.
func (s *MemoryStore) Toggle(ctx context.Context, id int64) (*model.Todo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("toggle todo: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, exists := s.todos[id]
	if !exists {
		return nil, ErrNotFound
	}

	s.moveItemGauge(todo.Completed, !todo.Completed)
	todo.Completed = !todo.Completed
	s.todos[id] = todo

	todoOperations.WithLabelValues("toggle").Inc()

	return &todo, nil
}

// Delete removes a todo permanently and returns the removed item.
func (s *MemoryStore) Delete(ctx context.Context, id int64) (*model.Todo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("delete todo: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, exists := s.todos[id]
	if !exists {
		return nil, ErrNotFound
	}

	delete(s.todos, id)
	for i, orderedID := range s.order {
		if orderedID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	todoItems.WithLabelValues(stateLabel(todo.Completed)).Dec()
	todoOperations.WithLabelValues("delete").Inc()

	return &todo, nil
}

// Stats returns aggregate counts over the collection, computed under a
// single read lock so the counts are mutually consistent.
func (s *MemoryStore) Stats(ctx context.Context) (*model.Stats, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("todo stats: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := 0
	for _, todo := range s.todos {
		if todo.Completed {
			completed++
		}
	}

	stats := model.NewStats(len(s.todos), completed)
	return &stats, nil
}

// moveItemGauge shifts one item between the pending and completed gauge
// buckets. Caller must hold the write lock.
func (s *MemoryStore) moveItemGauge(from, to bool) {
	todoItems.WithLabelValues(stateLabel(from)).Dec()
	todoItems.WithLabelValues(stateLabel(to)).Inc()
}

func stateLabel(completed bool) string {
	if completed {
		return "completed"
	}
	return "pending"
}
