// Package store provides todo storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/todoapp/internal/model"
)

// Store errors.
var (
	ErrNotFound  = errors.New("todo not found")
	ErrInvalidID = errors.New("invalid todo ID")
)

// Store defines the interface for todo storage operations.
type Store interface {
	// List returns all todos in insertion order.
	List(ctx context.Context) ([]model.Todo, error)

	// Get retrieves a todo by its ID.
	Get(ctx context.Context, id int64) (*model.Todo, error)

	// Create adds a new todo with the given title and returns it
	// with a freshly assigned ID.
	Create(ctx context.Context, title string) (*model.Todo, error)

	// Update applies a partial update to an existing todo. Nil fields
	// of the update are left unchanged.
	Update(ctx context.Context, id int64, update model.TodoUpdate) (*model.Todo, error)

	// Toggle flips the completed flag of an existing todo.
	Toggle(ctx context.Context, id int64) (*model.Todo, error)

	// Delete removes a todo permanently and returns the removed item.
	Delete(ctx context.Context, id int64) (*model.Todo, error)

	// Stats returns aggregate counts over the collection.
	Stats(ctx context.Context) (*model.Stats, error)
}
