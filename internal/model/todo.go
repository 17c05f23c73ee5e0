// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"strings"
	"time"
)

// Validation errors for Todo.
var (
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrTitleTooLong = errors.New("title cannot exceed 255 characters")
)

// MaxTitleLength is the maximum number of bytes allowed in a todo title.
const MaxTitleLength = 255

// Todo represents a single to-do item.
type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateTitle checks that a title satisfies the store invariants.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}

	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}

	return nil
}

// CreateTodoRequest is the body of POST /api/todos.
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// TodoUpdate describes a partial update to a todo. Nil fields are left
// unchanged, which distinguishes an omitted JSON key from a zero value.
type TodoUpdate struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// Validate checks the supplied fields of a partial update.
func (u *TodoUpdate) Validate() error {
	if u.Title != nil {
		return ValidateTitle(*u.Title)
	}
	return nil
}

// Stats holds aggregate counts over the todo collection.
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// NewStats computes aggregate statistics from item counts.
func NewStats(total, completed int) Stats {
	s := Stats{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
	if total > 0 {
		s.CompletionRate = float64(completed) / float64(total) * 100
	}
	return s
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Todo event types sent over the WebSocket feed.
const (
	EventTodoCreated = "todo.created"
	EventTodoUpdated = "todo.updated"
	EventTodoDeleted = "todo.deleted"
)

// TodoEvent is broadcast to WebSocket clients after a successful mutation.
type TodoEvent struct {
	Type      string    `json:"type"`
	Todo      *Todo     `json:"todo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTodoEvent creates a timestamped event for the given todo.
func NewTodoEvent(eventType string, todo *Todo) TodoEvent {
	return TodoEvent{
		Type:      eventType,
		Todo:      todo,
		Timestamp: time.Now().UTC(),
	}
}
