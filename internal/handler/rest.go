package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapp/internal/model"
	"github.com/vyrodovalexey/todoapp/internal/store"
)

// TodoHandler handles REST API requests for todos.
type TodoHandler struct {
	store  store.Store
	events *EventHub // optional; nil disables event broadcasting
	logger *zap.Logger
}

// NewTodoHandler creates a new TodoHandler instance.
func NewTodoHandler(s store.Store, events *EventHub, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		store:  s,
		events: events,
		logger: logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
// The stats route is registered before the id route; the id pattern is
// numeric-only so "stats" can never be captured as an id.
func (h *TodoHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/todos", h.ListTodos).Methods(http.MethodGet)
	router.HandleFunc("/api/todos", h.CreateTodo).Methods(http.MethodPost)
	router.HandleFunc("/api/todos/stats", h.GetStats).Methods(http.MethodGet)
	router.HandleFunc("/api/todos/{id:[0-9]+}", h.GetTodo).Methods(http.MethodGet)
	router.HandleFunc("/api/todos/{id:[0-9]+}", h.UpdateTodo).Methods(http.MethodPut)
	router.HandleFunc("/api/todos/{id:[0-9]+}", h.DeleteTodo).Methods(http.MethodDelete)
	router.HandleFunc("/api/todos/{id:[0-9]+}/toggle", h.ToggleTodo).Methods(http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *TodoHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ReadyCheck handles GET /ready requests.
func (h *TodoHandler) ReadyCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// ListTodos handles GET /api/todos requests.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list todos", zap.Error(err))
		writeError(h.logger, w, http.StatusInternalServerError, "failed to retrieve todos")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, todos)
}

// GetStats handles GET /api/todos/stats requests.
func (h *TodoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", zap.Error(err))
		writeError(h.logger, w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, stats)
}

// GetTodo handles GET /api/todos/{id} requests.
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	todo, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "get todo")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, todo)
}

// CreateTodo handles POST /api/todos requests.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var input model.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		writeError(h.logger, w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.store.Create(r.Context(), input.Title)
	if err != nil {
		h.handleStoreError(w, err, "create todo")
		return
	}

	h.broadcast(model.EventTodoCreated, todo)
	writeJSON(h.logger, w, http.StatusCreated, todo)
}

// UpdateTodo handles PUT /api/todos/{id} requests. Fields absent from the
// body are left unchanged.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	var input model.TodoUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		writeError(h.logger, w, http.StatusBadRequest, "invalid request body")
		return
	}

	todo, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		h.handleStoreError(w, err, "update todo")
		return
	}

	h.broadcast(model.EventTodoUpdated, todo)
	writeJSON(h.logger, w, http.StatusOK, todo)
}

// ToggleTodo handles POST /api/todos/{id}/toggle requests.
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	todo, err := h.store.Toggle(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "toggle todo")
		return
	}

	h.broadcast(model.EventTodoUpdated, todo)
	writeJSON(h.logger, w, http.StatusOK, todo)
}

// DeleteTodo handles DELETE /api/todos/{id} requests. The removed todo is
// returned in the response body.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	todo, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "delete todo")
		return
	}

	h.broadcast(model.EventTodoDeleted, todo)
	writeJSON(h.logger, w, http.StatusOK, todo)
}

// broadcast publishes a todo event when the event hub is configured.
func (h *TodoHandler) broadcast(eventType string, todo *model.Todo) {
	if h.events != nil {
		h.events.Broadcast(model.NewTodoEvent(eventType, todo))
	}
}

// handleStoreError maps store errors to HTTP responses.
func (h *TodoHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(h.logger, w, http.StatusNotFound, "todo not found")
	case errors.Is(err, store.ErrInvalidID):
		writeError(h.logger, w, http.StatusBadRequest, "invalid todo ID")
	case errors.Is(err, model.ErrEmptyTitle), errors.Is(err, model.ErrTitleTooLong):
		writeError(h.logger, w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		writeError(h.logger, w, http.StatusInternalServerError, "internal server error")
	}
}

// todoID extracts the numeric todo ID from the route variables.
func todoID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
