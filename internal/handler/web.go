package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapp/internal/model"
	"github.com/vyrodovalexey/todoapp/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// WebHandler serves the server-rendered HTML front end.
type WebHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewWebHandler creates a new WebHandler instance.
func NewWebHandler(s store.Store, logger *zap.Logger) *WebHandler {
	return &WebHandler{
		store:  s,
		logger: logger,
	}
}

// RegisterRoutes registers the front-end routes with the router.
func (h *WebHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)
}

// Index handles GET / requests, rendering the todo list page.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list todos for index page", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Todos []model.Todo }{Todos: todos}); err != nil {
		h.logger.Error("failed to render index page", zap.Error(err))
	}
}
