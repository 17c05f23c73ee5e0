package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/graphql-go/graphql"
	gqlhandler "github.com/graphql-go/handler"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapp/internal/model"
	"github.com/vyrodovalexey/todoapp/internal/store"
)

// GraphQLHandler exposes the todo store as a GraphQL endpoint with queries
// for todos and stats and mutations mirroring the REST operations.
// Mutations emit the same WebSocket events as their REST counterparts.
type GraphQLHandler struct {
	store   store.Store
	events  *EventHub // optional; nil disables event broadcasting
	logger  *zap.Logger
	handler http.Handler
}

// NewGraphQLHandler creates a new GraphQLHandler instance.
func NewGraphQLHandler(s store.Store, events *EventHub, logger *zap.Logger) (*GraphQLHandler, error) {
	h := &GraphQLHandler{
		store:  s,
		events: events,
		logger: logger,
	}

	schema, err := h.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("building graphql schema: %w", err)
	}

	h.handler = gqlhandler.New(&gqlhandler.Config{
		Schema: &schema,
		Pretty: true,
	})

	return h, nil
}

// RegisterRoutes registers the GraphQL endpoint with the router.
func (h *GraphQLHandler) RegisterRoutes(router *mux.Router) {
	router.Handle("/api/graphql", h.handler).Methods(http.MethodGet, http.MethodPost)
}

// buildSchema assembles the GraphQL schema over the todo store.
func (h *GraphQLHandler) buildSchema() (graphql.Schema, error) {
	todoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Todo",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"completed": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"total":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"completed":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"pending":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"completionRate": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"todos": &graphql.Field{
				Type:    graphql.NewList(todoType),
				Resolve: h.resolveTodos,
			},
			"todo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: h.resolveTodo,
			},
			"stats": &graphql.Field{
				Type:    statsType,
				Resolve: h.resolveStats,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createTodo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"title": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: h.resolveCreateTodo,
			},
			"toggleTodo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: h.resolveToggleTodo,
			},
			"deleteTodo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: h.resolveDeleteTodo,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func (h *GraphQLHandler) resolveTodos(p graphql.ResolveParams) (any, error) {
	todos, err := h.store.List(p.Context)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]any, 0, len(todos))
	for i := range todos {
		result = append(result, todoToMap(&todos[i]))
	}
	return result, nil
}

func (h *GraphQLHandler) resolveTodo(p graphql.ResolveParams) (any, error) {
	todo, err := h.store.Get(p.Context, argID(p))
	if err != nil {
		return nil, err
	}
	return todoToMap(todo), nil
}

func (h *GraphQLHandler) resolveStats(p graphql.ResolveParams) (any, error) {
	stats, err := h.store.Stats(p.Context)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total":          stats.Total,
		"completed":      stats.Completed,
		"pending":        stats.Pending,
		"completionRate": stats.CompletionRate,
	}, nil
}

func (h *GraphQLHandler) resolveCreateTodo(p graphql.ResolveParams) (any, error) {
	title, _ := p.Args["title"].(string)

	todo, err := h.store.Create(p.Context, title)
	if err != nil {
		return nil, err
	}

	h.broadcast(model.EventTodoCreated, todo)
	return todoToMap(todo), nil
}

func (h *GraphQLHandler) resolveToggleTodo(p graphql.ResolveParams) (any, error) {
	todo, err := h.store.Toggle(p.Context, argID(p))
	if err != nil {
		return nil, err
	}

	h.broadcast(model.EventTodoUpdated, todo)
	return todoToMap(todo), nil
}

func (h *GraphQLHandler) resolveDeleteTodo(p graphql.ResolveParams) (any, error) {
	todo, err := h.store.Delete(p.Context, argID(p))
	if err != nil {
		return nil, err
	}

	h.broadcast(model.EventTodoDeleted, todo)
	return todoToMap(todo), nil
}

// broadcast publishes a todo event when the event hub is configured.
func (h *GraphQLHandler) broadcast(eventType string, todo *model.Todo) {
	if h.events != nil {
		h.events.Broadcast(model.NewTodoEvent(eventType, todo))
	}
}

// argID extracts the id argument. GraphQL Int arguments arrive as int.
func argID(p graphql.ResolveParams) int64 {
	id, _ := p.Args["id"].(int)
	return int64(id)
}

// todoToMap converts a todo to the map shape consumed by the default
// GraphQL field resolver.
func todoToMap(todo *model.Todo) map[string]any {
	return map[string]any{
		"id":        todo.ID,
		"title":     todo.Title,
		"completed": todo.Completed,
		"createdAt": todo.CreatedAt.Format(time.RFC3339),
	}
}
