package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-todo-nosql/internal/application/todo"
	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/transport/http/middleware"
)

// TodoHandler handles the /api/todo endpoints. Every route sits behind middleware.Auth.
type TodoHandler struct {
	svc todo.Service
}

func NewTodoHandler(svc todo.Service) *TodoHandler { return &TodoHandler{svc: svc} }

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req domain.CreateTodoRequest
	if err := decode(r, &req); err != nil {
		if wrongType(err, "title") {
			writeMessage(w, http.StatusBadRequest, "Invalid title: Title is required and must be a non-empty string")
			return
		}
		writeTodoError(w, err)
		return
	}
	todos, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, todos)
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	todos, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req domain.UpdateTodoRequest
	if err := decode(r, &req); err != nil {
		writeTodoError(w, err)
		return
	}
	item, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeTodoError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Todo deleted successfully")
}

func writeTodoError(w http.ResponseWriter, err error) {
	writeErrorAs(w, err, msgServerError)
}
