package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateTodoRequest) ([]domain.TodoItem, error)
	List(ctx context.Context, userID string) ([]domain.TodoItem, error)
	Update(ctx context.Context, userID, todoID string, req domain.UpdateTodoRequest) (*domain.TodoItem, error)
	Delete(ctx context.Context, userID, todoID string) error
}

type todoStore interface {
	Append(ctx context.Context, userID string, item *domain.TodoItem) (*domain.TodoCollection, error)
	Get(ctx context.Context, userID string) (*domain.TodoCollection, error)
	ReplaceAt(ctx context.Context, userID string, index int, item *domain.TodoItem) error
	RemoveAt(ctx context.Context, userID string, index int, itemID string) error
}

type service struct {
	repo todoStore
	now  func() time.Time
}

func NewService(repo todoStore) Service {
	return &service{repo: repo, now: time.Now}
}

var errMissingUser = domain.NewError(domain.ErrUnauthorized, "Unauthorized: User ID is missing")

func (s *service) Create(ctx context.Context, userID string, req domain.CreateTodoRequest) ([]domain.TodoItem, error) {
	if userID == "" {
		return nil, errMissingUser
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.NewError(domain.ErrBadRequest, "Invalid title: Title is required and must be a non-empty string")
	}
	priority, err := priorityOf(req.Priority)
	if err != nil {
		return nil, err
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = domain.DefaultColor
	}
	item := &domain.TodoItem{
		ID:          id.New(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		Color:       color,
		CreatedAt:   s.now().UTC(),
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := dueDateOf(*req.DueDate)
		if err != nil {
			return nil, err
		}
		item.DueDate = &due
	}

	c, err := s.repo.Append(ctx, userID, item)
	if err != nil {
		return nil, fmt.Errorf("append todo: %w", err)
	}
	return c.Todos, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.TodoItem, error) {
	if userID == "" {
		return nil, errMissingUser
	}
	c, err := s.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	if c == nil || len(c.Todos) == 0 {
		return nil, domain.NewError(domain.ErrNotFound, "No todos found")
	}
	return c.Todos, nil
}

func (s *service) Update(ctx context.Context, userID, todoID string, req domain.UpdateTodoRequest) (*domain.TodoItem, error) {
	c, idx, err := s.locate(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}
	item := c.Todos[idx]
	if err := apply(&item, req); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceAt(ctx, userID, idx, &item); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "Todo not found")
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return &item, nil
}

func (s *service) Delete(ctx context.Context, userID, todoID string) error {
	_, idx, err := s.locate(ctx, userID, todoID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveAt(ctx, userID, idx, todoID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, "Todo not found")
		}
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// locate loads the user's collection and finds todoID in it.
func (s *service) locate(ctx context.Context, userID, todoID string) (*domain.TodoCollection, int, error) {
	if userID == "" {
		return nil, -1, errMissingUser
	}
	if strings.TrimSpace(todoID) == "" {
		return nil, -1, domain.NewError(domain.ErrBadRequest, "Todo ID is required")
	}
	c, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, -1, domain.NewError(domain.ErrNotFound, "No todos found for the user")
	}
	if err != nil {
		return nil, -1, fmt.Errorf("load todos: %w", err)
	}
	idx := c.IndexOf(todoID)
	if idx < 0 {
		return nil, -1, domain.NewError(domain.ErrNotFound, "Todo not found")
	}
	return c, idx, nil
}

// apply merges the provided fields into item. An explicit null resets a field
// to its creation default; title has none, so nulling it is rejected.
// id and createdAt are never touched.
func apply(item *domain.TodoItem, req domain.UpdateTodoRequest) error {
	if req.Title.Set {
		title := strings.TrimSpace(req.Title.Value)
		if req.Title.Null || title == "" {
			return domain.NewError(domain.ErrBadRequest, "Invalid title: Title must be a non-empty string")
		}
		item.Title = title
	}
	if req.Description.Set {
		item.Description = strings.TrimSpace(req.Description.Value)
	}
	if req.Priority.Set {
		p, err := priorityOf(req.Priority.Value)
		if err != nil {
			return err
		}
		item.Priority = p
	}
	if req.Color.Set {
		item.Color = strings.TrimSpace(req.Color.Value)
		if item.Color == "" {
			item.Color = domain.DefaultColor
		}
	}
	if req.Completed.Set {
		item.Completed = req.Completed.Value
	}
	if req.DueDate.Set {
		if req.DueDate.Null || req.DueDate.Value == "" {
			item.DueDate = nil
		} else {
			due, err := dueDateOf(req.DueDate.Value)
			if err != nil {
				return err
			}
			item.DueDate = &due
		}
	}
	return nil
}

func priorityOf(raw string) (string, error) {
	p := domain.NormalizePriority(raw)
	if !domain.ValidPriority(p) {
		return "", domain.NewError(domain.ErrBadRequest, "Invalid priority: must be one of low, medium, high")
	}
	return p, nil
}

func dueDateOf(raw string) (time.Time, error) {
	t, err := domain.ParseDueDate(raw)
	if err != nil {
		return time.Time{}, domain.NewError(domain.ErrBadRequest, "Invalid dueDate: expected YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}
