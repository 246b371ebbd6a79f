package http

import (
	"context"

	"github.com/go-todo-nosql/internal/domain"
	jwtinfra "github.com/go-todo-nosql/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

// TodoRepository is the minimal interface the router requires from a todo store.
// Index-based writes must fail with domain.ErrNotFound when the slot no longer
// holds the expected item.
type TodoRepository interface {
	Append(ctx context.Context, userID string, item *domain.TodoItem) (*domain.TodoCollection, error)
	Get(ctx context.Context, userID string) (*domain.TodoCollection, error)
	ReplaceAt(ctx context.Context, userID string, index int, item *domain.TodoItem) error
	RemoveAt(ctx context.Context, userID string, index int, itemID string) error
}

// MailSender delivers an HTML email. Both the SMTP mailer and the SNS publisher satisfy it.
type MailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// TokenProvider issues and verifies session tokens.
type TokenProvider interface {
	Sign(userID string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}
