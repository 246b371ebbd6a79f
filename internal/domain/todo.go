package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	DefaultColor = "#ffffff"
)

// TodoCollection is the single per-user document holding every todo in insertion order.
type TodoCollection struct {
	UserID string     `json:"userId" dynamodbav:"user_id"`
	Todos  []TodoItem `json:"todos" dynamodbav:"todos"`
}

// IndexOf returns the position of the item with the given id, or -1.
func (c *TodoCollection) IndexOf(itemID string) int {
	for i := range c.Todos {
		if c.Todos[i].ID == itemID {
			return i
		}
	}
	return -1
}

type TodoItem struct {
	ID          string     `json:"id" dynamodbav:"id"`
	Title       string     `json:"title" dynamodbav:"title"`
	Description string     `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Priority    string     `json:"priority" dynamodbav:"priority"`
	Color       string     `json:"color" dynamodbav:"color"`
	Completed   bool       `json:"completed" dynamodbav:"completed"`
	DueDate     *time.Time `json:"dueDate" dynamodbav:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" dynamodbav:"created_at"`
}

type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Color       string  `json:"color"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTodoRequest carries the fields the caller sent. An absent field is
// left untouched; an explicit null resets it to its default.
type UpdateTodoRequest struct {
	Title       Field[string] `json:"title"`
	Description Field[string] `json:"description"`
	Priority    Field[string] `json:"priority"`
	Color       Field[string] `json:"color"`
	Completed   Field[bool]   `json:"completed"`
	DueDate     Field[string] `json:"dueDate"`
}

// Field is a JSON body member that tells "absent", "null" and a value apart.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON only runs when the member is present, so it always marks Set.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Null = true
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

// Some returns a present, non-null field.
func Some[T any](v T) Field[T] { return Field[T]{Set: true, Value: v} }

// Null returns a present field holding JSON null.
func Null[T any]() Field[T] { return Field[T]{Set: true, Null: true} }

// NormalizePriority lowercases p and falls back to medium when empty.
func NormalizePriority(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return PriorityMedium
	}
	return p
}

// ValidPriority reports whether p is one of the accepted (already normalised) values.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParseDueDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func ParseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
