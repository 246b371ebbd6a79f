package dynamo

// DynamoDB attribute names used in keys and expressions.
const (
	fieldEmail     = "email"
	fieldUserID    = "user_id"
	fieldTodos     = "todos"
	fieldItemID    = "id"
	fieldUpdatedAt = "updated_at"
)
