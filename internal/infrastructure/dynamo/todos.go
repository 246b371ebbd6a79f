package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-nosql/internal/domain"
)

// TodoRepo stores one document per user with the todo items in a list attribute.
type TodoRepo struct {
	client    API
	tableName string
}

func NewTodoRepo(client API, tableName string) *TodoRepo {
	return &TodoRepo{client: client, tableName: tableName}
}

// Append pushes item onto the user's list, creating the document if needed,
// and returns the collection as stored after the write.
func (r *TodoRepo) Append(ctx context.Context, userID string, item *domain.TodoItem) (*domain.TodoCollection, error) {
	av, err := attributevalue.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("marshal todo: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldUserID, userID),
		UpdateExpression:         aws.String("SET #todos = list_append(if_not_exists(#todos, :empty), :new)"),
		ExpressionAttributeNames: map[string]string{"#todos": fieldTodos},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":new":   &types.AttributeValueMemberL{Value: []types.AttributeValue{av}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var c domain.TodoCollection
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, fmt.Errorf("unmarshal todos: %w", err)
	}
	return &c, nil
}

func (r *TodoRepo) Get(ctx context.Context, userID string) (*domain.TodoCollection, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("todos not found: %w", domain.ErrNotFound)
	}
	var c domain.TodoCollection
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal todos: %w", err)
	}
	return &c, nil
}

// ReplaceAt overwrites the element at index. The write is rejected with
// domain.ErrNotFound if that slot no longer holds item.ID.
func (r *TodoRepo) ReplaceAt(ctx context.Context, userID string, index int, item *domain.TodoItem) error {
	av, err := attributevalue.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal todo: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldUserID, userID),
		UpdateExpression:         aws.String(fmt.Sprintf("SET #todos[%d] = :item", index)),
		ConditionExpression:      aws.String(fmt.Sprintf("#todos[%d].#id = :id", index)),
		ExpressionAttributeNames: map[string]string{"#todos": fieldTodos, "#id": fieldItemID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":item": av,
			":id":   &types.AttributeValueMemberS{Value: item.ID},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("todo moved or deleted: %w", domain.ErrNotFound)
	}
	return err
}

// RemoveAt deletes the element at index if it still holds itemID. Later
// elements shift down, keeping their relative order.
func (r *TodoRepo) RemoveAt(ctx context.Context, userID string, index int, itemID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldUserID, userID),
		UpdateExpression:         aws.String(fmt.Sprintf("REMOVE #todos[%d]", index)),
		ConditionExpression:      aws.String(fmt.Sprintf("#todos[%d].#id = :id", index)),
		ExpressionAttributeNames: map[string]string{"#todos": fieldTodos, "#id": fieldItemID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: itemID},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("todo moved or deleted: %w", domain.ErrNotFound)
	}
	return err
}
