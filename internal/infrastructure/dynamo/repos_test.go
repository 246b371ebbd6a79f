package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-nosql/internal/config"
	"github.com/go-todo-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.CreateTableOutput)
	return out, args.Error(1)
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
}

func strPtr(s string) *string { return &s }

// --- users ---

func TestUserRepo_Create_EmailTaken(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.ConditionExpression == "attribute_not_exists(#pk)" && in.ExpressionAttributeNames["#pk"] == "email"
	})).Return(nil, conditionFailed())

	err := NewUserRepo(api, "users").Create(context.Background(), &domain.User{Email: "a@x.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	api.AssertExpectations(t)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewUserRepo(api, "users").GetByEmail(context.Background(), "a@x.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepo_GetByEmail_DecodesOTP(t *testing.T) {
	otp := "4821"
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	item, err := attributevalue.MarshalMap(&domain.User{UserID: "u1", Email: "a@x.com", OTP: &otp, OTPExpires: &exp})
	require.NoError(t, err)

	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		k, ok := in.Key["email"].(*types.AttributeValueMemberS)
		return ok && k.Value == "a@x.com"
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	u, err := NewUserRepo(api, "users").GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	require.NotNil(t, u.OTP)
	assert.Equal(t, "4821", *u.OTP)
	assert.True(t, exp.Equal(*u.OTPExpires))
}

func TestUserRepo_Update_StampsAndGuardsExistence(t *testing.T) {
	api := &mockAPI{}
	var got *dynamodb.UpdateItemInput
	api.On("UpdateItem", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(*dynamodb.UpdateItemInput)
	}).Return(&dynamodb.UpdateItemOutput{}, nil)

	updates := map[string]interface{}{"otp": nil, "verified": true}
	require.NoError(t, NewUserRepo(api, "users").Update(context.Background(), "a@x.com", updates))

	require.NotNil(t, got)
	assert.Equal(t, "attribute_exists(#pk)", *got.ConditionExpression)
	assert.Equal(t, "SET #f1 = :v1, #f2 = :v2 REMOVE #f0", *got.UpdateExpression)
	assert.Equal(t, "updated_at", got.ExpressionAttributeNames["#f1"])
	assert.Len(t, updates, 2, "caller map must not be mutated")
}

func TestUserRepo_Update_MissingUser(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, conditionFailed())

	err := NewUserRepo(api, "users").Update(context.Background(), "a@x.com", map[string]interface{}{"verified": true})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- todos ---

func TestTodoRepo_Append_Upserts(t *testing.T) {
	stored, err := attributevalue.MarshalMap(&domain.TodoCollection{
		UserID: "u1",
		Todos:  []domain.TodoItem{{ID: "t1", Title: "buy milk", Priority: "medium", Color: "#ffffff"}},
	})
	require.NoError(t, err)

	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "SET #todos = list_append(if_not_exists(#todos, :empty), :new)" &&
			in.ReturnValues == types.ReturnValueAllNew
	})).Return(&dynamodb.UpdateItemOutput{Attributes: stored}, nil)

	c, err := NewTodoRepo(api, "todos").Append(context.Background(), "u1", &domain.TodoItem{ID: "t1", Title: "buy milk"})
	require.NoError(t, err)
	require.Len(t, c.Todos, 1)
	assert.Equal(t, "buy milk", c.Todos[0].Title)
	assert.Nil(t, c.Todos[0].DueDate)
}

func TestTodoRepo_Get_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewTodoRepo(api, "todos").Get(context.Background(), "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTodoRepo_ReplaceAt_ConditionOnID(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		id, _ := in.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberS)
		return *in.UpdateExpression == "SET #todos[2] = :item" &&
			*in.ConditionExpression == "#todos[2].#id = :id" &&
			id != nil && id.Value == "t3"
	})).Return(&dynamodb.UpdateItemOutput{}, nil)

	err := NewTodoRepo(api, "todos").ReplaceAt(context.Background(), "u1", 2, &domain.TodoItem{ID: "t3"})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestTodoRepo_RemoveAt_Moved(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "REMOVE #todos[0]"
	})).Return(nil, conditionFailed())

	err := NewTodoRepo(api, "todos").RemoveAt(context.Background(), "u1", 0, "t1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- bootstrap ---

func TestBootstrap_ExistingTablesAreFine(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateTable", mock.Anything, mock.Anything).Return(nil, &types.ResourceInUseException{})

	err := Bootstrap(context.Background(), api, config.DynamoTables{Users: "users", Todos: "todos"})
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "CreateTable", 2)
}

func TestBootstrap_PropagatesOtherErrors(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateTable", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := Bootstrap(context.Background(), api, config.DynamoTables{Users: "users", Todos: "todos"})
	assert.ErrorContains(t, err, "access denied")
}
