package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-nosql/internal/config"
)

// TableCreator is the part of the DynamoDB client Bootstrap needs.
type TableCreator interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Bootstrap creates the users and todos tables if they don't already exist.
// Safe to call on every startup.
func Bootstrap(ctx context.Context, client TableCreator, tables config.DynamoTables) error {
	for _, in := range tableInputs(tables) {
		if err := createTable(ctx, client, in); err != nil {
			return err
		}
	}
	return nil
}

func tableInputs(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		hashKeyTable(tables.Users, fieldEmail),
		hashKeyTable(tables.Todos, fieldUserID),
	}
}

func hashKeyTable(name, key string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(key), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(key), KeyType: types.KeyTypeHash},
		},
	}
}

func createTable(ctx context.Context, client TableCreator, input *dynamodb.CreateTableInput) error {
	_, err := client.CreateTable(ctx, input)
	if err == nil {
		slog.Info("created table", "table", *input.TableName)
		return nil
	}
	// ResourceInUseException means the table already exists.
	var riue *types.ResourceInUseException
	if errors.As(err, &riue) {
		return nil
	}
	slog.Warn("could not create table", "table", *input.TableName, "err", err)
	return err
}
