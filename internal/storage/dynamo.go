package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoAPI is the subset of the DynamoDB client DynamoStore uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// slotItem is the table row: partition key "key", string attribute "value".
type slotItem struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

// DynamoStore implements Store on a DynamoDB table.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

// NewDynamoStore wraps an existing client.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// OpenDynamoStore loads the default AWS configuration for region and
// returns a store on tableName.
func OpenDynamoStore(ctx context.Context, region, tableName string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName), nil
}

func (d *DynamoStore) keyAttr(key string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		"key": &dynamodbtypes.AttributeValueMemberS{Value: key},
	}
}

func (d *DynamoStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if d.client == nil {
		return "", false, ErrUnavailable
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	if out.Item == nil {
		return "", false, nil
	}

	var item slotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return "", false, fmt.Errorf("unmarshal item %q: %w", key, err)
	}
	return item.Value, true, nil
}

func (d *DynamoStore) SetItem(ctx context.Context, key, value string) error {
	if d.client == nil {
		return ErrUnavailable
	}

	item, err := attributevalue.MarshalMap(slotItem{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal item %q: %w", key, err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		// Items are capped at 400 KB; the service reports that as a validation error.
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ValidationException" {
			return fmt.Errorf("put item %q: %w: %s", key, ErrQuotaExceeded, ae.ErrorMessage())
		}
		return fmt.Errorf("put item %q: %w", key, err)
	}
	return nil
}

func (d *DynamoStore) RemoveItem(ctx context.Context, key string) error {
	if d.client == nil {
		return ErrUnavailable
	}

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.keyAttr(key),
	})
	if err != nil {
		return fmt.Errorf("delete item %q: %w", key, err)
	}
	return nil
}
