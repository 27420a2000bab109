package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BatchGetItem accepts at most 100 keys per call.
const dynamoBatchGetLimit = 100

// dynamoDocument is one item of the documents table; "pk" is the partition key.
type dynamoDocument struct {
	Key   string `dynamodbav:"pk"`
	Value []byte `dynamodbav:"doc"`
}

type dynamoDocumentStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoDocumentStore(client *dynamodb.Client, table string) DocumentStore {
	return &dynamoDocumentStore{client: client, table: table}
}

func dynamoKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: key},
	}
}

func (s *dynamoDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            dynamoKey(key),
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", s.table, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var doc dynamoDocument
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return doc.Value, nil
}

func (s *dynamoDocumentStore) Set(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(dynamoDocument{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", s.table, err)
	}
	return nil
}

func (s *dynamoDocumentStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       dynamoKey(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from table '%s': %w", s.table, err)
	}
	return nil
}

func (s *dynamoDocumentStore) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	byKey := make(map[string][]byte, len(keys))

	for start := 0; start < len(keys); start += dynamoBatchGetLimit {
		end := min(start+dynamoBatchGetLimit, len(keys))

		// BatchGetItem rejects duplicate keys within one request.
		seen := make(map[string]struct{}, end-start)
		var reqKeys []map[string]types.AttributeValue
		for _, k := range keys[start:end] {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			reqKeys = append(reqKeys, dynamoKey(k))
		}

		pending := map[string]types.KeysAndAttributes{
			s.table: {Keys: reqKeys, ConsistentRead: boolPtr(true)},
		}
		for len(pending) > 0 {
			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get items from table '%s': %w", s.table, err)
			}
			var docs []dynamoDocument
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[s.table], &docs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal items: %w", err)
			}
			for _, d := range docs {
				byKey[d.Key] = d.Value
			}
			pending = out.UnprocessedKeys
		}
	}

	result := make([][]byte, len(keys))
	for i, k := range keys {
		result[i] = byKey[k]
	}
	return result, nil
}

func boolPtr(b bool) *bool { return &b }
