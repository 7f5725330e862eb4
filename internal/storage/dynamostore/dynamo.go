// Package dynamostore is a state.Storage backed by a DynamoDB table with a
// string partition key named "id".
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

const (
	attrID       = "id"
	attrDocument = "document"
	attrETag     = "eTag"
)

// dynamodbAPI is the part of *dynamodb.Client used here.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Storage stores state documents in one DynamoDB table.
type Storage struct {
	api       dynamodbAPI
	tableName string
}

// New creates a Storage for tableName.
func New(api dynamodbAPI, tableName string) (*Storage, error) {
	if api == nil {
		return nil, errors.New("dynamostore: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamostore: table name must not be empty")
	}
	return &Storage{api: api, tableName: tableName}, nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{attrID: &types.AttributeValueMemberS{Value: id}}
}

// Read fetches keys with strongly consistent reads.
func (s *Storage) Read(ctx context.Context, keys []string) (map[string]state.Item, error) {
	out := make(map[string]state.Item, len(keys))
	for _, k := range keys {
		res, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(s.tableName),
			Key:            key(k),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("dynamostore: get %s: %w", k, err)
		}
		if res == nil || len(res.Item) == 0 {
			continue
		}
		doc, err := stringAttr(res.Item, attrDocument)
		if err != nil {
			return nil, fmt.Errorf("dynamostore: get %s: %w", k, err)
		}
		tag, _ := stringAttr(res.Item, attrETag)
		out[k] = state.Item{Value: []byte(doc), ETag: tag}
	}
	return out, nil
}

// Write stores changes. A single change is a conditional put; several are
// one transaction. A stale ETag yields state.ErrPreconditionFailed.
func (s *Storage) Write(ctx context.Context, changes map[string]*state.Item) error {
	keys := make([]string, 0, len(changes))
	for k, item := range changes {
		if item != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	puts := make([]*types.Put, 0, len(keys))
	tags := make([]string, 0, len(keys))
	for _, k := range keys {
		put, tag := s.put(k, changes[k])
		puts = append(puts, put)
		tags = append(tags, tag)
	}

	var err error
	if len(puts) == 1 {
		p := puts[0]
		_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 p.TableName,
			Item:                      p.Item,
			ConditionExpression:       p.ConditionExpression,
			ExpressionAttributeNames:  p.ExpressionAttributeNames,
			ExpressionAttributeValues: p.ExpressionAttributeValues,
		})
	} else {
		items := make([]types.TransactWriteItem, 0, len(puts))
		for _, p := range puts {
			items = append(items, types.TransactWriteItem{Put: p})
		}
		_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	}
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("dynamostore: write: %w", state.ErrPreconditionFailed)
		}
		return fmt.Errorf("dynamostore: write: %w", err)
	}

	for i, k := range keys {
		changes[k].ETag = tags[i]
	}
	return nil
}

func (s *Storage) put(k string, item *state.Item) (*types.Put, string) {
	tag := state.NewETag()
	p := &types.Put{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrID:       &types.AttributeValueMemberS{Value: k},
			attrDocument: &types.AttributeValueMemberS{Value: string(item.Value)},
			attrETag:     &types.AttributeValueMemberS{Value: tag},
		},
	}
	if item.ETag != "" && item.ETag != state.AnyETag {
		p.ConditionExpression = aws.String("#etag = :etag")
		p.ExpressionAttributeNames = map[string]string{"#etag": attrETag}
		p.ExpressionAttributeValues = map[string]types.AttributeValue{
			":etag": &types.AttributeValueMemberS{Value: item.ETag},
		}
	}
	return p, tag
}

// Delete removes keys.
func (s *Storage) Delete(ctx context.Context, keys []string) error {
	for _, k := range keys {
		_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       key(k),
		})
		if err != nil {
			return fmt.Errorf("dynamostore: delete %s: %w", k, err)
		}
	}
	return nil
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if aws.ToString(r.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %s is not a string", name)
	}
	return s.Value, nil
}
