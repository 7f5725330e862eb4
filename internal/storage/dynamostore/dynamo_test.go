package dynamostore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

type fakeDynamo struct {
	getOut    map[string]*dynamodb.GetItemOutput
	getErr    error
	putErr    error
	txErr     error
	deleteErr error

	lastPut    *dynamodb.PutItemInput
	lastTx     *dynamodb.TransactWriteItemsInput
	deleted    []string
	consistent []bool
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.consistent = append(f.consistent, aws.ToBool(in.ConsistentRead))
	if f.getErr != nil {
		return nil, f.getErr
	}
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	if out, ok := f.getOut[id]; ok {
		return out, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleted = append(f.deleted, in.Key["id"].(*types.AttributeValueMemberS).Value)
	return &dynamodb.DeleteItemOutput{}, f.deleteErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTx = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func doc(value, tag string) *dynamodb.GetItemOutput {
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"id":       &types.AttributeValueMemberS{Value: "ignored"},
		"document": &types.AttributeValueMemberS{Value: value},
		"eTag":     &types.AttributeValueMemberS{Value: tag},
	}}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "t")
	require.ErrorContains(t, err, "must not be nil")
	_, err = New(&fakeDynamo{}, " ")
	require.ErrorContains(t, err, "must not be empty")
}

func TestRead(t *testing.T) {
	db := &fakeDynamo{getOut: map[string]*dynamodb.GetItemOutput{
		"test/conversations/c1": doc(`{"count":1}`, "tag-1"),
	}}
	s, err := New(db, "bot-state")
	require.NoError(t, err)

	got, err := s.Read(context.Background(), []string{"test/conversations/c1", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, `{"count":1}`, string(got["test/conversations/c1"].Value))
	require.Equal(t, "tag-1", got["test/conversations/c1"].ETag)
	require.Equal(t, []bool{true, true}, db.consistent)
}

func TestRead_Error(t *testing.T) {
	s, err := New(&fakeDynamo{getErr: errors.New("throttled")}, "bot-state")
	require.NoError(t, err)
	_, err = s.Read(context.Background(), []string{"k"})
	require.ErrorContains(t, err, "throttled")
}

func TestWrite_SingleConditionalPut(t *testing.T) {
	db := &fakeDynamo{}
	s, err := New(db, "bot-state")
	require.NoError(t, err)

	item := &state.Item{Value: []byte(`{"a":1}`), ETag: "old"}
	require.NoError(t, s.Write(context.Background(), map[string]*state.Item{"k": item}))

	require.NotNil(t, db.lastPut)
	require.Equal(t, "bot-state", aws.ToString(db.lastPut.TableName))
	require.Equal(t, "#etag = :etag", aws.ToString(db.lastPut.ConditionExpression))
	require.Equal(t, "old", db.lastPut.ExpressionAttributeValues[":etag"].(*types.AttributeValueMemberS).Value)
	newTag := db.lastPut.Item["eTag"].(*types.AttributeValueMemberS).Value
	require.Equal(t, newTag, item.ETag)
	require.NotEqual(t, "old", item.ETag)
}

func TestWrite_NoPreconditionWithoutETag(t *testing.T) {
	db := &fakeDynamo{}
	s, err := New(db, "bot-state")
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), map[string]*state.Item{"k": {Value: []byte(`1`), ETag: state.AnyETag}}))
	require.Nil(t, db.lastPut.ConditionExpression)
}

func TestWrite_ConditionFailed(t *testing.T) {
	db := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{Message: aws.String("stale")}}
	s, err := New(db, "bot-state")
	require.NoError(t, err)

	item := &state.Item{Value: []byte(`1`), ETag: "old"}
	err = s.Write(context.Background(), map[string]*state.Item{"k": item})
	require.ErrorIs(t, err, state.ErrPreconditionFailed)
	require.Equal(t, "old", item.ETag)
}

func TestWrite_MultipleUsesTransaction(t *testing.T) {
	db := &fakeDynamo{}
	s, err := New(db, "bot-state")
	require.NoError(t, err)

	changes := map[string]*state.Item{
		"b": {Value: []byte(`2`)},
		"a": {Value: []byte(`1`)},
	}
	require.NoError(t, s.Write(context.Background(), changes))
	require.Nil(t, db.lastPut)
	require.Len(t, db.lastTx.TransactItems, 2)
	require.Equal(t, "a", db.lastTx.TransactItems[0].Put.Item["id"].(*types.AttributeValueMemberS).Value)
	require.NotEmpty(t, changes["a"].ETag)
	require.NotEmpty(t, changes["b"].ETag)
}

func TestWrite_TransactionConditionFailed(t *testing.T) {
	db := &fakeDynamo{txErr: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	}}
	s, err := New(db, "bot-state")
	require.NoError(t, err)

	err = s.Write(context.Background(), map[string]*state.Item{"a": {Value: []byte(`1`)}, "b": {Value: []byte(`2`), ETag: "x"}})
	require.ErrorIs(t, err, state.ErrPreconditionFailed)
}

func TestDelete(t *testing.T) {
	db := &fakeDynamo{}
	s, err := New(db, "bot-state")
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), []string{"a", "b"}))
	require.Equal(t, []string{"a", "b"}, db.deleted)

	db.deleteErr = errors.New("boom")
	require.ErrorContains(t, s.Delete(context.Background(), []string{"a"}), "boom")
}
