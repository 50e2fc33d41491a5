package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/token"
	"dataplane.me/shares/internal/exceptions"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// RepositoryDynamoDBService backs one entity kind on the single table
// design: PK is "<account>:<Name>", SK is the entity id, and the GS1
// index keys "GS1-PK" for cross partition lookups.
type RepositoryDynamoDBService[T interface{}, I interface{}] struct {
	DynamoDB       dynamodb.Client
	TableName      string
	TokenMarshaler token.TokenMarshaler
	Name           string
	Shim           func(pk string, sk string) T
	GetSK          func(T) string
	OnCreate       func(I, time.Time, string, string) T
	OnUpdate       func(I, expression.UpdateBuilder) expression.UpdateBuilder
}

func _getPrimaryKey(accountId string, name string) string {
	return fmt.Sprintf("%s:%s", accountId, name)
}

func _getKey(pks string, sks string) (map[string]types.AttributeValue, error) {
	pk, err := attributevalue.Marshal(pks)
	if err != nil {
		return nil, err
	}
	sk, err := attributevalue.Marshal(sks)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{"PK": pk, "SK": sk}, nil
}

func isConditionalCheckFailed(err error) bool {
	var failed *types.ConditionalCheckFailedException
	return errors.As(err, &failed)
}

func (rs *RepositoryDynamoDBService[T, I]) query(hashKey expression.KeyConditionBuilder, indexName *string, scope string, params data.QueryParams) (data.QueryResults[T], error) {
	expr, err := expression.NewBuilder().WithKeyCondition(hashKey).Build()
	if err != nil {
		return data.QueryResults[T]{}, err
	}
	startKey, err := rs.TokenMarshaler.Unmarshal(scope, params.NextToken)
	if err != nil {
		return data.QueryResults[T]{}, err
	}
	output, err := rs.DynamoDB.Query(context.TODO(), &dynamodb.QueryInput{
		TableName:                 aws.String(rs.TableName),
		IndexName:                 indexName,
		Limit:                     params.GetLimit(),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return data.QueryResults[T]{}, err
	}
	var items []T
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &items); err != nil {
		return data.QueryResults[T]{}, err
	}
	nextToken, err := rs.TokenMarshaler.Marshal(scope, output.LastEvaluatedKey)
	if err != nil {
		return data.QueryResults[T]{}, err
	}
	return data.QueryResults[T]{
		Items:     items,
		NextToken: nextToken,
	}, nil
}

func (rs *RepositoryDynamoDBService[T, I]) List(accountId string, params data.QueryParams) (data.QueryResults[T], error) {
	keyEx := expression.Key("PK").Equal(expression.Value(_getPrimaryKey(accountId, rs.Name)))
	return rs.query(keyEx, nil, accountId, params)
}

func (rs *RepositoryDynamoDBService[T, I]) ListByIndex(hashId string, indexName string, params data.QueryParams) (data.QueryResults[T], error) {
	keyEx := expression.Key("GS1-PK").Equal(expression.Value(hashId))
	return rs.query(keyEx, aws.String(indexName), hashId, params)
}

func (rs *RepositoryDynamoDBService[T, I]) Create(accountId string, input I) (T, error) {
	gid, _ := uuid.NewUUID()
	return rs.CreateWithItemId(accountId, input, gid.String())
}

func (rs *RepositoryDynamoDBService[T, I]) CreateWithItemId(accountId string, input I, itemId string) (T, error) {
	now := time.Now()
	shim := rs.OnCreate(input, now, _getPrimaryKey(accountId, rs.Name), itemId)
	item, err := attributevalue.MarshalMap(shim)
	if err != nil {
		return shim, err
	}
	expr, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeNotExists().And(expression.Name("SK").AttributeNotExists())).Build()
	if err != nil {
		return shim, err
	}
	_, err = rs.DynamoDB.PutItem(context.TODO(), &dynamodb.PutItemInput{
		Item:                     item,
		TableName:                aws.String(rs.TableName),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return shim, exceptions.Conflict(strings.ToLower(rs.Name), rs.GetSK(shim))
		}
		return shim, err
	}
	return shim, nil
}

func (rs *RepositoryDynamoDBService[T, I]) Update(accountId string, itemId string, input I) (T, error) {
	condition := expression.Name("PK").AttributeExists().And(expression.Name("SK").AttributeExists())
	shim, err := rs.update(accountId, itemId, input, condition)
	if err != nil && isConditionalCheckFailed(err) {
		return shim, exceptions.NotFound(strings.ToLower(rs.Name), itemId)
	}
	return shim, err
}

// UpdateConditionally guards the write on an attribute holding an
// expected value on top of the existence check. Racing writers observe
// a conflict instead of clobbering each other.
func (rs *RepositoryDynamoDBService[T, I]) UpdateConditionally(accountId string, itemId string, input I, attribute string, expected interface{}) (T, error) {
	condition := expression.Name("PK").AttributeExists().
		And(expression.Name("SK").AttributeExists()).
		And(expression.Name(attribute).Equal(expression.Value(expected)))
	shim, err := rs.update(accountId, itemId, input, condition)
	if err != nil && isConditionalCheckFailed(err) {
		return shim, exceptions.ConflictWithHint(
			strings.ToLower(rs.Name), itemId,
			"the resource changed since it was read; reload and retry",
		)
	}
	return shim, err
}

func (rs *RepositoryDynamoDBService[T, I]) update(accountId string, itemId string, input I, condition expression.ConditionBuilder) (T, error) {
	pk := _getPrimaryKey(accountId, rs.Name)
	shim := rs.Shim(pk, itemId)
	key, err := _getKey(pk, itemId)
	if err != nil {
		return shim, err
	}
	update := expression.Set(expression.Name("updateTime"), expression.Value(time.Now()))
	update = rs.OnUpdate(input, update)
	expr, err := expression.NewBuilder().WithCondition(condition).WithUpdate(update).Build()
	if err != nil {
		return shim, err
	}
	response, err := rs.DynamoDB.UpdateItem(context.TODO(), &dynamodb.UpdateItemInput{
		TableName:                 aws.String(rs.TableName),
		Key:                       key,
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return shim, err
	}
	err = attributevalue.UnmarshalMap(response.Attributes, &shim)
	return shim, err
}

func (rs *RepositoryDynamoDBService[T, I]) Get(accountId string, itemId string) (T, error) {
	pk := _getPrimaryKey(accountId, rs.Name)
	shim := rs.Shim(pk, itemId)
	key, err := _getKey(pk, itemId)
	if err != nil {
		return shim, err
	}
	response, err := rs.DynamoDB.GetItem(context.TODO(), &dynamodb.GetItemInput{
		TableName: aws.String(rs.TableName),
		Key:       key,
	})
	if err != nil {
		return shim, err
	}
	if response.Item == nil {
		return shim, exceptions.NotFound(strings.ToLower(rs.Name), itemId)
	}
	err = attributevalue.UnmarshalMap(response.Item, &shim)
	return shim, err
}

func (rs *RepositoryDynamoDBService[T, I]) Delete(accountId string, itemId string) error {
	pk := _getPrimaryKey(accountId, rs.Name)
	key, err := _getKey(pk, itemId)
	if err != nil {
		return err
	}
	_, err = rs.DynamoDB.DeleteItem(context.TODO(), &dynamodb.DeleteItemInput{
		Key:       key,
		TableName: aws.String(rs.TableName),
	})
	return err
}
