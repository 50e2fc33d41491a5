package activities

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/services"
	"dataplane.me/shares/internal/dynamodb/token"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Activities are an append only trail partitioned by the share they
// describe.
func NewActivityService(tableName string, client dynamodb.Client, marshaler token.TokenMarshaler) data.ActivityRepository {
	return &services.RepositoryDynamoDBService[data.ActivityDTO, data.ActivityInputDTO]{
		DynamoDB:       client,
		TableName:      tableName,
		TokenMarshaler: marshaler,
		Name:           "Activity",
		Shim: func(pk, sk string) data.ActivityDTO {
			return data.ActivityDTO{PK: pk, SK: sk}
		},
		GetSK: func(activity data.ActivityDTO) string {
			return activity.SK
		},
		OnCreate: func(input data.ActivityInputDTO, now time.Time, pk, sk string) data.ActivityDTO {
			activity := data.ActivityDTO{
				PK:         pk,
				SK:         sk,
				CreateTime: now,
				UpdateTime: now,
			}
			if input.ResourceId != nil {
				activity.ResourceId = *input.ResourceId
			}
			if input.ResourceType != nil {
				activity.ResourceType = *input.ResourceType
			}
			if input.Action != nil {
				activity.Action = *input.Action
			}
			if input.Summary != nil {
				activity.Summary = *input.Summary
			}
			if input.Owner != nil {
				activity.Owner = *input.Owner
			}
			return activity
		},
		OnUpdate: func(input data.ActivityInputDTO, update expression.UpdateBuilder) expression.UpdateBuilder {
			return update
		},
	}
}
