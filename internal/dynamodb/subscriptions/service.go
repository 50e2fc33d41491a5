package subscriptions

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/services"
	"dataplane.me/shares/internal/dynamodb/token"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func NewSubscriptionService(tableName string, client dynamodb.Client, marshaler token.TokenMarshaler) data.SubscriptionRepository {
	return &services.RepositoryDynamoDBService[data.SubscriptionDTO, data.SubscriptionInputDTO]{
		DynamoDB:       client,
		TableName:      tableName,
		TokenMarshaler: marshaler,
		Name:           "Subscription",
		Shim: func(pk, sk string) data.SubscriptionDTO {
			return data.SubscriptionDTO{PK: pk, SK: sk}
		},
		GetSK: func(subscription data.SubscriptionDTO) string {
			return subscription.SK
		},
		OnCreate: func(input data.SubscriptionInputDTO, now time.Time, pk, sk string) data.SubscriptionDTO {
			subscription := data.SubscriptionDTO{
				PK:         pk,
				SK:         sk,
				CreateTime: now,
				UpdateTime: now,
			}
			if input.GroupId != nil {
				subscription.GroupId = *input.GroupId
			}
			if input.Endpoint != nil {
				subscription.Endpoint = *input.Endpoint
			}
			if input.Protocol != nil {
				subscription.Protocol = *input.Protocol
			}
			if input.SubscriberArn != nil {
				subscription.SubscriberArn = *input.SubscriberArn
			}
			return subscription
		},
		OnUpdate: func(input data.SubscriptionInputDTO, update expression.UpdateBuilder) expression.UpdateBuilder {
			if input.SubscriberArn != nil {
				update = update.Set(expression.Name("subscriberArn"), expression.Value(input.SubscriberArn))
			}
			return update
		},
	}
}
