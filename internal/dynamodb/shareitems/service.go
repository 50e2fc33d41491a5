package shareitems

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/services"
	"dataplane.me/shares/internal/dynamodb/token"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type ShareItemDynamoDBService struct {
	services.RepositoryDynamoDBService[data.ShareItemDTO, data.ShareItemInputDTO]
}

// UpdateStatus commits an item transition guarded on the previously
// observed status. Items are partitioned by their share id, so the
// share id takes the account position.
func (is *ShareItemDynamoDBService) UpdateStatus(shareId string, itemId string, expected data.ItemStatus, input data.ShareItemInputDTO) (data.ShareItemDTO, error) {
	return is.UpdateConditionally(shareId, itemId, input, "status", expected)
}

func NewShareItemService(tableName string, client dynamodb.Client, marshaler token.TokenMarshaler) data.ShareItemRepository {
	return &ShareItemDynamoDBService{
		services.RepositoryDynamoDBService[data.ShareItemDTO, data.ShareItemInputDTO]{
			DynamoDB:       client,
			TableName:      tableName,
			TokenMarshaler: marshaler,
			Name:           "ShareItem",
			Shim: func(pk, sk string) data.ShareItemDTO {
				return data.ShareItemDTO{PK: pk, SK: sk}
			},
			GetSK: func(item data.ShareItemDTO) string {
				return item.SK
			},
			OnCreate: func(input data.ShareItemInputDTO, now time.Time, pk, sk string) data.ShareItemDTO {
				item := data.ShareItemDTO{
					PK:         pk,
					SK:         sk,
					CreateTime: now,
					UpdateTime: now,
				}
				if input.ShareId != nil {
					item.ShareId = *input.ShareId
				}
				if input.ItemRef != nil {
					item.ItemRef = *input.ItemRef
				}
				if input.ItemType != nil {
					item.ItemType = *input.ItemType
				}
				if input.ItemName != nil {
					item.ItemName = *input.ItemName
				}
				if input.Owner != nil {
					item.Owner = *input.Owner
				}
				if input.Status != nil {
					item.Status = *input.Status
				}
				if input.DataFilterId != nil {
					item.DataFilterId = input.DataFilterId
				}
				if input.DataFilterLabel != nil {
					item.DataFilterLabel = input.DataFilterLabel
				}
				return item
			},
			OnUpdate: func(input data.ShareItemInputDTO, update expression.UpdateBuilder) expression.UpdateBuilder {
				if input.Status != nil {
					update = update.Set(expression.Name("status"), expression.Value(input.Status))
				}
				if input.HealthStatus != nil {
					update = update.Set(expression.Name("healthStatus"), expression.Value(input.HealthStatus))
				}
				if input.HealthMessage != nil {
					update = update.Set(expression.Name("healthMessage"), expression.Value(input.HealthMessage))
				}
				if input.LastVerificationTime != nil {
					update = update.Set(expression.Name("lastVerificationTime"), expression.Value(input.LastVerificationTime))
				}
				if input.DataFilterId != nil {
					if *input.DataFilterId == "" {
						update = update.Remove(expression.Name("dataFilterId"))
					} else {
						update = update.Set(expression.Name("dataFilterId"), expression.Value(input.DataFilterId))
					}
				}
				if input.DataFilterLabel != nil {
					if *input.DataFilterLabel == "" {
						update = update.Remove(expression.Name("dataFilterLabel"))
					} else {
						update = update.Set(expression.Name("dataFilterLabel"), expression.Value(input.DataFilterLabel))
					}
				}
				return update
			},
		},
	}
}
