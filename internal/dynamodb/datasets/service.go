package datasets

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/services"
	"dataplane.me/shares/internal/dynamodb/token"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func NewDatasetService(tableName string, client dynamodb.Client, marshaler token.TokenMarshaler) data.DatasetRepository {
	return &services.RepositoryDynamoDBService[data.DatasetDTO, data.DatasetInputDTO]{
		DynamoDB:       client,
		TableName:      tableName,
		TokenMarshaler: marshaler,
		Name:           "Dataset",
		Shim: func(pk, sk string) data.DatasetDTO {
			return data.DatasetDTO{PK: pk, SK: sk}
		},
		GetSK: func(dataset data.DatasetDTO) string {
			return dataset.SK
		},
		OnCreate: func(input data.DatasetInputDTO, now time.Time, pk, sk string) data.DatasetDTO {
			dataset := data.DatasetDTO{
				PK:         pk,
				SK:         sk,
				CreateTime: now,
				UpdateTime: now,
			}
			if input.Name != nil {
				dataset.Name = *input.Name
			}
			if input.AdminGroupId != nil {
				dataset.AdminGroupId = *input.AdminGroupId
			}
			if input.StewardsGroupId != nil {
				dataset.StewardsGroupId = *input.StewardsGroupId
			}
			if input.EnvironmentId != nil {
				dataset.EnvironmentId = *input.EnvironmentId
			}
			if input.AccountId != nil {
				dataset.AccountId = *input.AccountId
			}
			if input.Region != nil {
				dataset.Region = *input.Region
			}
			if input.EnableExpiration != nil {
				dataset.EnableExpiration = *input.EnableExpiration
			}
			if input.ExpiryMaxDuration != nil {
				dataset.ExpiryMaxDuration = input.ExpiryMaxDuration
			}
			if input.AutoApprovalEnabled != nil {
				dataset.AutoApprovalEnabled = *input.AutoApprovalEnabled
			}
			if input.ShareableTypes != nil {
				dataset.ShareableTypes = *input.ShareableTypes
			}
			return dataset
		},
		OnUpdate: func(input data.DatasetInputDTO, update expression.UpdateBuilder) expression.UpdateBuilder {
			if input.Name != nil {
				update = update.Set(expression.Name("name"), expression.Value(input.Name))
			}
			if input.StewardsGroupId != nil {
				update = update.Set(expression.Name("stewardsGroupId"), expression.Value(input.StewardsGroupId))
			}
			if input.EnableExpiration != nil {
				update = update.Set(expression.Name("enableExpiration"), expression.Value(input.EnableExpiration))
			}
			if input.ExpiryMaxDuration != nil {
				update = update.Set(expression.Name("expiryMaxDuration"), expression.Value(input.ExpiryMaxDuration))
			}
			if input.AutoApprovalEnabled != nil {
				update = update.Set(expression.Name("autoApprovalEnabled"), expression.Value(input.AutoApprovalEnabled))
			}
			if input.ShareableTypes != nil {
				update = update.Set(expression.Name("shareableTypes"), expression.Value(input.ShareableTypes))
			}
			return update
		},
	}
}
