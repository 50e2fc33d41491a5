package shares

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/services"
	"dataplane.me/shares/internal/dynamodb/token"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type ShareDynamoDBService struct {
	services.RepositoryDynamoDBService[data.ShareDTO, data.ShareInputDTO]
}

// UpdateStatus commits a share transition guarded on the previously
// observed status.
func (ss *ShareDynamoDBService) UpdateStatus(accountId string, shareId string, expected data.ShareStatus, input data.ShareInputDTO) (data.ShareDTO, error) {
	return ss.UpdateConditionally(accountId, shareId, input, "status", expected)
}

func NewShareService(tableName string, client dynamodb.Client, marshaler token.TokenMarshaler) data.ShareRepository {
	return &ShareDynamoDBService{
		services.RepositoryDynamoDBService[data.ShareDTO, data.ShareInputDTO]{
			DynamoDB:       client,
			TableName:      tableName,
			TokenMarshaler: marshaler,
			Name:           "Share",
			Shim: func(pk, sk string) data.ShareDTO {
				return data.ShareDTO{PK: pk, SK: sk}
			},
			GetSK: func(share data.ShareDTO) string {
				return share.SK
			},
			OnCreate: func(input data.ShareInputDTO, now time.Time, pk, sk string) data.ShareDTO {
				share := data.ShareDTO{
					PK:         pk,
					SK:         sk,
					CreateTime: now,
					UpdateTime: now,
				}
				if input.DatasetId != nil {
					share.DatasetId = *input.DatasetId
					share.FirstIndex = *input.DatasetId + ":Share"
				}
				if input.GroupId != nil {
					share.GroupId = *input.GroupId
				}
				if input.PrincipalId != nil {
					share.PrincipalId = *input.PrincipalId
				}
				if input.PrincipalType != nil {
					share.PrincipalType = *input.PrincipalType
				}
				if input.PrincipalRoleName != nil {
					share.PrincipalRoleName = *input.PrincipalRoleName
				}
				if input.EnvironmentId != nil {
					share.EnvironmentId = *input.EnvironmentId
				}
				if input.Owner != nil {
					share.Owner = *input.Owner
				}
				if input.Status != nil {
					share.Status = *input.Status
				}
				if input.Permissions != nil {
					share.Permissions = *input.Permissions
				}
				if input.RequestPurpose != nil {
					share.RequestPurpose = *input.RequestPurpose
				}
				if input.NonExpirable != nil {
					share.NonExpirable = *input.NonExpirable
				}
				if input.ExpiryDate != nil {
					share.ExpiryDate = input.ExpiryDate
				}
				return share
			},
			OnUpdate: func(input data.ShareInputDTO, update expression.UpdateBuilder) expression.UpdateBuilder {
				if input.Status != nil {
					update = update.Set(expression.Name("status"), expression.Value(input.Status))
				}
				if input.RequestPurpose != nil {
					update = update.Set(expression.Name("requestPurpose"), expression.Value(input.RequestPurpose))
				}
				if input.RejectPurpose != nil {
					update = update.Set(expression.Name("rejectPurpose"), expression.Value(input.RejectPurpose))
				}
				if input.ExtensionReason != nil {
					update = update.Set(expression.Name("extensionReason"), expression.Value(input.ExtensionReason))
				}
				if input.NonExpirable != nil {
					update = update.Set(expression.Name("nonExpirable"), expression.Value(input.NonExpirable))
				}
				if input.Permissions != nil {
					update = update.Set(expression.Name("permissions"), expression.Value(input.Permissions))
				}
				if input.ExpiryDate != nil {
					if input.ExpiryDate.IsZero() {
						update = update.Remove(expression.Name("expiryDate"))
					} else {
						update = update.Set(expression.Name("expiryDate"), expression.Value(input.ExpiryDate))
					}
				}
				if input.RequestedExpiryDate != nil {
					if input.RequestedExpiryDate.IsZero() {
						update = update.Remove(expression.Name("requestedExpiryDate"))
					} else {
						update = update.Set(expression.Name("requestedExpiryDate"), expression.Value(input.RequestedExpiryDate))
					}
				}
				if input.LastExtensionDate != nil {
					update = update.Set(expression.Name("lastExtensionDate"), expression.Value(input.LastExtensionDate))
				}
				return update
			},
		},
	}
}
