package principals

import (
	"time"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/dynamodb/services"
	"dataplane.me/shares/internal/dynamodb/token"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func NewPrincipalService(tableName string, client dynamodb.Client, marshaler token.TokenMarshaler) data.PrincipalRepository {
	return &services.RepositoryDynamoDBService[data.PrincipalDTO, data.PrincipalInputDTO]{
		DynamoDB:       client,
		TableName:      tableName,
		TokenMarshaler: marshaler,
		Name:           "Principal",
		Shim: func(pk, sk string) data.PrincipalDTO {
			return data.PrincipalDTO{PK: pk, SK: sk}
		},
		GetSK: func(principal data.PrincipalDTO) string {
			return principal.SK
		},
		OnCreate: func(input data.PrincipalInputDTO, now time.Time, pk, sk string) data.PrincipalDTO {
			principal := data.PrincipalDTO{
				PK:         pk,
				SK:         sk,
				CreateTime: now,
				UpdateTime: now,
			}
			if input.Name != nil {
				principal.Name = *input.Name
			}
			if input.Type != nil {
				principal.Type = *input.Type
			}
			if input.GroupId != nil {
				principal.GroupId = *input.GroupId
			}
			if input.Members != nil {
				principal.Members = *input.Members
			}
			if input.EnvironmentId != nil {
				principal.EnvironmentId = *input.EnvironmentId
			}
			if input.AccountId != nil {
				principal.AccountId = *input.AccountId
			}
			if input.Region != nil {
				principal.Region = *input.Region
			}
			if input.RoleName != nil {
				principal.RoleName = *input.RoleName
			}
			return principal
		},
		OnUpdate: func(input data.PrincipalInputDTO, update expression.UpdateBuilder) expression.UpdateBuilder {
			if input.Name != nil {
				update = update.Set(expression.Name("name"), expression.Value(input.Name))
			}
			if input.Members != nil {
				update = update.Set(expression.Name("members"), expression.Value(input.Members))
			}
			if input.RoleName != nil {
				update = update.Set(expression.Name("roleName"), expression.Value(input.RoleName))
			}
			return update
		},
	}
}
