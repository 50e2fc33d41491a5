package data

import "time"

// Datasets are owned by the catalog. The workflow only reads them to
// resolve ownership, stewardship and expiration policy.
type DatasetDTO struct {
	PK                  string          `dynamodbav:"PK"`
	SK                  string          `dynamodbav:"SK"`
	Name                string          `dynamodbav:"name"`
	AdminGroupId        string          `dynamodbav:"adminGroupId"`
	StewardsGroupId     string          `dynamodbav:"stewardsGroupId"`
	EnvironmentId       string          `dynamodbav:"environmentId"`
	AccountId           string          `dynamodbav:"accountId"`
	Region              string          `dynamodbav:"region"`
	EnableExpiration    bool            `dynamodbav:"enableExpiration"`
	ExpiryMaxDuration   *int            `dynamodbav:"expiryMaxDuration"`
	AutoApprovalEnabled bool            `dynamodbav:"autoApprovalEnabled"`
	ShareableTypes      []ShareableType `dynamodbav:"shareableTypes"`
	CreateTime          time.Time       `dynamodbav:"createTime"`
	UpdateTime          time.Time       `dynamodbav:"updateTime"`
}

type DatasetInputDTO struct {
	Name                *string          `dynamodbav:"name"`
	AdminGroupId        *string          `dynamodbav:"adminGroupId"`
	StewardsGroupId     *string          `dynamodbav:"stewardsGroupId"`
	EnvironmentId       *string          `dynamodbav:"environmentId"`
	AccountId           *string          `dynamodbav:"accountId"`
	Region              *string          `dynamodbav:"region"`
	EnableExpiration    *bool            `dynamodbav:"enableExpiration"`
	ExpiryMaxDuration   *int             `dynamodbav:"expiryMaxDuration"`
	AutoApprovalEnabled *bool            `dynamodbav:"autoApprovalEnabled"`
	ShareableTypes      *[]ShareableType `dynamodbav:"shareableTypes"`
}

type DatasetRepository interface {
	Repository[DatasetDTO, DatasetInputDTO]
}
