package data

import "time"

// GlobalAccount partitions org wide resources in the single table layout.
const GlobalAccount = "Global"

type ShareDTO struct {
	PK                  string           `dynamodbav:"PK"`
	SK                  string           `dynamodbav:"SK"`
	FirstIndex          string           `dynamodbav:"GS1-PK"`
	DatasetId           string           `dynamodbav:"datasetId"`
	GroupId             string           `dynamodbav:"groupId"`
	PrincipalId         string           `dynamodbav:"principalId"`
	PrincipalType       PrincipalType    `dynamodbav:"principalType"`
	PrincipalRoleName   string           `dynamodbav:"principalRoleName"`
	EnvironmentId       string           `dynamodbav:"environmentId"`
	Owner               string           `dynamodbav:"owner"`
	Status              ShareStatus      `dynamodbav:"status"`
	Permissions         []PermissionType `dynamodbav:"permissions"`
	RequestPurpose      string           `dynamodbav:"requestPurpose"`
	RejectPurpose       string           `dynamodbav:"rejectPurpose"`
	ExtensionReason     string           `dynamodbav:"extensionReason"`
	NonExpirable        bool             `dynamodbav:"nonExpirable"`
	ExpiryDate          *time.Time       `dynamodbav:"expiryDate"`
	RequestedExpiryDate *time.Time       `dynamodbav:"requestedExpiryDate"`
	LastExtensionDate   *time.Time       `dynamodbav:"lastExtensionDate"`
	CreateTime          time.Time        `dynamodbav:"createTime"`
	UpdateTime          time.Time        `dynamodbav:"updateTime"`
}

type ShareInputDTO struct {
	DatasetId           *string           `dynamodbav:"datasetId"`
	GroupId             *string           `dynamodbav:"groupId"`
	PrincipalId         *string           `dynamodbav:"principalId"`
	PrincipalType       *PrincipalType    `dynamodbav:"principalType"`
	PrincipalRoleName   *string           `dynamodbav:"principalRoleName"`
	EnvironmentId       *string           `dynamodbav:"environmentId"`
	Owner               *string           `dynamodbav:"owner"`
	Status              *ShareStatus      `dynamodbav:"status"`
	Permissions         *[]PermissionType `dynamodbav:"permissions"`
	RequestPurpose      *string           `dynamodbav:"requestPurpose"`
	RejectPurpose       *string           `dynamodbav:"rejectPurpose"`
	ExtensionReason     *string           `dynamodbav:"extensionReason"`
	NonExpirable        *bool             `dynamodbav:"nonExpirable"`
	ExpiryDate          *time.Time        `dynamodbav:"expiryDate"`
	RequestedExpiryDate *time.Time        `dynamodbav:"requestedExpiryDate"`
	LastExtensionDate   *time.Time        `dynamodbav:"lastExtensionDate"`
}

type ShareRepository interface {
	Repository[ShareDTO, ShareInputDTO]

	// UpdateStatus commits a state transition with an optimistic guard on
	// the previously observed status. A concurrent transition surfaces as
	// a conflict error.
	UpdateStatus(accountId string, shareId string, expected ShareStatus, input ShareInputDTO) (ShareDTO, error)
}
