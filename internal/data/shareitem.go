package data

import "time"

type ShareItemDTO struct {
	PK                   string        `dynamodbav:"PK"`
	SK                   string        `dynamodbav:"SK"`
	ShareId              string        `dynamodbav:"shareId"`
	ItemRef              string        `dynamodbav:"itemRef"`
	ItemType             ShareableType `dynamodbav:"itemType"`
	ItemName             string        `dynamodbav:"itemName"`
	Owner                string        `dynamodbav:"owner"`
	Status               ItemStatus    `dynamodbav:"status"`
	HealthStatus         *HealthStatus `dynamodbav:"healthStatus"`
	HealthMessage        *string       `dynamodbav:"healthMessage"`
	LastVerificationTime *time.Time    `dynamodbav:"lastVerificationTime"`
	DataFilterId         *string       `dynamodbav:"dataFilterId"`
	DataFilterLabel      *string       `dynamodbav:"dataFilterLabel"`
	CreateTime           time.Time     `dynamodbav:"createTime"`
	UpdateTime           time.Time     `dynamodbav:"updateTime"`
}

type ShareItemInputDTO struct {
	ShareId              *string        `dynamodbav:"shareId"`
	ItemRef              *string        `dynamodbav:"itemRef"`
	ItemType             *ShareableType `dynamodbav:"itemType"`
	ItemName             *string        `dynamodbav:"itemName"`
	Owner                *string        `dynamodbav:"owner"`
	Status               *ItemStatus    `dynamodbav:"status"`
	HealthStatus         *HealthStatus  `dynamodbav:"healthStatus"`
	HealthMessage        *string        `dynamodbav:"healthMessage"`
	LastVerificationTime *time.Time     `dynamodbav:"lastVerificationTime"`
	DataFilterId         *string        `dynamodbav:"dataFilterId"`
	DataFilterLabel      *string        `dynamodbav:"dataFilterLabel"`
}

type ShareItemRepository interface {
	Repository[ShareItemDTO, ShareItemInputDTO]

	// UpdateStatus commits an item transition guarded on the previously
	// observed status, serializing racing transitions on the same item.
	UpdateStatus(shareId string, itemId string, expected ItemStatus, input ShareItemInputDTO) (ShareItemDTO, error)
}
