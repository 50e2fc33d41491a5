package data

import "time"

type ActivityDTO struct {
	PK           string    `dynamodbav:"PK"`
	SK           string    `dynamodbav:"SK"`
	ResourceId   string    `dynamodbav:"resourceId"`
	ResourceType string    `dynamodbav:"resourceType"`
	Action       string    `dynamodbav:"action"`
	Summary      string    `dynamodbav:"summary"`
	Owner        string    `dynamodbav:"owner"`
	CreateTime   time.Time `dynamodbav:"createTime"`
	UpdateTime   time.Time `dynamodbav:"updateTime"`
}

type ActivityInputDTO struct {
	ResourceId   *string `dynamodbav:"resourceId"`
	ResourceType *string `dynamodbav:"resourceType"`
	Action       *string `dynamodbav:"action"`
	Summary      *string `dynamodbav:"summary"`
	Owner        *string `dynamodbav:"owner"`
}

type ActivityRepository interface {
	Repository[ActivityDTO, ActivityInputDTO]
}
