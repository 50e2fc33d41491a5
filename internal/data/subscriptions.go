package data

import "time"

// Subscriptions register an endpoint for share lifecycle notifications,
// scoped to the group that created them.
type SubscriptionDTO struct {
	PK            string    `dynamodbav:"PK"`
	SK            string    `dynamodbav:"SK"`
	GroupId       string    `dynamodbav:"groupId"`
	Endpoint      string    `dynamodbav:"endpoint"`
	Protocol      string    `dynamodbav:"protocol"`
	SubscriberArn string    `dynamodbav:"subscriberArn"`
	CreateTime    time.Time `dynamodbav:"createTime"`
	UpdateTime    time.Time `dynamodbav:"updateTime"`
}

type SubscriptionInputDTO struct {
	GroupId       *string `dynamodbav:"groupId"`
	Endpoint      *string `dynamodbav:"endpoint"`
	Protocol      *string `dynamodbav:"protocol"`
	SubscriberArn *string `dynamodbav:"subscriberArn"`
}

type SubscriptionRepository interface {
	Repository[SubscriptionDTO, SubscriptionInputDTO]
}
