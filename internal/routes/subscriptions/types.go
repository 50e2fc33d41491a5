package subscriptions

import (
	"time"

	"dataplane.me/shares/internal/data"
)

type Subscription struct {
	Id         string    `json:"subscriberId"`
	GroupId    string    `json:"groupId"`
	Endpoint   string    `json:"endpoint"`
	Protocol   string    `json:"protocol"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

type SubscriptionInput struct {
	GroupId  string  `json:"groupId"`
	Endpoint *string `json:"endpoint"`
	Protocol *string `json:"protocol"`
}

func NewSubscription(entry data.SubscriptionDTO) Subscription {
	return Subscription{
		Id:         entry.SK,
		GroupId:    entry.GroupId,
		Endpoint:   entry.Endpoint,
		Protocol:   entry.Protocol,
		CreateTime: entry.CreateTime,
		UpdateTime: entry.UpdateTime,
	}
}
