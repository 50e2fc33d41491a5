package services

import (
	"context"
	"encoding/json"

	"dataplane.me/shares/internal/share"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// NotifierSNSService fans lifecycle events out to the notification
// topic backing the subscriptions API.
type NotifierSNSService struct {
	Sns      sns.Client
	TopicArn string
}

func (n *NotifierSNSService) PublishShareEvent(event share.ShareEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = n.Sns.Publish(context.TODO(), &sns.PublishInput{
		TopicArn: aws.String(n.TopicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Type),
			},
		},
	})
	return err
}
