package services

import (
	"context"
	"encoding/json"

	"dataplane.me/shares/internal/share"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// GrantExecutorSNSService hands grant work to the fleet of workers
// subscribed to the tasks topic. The action rides as a message
// attribute so workers can filter without parsing the body; completion
// comes back asynchronously on the reports queue.
type GrantExecutorSNSService struct {
	Sns      sns.Client
	TopicArn string
}

func (g *GrantExecutorSNSService) publish(action string, task share.GrantTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = g.Sns.Publish(context.TODO(), &sns.PublishInput{
		TopicArn: aws.String(g.TopicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"action": {
				DataType:    aws.String("String"),
				StringValue: aws.String(action),
			},
		},
	})
	return err
}

func (g *GrantExecutorSNSService) ExecuteGrant(task share.GrantTask) error {
	return g.publish("grant", task)
}

func (g *GrantExecutorSNSService) ExecuteRevoke(task share.GrantTask) error {
	return g.publish("revoke", task)
}

func (g *GrantExecutorSNSService) ExecuteVerify(task share.GrantTask) error {
	return g.publish("verify", task)
}

func (g *GrantExecutorSNSService) ExecuteReapply(task share.GrantTask) error {
	return g.publish("reapply", task)
}
