package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	activityData "dataplane.me/shares/internal/dynamodb/activities"
	datasetData "dataplane.me/shares/internal/dynamodb/datasets"
	principalData "dataplane.me/shares/internal/dynamodb/principals"
	itemData "dataplane.me/shares/internal/dynamodb/shareitems"
	shareData "dataplane.me/shares/internal/dynamodb/shares"
	"dataplane.me/shares/internal/dynamodb/token"
	"dataplane.me/shares/internal/share"
	"dataplane.me/shares/internal/sns/services"
	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

func NewService(ctx context.Context) (*share.Service, error) {
	tableName := os.Getenv("TABLE_NAME")
	topicArn := os.Getenv("TOPIC_ARN")
	tasksTopicArn := os.Getenv("TASKS_TOPIC_ARN")
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(cfg)
	snsClient := sns.NewFromConfig(cfg)
	marshaler := token.NewGCM()
	return share.NewService(
		shareData.NewShareService(tableName, *client, marshaler),
		itemData.NewShareItemService(tableName, *client, marshaler),
		datasetData.NewDatasetService(tableName, *client, marshaler),
		principalData.NewPrincipalService(tableName, *client, marshaler),
		activityData.NewActivityService(tableName, *client, marshaler),
		&services.GrantExecutorSNSService{
			Sns:      *snsClient,
			TopicArn: tasksTopicArn,
		},
		&services.NotifierSNSService{
			Sns:      *snsClient,
			TopicArn: topicArn,
		},
	), nil
}

// HandleRequest drains the reports queue. The executors publish one
// completion per item; a poisoned report fails the whole batch so SQS
// redrives it, which the status guards make safe.
func HandleRequest(ctx context.Context, event lambdaEvents.SQSEvent) error {
	service, err := NewService(ctx)
	if err != nil {
		return err
	}

	for _, record := range event.Records {
		report := share.ExecutionReport{}
		if err := json.Unmarshal([]byte(record.Body), &report); err != nil {
			fmt.Printf("ERROR: dropping malformed report %s: %v", record.MessageId, err)
			continue
		}
		if err := service.ApplyReport(report); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
