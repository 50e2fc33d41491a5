package main

import (
	"context"
	"fmt"
	"os"

	activityData "dataplane.me/shares/internal/dynamodb/activities"
	datasetData "dataplane.me/shares/internal/dynamodb/datasets"
	principalData "dataplane.me/shares/internal/dynamodb/principals"
	itemData "dataplane.me/shares/internal/dynamodb/shareitems"
	shareData "dataplane.me/shares/internal/dynamodb/shares"
	"dataplane.me/shares/internal/dynamodb/token"
	"dataplane.me/shares/internal/events"
	"dataplane.me/shares/internal/share"
	"dataplane.me/shares/internal/sns/services"
	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

func HandleRequest(ctx context.Context, event lambdaEvents.DynamoDBEvent) error {
	tableName := os.Getenv("TABLE_NAME")
	topicArn := os.Getenv("TOPIC_ARN")
	tasksTopicArn := os.Getenv("TASKS_TOPIC_ARN")
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}

	client := dynamodb.NewFromConfig(cfg)
	snsClient := sns.NewFromConfig(cfg)
	marshaler := token.NewGCM()
	items := itemData.NewShareItemService(tableName, *client, marshaler)
	activities := activityData.NewActivityService(tableName, *client, marshaler)
	service := share.NewService(
		shareData.NewShareService(tableName, *client, marshaler),
		items,
		datasetData.NewDatasetService(tableName, *client, marshaler),
		principalData.NewPrincipalService(tableName, *client, marshaler),
		activities,
		&services.GrantExecutorSNSService{
			Sns:      *snsClient,
			TopicArn: tasksTopicArn,
		},
		&services.NotifierSNSService{
			Sns:      *snsClient,
			TopicArn: topicArn,
		},
	)

	handlers := []events.EventFilter{
		events.DefaultItemChangedHandler(service),
		events.DefaultCascadeDeleteHandler(items, activities),
	}

	for _, record := range event.Records {
		for _, handler := range handlers {
			if handler.Filter(record) {
				if err := handler.Apply(record); err != nil {
					fmt.Printf("ERROR: failed to handle %v: %s", record, err.Error())
					break
				}
			}
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
