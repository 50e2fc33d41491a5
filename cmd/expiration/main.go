package main

import (
	"context"
	"os"
	"time"

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

// HandleRequest runs on a schedule and revokes every share whose expiry
// date has passed.
func HandleRequest(ctx context.Context, event lambdaEvents.CloudWatchEvent) error {
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
	service := share.NewService(
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
	)

	return service.ExpireShares(time.Now())
}

func main() {
	lambda.Start(HandleRequest)
}
