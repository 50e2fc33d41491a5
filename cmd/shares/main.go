package main

import (
	"context"
	"os"

	activityData "dataplane.me/shares/internal/dynamodb/activities"
	datasetData "dataplane.me/shares/internal/dynamodb/datasets"
	principalData "dataplane.me/shares/internal/dynamodb/principals"
	itemData "dataplane.me/shares/internal/dynamodb/shareitems"
	shareData "dataplane.me/shares/internal/dynamodb/shares"
	subscriberData "dataplane.me/shares/internal/dynamodb/subscriptions"
	"dataplane.me/shares/internal/dynamodb/token"
	"dataplane.me/shares/internal/routes"
	shareRoutes "dataplane.me/shares/internal/routes/shares"
	"dataplane.me/shares/internal/routes/subscriptions"
	"dataplane.me/shares/internal/share"
	"dataplane.me/shares/internal/sns/services"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type App struct {
	Router routes.Router
}

func NewApp() App {
	tableName := os.Getenv("TABLE_NAME")
	topicArn := os.Getenv("TOPIC_ARN")
	tasksTopicArn := os.Getenv("TASKS_TOPIC_ARN")
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		panic("Failed to load AWS config.")
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
	router := routes.NewRouter(
		shareRoutes.NewRoute(service),
		subscriptions.NewRoute(
			subscriberData.NewSubscriptionService(tableName, *client, marshaler),
			&services.NotificationSNSService{
				Sns:      *snsClient,
				TopicArn: topicArn,
			},
		),
	)
	return App{
		Router: *router,
	}
}

func (app *App) HandleRequest(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return app.Router.Invoke(request, ctx), nil
}

func main() {
	app := NewApp()
	lambda.Start(app.HandleRequest)
}
