package subscriptions

import (
	"context"
	"encoding/json"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"dataplane.me/shares/internal/notifications"
	"dataplane.me/shares/internal/routes"
	"dataplane.me/shares/internal/routes/util"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
)

type SubscriptionService struct {
	data          data.SubscriptionRepository
	notifications notifications.NotificationService
}

func NewRoute(data data.SubscriptionRepository, notifications notifications.NotificationService) routes.Service {
	return &SubscriptionService{
		data:          data,
		notifications: notifications,
	}
}

func (s *SubscriptionService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"GET:/subscriptions":                  util.AuthorizedRoute(s.ListSubscriptions),
		"GET:/subscriptions/:subscriberId":    util.AuthorizedRoute(s.GetSubscription),
		"POST:/subscriptions":                 util.AuthorizedRoute(s.CreateSubscription),
		"DELETE:/subscriptions/:subscriberId": util.AuthorizedRoute(s.DeleteSubscription),
	}
}

// callerGroup resolves the group a request operates on and confirms the
// caller belongs to it. Subscriptions are shared team resources, keyed
// on the group rather than the individual.
func callerGroup(event events.APIGatewayV2HTTPRequest, ctx context.Context, bodyGroup string) (string, error) {
	groupId := bodyGroup
	if groupId == "" {
		groupId = event.QueryStringParameters["groupId"]
	}
	identity := util.CallerIdentity(ctx)
	if groupId == "" && len(identity.Groups) == 1 {
		groupId = identity.Groups[0]
	}
	if groupId == "" {
		return "", exceptions.InvalidInput("a groupId is required")
	}
	for _, group := range identity.Groups {
		if group == groupId {
			return groupId, nil
		}
	}
	return "", exceptions.Unauthorized("Subscriptions", "the caller is not a member of group "+groupId)
}

func (s *SubscriptionService) ListSubscriptions(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	groupId, err := callerGroup(event, ctx, "")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	results, err := s.data.List(groupId, util.ParseQueryParams(event))
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewSubscription), results, err)
}

func (s *SubscriptionService) GetSubscription(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	groupId, err := callerGroup(event, ctx, "")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	item, err := s.data.Get(groupId, util.RequestParam(ctx, "subscriberId"))
	return util.SerializeResponseOK(NewSubscription, item, err)
}

func (s *SubscriptionService) CreateSubscription(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input := SubscriptionInput{}
	if err := json.Unmarshal([]byte(event.Body), &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput(err.Error())
	}
	groupId, err := callerGroup(event, ctx, input.GroupId)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	subscription, err := s.notifications.Subscribe(notifications.SubscribeInput{
		Endpoint: input.Endpoint,
		Protocol: input.Protocol,
	})
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InternalServer(err.Error())
	}

	created, err := s.data.Create(groupId, data.SubscriptionInputDTO{
		GroupId:       aws.String(groupId),
		Endpoint:      input.Endpoint,
		Protocol:      input.Protocol,
		SubscriberArn: &subscription.SubscriberId,
	})
	return util.SerializeResponseOK(NewSubscription, created, err)
}

func (s *SubscriptionService) DeleteSubscription(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	groupId, err := callerGroup(event, ctx, "")
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	subscriber, err := s.data.Get(groupId, util.RequestParam(ctx, "subscriberId"))
	if err != nil {
		_, ok := err.(*exceptions.NotFoundError)
		if ok {
			return util.SerializeResponseNoContent(nil)
		} else {
			return events.APIGatewayV2HTTPResponse{}, exceptions.InternalServer(err.Error())
		}
	}

	if err := s.notifications.Unsubscribe(subscriber.SubscriberArn); err != nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InternalServer(err.Error())
	}

	return util.SerializeResponseNoContent(s.data.Delete(groupId, subscriber.SK))
}
