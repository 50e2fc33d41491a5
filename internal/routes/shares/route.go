package shares

import (
	"context"
	"encoding/json"
	"strings"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"dataplane.me/shares/internal/routes"
	"dataplane.me/shares/internal/routes/util"
	"dataplane.me/shares/internal/share"
	"github.com/aws/aws-lambda-go/events"
)

type ShareRouteService struct {
	service *share.Service
}

func NewRoute(service *share.Service) routes.Service {
	return &ShareRouteService{
		service: service,
	}
}

func (s *ShareRouteService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"POST:/shares":                    util.AuthorizedRoute(s.CreateShare),
		"GET:/shares":                     util.AuthorizedRoute(s.ListShares),
		"GET:/shares/:shareId":            util.AuthorizedRoute(s.GetShare),
		"DELETE:/shares/:shareId":         util.AuthorizedRoute(s.DeleteShare),
		"GET:/shares/:shareId/statistics": util.AuthorizedRoute(s.GetStatistics),
		"GET:/shares/:shareId/activities": util.AuthorizedRoute(s.ListActivities),

		"PUT:/shares/:shareId/submit":         util.AuthorizedRoute(s.SubmitShare),
		"PUT:/shares/:shareId/approve":        util.AuthorizedRoute(s.ApproveShare),
		"PUT:/shares/:shareId/reject":         util.AuthorizedRoute(s.RejectShare),
		"PUT:/shares/:shareId/revoke":         util.AuthorizedRoute(s.RevokeItems),
		"PUT:/shares/:shareId/verify":         util.AuthorizedRoute(s.VerifyItems),
		"PUT:/shares/:shareId/reapply":        util.AuthorizedRoute(s.ReapplyItems),
		"PUT:/shares/:shareId/requestPurpose": util.AuthorizedRoute(s.UpdateRequestPurpose),
		"PUT:/shares/:shareId/rejectPurpose":  util.AuthorizedRoute(s.UpdateRejectPurpose),

		"POST:/shares/:shareId/extension":        util.AuthorizedRoute(s.SubmitExtension),
		"PUT:/shares/:shareId/extension/approve": util.AuthorizedRoute(s.ApproveExtension),
		"PUT:/shares/:shareId/extension/reject":  util.AuthorizedRoute(s.RejectExtension),
		"PUT:/shares/:shareId/extension/purpose": util.AuthorizedRoute(s.UpdateExtensionPurpose),
		"PUT:/shares/:shareId/extension/period":  util.AuthorizedRoute(s.UpdateExpirationPeriod),
		"DELETE:/shares/:shareId/extension":      util.AuthorizedRoute(s.CancelExtension),

		"POST:/shares/:shareId/items":                  util.AuthorizedRoute(s.AddItem),
		"GET:/shares/:shareId/items":                   util.AuthorizedRoute(s.ListItems),
		"GET:/shares/:shareId/items/:itemId":           util.AuthorizedRoute(s.GetItem),
		"DELETE:/shares/:shareId/items/:itemId":        util.AuthorizedRoute(s.RemoveItem),
		"PUT:/shares/:shareId/items/:itemId/filter":    util.AuthorizedRoute(s.AttachDataFilter),
		"DELETE:/shares/:shareId/items/:itemId/filter": util.AuthorizedRoute(s.RemoveDataFilter),
	}
}

func parseBody[T interface{}](event events.APIGatewayV2HTTPRequest) (T, error) {
	var input T
	if err := json.Unmarshal([]byte(event.Body), &input); err != nil {
		return input, exceptions.InvalidInput(err.Error())
	}
	return input, nil
}

func (s *ShareRouteService) CreateShare(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[CreateShareRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	created, alreadyExisted, err := s.service.CreateShare(util.CallerIdentity(ctx), share.CreateShareInput{
		DatasetId:      input.DatasetId,
		PrincipalId:    input.PrincipalId,
		GroupId:        input.GroupId,
		Permissions:    input.Permissions,
		RequestPurpose: input.RequestPurpose,
		ItemRef:        input.ItemRef,
		ItemType:       input.ItemType,
		ItemName:       input.ItemName,
	})
	statusCode := 201
	if alreadyExisted {
		statusCode = 200
	}
	return util.SerializeResponse(func(dto data.ShareDTO) CreatedShare {
		return CreatedShare{Share: NewShare(dto), AlreadyExisted: alreadyExisted}
	}, created, err, statusCode)
}

func (s *ShareRouteService) ListShares(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	filter := share.ShareFilter{
		DatasetId: event.QueryStringParameters["datasetId"],
		GroupId:   event.QueryStringParameters["groupId"],
	}
	if statuses := event.QueryStringParameters["status"]; statuses != "" {
		for _, status := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, data.ShareStatus(strings.TrimSpace(status)))
		}
	}
	results, err := s.service.ListShares(filter, util.ParseQueryParams(event))
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewShare), results, err)
}

func (s *ShareRouteService) GetShare(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dto, err := s.service.GetShare(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"))
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) DeleteShare(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	force := event.QueryStringParameters["force"] == "true"
	return util.SerializeResponseNoContent(
		s.service.Delete(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), force),
	)
}

func (s *ShareRouteService) GetStatistics(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	stats, err := s.service.ShareStatistics(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"))
	return util.SerializeResponseOK(func(stats share.Statistics) share.Statistics { return stats }, stats, err)
}

func (s *ShareRouteService) ListActivities(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	results, err := s.service.ListActivities(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), util.ParseQueryParams(event))
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewActivity), results, err)
}

func (s *ShareRouteService) SubmitShare(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dto, err := s.service.Submit(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"))
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) ApproveShare(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dto, err := s.service.Approve(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"))
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) RejectShare(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[PurposeRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.Reject(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.Purpose)
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) RevokeItems(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[ItemSelection](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	identity := util.CallerIdentity(ctx)
	shareId := util.RequestParam(ctx, "shareId")
	var dto data.ShareDTO
	if len(input.ItemIds) == 0 {
		dto, err = s.service.RevokeAll(identity, shareId)
	} else {
		dto, err = s.service.RevokeItems(identity, shareId, input.ItemIds)
	}
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) VerifyItems(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[ItemSelection](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return util.SerializeResponseNoContent(
		s.service.VerifyItems(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.ItemIds),
	)
}

func (s *ShareRouteService) ReapplyItems(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[ItemSelection](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return util.SerializeResponseNoContent(
		s.service.ReapplyItems(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.ItemIds),
	)
}

func (s *ShareRouteService) UpdateRequestPurpose(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[PurposeRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.UpdateRequestPurpose(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.Purpose)
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) UpdateRejectPurpose(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[PurposeRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.UpdateRejectPurpose(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.Purpose)
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) SubmitExtension(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[ExtensionRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.SubmitExtension(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), toExtensionInput(input))
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) ApproveExtension(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dto, err := s.service.ApproveExtension(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"))
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) RejectExtension(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[PurposeRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.RejectExtension(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.Purpose)
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) CancelExtension(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	dto, err := s.service.CancelExtension(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"))
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) UpdateExtensionPurpose(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[PurposeRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.UpdateExtensionPurpose(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.Purpose)
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) UpdateExpirationPeriod(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[PeriodRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	dto, err := s.service.UpdateExpirationPeriod(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), input.PeriodInMonths)
	return util.SerializeResponseOK(NewShare, dto, err)
}

func (s *ShareRouteService) AddItem(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[AddItemRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	item, err := s.service.AddItem(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), share.AddItemInput{
		ItemRef:  input.ItemRef,
		ItemType: input.ItemType,
		ItemName: input.ItemName,
	})
	return util.SerializeResponse(NewShareItem, item, err, 201)
}

func (s *ShareRouteService) ListItems(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	revokableOnly := event.QueryStringParameters["revokable"] == "true"
	results, err := s.service.ListItems(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), util.ParseQueryParams(event), revokableOnly)
	return util.SerializeResponseOK(util.ConvertQueryResultsPartial(NewShareItem), results, err)
}

func (s *ShareRouteService) GetItem(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	item, err := s.service.GetItem(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), util.RequestParam(ctx, "itemId"))
	return util.SerializeResponseOK(NewShareItem, item, err)
}

func (s *ShareRouteService) RemoveItem(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	return util.SerializeResponseNoContent(
		s.service.RemoveItem(util.CallerIdentity(ctx), util.RequestParam(ctx, "shareId"), util.RequestParam(ctx, "itemId")),
	)
}

func (s *ShareRouteService) AttachDataFilter(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input, err := parseBody[DataFilterRequest](event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	item, err := s.service.AttachDataFilter(
		util.CallerIdentity(ctx),
		util.RequestParam(ctx, "shareId"),
		util.RequestParam(ctx, "itemId"),
		share.DataFilterInput{FilterId: input.FilterId, Label: input.Label},
	)
	return util.SerializeResponseOK(NewShareItem, item, err)
}

func (s *ShareRouteService) RemoveDataFilter(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	item, err := s.service.RemoveDataFilter(
		util.CallerIdentity(ctx),
		util.RequestParam(ctx, "shareId"),
		util.RequestParam(ctx, "itemId"),
	)
	return util.SerializeResponseOK(NewShareItem, item, err)
}
