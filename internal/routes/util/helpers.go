package util

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"dataplane.me/shares/internal/data"
	"dataplane.me/shares/internal/exceptions"
	"dataplane.me/shares/internal/routes"
	"dataplane.me/shares/internal/share"
	"github.com/aws/aws-lambda-go/events"
)

// AuthorizedRoute lifts the caller's identity out of the JWT claims
// before the route runs. Group membership arrives as a comma separated
// claim from the identity provider.
func AuthorizedRoute(route routes.Route) routes.Route {
	return func(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
		jwt := event.RequestContext.Authorizer.JWT
		if jwt == nil {
			return events.APIGatewayV2HTTPResponse{}, exceptions.InternalServer("Unexpected internal error")
		}
		username, ok := jwt.Claims["username"]
		if !ok {
			return events.APIGatewayV2HTTPResponse{}, exceptions.InternalServer("Unexpected internal error")
		}
		var groups []string
		if claim, ok := jwt.Claims["cognito:groups"]; ok && claim != "" {
			for _, group := range strings.Split(claim, ",") {
				groups = append(groups, strings.TrimSpace(group))
			}
		}
		identity := share.Identity{Username: username, Groups: groups}
		return route(event, context.WithValue(ctx, "Identity", identity))
	}
}

func CallerIdentity(ctx context.Context) share.Identity {
	if identity, ok := ctx.Value("Identity").(share.Identity); ok {
		return identity
	}
	return share.Identity{}
}

func RequestParam(ctx context.Context, name string) string {
	if params, ok := ctx.Value("Params").(map[string]string); ok {
		return params[name]
	}
	return ""
}

// ParseQueryParams reads the pagination controls off the query string.
func ParseQueryParams(event events.APIGatewayV2HTTPRequest) data.QueryParams {
	params := data.QueryParams{}
	if limit, ok := event.QueryStringParameters["limit"]; ok {
		if parsed, err := strconv.Atoi(limit); err == nil {
			params.Limit = parsed
		}
	}
	if nextToken, ok := event.QueryStringParameters["nextToken"]; ok {
		// The response serializes NextToken as base64, so an echoed
		// token needs unwrapping before the marshaler sees it.
		if decoded, err := base64.StdEncoding.DecodeString(nextToken); err == nil {
			params.NextToken = decoded
		} else {
			params.NextToken = []byte(nextToken)
		}
	}
	return params
}

func SerializeResponse[T interface{}, R interface{}](delayed func(T) R, thing T, err error, statusCode int) (events.APIGatewayV2HTTPResponse, error) {
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	body, err := json.Marshal(delayed(thing))
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	headers := map[string]string{
		"Content-Type":   "application/json",
		"Content-Length": strconv.Itoa(len(body)),
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

func SerializeResponseOK[T interface{}, R interface{}](delayed func(T) R, thing T, err error) (events.APIGatewayV2HTTPResponse, error) {
	return SerializeResponse(delayed, thing, err, 200)
}

func SerializeResponseNoContent(err error) (events.APIGatewayV2HTTPResponse, error) {
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 204,
	}, nil
}

func ConvertQueryResults[D interface{}, R interface{}](items data.QueryResults[D], thunk func(D) R) data.QueryResults[R] {
	if items.Items != nil {
		newItems := make([]R, len(items.Items))
		for i, rd := range items.Items {
			newItems[i] = thunk(rd)
		}
		return data.QueryResults[R]{
			Items:     newItems,
			NextToken: items.NextToken,
		}
	}
	return data.QueryResults[R]{
		Items: make([]R, 0),
	}
}

func ConvertQueryResultsPartial[D interface{}, R interface{}](thunk func(D) R) func(data.QueryResults[D]) data.QueryResults[R] {
	return func(d data.QueryResults[D]) data.QueryResults[R] {
		return ConvertQueryResults(d, thunk)
	}
}
