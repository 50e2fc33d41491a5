package routes

import (
	"context"
	"strings"
	"testing"

	"dataplane.me/shares/internal/exceptions"
	"github.com/aws/aws-lambda-go/events"
)

type stubService struct {
	routes map[string]Route
}

func (s *stubService) GetRoutes() map[string]Route {
	return s.routes
}

func request(method string, path string, authorized bool) events.APIGatewayV2HTTPRequest {
	event := events.APIGatewayV2HTTPRequest{
		RawPath: path,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: method,
			},
		},
	}
	if authorized {
		event.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
				Claims: map[string]string{
					"username": "nobody",
				},
			},
		}
	}
	return event
}

func TestRouterMatchesPathParams(t *testing.T) {
	router := NewRouter(&stubService{
		routes: map[string]Route{
			"GET:/shares/:shareId/items/:itemId": func(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
				params := ctx.Value("Params").(map[string]string)
				return events.APIGatewayV2HTTPResponse{
					StatusCode: 200,
					Body:       params["shareId"] + "/" + params["itemId"],
				}, nil
			},
		},
	})

	response := router.Invoke(request("GET", "/shares/share-1/items/item-2", true), context.TODO())
	if response.StatusCode != 200 {
		t.Fatalf("Expected a 200, got %d", response.StatusCode)
	}
	if response.Body != "share-1/item-2" {
		t.Fatalf("Expected extracted params, got %s", response.Body)
	}
}

func TestRouterRejectsUnauthenticated(t *testing.T) {
	router := NewRouter(&stubService{
		routes: map[string]Route{
			"GET:/shares": func(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
				t.Fatal("Expected the filter to reject before the route")
				return events.APIGatewayV2HTTPResponse{}, nil
			},
		},
	})

	response := router.Invoke(request("GET", "/shares", false), context.TODO())
	if response.StatusCode != 401 {
		t.Fatalf("Expected a 401, got %d", response.StatusCode)
	}
}

func TestRouterHandlesCorsPreflight(t *testing.T) {
	router := NewRouter(&stubService{routes: map[string]Route{}})

	response := router.Invoke(request("OPTIONS", "/shares", false), context.TODO())
	if response.StatusCode != 200 {
		t.Fatalf("Expected a 200, got %d", response.StatusCode)
	}
	if response.Headers["access-control-allow-origin"] != "*" {
		t.Fatalf("Expected CORS headers, got %v", response.Headers)
	}
}

func TestRouterTranslatesErrors(t *testing.T) {
	router := NewRouter(&stubService{
		routes: map[string]Route{
			"GET:/shares/:shareId": func(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
				return events.APIGatewayV2HTTPResponse{}, exceptions.NotFound("Share", "share-1")
			},
		},
	})

	response := router.Invoke(request("GET", "/shares/share-1", true), context.TODO())
	if response.StatusCode != 404 {
		t.Fatalf("Expected a 404, got %d", response.StatusCode)
	}
	if !strings.Contains(response.Body, "share-1") {
		t.Fatalf("Expected the error message in the body, got %s", response.Body)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(&stubService{routes: map[string]Route{}})

	response := router.Invoke(request("GET", "/nowhere", true), context.TODO())
	if response.StatusCode != 404 {
		t.Fatalf("Expected a 404, got %d", response.StatusCode)
	}
}
