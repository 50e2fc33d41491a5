package util

import (
	"bytes"
	"encoding/json"
	"testing"

	"dataplane.me/shares/internal/data"
	"github.com/aws/aws-lambda-go/events"
)

func TestParseQueryParams(t *testing.T) {
	t.Run("ReadsLimit", func(t *testing.T) {
		params := ParseQueryParams(events.APIGatewayV2HTTPRequest{
			QueryStringParameters: map[string]string{"limit": "25"},
		})
		if params.Limit != 25 {
			t.Fatalf("expected limit 25, got %d", params.Limit)
		}
	})
	t.Run("EchoedTokenRoundTrips", func(t *testing.T) {
		token := []byte("GS1-PK.aHR0cHM6Ly9leGFtcGxl")
		body, err := json.Marshal(data.QueryResults[string]{NextToken: token})
		if err != nil {
			t.Fatalf("failed to serialize results: %s", err)
		}
		var echoed struct {
			NextToken string `json:"nextToken"`
		}
		if err := json.Unmarshal(body, &echoed); err != nil {
			t.Fatalf("failed to read the response token: %s", err)
		}
		params := ParseQueryParams(events.APIGatewayV2HTTPRequest{
			QueryStringParameters: map[string]string{"nextToken": echoed.NextToken},
		})
		if !bytes.Equal(params.NextToken, token) {
			t.Fatalf("expected %q after the round trip, got %q", token, params.NextToken)
		}
	})
}
