/*
client.go - GraphQL transport for the commerce platform

PURPOSE:
  Issues the three operations the loyalty subsystem needs:
  - GetCustomerMetafields: fetch the loyalty layout for one customer
  - SetCustomerMetafields: write a subset of fields with the customer token
  - InitCustomerMetafields: seed a new account with the admin token

ERROR CONTRACT:
  Transport and GraphQL-level failures surface as *RequestError.
  Platform validation failures (userErrors) surface as *UserErrorsError
  carrying the first reported message. An unknown or expired customer
  token yields ErrCustomerNotFound.

  No retries, no batching: one HTTP call per invocation. The HTTP client
  carries a timeout so a hung platform call cannot block a request
  indefinitely.
*/
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrCustomerNotFound is returned when the platform resolves no customer
// for the presented access token or customer id.
var ErrCustomerNotFound = errors.New("customer not found")

// RequestError reports a transport or GraphQL-level failure.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("platform request failed: %s (status %d)", e.Message, e.Status)
}

// UserErrorsError reports platform-side validation failures on a mutation.
// Error() carries the first reported message; all errors are retained.
type UserErrorsError struct {
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	if len(e.Errors) == 0 {
		return "platform rejected mutation"
	}
	return e.Errors[0].Message
}

// Client talks to the commerce platform's GraphQL endpoint.
type Client struct {
	endpoint   string
	adminToken string
	http       *resty.Client
}

// NewClient creates a platform client for the given GraphQL endpoint.
// adminToken is only used by InitCustomerMetafields.
func NewClient(endpoint, adminToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		adminToken: adminToken,
		http:       resty.New().SetTimeout(timeout),
	}
}

const customerMetafieldsQuery = `
query CustomerLoyalty($token: String!, $namespace: String!, $keys: [String!]!) {
  customer(customerAccessToken: $token) {
    id
    metafields(namespace: $namespace, keys: $keys) {
      key
      type
      value
    }
  }
}`

const setMetafieldsMutation = `
mutation SetCustomerLoyalty($token: String!, $metafields: [MetafieldInput!]!) {
  customerMetafieldsSet(customerAccessToken: $token, metafields: $metafields) {
    userErrors {
      field
      message
    }
  }
}`

const initMetafieldsMutation = `
mutation InitCustomerLoyalty($customerId: ID!, $metafields: [MetafieldInput!]!) {
  customerMetafieldsInitialize(customerId: $customerId, metafields: $metafields) {
    userErrors {
      field
      message
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// GetCustomerMetafields fetches the loyalty metafield layout for the
// customer identified by the access token.
func (c *Client) GetCustomerMetafields(ctx context.Context, token string) (MetafieldSet, error) {
	data, err := c.execute(ctx, graphqlRequest{
		Query: customerMetafieldsQuery,
		Variables: map[string]any{
			"token":     token,
			"namespace": Namespace,
			"keys":      Keys,
		},
	}, "")
	if err != nil {
		return MetafieldSet{}, err
	}

	var payload struct {
		Customer *struct {
			ID         string      `json:"id"`
			Metafields []Metafield `json:"metafields"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return MetafieldSet{}, &RequestError{Status: http.StatusOK, Message: "malformed response: " + err.Error()}
	}
	if payload.Customer == nil {
		return MetafieldSet{}, ErrCustomerNotFound
	}

	set := MetafieldSet{
		CustomerID: payload.Customer.ID,
		Fields:     make(map[string]Metafield, len(payload.Customer.Metafields)),
	}
	for _, f := range payload.Customer.Metafields {
		set.Fields[f.Key] = f
	}
	return set, nil
}

// SetCustomerMetafields writes the given fields with the customer token.
// Only the provided fields are touched.
func (c *Client) SetCustomerMetafields(ctx context.Context, token string, inputs []MetafieldInput) error {
	data, err := c.execute(ctx, graphqlRequest{
		Query: setMetafieldsMutation,
		Variables: map[string]any{
			"token":      token,
			"metafields": inputs,
		},
	}, "")
	if err != nil {
		return err
	}
	return unwrapUserErrors(data, "customerMetafieldsSet")
}

// InitCustomerMetafields seeds a new customer's metafields using the
// elevated admin credential.
func (c *Client) InitCustomerMetafields(ctx context.Context, customerID string, inputs []MetafieldInput) error {
	data, err := c.execute(ctx, graphqlRequest{
		Query: initMetafieldsMutation,
		Variables: map[string]any{
			"customerId": customerID,
			"metafields": inputs,
		},
	}, c.adminToken)
	if err != nil {
		return err
	}
	return unwrapUserErrors(data, "customerMetafieldsInitialize")
}

func unwrapUserErrors(data json.RawMessage, field string) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return &RequestError{Status: http.StatusOK, Message: "malformed response: " + err.Error()}
	}
	raw, ok := payload[field]
	if !ok || string(raw) == "null" {
		// The platform nulls the mutation payload when the credential
		// resolves no customer.
		return ErrCustomerNotFound
	}
	var result struct {
		UserErrors []UserError `json:"userErrors"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return &RequestError{Status: http.StatusOK, Message: "malformed response: " + err.Error()}
	}
	if len(result.UserErrors) > 0 {
		return &UserErrorsError{Errors: result.UserErrors}
	}
	return nil
}

func (c *Client) execute(ctx context.Context, req graphqlRequest, adminToken string) (json.RawMessage, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)
	if adminToken != "" {
		r.SetHeader("X-Admin-Token", adminToken)
	}

	resp, err := r.Post(c.endpoint)
	if err != nil {
		return nil, &RequestError{Message: err.Error()}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RequestError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}

	var gql graphqlResponse
	if err := json.Unmarshal(resp.Body(), &gql); err != nil {
		return nil, &RequestError{Status: resp.StatusCode(), Message: "malformed response: " + err.Error()}
	}
	if len(gql.Errors) > 0 {
		return nil, &RequestError{Status: resp.StatusCode(), Message: gql.Errors[0].Message}
	}
	return gql.Data, nil
}
