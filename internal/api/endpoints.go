package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mailtm/client-go/internal/apierrors"
)

const mergePatchJSON = "application/merge-patch+json"

func pageQuery(page int) map[string]string {
	if page <= 0 {
		return nil
	}
	return map[string]string{"page": strconv.Itoa(page)}
}

func byID(id string) map[string]string {
	return map[string]string{"id": id}
}

// GetDomains returns the raw GET /domains collection. page <= 0 omits the
// page parameter.
func (c *Client) GetDomains(ctx context.Context, page int) (json.RawMessage, error) {
	var raw json.RawMessage
	req := request{method: http.MethodGet, route: "/domains", query: pageQuery(page)}
	if err := c.send(ctx, req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetDomain retrieves a domain by id.
func (c *Client) GetDomain(ctx context.Context, id string) (*Domain, error) {
	var result Domain
	req := request{method: http.MethodGet, route: "/domains/{id}", pathParams: byID(id)}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceDomain)
	}
	return &result, nil
}

// CreateAccount registers a new address.
func (c *Client) CreateAccount(ctx context.Context, creds Credentials) (*Account, error) {
	var result Account
	req := request{method: http.MethodPost, route: "/accounts", body: creds}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// GetToken exchanges credentials for a bearer token. It does not install the
// token; callers decide with SetToken.
func (c *Client) GetToken(ctx context.Context, creds Credentials) (*Token, error) {
	var result Token
	req := request{method: http.MethodPost, route: "/token", body: creds}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// GetMe returns the account the token belongs to.
func (c *Client) GetMe(ctx context.Context) (*Account, error) {
	var result Account
	req := request{method: http.MethodGet, route: "/me"}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// GetAccount retrieves an account by id.
func (c *Client) GetAccount(ctx context.Context, id string) (*Account, error) {
	var result Account
	req := request{method: http.MethodGet, route: "/accounts/{id}", pathParams: byID(id)}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// DeleteAccount deletes an account by id.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	req := request{method: http.MethodDelete, route: "/accounts/{id}", pathParams: byID(id)}
	return apierrors.WithResourceType(c.send(ctx, req, nil), apierrors.ResourceAccount)
}

// GetMessages returns the raw GET /messages collection. page <= 0 omits the
// page parameter.
func (c *Client) GetMessages(ctx context.Context, page int) (json.RawMessage, error) {
	var raw json.RawMessage
	req := request{method: http.MethodGet, route: "/messages", query: pageQuery(page)}
	if err := c.send(ctx, req, &raw); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceMessage)
	}
	return raw, nil
}

// GetMessage retrieves a message by id.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	var result Message
	req := request{method: http.MethodGet, route: "/messages/{id}", pathParams: byID(id)}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceMessage)
	}
	return &result, nil
}

// SetMessageSeen updates the seen flag of a message. The service may answer
// with the full message or only the changed field; the id and flag are
// filled in when missing.
func (c *Client) SetMessageSeen(ctx context.Context, id string, seen bool) (*Message, error) {
	var result Message
	req := request{
		method:      http.MethodPatch,
		route:       "/messages/{id}",
		pathParams:  byID(id),
		body:        seenRequest{Seen: seen},
		contentType: mergePatchJSON,
	}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceMessage)
	}
	if result.ID == "" {
		result.ID = id
		result.Seen = seen
	}
	return &result, nil
}

// DeleteMessage deletes a message by id.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	req := request{method: http.MethodDelete, route: "/messages/{id}", pathParams: byID(id)}
	return apierrors.WithResourceType(c.send(ctx, req, nil), apierrors.ResourceMessage)
}

// GetSource retrieves the raw source of a message.
func (c *Client) GetSource(ctx context.Context, id string) (*Source, error) {
	var result Source
	req := request{method: http.MethodGet, route: "/sources/{id}", pathParams: byID(id)}
	if err := c.send(ctx, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceMessage)
	}
	return &result, nil
}
