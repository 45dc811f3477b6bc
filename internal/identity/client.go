// Package identity resolves role names to the identities currently holding
// them, for approval chain building. Authentication of acting identities
// happens upstream of this service.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client queries the identity service for role membership
// (GET /identity/roles/{role}/users).
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		log: log,
	}
}

type roleUsersResponse struct {
	UserIDs []string `json:"user_ids"`
}

// UsersWithRole returns the identities holding the role. Unlike notification
// dispatch this call is load-bearing (chain building cannot proceed without
// it), so errors propagate to the caller.
func (c *Client) UsersWithRole(ctx context.Context, role string) ([]string, error) {
	endpoint := c.baseURL + "/identity/roles/" + url.PathEscape(role) + "/users"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: status %d for role %q", resp.StatusCode, role)
	}
	var body roleUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("identity: decode: %w", err)
	}
	c.log.Debug("resolved role", zap.String("role", role), zap.Int("users", len(body.UserIDs)))
	return body.UserIDs, nil
}
