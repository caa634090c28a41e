// Package social wraps the surrounding application's friend API.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/studylink/gateway/internal/domain"
)

// Client queries the friend set over the application's REST API.
// It only reads the graph; friendship mutation lives in the application.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{}}
}

// Friends returns the friend set of user. Any transport or decode failure is
// returned as an error; the admission layer treats it as a denial.
func (c *Client) Friends(ctx context.Context, user domain.UserID) (map[domain.UserID]struct{}, error) {
	endpoint := fmt.Sprintf("%s/api/users/%s/friends", c.BaseURL, url.PathEscape(string(user)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build friends request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("friends query for %q: %w", user, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("friends query for %q: status %d", user, resp.StatusCode)
	}

	var friends []struct {
		ID domain.UserID `json:"_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&friends); err != nil {
		return nil, fmt.Errorf("decode friends response: %w", err)
	}
	out := make(map[domain.UserID]struct{}, len(friends))
	for _, f := range friends {
		out[f.ID] = struct{}{}
	}
	return out, nil
}
