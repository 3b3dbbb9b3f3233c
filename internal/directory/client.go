package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
)

// SearchPath is the JSON search endpoint served by a gogov server.
const SearchPath = "/api/search"

// Client searches a remote gogov server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL. A nil httpClient
// means a client with a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ErrorBody is the JSON body of a failed API request.
type ErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

// Search calls GET /api/search with p encoded as the query string.
func (c *Client) Search(ctx context.Context, p searchparam.Params) (resultstore.ResultSet, error) {
	url := c.baseURL + SearchPath + "?" + searchparam.Encode(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resultstore.ResultSet{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return resultstore.ResultSet{}, fmt.Errorf("requesting %s: %w", SearchPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body ErrorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &body) != nil || body.Message == "" {
			body.Message = strings.TrimSpace(string(data))
		}
		return resultstore.ResultSet{}, errors.New(errors.CodeRemoteStatus).
			WithField(body.Field).
			WithDetail(fmt.Sprintf("%s returned %s", SearchPath, resp.Status)).
			Wrap(fmt.Errorf("%s", body.Message))
	}

	var rs resultstore.ResultSet
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return resultstore.ResultSet{}, fmt.Errorf("decoding response: %w", err)
	}
	return rs, nil
}

// Close implements Directory.
func (c *Client) Close() error { return nil }
