// Package partnerize is a thin proxy client for the Partnerize brand API.
// The dashboard consumes whatever JSON Partnerize returns, so methods hand
// back raw payloads instead of typed structs.
package partnerize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxErrorBody = 4096

var ErrNotConfigured = errors.New("partnerize: app key and user api key not configured")

// StatusError is a non-2xx Partnerize response with whatever human-readable
// detail the body carried.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("partnerize error %d", e.Status)
	}
	return fmt.Sprintf("partnerize error %d: %s", e.Status, e.Detail)
}

type Client struct {
	baseURL string
	appKey  string
	userKey string
	httpc   *http.Client
}

// NewClient builds the client. Auth is HTTP Basic with the application key as
// username and the user API key as password; requests fail with
// ErrNotConfigured until both are set.
func NewClient(baseURL, appKey, userKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appKey:  strings.TrimSpace(appKey),
		userKey: strings.TrimSpace(userKey),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// GetNetworks returns the raw /network payload for the configured user.
// Useful to verify the key pair and list available networks.
func (c *Client) GetNetworks(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/network", nil)
}

// ConversionsQuery narrows the bulk conversions listing. Zero values are
// omitted from the request.
type ConversionsQuery struct {
	StartDate string // YYYY-MM-DD in Partnerize report timezone
	EndDate   string
	Limit     int
	Offset    int
}

// GetConversions proxies the bulk conversions endpoint for one campaign.
func (c *Client) GetConversions(ctx context.Context, campaignID string, q ConversionsQuery) (json.RawMessage, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, errors.New("partnerize: campaign id required")
	}
	params := url.Values{}
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/v3/brand/campaigns/" + url.PathEscape(campaignID) + "/conversions/bulk"
	return c.get(ctx, path, params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.appKey == "" || c.userKey == "" {
		return nil, ErrNotConfigured
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("partnerize: build request: %w", err)
	}
	req.SetBasicAuth(c.appKey, c.userKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partnerize connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("partnerize: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	if json.Valid(body) {
		return json.RawMessage(body), nil
	}
	// Partnerize occasionally answers 2xx with plain text; pass it through
	// as a JSON string so the proxy response stays JSON.
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted), nil
}

// errorDetail pulls a message out of a Partnerize error body. The API is not
// consistent about the field name across endpoints.
func errorDetail(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail", "faultstring"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			return msg
		}
	}
	return ""
}
