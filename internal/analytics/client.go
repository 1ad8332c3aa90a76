// Package analytics is the typed client for the external click/conversion
// analytics service. It reads exactly the documented response fields; a
// payload that does not decode is a failure, never a reason to probe
// alternative field names.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stegverse/cfp-tickets-api/internal/models"
)

const maxErrorBody = 2048

// HTTPClient lets tests substitute the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	httpc   HTTPClient
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// NewClientWith builds a client over a caller-supplied transport.
func NewClientWith(baseURL string, httpc HTTPClient) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

type clickWindowResp struct {
	StartTS *int64 `json:"start_ts"`
	EndTS   *int64 `json:"end_ts"`
}

type clickSummaryResp struct {
	TotalClicks int              `json:"total_clicks"`
	Limit       int              `json:"limit"`
	Window      *clickWindowResp `json:"window"`
	ByProvider  map[string]int   `json:"by_provider"`
	ByCampaign  map[string]int   `json:"by_campaign"`
}

type conversionSummaryResp struct {
	Campaigns []struct {
		CampaignID  string           `json:"campaign_id"`
		Conversions int              `json:"conversions"`
		Revenue     *decimal.Decimal `json:"revenue"`
		Currency    string           `json:"currency"`
	} `json:"campaigns"`
	Window models.ConversionWindow `json:"window"`
}

// ClickSummary fetches the most recent clicks, capped at limit entries.
func (c *Client) ClickSummary(ctx context.Context, limit int) (*models.ClickSummary, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp clickSummaryResp
	if err := c.getJSON(ctx, "/v1/tickets/clicks/summary", q, &resp); err != nil {
		return nil, err
	}

	out := &models.ClickSummary{
		TotalClicks: resp.TotalClicks,
		Limit:       resp.Limit,
		ByProvider:  resp.ByProvider,
		ByCampaign:  resp.ByCampaign,
	}
	if resp.Window != nil {
		if resp.Window.StartTS != nil {
			t := time.Unix(*resp.Window.StartTS, 0).UTC()
			out.Window.Start = &t
		}
		if resp.Window.EndTS != nil {
			t := time.Unix(*resp.Window.EndTS, 0).UTC()
			out.Window.End = &t
		}
	}
	return out, nil
}

// ConversionSummary fetches conversions for the given campaigns over a
// trailing day-count window.
func (c *Client) ConversionSummary(ctx context.Context, campaignIDs []string, days int) (*models.ConversionSummary, error) {
	q := url.Values{
		"campaign_ids": {strings.Join(campaignIDs, ",")},
		"days":         {strconv.Itoa(days)},
	}
	var resp conversionSummaryResp
	if err := c.getJSON(ctx, "/v1/partnerize/conversions/summary", q, &resp); err != nil {
		return nil, err
	}

	out := &models.ConversionSummary{
		Campaigns: make(map[string]models.CampaignConversions, len(resp.Campaigns)),
		Window:    resp.Window,
	}
	for _, e := range resp.Campaigns {
		currency := e.Currency
		if currency == "" {
			currency = "USD"
		}
		out.Campaigns[e.CampaignID] = models.CampaignConversions{
			CampaignID:  e.CampaignID,
			Conversions: e.Conversions,
			Revenue:     e.Revenue,
			Currency:    currency,
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("analytics: decode %s: %w", path, err)
	}
	return nil
}
