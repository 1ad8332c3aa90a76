package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignNone is the sentinel id the click logger assigns to clicks that
// arrived without campaign attribution. It never produces a report row and is
// never sent to the conversions endpoint, but its clicks still count toward
// provider totals.
const CampaignNone = "none"

// ClickWindow is the timestamp range covered by the most recent N logged
// clicks. Either bound may be absent when the upstream has no data.
type ClickWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// ClickSummary is the analytics service's view of recent affiliate clicks.
type ClickSummary struct {
	TotalClicks int
	Limit       int
	Window      ClickWindow
	ByProvider  map[string]int
	ByCampaign  map[string]int
}

// CampaignConversions holds conversions attributed to one campaign over the
// requested trailing window. Revenue is nil when the network reported none.
type CampaignConversions struct {
	CampaignID  string
	Conversions int
	Revenue     *decimal.Decimal
	Currency    string
}

// ConversionWindow is the date range the conversions summary covered.
type ConversionWindow struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ConversionSummary maps campaign ids to their conversion totals.
type ConversionSummary struct {
	Campaigns map[string]CampaignConversions
	Window    ConversionWindow
}

// ReportRow is one merged line of the affiliate report. Conversions and
// Revenue are pointers so a degraded (clicks-only) report can leave them
// absent rather than zero.
type ReportRow struct {
	CampaignID      string           `json:"campaign_id"`
	GameLabel       string           `json:"game_label,omitempty"`
	Clicks          int              `json:"clicks"`
	Conversions     *int             `json:"conversions,omitempty"`
	Revenue         *decimal.Decimal `json:"revenue,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	RevenuePerClick *decimal.Decimal `json:"revenue_per_click,omitempty"`
}

// ExportSnapshot is the full result of one report load. It is rebuilt from
// scratch on every load and replaced wholesale, never mutated in place.
type ExportSnapshot struct {
	Rows             []ReportRow       `json:"rows"`
	TotalClicks      int               `json:"total_clicks"`
	ByProvider       map[string]int    `json:"by_provider,omitempty"`
	ClickWindow      ClickWindow       `json:"click_window"`
	ConversionWindow *ConversionWindow `json:"conversion_window,omitempty"`
	WindowDays       int               `json:"window_days"`
	GeneratedAt      time.Time         `json:"generated_at"`
	PartialFailure   bool              `json:"partial_failure"`
	PartialError     string            `json:"partial_error,omitempty"`
}
