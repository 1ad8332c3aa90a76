// Package report builds the merged click/conversion affiliate report and
// serializes it for download.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stegverse/cfp-tickets-api/internal/campaigns"
	"github.com/stegverse/cfp-tickets-api/internal/models"
)

const defaultClickLimit = 200

// AnalyticsAPI is the slice of the analytics client the builder needs.
type AnalyticsAPI interface {
	ClickSummary(ctx context.Context, limit int) (*models.ClickSummary, error)
	ConversionSummary(ctx context.Context, campaignIDs []string, days int) (*models.ConversionSummary, error)
}

type Builder struct {
	api        AnalyticsAPI
	meta       campaigns.Table
	clickLimit int
	now        func() time.Time
}

type Option func(*Builder)

func WithClickLimit(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.clickLimit = n
		}
	}
}

// WithClock overrides the snapshot timestamp source in tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func NewBuilder(api AnalyticsAPI, meta campaigns.Table, opts ...Option) *Builder {
	b := &Builder{
		api:        api,
		meta:       meta,
		clickLimit: defaultClickLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LoadReport fetches the click summary and, when any attributed campaign has
// clicks, the matching conversion summary, then merges the two by campaign id.
//
// A click-summary failure is fatal. A conversion-summary failure degrades the
// snapshot to clicks-only and sets PartialFailure instead of returning an
// error. No retries happen here; the caller decides when to re-invoke.
func (b *Builder) LoadReport(ctx context.Context, windowDays int) (*models.ExportSnapshot, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("report: window days must be positive, got %d", windowDays)
	}

	clicks, err := b.api.ClickSummary(ctx, b.clickLimit)
	if err != nil {
		return nil, err
	}

	snap := &models.ExportSnapshot{
		Rows:        []models.ReportRow{},
		TotalClicks: clicks.TotalClicks,
		ByProvider:  clicks.ByProvider,
		ClickWindow: clicks.Window,
		WindowDays:  windowDays,
		GeneratedAt: b.now().UTC(),
	}

	ids := attributedCampaigns(clicks.ByCampaign)
	if len(ids) == 0 {
		return snap, nil
	}

	conv, err := b.api.ConversionSummary(ctx, ids, windowDays)
	if err != nil {
		snap.PartialFailure = true
		snap.PartialError = err.Error()
		for _, id := range ids {
			snap.Rows = append(snap.Rows, models.ReportRow{
				CampaignID: id,
				GameLabel:  b.meta.Label(id),
				Clicks:     clicks.ByCampaign[id],
			})
		}
		return snap, nil
	}

	snap.ConversionWindow = &conv.Window
	for _, id := range ids {
		snap.Rows = append(snap.Rows, b.mergeRow(id, clicks.ByCampaign[id], conv))
	}
	return snap, nil
}

func (b *Builder) mergeRow(id string, clicks int, conv *models.ConversionSummary) models.ReportRow {
	row := models.ReportRow{
		CampaignID:  id,
		GameLabel:   b.meta.Label(id),
		Clicks:      clicks,
		Conversions: intPtr(0),
		Currency:    "USD",
	}
	entry, ok := conv.Campaigns[id]
	if !ok {
		return row
	}
	row.Conversions = intPtr(entry.Conversions)
	row.Revenue = entry.Revenue
	if entry.Currency != "" {
		row.Currency = entry.Currency
	}
	if clicks > 0 && entry.Revenue != nil {
		rpc := entry.Revenue.DivRound(decimal.NewFromInt(int64(clicks)), 4)
		row.RevenuePerClick = &rpc
	}
	return row
}

// attributedCampaigns returns the campaign ids with clicks > 0, excluding the
// "none" sentinel, sorted lexicographically.
func attributedCampaigns(byCampaign map[string]int) []string {
	ids := make([]string, 0, len(byCampaign))
	for id, n := range byCampaign {
		if id == models.CampaignNone || n <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func intPtr(n int) *int { return &n }
