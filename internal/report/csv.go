package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stegverse/cfp-tickets-api/internal/models"
)

var csvHeader = []string{
	"campaign_id",
	"game_label",
	"clicks",
	"conversions",
	"revenue",
	"currency",
	"revenue_per_click",
	"generated_at",
	"click_window_start",
	"click_window_end",
	"conversion_window_days",
	"conversion_window_start",
	"conversion_window_end",
}

// ExportCSV serializes the snapshot as a CSV document. The second return is
// false when there are no rows: an empty report has nothing to download, and
// a header-only file would be misleading. Absent values serialize as empty
// fields. Serialization itself cannot fail.
func ExportCSV(snap *models.ExportSnapshot) (string, bool) {
	if snap == nil || len(snap.Rows) == 0 {
		return "", false
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(csvHeader)

	generatedAt := snap.GeneratedAt.UTC().Format(time.RFC3339)
	convDays := strconv.Itoa(snap.WindowDays)
	convStart, convEnd := "", ""
	if snap.ConversionWindow != nil {
		convStart = snap.ConversionWindow.StartDate
		convEnd = snap.ConversionWindow.EndDate
	}

	for _, row := range snap.Rows {
		record := []string{
			row.CampaignID,
			row.GameLabel,
			strconv.Itoa(row.Clicks),
			intField(row.Conversions),
			decimalField(row.Revenue),
			row.Currency,
			decimalField(row.RevenuePerClick),
			generatedAt,
			timeField(snap.ClickWindow.Start),
			timeField(snap.ClickWindow.End),
			convDays,
			convStart,
			convEnd,
		}
		w.Write(record)
	}
	w.Flush()
	if w.Error() != nil {
		return "", false
	}
	return buf.String(), true
}

// ExportFilename builds the download name: prefix plus an RFC 3339 timestamp
// with ':' and '.' replaced so the name is filesystem-safe.
func ExportFilename(prefix string, generatedAt time.Time) string {
	ts := generatedAt.UTC().Format(time.RFC3339)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return prefix + "-" + ts + ".csv"
}

func intField(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func decimalField(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func timeField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
