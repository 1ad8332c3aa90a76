package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stegverse/cfp-tickets-api/internal/affiliate"
	"github.com/stegverse/cfp-tickets-api/internal/hooks"
	"github.com/stegverse/cfp-tickets-api/internal/metricsx"
	"github.com/stegverse/cfp-tickets-api/internal/models"
	"github.com/stegverse/cfp-tickets-api/internal/partnerize"
	"github.com/stegverse/cfp-tickets-api/internal/store"
)

type stubLoader struct {
	snap    *models.ExportSnapshot
	err     error
	gotDays int
}

func (s *stubLoader) LoadReport(_ context.Context, windowDays int) (*models.ExportSnapshot, error) {
	s.gotDays = windowDays
	return s.snap, s.err
}

func newTestRouter(loader ReportLoader, snaps *store.SnapshotStore) http.Handler {
	return newTestRouterKV(loader, snaps, store.NewMemory())
}

func newTestRouterKV(loader ReportLoader, snaps *store.SnapshotStore, kv store.KV) http.Handler {
	if snaps == nil {
		snaps = store.NewSnapshotStore()
	}
	return NewRouter(zerolog.Nop(), Deps{
		Report:    loader,
		Snapshots: snaps,
		Links: affiliate.NewLinkBuilder(
			"https://seatgeek.com", "sg", "https://www.stubhub.com", "sh", ""),
		Partnerize:        partnerize.NewClient("https://api.partnerize.com", "", "", time.Second),
		KV:                kv,
		Hooks:             hooks.NewTrigger(time.Second),
		Metrics:           metricsx.New(),
		ExportPrefix:      "cfp-affiliate-report",
		DefaultWindowDays: 30,
	})
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestLoadReportStoresSnapshotAndReturnsJSON(t *testing.T) {
	conv := 2
	loader := &stubLoader{snap: &models.ExportSnapshot{
		Rows: []models.ReportRow{{
			CampaignID: "CFP-QF-ROSE-2026", Clicks: 10, Conversions: &conv, Currency: "USD",
		}},
		TotalClicks: 12,
		WindowDays:  7,
		GeneratedAt: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
	}}
	snaps := store.NewSnapshotStore()
	r := newTestRouter(loader, snaps)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report?days=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, loader.gotDays)
	assert.Same(t, loader.snap, snaps.Last())

	var body models.ExportSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 12, body.TotalClicks)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "CFP-QF-ROSE-2026", body.Rows[0].CampaignID)
}

func TestLoadReportDefaultsWindowDays(t *testing.T) {
	loader := &stubLoader{snap: &models.ExportSnapshot{Rows: []models.ReportRow{}}}
	r := newTestRouter(loader, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, loader.gotDays)
}

func TestLoadReportRejectsBadDays(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report?days=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadReportSurfacesFatalFailureVerbatim(t *testing.T) {
	loader := &stubLoader{err: errors.New("analytics: /v1/tickets/clicks/summary returned 503: down")}
	snaps := store.NewSnapshotStore()
	r := newTestRouter(loader, snaps)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "returned 503: down")
	assert.Nil(t, snaps.Last(), "failed loads must not overwrite the snapshot")
}

func TestExportWithoutRowsIsConflict(t *testing.T) {
	snaps := store.NewSnapshotStore()
	r := newTestRouter(&stubLoader{}, snaps)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report/export", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Same outcome for a loaded-but-empty snapshot.
	snaps.Replace(&models.ExportSnapshot{Rows: []models.ReportRow{}})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report/export", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportServesCSVAttachment(t *testing.T) {
	snaps := store.NewSnapshotStore()
	conv := 1
	snaps.Replace(&models.ExportSnapshot{
		Rows: []models.ReportRow{{
			CampaignID: "CFP-CHAMP-2026", Clicks: 5, Conversions: &conv, Currency: "USD",
		}},
		WindowDays:  30,
		GeneratedAt: time.Date(2026, 1, 5, 12, 30, 45, 0, time.UTC),
	})
	r := newTestRouter(&stubLoader{}, snaps)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/report/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		`attachment; filename="cfp-affiliate-report-2026-01-05T12-30-45Z.csv"`,
		rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "CFP-CHAMP-2026,"))
}

func TestTicketSearch(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/tickets/search?event_name=Rose+Bowl+Game&provider=seatgeek&group_size=4&max_rows=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result affiliate.SearchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, affiliate.ProviderSeatGeek, result.Provider)
	assert.Len(t, result.Links, 2)

	// Missing event name and unknown provider are caller errors.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tickets/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/tickets/search?event_name=x&provider=ticketmaster", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketSearchRejectsNonPositiveSeating(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)

	for _, query := range []string{"group_size=0", "max_rows=-2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/v1/tickets/search?event_name=Rose+Bowl+Game&"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestPartnerizeProxyUnconfigured(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/partnerize/networks", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestPartnerizeConversionsValidatesPaging(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/partnerize/campaigns/c1/conversions?limit=5000", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpsConfigRoundTrip(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/ops/config/set",
		strings.NewReader(`{"key": "HOOK_NETLIFY", "value": {"url": "https://example.test"}}`))
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/config/get/HOOK_NETLIFY", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url": "https://example.test"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/config/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"HOOK_NETLIFY": {"url": "https://example.test"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/config/get/MISSING", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpsSnapshotReturnsConfigAndTime(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.HSet(context.Background(), "config", "HOOK_VERCEL", `"https://example.test/hook"`))
	r := newTestRouterKV(&stubLoader{}, nil, kv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		KV   map[string]json.RawMessage `json:"kv"`
		Time int64                      `json:"time"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body.KV, "HOOK_VERCEL")
	assert.NotZero(t, body.Time)
}

func TestBootstrapFlow(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/config/bootstrap/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"initialized": false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/config/bootstrap",
		strings.NewReader(`{"admin_token": "tok-1"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

	// A second bootstrap must not overwrite the token.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/config/bootstrap",
		strings.NewReader(`{"admin_token": "tok-2"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": false, "detail": "already initialized"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/config/bootstrap/status", nil))
	assert.JSONEq(t, `{"initialized": true}`, rec.Body.String())
}

func TestRotateTokenOverwrites(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), "ADMIN_TOKEN", "old"))
	r := newTestRouterKV(&stubLoader{}, nil, kv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/admin/rotate_token",
		strings.NewReader(`{"new_token": "rotated"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	v, ok, err := kv.Get(context.Background(), "ADMIN_TOKEN")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rotated", v)
}

func TestResetAllClearsStore(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "ADMIN_TOKEN", "tok"))
	require.NoError(t, kv.HSet(ctx, "config", "a", `"1"`))
	r := newTestRouterKV(&stubLoader{}, nil, kv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/admin/reset_all", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok, err := kv.Get(ctx, "ADMIN_TOKEN")
	require.NoError(t, err)
	assert.False(t, ok)
	all, err := kv.HGetAll(ctx, "config")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedeployFiresStoredHook(t *testing.T) {
	var hookCalls int
	var gotMethod string
	hookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hookCalls++
		gotMethod = r.Method
		w.WriteHeader(http.StatusCreated)
	}))
	defer hookSrv.Close()

	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), "HOOK_NETLIFY", hookSrv.URL))
	r := newTestRouterKV(&stubLoader{}, nil, kv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/redeploy/ui", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status_code": 201}`, rec.Body.String())
	assert.Equal(t, 1, hookCalls)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestRedeployUnreachableHookIsReported(t *testing.T) {
	hookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	hookSrv.Close() // connection refused from here on

	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), "HOOK_VERCEL", hookSrv.URL))
	r := newTestRouterKV(&stubLoader{}, nil, kv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/redeploy/vercel", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestRedeployMissingHookAndUnknownTarget(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/redeploy/api", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "HOOK_RENDER_API")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ops/redeploy/heroku", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointExposed(t *testing.T) {
	r := newTestRouter(&stubLoader{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
