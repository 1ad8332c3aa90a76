package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stegverse/cfp-tickets-api/internal/affiliate"
	"github.com/stegverse/cfp-tickets-api/internal/hooks"
	"github.com/stegverse/cfp-tickets-api/internal/metricsx"
	"github.com/stegverse/cfp-tickets-api/internal/models"
	"github.com/stegverse/cfp-tickets-api/internal/partnerize"
	"github.com/stegverse/cfp-tickets-api/internal/report"
	"github.com/stegverse/cfp-tickets-api/internal/store"
)

// ReportLoader is the slice of the report builder the router needs.
type ReportLoader interface {
	LoadReport(ctx context.Context, windowDays int) (*models.ExportSnapshot, error)
}

type Deps struct {
	Report            ReportLoader
	Snapshots         *store.SnapshotStore
	Links             *affiliate.LinkBuilder
	Partnerize        *partnerize.Client
	KV                store.KV
	Hooks             *hooks.Trigger
	Metrics           *metricsx.Metrics
	ExportPrefix      string
	DefaultWindowDays int
}

func NewRouter(log zerolog.Logger, deps Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(RequestID(log))
	mux.Use(RequestLogger())

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	mux.Get("/v1/report", deps.loadReport)
	mux.Get("/v1/report/export", deps.exportReport)
	mux.Get("/v1/tickets/search", deps.searchTickets)
	mux.Get("/v1/partnerize/networks", deps.partnerizeNetworks)
	mux.Get("/v1/partnerize/campaigns/{campaignID}/conversions", deps.partnerizeConversions)
	mux.Get("/v1/ops/config/list", deps.configList)
	mux.Get("/v1/ops/config/get/{name}", deps.configGet)
	mux.Post("/v1/ops/config/set", deps.configSet)
	mux.Get("/v1/ops/snapshot", deps.opsSnapshot)
	mux.Get("/v1/ops/config/bootstrap/status", deps.bootstrapStatus)
	mux.Post("/v1/ops/config/bootstrap", deps.bootstrap)
	mux.Post("/v1/ops/admin/rotate_token", deps.rotateToken)
	mux.Post("/v1/ops/admin/reset_all", deps.resetAll)
	mux.Post("/v1/ops/redeploy/{target}", deps.redeploy)

	return mux
}

func (d Deps) loadReport(w http.ResponseWriter, r *http.Request) {
	days := atoiDef(r.URL.Query().Get("days"), d.DefaultWindowDays)
	if days <= 0 {
		http.Error(w, "days must be a positive integer", http.StatusBadRequest)
		return
	}

	snap, err := d.Report.LoadReport(r.Context(), days)
	if err != nil {
		d.Metrics.ObserveReportLoad(metricsx.OutcomeError)
		// Fatal load failures surface the raw upstream error, no fallback.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	d.Snapshots.Replace(snap)

	switch {
	case snap.PartialFailure:
		d.Metrics.ObserveReportLoad(metricsx.OutcomePartial)
	case len(snap.Rows) == 0:
		d.Metrics.ObserveReportLoad(metricsx.OutcomeEmpty)
	default:
		d.Metrics.ObserveReportLoad(metricsx.OutcomeOK)
	}
	writeJSON(w, http.StatusOK, snap)
}

func (d Deps) exportReport(w http.ResponseWriter, r *http.Request) {
	snap := d.Snapshots.Last()
	doc, ok := report.ExportCSV(snap)
	if !ok {
		// Defined no-op: zero rows means there is nothing to download.
		http.Error(w, "no report rows to export; load a report with data first", http.StatusConflict)
		return
	}
	d.Metrics.IncExport()
	name := report.ExportFilename(d.ExportPrefix, snap.GeneratedAt)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write([]byte(doc))
}

func (d Deps) searchTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	provider, err := affiliate.ParseProvider(q.Get("provider"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := d.Links.Search(affiliate.SearchRequest{
		EventName:    q.Get("event_name"),
		Location:     q.Get("location"),
		Date:         q.Get("date"),
		Provider:     provider,
		GroupSize:    atoiDef(q.Get("group_size"), 2),
		MaxRows:      atoiDef(q.Get("max_rows"), 1),
		ExperimentID: q.Get("experiment_id"),
	})
	if err != nil {
		if errors.Is(err, affiliate.ErrNoProviders) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d.Metrics.IncLinksBuilt(string(result.Provider))
	writeJSON(w, http.StatusOK, result)
}

func (d Deps) partnerizeNetworks(w http.ResponseWriter, r *http.Request) {
	payload, err := d.Partnerize.GetNetworks(r.Context())
	if err != nil {
		writePartnerizeError(w, err)
		return
	}
	writeRawJSON(w, payload)
}

func (d Deps) partnerizeConversions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := atoiDef(q.Get("limit"), 300)
	if limit < 1 || limit > 1000 {
		http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
		return
	}
	offset := atoiDef(q.Get("offset"), 0)
	if offset < 0 {
		http.Error(w, "offset must not be negative", http.StatusBadRequest)
		return
	}

	payload, err := d.Partnerize.GetConversions(r.Context(), chi.URLParam(r, "campaignID"), partnerize.ConversionsQuery{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writePartnerizeError(w, err)
		return
	}
	writeRawJSON(w, payload)
}

func writePartnerizeError(w http.ResponseWriter, err error) {
	if errors.Is(err, partnerize.ErrNotConfigured) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}

const configHash = "config"

func (d Deps) configList(w http.ResponseWriter, r *http.Request) {
	raw, err := d.KV.HGetAll(r.Context(), configHash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		out[k] = json.RawMessage(v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (d Deps) configGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	raw, err := d.KV.HGetAll(r.Context(), configHash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	v, ok := raw[name]
	if !ok {
		http.Error(w, name+" not found", http.StatusNotFound)
		return
	}
	writeRawJSON(w, json.RawMessage(v))
}

func (d Deps) configSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Key == "" {
		http.Error(w, "body must be {\"key\": ..., \"value\": ...}", http.StatusBadRequest)
		return
	}
	if err := d.KV.HSet(r.Context(), configHash, body.Key, string(body.Value)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "key": body.Key})
}

const adminTokenKey = "ADMIN_TOKEN"

// redeployHooks maps redeploy targets to the KV key holding their webhook URL.
var redeployHooks = map[string]string{
	"ui":      "HOOK_NETLIFY",
	"api":     "HOOK_RENDER_API",
	"worker":  "HOOK_RENDER_WORKER",
	"netlify": "HOOK_NETLIFY",
	"vercel":  "HOOK_VERCEL",
}

func (d Deps) opsSnapshot(w http.ResponseWriter, r *http.Request) {
	raw, err := d.KV.HGetAll(r.Context(), configHash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	kv := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		kv[k] = json.RawMessage(v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kv":   kv,
		"time": time.Now().Unix(),
	})
}

func (d Deps) bootstrapStatus(w http.ResponseWriter, r *http.Request) {
	_, ok, err := d.KV.Get(r.Context(), adminTokenKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"initialized": ok})
}

func (d Deps) bootstrap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AdminToken string `json:"admin_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AdminToken == "" {
		http.Error(w, "body must be {\"admin_token\": ...}", http.StatusBadRequest)
		return
	}

	_, exists, err := d.KV.Get(r.Context(), adminTokenKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if exists {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "detail": "already initialized"})
		return
	}
	if err := d.KV.Set(r.Context(), adminTokenKey, body.AdminToken); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (d Deps) rotateToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewToken string `json:"new_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewToken == "" {
		http.Error(w, "body must be {\"new_token\": ...}", http.StatusBadRequest)
		return
	}
	if err := d.KV.Set(r.Context(), adminTokenKey, body.NewToken); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (d Deps) resetAll(w http.ResponseWriter, r *http.Request) {
	if err := d.KV.Reset(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (d Deps) redeploy(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	hookKey, ok := redeployHooks[target]
	if !ok {
		http.Error(w, "unknown redeploy target "+target, http.StatusNotFound)
		return
	}

	url, ok, err := d.KV.Get(r.Context(), hookKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok || url == "" {
		http.Error(w, "missing "+hookKey, http.StatusBadRequest)
		return
	}

	status, err := d.Hooks.Fire(r.Context(), url)
	if err != nil {
		// The hook being down is reported, not treated as our failure.
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status_code": status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
