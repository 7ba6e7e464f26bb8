package httpapi

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/riichinakano/forest-zaim-app/internal/analysis"
	"github.com/riichinakano/forest-zaim-app/internal/auditlog"
	"github.com/riichinakano/forest-zaim-app/internal/buildinfo"
	"github.com/riichinakano/forest-zaim-app/internal/chart"
	"github.com/riichinakano/forest-zaim-app/internal/export"
	"github.com/riichinakano/forest-zaim-app/internal/ledger"
	"github.com/riichinakano/forest-zaim-app/internal/logging"
	"github.com/riichinakano/forest-zaim-app/internal/model"
	"github.com/riichinakano/forest-zaim-app/internal/series"
)

// YearsResponse describes a statement's current snapshot.
type YearsResponse struct {
	Statement    string    `json:"statement"`
	Years        []string  `json:"years"`
	DefaultYears []string  `json:"default_years"`
	HasMaster    bool      `json:"has_master"`
	LoadedAt     time.Time `json:"loaded_at"`
	Skipped      []string  `json:"skipped,omitempty"`
}

// TableResponse is the display form of a comparison table.
type TableResponse struct {
	QueryID  string                            `json:"query_id"`
	Label    string                            `json:"label"`
	Header   []string                          `json:"header"`
	Rows     [][]string                        `json:"rows"`
	Warnings []series.InconsistentTotalWarning `json:"warnings"`
}

func yearsResponse(snap *ledger.Snapshot) YearsResponse {
	resp := YearsResponse{
		Statement:    string(snap.Statement),
		Years:        snap.Years,
		DefaultYears: analysis.DefaultYears(snap),
		HasMaster:    snap.HasMaster,
		LoadedAt:     snap.LoadedAt,
	}
	for _, err := range snap.SkippedErrors() {
		resp.Skipped = append(resp.Skipped, err.Error())
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := make(map[string]time.Time, len(s.snapshots))
	for st, ptr := range s.snapshots {
		if snap := ptr.Load(); snap != nil {
			loaded[string(st)] = snap.LoadedAt
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   buildinfo.Version,
		"snapshots": loaded,
	})
}

func (s *Server) snapshotFor(r *http.Request) (*ledger.Snapshot, error) {
	return s.Snapshot(model.Statement(chi.URLParam(r, "statement")))
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshotFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, yearsResponse(snap))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshotFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis.SelectionOptions(snap))
}

// parseQuery reads ?selection= and any number of ?years= values, each of
// which may be comma separated.
func parseQuery(r *http.Request) (analysis.Query, error) {
	values := r.URL.Query()
	raw := values.Get("selection")
	if raw == "" {
		return analysis.Query{}, fmt.Errorf("%w: selection parameter is required", model.ErrInvalidSelection)
	}
	sel, err := model.ParseSelection(raw)
	if err != nil {
		return analysis.Query{}, err
	}

	var years []string
	for _, v := range values["years"] {
		for _, y := range strings.Split(v, ",") {
			if y = strings.TrimSpace(y); y != "" {
				years = append(years, y)
			}
		}
	}
	return analysis.Query{Selection: sel, FiscalYears: years}, nil
}

// runQuery answers the request's query. On failure it writes the problem
// response and returns nil.
func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) *analysis.Result {
	st := chi.URLParam(r, "statement")
	snap, err := s.snapshotFor(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil
	}
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil
	}
	res, err := s.engine.Run(r.Context(), snap, q)
	warnings := 0
	if res != nil {
		warnings = len(res.Warnings)
	}
	s.metrics.ObserveQuery(st, err, warnings)
	if err != nil {
		s.writeError(w, r, err)
		return nil
	}
	return res
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	res := s.runQuery(w, r)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	res := s.runQuery(w, r)
	if res == nil {
		return
	}
	resp := TableResponse{
		QueryID:  res.QueryID,
		Label:    res.Label,
		Header:   export.TableHeader(),
		Rows:     make([][]string, 0, len(res.Table)),
		Warnings: res.Warnings,
	}
	for _, row := range res.Table {
		resp.Rows = append(resp.Rows, export.TableRecord(row, export.Options{Formatted: true}))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTableCSV(w http.ResponseWriter, r *http.Request) {
	formatted, err := boolParam(r, "formatted")
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res := s.runQuery(w, r)
	if res == nil {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTableCSV(&buf, res.Table, export.Options{Formatted: formatted}); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendFile(w, r, res, export.Filename(res.Label, "csv"), "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleSeriesCSV(w http.ResponseWriter, r *http.Request) {
	res := s.runQuery(w, r)
	if res == nil {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteSeriesCSV(&buf, res.Series); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendFile(w, r, res, export.Filename(res.Label+"_系列", "csv"), "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	res := s.runQuery(w, r)
	if res == nil {
		return
	}
	var buf bytes.Buffer
	if err := chart.WriteTrendSVG(&buf, res.Label, res.Series); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// sendFile writes an attachment and records the export.
func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, res *analysis.Result, name, contentType string, body []byte) {
	s.record(auditlog.Entry{
		Source:    auditlog.SourceHTTP,
		Action:    auditlog.ActionExport,
		Statement: chi.URLParam(r, "statement"),
		Selection: res.Selection,
		Years:     recordYears(res.Series),
		Target:    name,
		QueryID:   res.QueryID,
	})
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	st := model.Statement(chi.URLParam(r, "statement"))
	snap, err := s.Reload(r.Context(), st)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.record(auditlog.Entry{
		Source:    auditlog.SourceHTTP,
		Action:    auditlog.ActionReload,
		Statement: string(st),
		Years:     snap.Years,
		QueryID:   middleware.GetReqID(r.Context()),
	})
	s.logger.Info("snapshot reloaded",
		slog.String(logging.FieldStatement, string(st)),
		slog.Int("years", len(snap.Years)))
	writeJSON(w, http.StatusOK, yearsResponse(snap))
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parameter %s: %w", name, err)
	}
	return b, nil
}

func recordYears(records []model.SeriesRecord) []string {
	years := make([]string, len(records))
	for i, rec := range records {
		years[i] = rec.FiscalYear
	}
	return years
}
