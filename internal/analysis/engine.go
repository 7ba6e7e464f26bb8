package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/riichinakano/forest-zaim-app/internal/accounts"
	"github.com/riichinakano/forest-zaim-app/internal/compare"
	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/ledger"
	"github.com/riichinakano/forest-zaim-app/internal/model"
	"github.com/riichinakano/forest-zaim-app/internal/series"
)

// DefaultYearCount is how many of the latest years a query covers when none
// are requested.
const DefaultYearCount = 2

// Query asks for one selection over a set of fiscal years.
type Query struct {
	Selection   model.Selection
	FiscalYears []string
}

// Result is the complete answer to a Query.
type Result struct {
	QueryID   string                            `json:"query_id"`
	Selection string                            `json:"selection"`
	Label     string                            `json:"label"`
	Codes     []int                             `json:"codes"`
	Series    []model.SeriesRecord              `json:"series"`
	Skipped   []string                          `json:"skipped"`
	Table     []model.ComparisonRow             `json:"table"`
	Warnings  []series.InconsistentTotalWarning `json:"warnings"`
}

// Engine wires the resolver, aggregation and comparison steps together.
// It holds no per-query state and is safe for concurrent use.
type Engine struct {
	Calendar *fiscal.Calendar
	Series   *series.Builder
	Compare  *compare.Builder
	Logger   *slog.Logger
}

// NewEngine creates an Engine with the given aggregation policy.
func NewEngine(cal *fiscal.Calendar, policy series.TotalPolicy, tolerance int64, logger *slog.Logger) *Engine {
	sb := series.NewBuilder(cal)
	sb.Policy = policy
	sb.Tolerance = tolerance
	return &Engine{
		Calendar: cal,
		Series:   sb,
		Compare:  compare.NewBuilder(cal),
		Logger:   logger,
	}
}

// Run answers q against snap. An empty FiscalYears list means the latest
// DefaultYearCount years in the snapshot.
//
// Inconsistent totals are returned in Result.Warnings and logged; they never
// fail the query.
func (e *Engine) Run(ctx context.Context, snap *ledger.Snapshot, q Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Selection == nil {
		return nil, fmt.Errorf("%w: no selection", model.ErrInvalidSelection)
	}

	years := q.FiscalYears
	if len(years) == 0 {
		years = DefaultYears(snap)
	}

	codes, err := accounts.Resolve(q.Selection, snap.Classifications)
	if err != nil {
		return nil, err
	}

	built, err := e.Series.Build(snap.Items, codes, years)
	if err != nil {
		return nil, fmt.Errorf("building series for %s: %w", q.Selection, err)
	}

	table, err := e.Compare.Build(built.Records)
	if err != nil {
		return nil, fmt.Errorf("building table for %s: %w", q.Selection, err)
	}

	res := &Result{
		QueryID:   uuid.NewString(),
		Selection: q.Selection.String(),
		Label:     Label(q.Selection, snap),
		Codes:     codes.Sorted(),
		Series:    built.Records,
		Skipped:   built.Skipped,
		Table:     table,
		Warnings:  built.Warnings,
	}

	log := e.Logger.With(slog.String("query_id", res.QueryID), slog.String("selection", res.Selection))
	for _, w := range built.Warnings {
		log.Warn("inconsistent annual total",
			slog.String("fiscal_year", w.FiscalYear),
			slog.Int64("annual_total", w.AnnualTotal),
			slog.Int64("monthly_sum", w.MonthlySum),
			slog.Int64("diff", w.Diff()))
	}
	log.Debug("query complete",
		slog.Int("codes", len(res.Codes)),
		slog.Int("records", len(res.Series)),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// RunBatch answers several queries concurrently over one snapshot. Results
// are in query order; the first error cancels the rest.
func (e *Engine) RunBatch(ctx context.Context, snap *ledger.Snapshot, queries []Query) ([]*Result, error) {
	results := make([]*Result, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := e.Run(ctx, snap, q)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DefaultYears returns the latest DefaultYearCount years of the snapshot.
func DefaultYears(snap *ledger.Snapshot) []string {
	years := snap.Years
	if len(years) > DefaultYearCount {
		years = years[len(years)-DefaultYearCount:]
	}
	return append([]string(nil), years...)
}
