package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/analysis"
	"github.com/riichinakano/forest-zaim-app/internal/auditlog"
	"github.com/riichinakano/forest-zaim-app/internal/config"
	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/ledger"
	"github.com/riichinakano/forest-zaim-app/internal/logging"
	"github.com/riichinakano/forest-zaim-app/internal/model"
	"github.com/riichinakano/forest-zaim-app/internal/series"
)

// app is what every data command needs: configuration, a logger and the
// fiscal calendar.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	cal       *fiscal.Calendar
	statement model.Statement
}

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	st, err := parseStatement(opts.statement)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadWithEnv(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logging.New(logging.Config{Level: level, Format: cfg.Log.Format, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}

	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, cal: cal, statement: st}, nil
}

func parseStatement(s string) (model.Statement, error) {
	st := model.Statement(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown statement %q (want pl or bs)", s)
	}
	return st, nil
}

func (a *app) source(st model.Statement) ledger.Source {
	return ledger.Source{
		Statement: st,
		DataDir:   a.cfg.DataDir(st),
		ConfigDir: a.cfg.ConfigDir(),
		Encoding:  a.cfg.Data.Encoding,
	}
}

func (a *app) loader() *ledger.Loader {
	return ledger.NewLoader(a.cal, logging.Component(a.logger, logging.ComponentLoader))
}

func (a *app) engine() *analysis.Engine {
	return analysis.NewEngine(a.cal,
		series.TotalPolicy(a.cfg.Aggregation.TotalPolicy),
		a.cfg.Aggregation.Tolerance,
		logging.Component(a.logger, logging.ComponentEngine))
}

func (a *app) auditLog() *auditlog.Log {
	return auditlog.New(a.cfg.AuditPath())
}

func (a *app) snapshot(ctx context.Context) (*ledger.Snapshot, error) {
	return a.loader().Load(ctx, a.source(a.statement))
}

// queryFlags are shared by commands that run a selection query.
type queryFlags struct {
	selections []string
	years      []string
	from, to   string
}

// register adds the query flags. With multi, --selection may be repeated.
func (q *queryFlags) register(cmd *cobra.Command, multi bool) {
	usage := `what to aggregate: "account:620", "subcategory:<name>" or "category:<name>"`
	if multi {
		usage += " (repeatable)"
	}
	cmd.Flags().StringArrayVar(&q.selections, "selection", nil, usage)
	cmd.Flags().StringSliceVar(&q.years, "years", nil, "fiscal years, e.g. R5,R6 (default: latest two)")
	cmd.Flags().StringVar(&q.from, "from", "", "first fiscal year of a consecutive range, e.g. H30")
	cmd.Flags().StringVar(&q.to, "to", "", "last fiscal year of a consecutive range, e.g. R6")
	_ = cmd.MarkFlagRequired("selection")
	cmd.MarkFlagsRequiredTogether("from", "to")
	cmd.MarkFlagsMutuallyExclusive("years", "from")
}

// queries expands the flags into one query per selection.
func (q queryFlags) queries(cal *fiscal.Calendar) ([]analysis.Query, error) {
	years := q.years
	if q.from != "" {
		var err error
		if years, err = cal.Range(q.from, q.to); err != nil {
			return nil, err
		}
	}

	out := make([]analysis.Query, 0, len(q.selections))
	for _, raw := range q.selections {
		sel, err := model.ParseSelection(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis.Query{Selection: sel, FiscalYears: years})
	}
	return out, nil
}

// run loads the snapshot and answers a single-selection query.
func (a *app) run(ctx context.Context, q queryFlags) (*analysis.Result, error) {
	if len(q.selections) != 1 {
		return nil, fmt.Errorf("%w: give exactly one --selection", model.ErrInvalidSelection)
	}
	results, err := a.runBatch(ctx, q)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// runBatch loads the snapshot once and answers every selection in q.
func (a *app) runBatch(ctx context.Context, q queryFlags) ([]*analysis.Result, error) {
	queries, err := q.queries(a.cal)
	if err != nil {
		return nil, err
	}
	snap, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return a.engine().RunBatch(ctx, snap, queries)
}
