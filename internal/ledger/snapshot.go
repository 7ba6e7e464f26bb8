package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/riichinakano/forest-zaim-app/internal/accounts"
	"github.com/riichinakano/forest-zaim-app/internal/fiscal"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// ErrNoData is returned when no source file could be loaded.
var ErrNoData = errors.New("no loadable data files")

// maxParallelFiles bounds concurrent file decoding.
const maxParallelFiles = 4

// Snapshot is an immutable view of one statement's data and its master.
// Callers pass the same Snapshot through a whole query and must not modify it.
type Snapshot struct {
	Statement       model.Statement
	Years           []string // fiscal-year order
	Items           []model.LineItem
	Classifications []model.AccountClassification
	HasMaster       bool
	LoadedAt        time.Time

	// Skipped holds one error per data file that failed to load, or nil.
	Skipped *multierror.Error
}

// SkippedErrors returns the individual skipped-file errors.
func (s *Snapshot) SkippedErrors() []error {
	if s.Skipped == nil {
		return nil
	}
	return s.Skipped.Errors
}

// Accounts returns a lookup service over the snapshot's master.
func (s *Snapshot) Accounts() *accounts.Service {
	return accounts.NewService(s.Classifications)
}

// Source says where a statement's files live.
type Source struct {
	Statement model.Statement
	DataDir   string
	ConfigDir string
	Encoding  string
}

// Loader builds snapshots from source files.
type Loader struct {
	Calendar *fiscal.Calendar
	Registry *Registry
	Logger   *slog.Logger
}

// NewLoader creates a Loader with the default parser registry.
func NewLoader(cal *fiscal.Calendar, logger *slog.Logger) *Loader {
	return &Loader{Calendar: cal, Registry: DefaultRegistry(), Logger: logger}
}

// Load decodes every fiscal year's file concurrently and reads the master.
//
// A file that fails to parse is logged and skipped so the remaining years
// still load; if no file loads, Load returns ErrNoData. A missing master is
// logged and yields an empty classification table.
func (l *Loader) Load(ctx context.Context, src Source) (*Snapshot, error) {
	parser := l.Registry.Get(src.Statement)
	if parser == nil {
		return nil, fmt.Errorf("no parser for statement %q", src.Statement)
	}
	if _, err := NewDecoder(strings.NewReader(""), src.Encoding); err != nil {
		return nil, err
	}

	files, err := Scan(src.DataDir, src.Statement, l.Calendar)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoData, src.DataDir)
	}

	perYear := make([][]model.LineItem, len(files))
	failed := make([]error, len(files))
	loaded := make([]bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items, err := l.loadFile(f, parser, src.Encoding)
			if err != nil {
				l.Logger.Warn("skipping data file",
					slog.String("file", f.Name),
					slog.String("fiscal_year", f.FiscalYear),
					slog.String("error", err.Error()))
				failed[i] = err
				return nil
			}
			slices.SortStableFunc(items, func(a, b model.LineItem) int {
				return cmp.Compare(a.AccountCode, b.AccountCode)
			})
			perYear[i] = items
			loaded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Files are in fiscal order and each year's items are ordered by code.
	snap := &Snapshot{Statement: src.Statement, LoadedAt: time.Now()}
	for i, f := range files {
		if !loaded[i] {
			snap.Skipped = multierror.Append(snap.Skipped, fmt.Errorf("%s: %w", f.FiscalYear, failed[i]))
			continue
		}
		snap.Years = append(snap.Years, f.FiscalYear)
		snap.Items = append(snap.Items, perYear[i]...)
	}
	if len(snap.Years) == 0 {
		return nil, fmt.Errorf("%w in %s: %w", ErrNoData, src.DataDir, snap.Skipped.ErrorOrNil())
	}

	svc, found, err := accounts.LoadOptional(src.ConfigDir, accounts.MasterFileFor(src.Statement))
	if err != nil {
		return nil, err
	}
	if !found {
		l.Logger.Warn("account master not found; rollups unavailable",
			slog.String("config_dir", src.ConfigDir),
			slog.String("statement", string(src.Statement)))
	}
	snap.Classifications = svc.All()
	snap.HasMaster = found

	l.Logger.Info("snapshot loaded",
		slog.String("statement", string(src.Statement)),
		slog.Int("years", len(snap.Years)),
		slog.Int("line_items", len(snap.Items)),
		slog.Int("classifications", len(snap.Classifications)))
	return snap, nil
}

func (l *Loader) loadFile(f FileInfo, parser Parser, encoding string) ([]model.LineItem, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Path, err)
	}
	defer fh.Close()

	r, err := NewDecoder(fh, encoding)
	if err != nil {
		return nil, err
	}
	items, err := parser.Parse(r, f.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	return items, nil
}
