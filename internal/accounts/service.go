package accounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Master file names inside the config directory.
const (
	MasterFile   = "account_master.csv"
	BSMasterFile = "bs_account_master.csv"
)

// MasterFileFor returns the master file name used for a statement.
func MasterFileFor(st model.Statement) string {
	if st == model.StatementBS {
		return BSMasterFile
	}
	return MasterFile
}

// Service provides in-memory lookup over the classification master.
type Service struct {
	rows   []model.AccountClassification
	byCode map[int]model.AccountClassification
}

// NewService creates a Service from classification rows.
func NewService(rows []model.AccountClassification) *Service {
	byCode := make(map[int]model.AccountClassification, len(rows))
	for _, r := range rows {
		byCode[r.AccountCode] = r
	}
	return &Service{rows: rows, byCode: byCode}
}

// Load reads a master file from configDir. A missing file is reported with
// an error wrapping fs.ErrNotExist so callers can decide to continue without
// a master.
func Load(configDir, name string) (*Service, error) {
	path := filepath.Join(configDir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening account master: %w", err)
	}
	defer f.Close()

	rows, err := ReadClassifications(f)
	if err != nil {
		return nil, fmt.Errorf("reading account master %s: %w", path, err)
	}
	return NewService(rows), nil
}

// LoadOptional is Load that returns an empty Service when the file is absent.
func LoadOptional(configDir, name string) (*Service, bool, error) {
	svc, err := Load(configDir, name)
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(nil), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return svc, true, nil
}

// All returns all classifications in display order.
func (s *Service) All() []model.AccountClassification {
	return s.rows
}

// Get returns the classification for an account code.
func (s *Service) Get(code int) (model.AccountClassification, bool) {
	c, ok := s.byCode[code]
	return c, ok
}

// Exists reports whether an account code is classified.
func (s *Service) Exists(code int) bool {
	_, ok := s.byCode[code]
	return ok
}

// CategoryOf returns the top-tier category of code, or model.Unclassified.
func (s *Service) CategoryOf(code int) string {
	if c, ok := s.byCode[code]; ok && c.Category != "" {
		return c.Category
	}
	return model.Unclassified
}

// Categories returns distinct categories in first-seen display order.
func (s *Service) Categories() []string {
	return distinct(s.rows, func(c model.AccountClassification) string { return c.Category })
}

// Subcategories returns distinct subcategories of a category in display
// order. An empty category lists every subcategory.
func (s *Service) Subcategories(category string) []string {
	var rows []model.AccountClassification
	for _, r := range s.rows {
		if category == "" || r.Category == category {
			rows = append(rows, r)
		}
	}
	return distinct(rows, func(c model.AccountClassification) string { return c.Subcategory })
}

// Save writes the master to configDir/name.
func (s *Service) Save(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(configDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating account master file: %w", err)
	}
	defer f.Close()

	if err := WriteClassifications(f, s.rows); err != nil {
		return fmt.Errorf("writing account master: %w", err)
	}
	return nil
}

func distinct(rows []model.AccountClassification, field func(model.AccountClassification) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
