package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Actions.
const (
	ActionExport = "export"
	ActionReload = "reload"
)

// Sources.
const (
	SourceCLI      = "cli"
	SourceHTTP     = "http"
	SourceSchedule = "schedule"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	Source    string
	Action    string
	Statement string
	Selection string
	Years     []string
	Target    string // export file name, or empty
	QueryID   string
}

// Header is the CSV header for the audit log.
const Header = "timestamp,source,action,statement,selection,years,target,query_id"

const (
	numFields    = 8
	colTimestamp = 0
	colSource    = 1
	colAction    = 2
	colStatement = 3
	colSelection = 4
	colYears     = 5
	colTarget    = 6
	colQueryID   = 7
	yearSep      = " "
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colSource] = e.Source
	row[colAction] = e.Action
	row[colStatement] = e.Statement
	row[colSelection] = e.Selection
	row[colYears] = strings.Join(e.Years, yearSep)
	row[colTarget] = e.Target
	row[colQueryID] = e.QueryID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var years []string
	if record[colYears] != "" {
		years = strings.Split(record[colYears], yearSep)
	}

	return Entry{
		Timestamp: ts,
		Source:    record[colSource],
		Action:    record[colAction],
		Statement: record[colStatement],
		Selection: record[colSelection],
		Years:     years,
		Target:    record[colTarget],
		QueryID:   record[colQueryID],
	}, nil
}

// Log appends to one audit file. It is safe for concurrent use within a
// process.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a Log writing to path. The file and its directory are created
// on first append.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Append writes entries, stamping any zero Timestamp with the current time.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range entries {
		if entries[i].Timestamp.IsZero() {
			entries[i].Timestamp = l.now().UTC()
		}
	}
	return appendFile(l.path, entries)
}

func appendFile(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating audit log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from path. Returns an empty slice if the file does
// not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
