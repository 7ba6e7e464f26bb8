package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Source:    SourceCLI,
		Action:    ActionExport,
		Statement: "pl",
		Selection: "account:620",
		Years:     []string{"R5", "R6"},
		Target:    "給料手当_月次推移.csv",
		QueryID:   "0b6f1a52-3d4c-4b8e-9a51-2f8c7e0d1a11",
	}
}

func logPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "logs", "audit-log.csv")
}

func TestAppend_NewFile(t *testing.T) {
	path := logPath(t)
	require.NoError(t, New(path).Append(testEntry()))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionExport, entries[0].Action)
}

func TestAppend_ExistingFile(t *testing.T) {
	path := logPath(t)
	log := New(path)
	require.NoError(t, log.Append(testEntry()))

	e2 := testEntry()
	e2.Action = ActionReload
	e2.Selection = ""
	e2.Years = nil
	require.NoError(t, log.Append(e2))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionExport, entries[0].Action)
	assert.Equal(t, ActionReload, entries[1].Action)
	assert.Nil(t, entries[1].Years)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, countLines(string(data)))
}

func TestAppend_StampsTime(t *testing.T) {
	path := logPath(t)
	log := New(path)
	log.now = func() time.Time { return testTime }

	e := testEntry()
	e.Timestamp = time.Time{}
	require.NoError(t, log.Append(e))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, testTime.Equal(entries[0].Timestamp))
}

func TestAppend_Concurrent(t *testing.T) {
	path := logPath(t)
	log := New(path)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := testEntry()
			e.QueryID = fmt.Sprintf("q-%d", i)
			assert.NoError(t, log.Append(e))
		}()
	}
	wg.Wait()

	entries, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestRead_RoundTrip(t *testing.T) {
	path := logPath(t)
	original := testEntry()
	require.NoError(t, New(path).Append(original))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	got.Timestamp = original.Timestamp
	assert.Equal(t, original, got)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(logPath(t))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit-log.csv")
	require.NoError(t, os.WriteFile(path, []byte(Header+"\n"), 0o644))

	entries, err := Read(path)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected 8 fields")
}

func TestTimestampFormat(t *testing.T) {
	row := MarshalEntry(testEntry())
	assert.Equal(t, "2025-01-15T10:30:00Z", row[colTimestamp])
	assert.Equal(t, "R5 R6", row[colYears])
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
