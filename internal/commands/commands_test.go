package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/riichinakano/forest-zaim-app/internal/analysis"
	"github.com/riichinakano/forest-zaim-app/internal/auditlog"
	"github.com/riichinakano/forest-zaim-app/internal/commands"
	"github.com/riichinakano/forest-zaim-app/internal/gitops"
)

const plHeader = "科目コード,科目名称,4月,5月,6月,7月,8月,9月,10月,11月,12月,1月,2月,3月,当月迄累計金額"

func runZaim(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeShiftJIS(t *testing.T, path, content string) {
	t.Helper()
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
}

// newProject initializes a project with 給料手当 at 100/month in R5 and
// 150/month in R6, plus 売上高 in R5. Returns the project dir and config path.
func newProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	_, err := runZaim(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	plDir := filepath.Join(dir, "data", "monthly_pl")
	writeShiftJIS(t, filepath.Join(plDir, "R5_monthly.csv"), plHeader+"\n"+
		"410,売上高,500,500,500,500,500,500,500,500,500,500,500,500,6000\n"+
		"620,給料手当,100,100,100,100,100,100,100,100,100,100,100,100,1200\n")
	writeShiftJIS(t, filepath.Join(plDir, "R6_monthly.csv"), plHeader+"\n"+
		"620,給料手当,150,150,150,150,150,150,150,150,150,150,150,150,1800\n")
	return dir, filepath.Join(dir, "zaim.yaml")
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runZaim(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized zaim project")

	expectedDirs := []string{
		filepath.Join("data", "monthly_pl"),
		filepath.Join("data", "monthly_bs"),
		"config",
		"logs",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	expectedFiles := []string{
		"zaim.yaml",
		".gitignore",
		filepath.Join("config", "account_master.csv"),
		filepath.Join("config", "bs_account_master.csv"),
	}
	for _, f := range expectedFiles {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "file %s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runZaim(t, "init", dir, "--name", "My Company")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "zaim.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: My Company")
	assert.Contains(t, contents, "encoding: shift-jis")
	assert.Contains(t, contents, "total_policy: source")
}

func TestInit_RequiresName(t *testing.T) {
	_, err := runZaim(t, "init", t.TempDir())
	assert.Error(t, err)
}

func TestInit_RefusesExistingProject(t *testing.T) {
	dir := t.TempDir()
	_, err := runZaim(t, "init", dir, "--name", "A")
	require.NoError(t, err)

	_, err = runZaim(t, "init", dir, "--name", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_Git(t *testing.T) {
	if !gitops.Available() {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	out, err := runZaim(t, "init", dir, "--name", "Test Biz", "--git")
	require.NoError(t, err)
	assert.True(t, gitops.IsRepo(dir))
	assert.Regexp(t, `\([0-9a-f]+\)`, out)
}

func TestVersion(t *testing.T) {
	out, err := runZaim(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}

func TestYears(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "years", "--config", cfg)
	require.NoError(t, err)
	assert.Regexp(t, `R5\s+2023\s+R5_monthly\.csv\s+\d+ B`, out)
	assert.Regexp(t, `R6\s+2024\s+R6_monthly\.csv`, out)
}

func TestYears_NoFiles(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "years", "--config", cfg, "--statement", "bs")
	require.NoError(t, err)
	assert.Contains(t, out, "No bs data files")
}

func TestAccounts(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "accounts", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "category:費用")
	assert.Contains(t, out, "大分類：費用（合算）")
	assert.Contains(t, out, "account:620")
	assert.Contains(t, out, "給料手当 (620)")
}

func TestSeries(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "series", "--config", cfg, "--selection", "account:620", "--years", "R5,R6")
	require.NoError(t, err)
	assert.Contains(t, out, "給料手当")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "1,800")
	assert.NotContains(t, out, "データなし")
}

func TestSeries_JSON(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "series", "--config", cfg, "--selection", "account:410", "--json")
	require.NoError(t, err)

	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Series, 1)
	assert.Equal(t, "R5", res.Series[0].FiscalYear)
	assert.Equal(t, []string{"R6"}, res.Skipped)
}

func TestSeries_RequiresSelection(t *testing.T) {
	_, cfg := newProject(t)
	_, err := runZaim(t, "series", "--config", cfg)
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "table", "--config", cfg, "--selection", "subcategory:販売費及び一般管理費", "--years", "R4", "--years", "R5,R6")
	require.NoError(t, err)
	assert.Contains(t, out, "中分類：販売費及び一般管理費（合算）")
	assert.Contains(t, out, "+50.0%")
	assert.Contains(t, out, "—")
	assert.Contains(t, out, "データなし: R4")
	assert.Contains(t, out, "最新 R6: 年間合計 1,800 / 前年比 +600 (+50.0%)")
}

func TestTable_SingleSelectionOnly(t *testing.T) {
	_, cfg := newProject(t)
	_, err := runZaim(t, "table", "--config", cfg, "--selection", "account:620", "--selection", "account:410")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one --selection")
}

func TestSeries_FromTo(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "series", "--config", cfg, "--selection", "account:620", "--from", "R03", "--to", "R6", "--json")
	require.NoError(t, err)

	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Series, 2)
	assert.Equal(t, "R5", res.Series[0].FiscalYear)
	assert.Equal(t, "R6", res.Series[1].FiscalYear)
	assert.Equal(t, []string{"R3", "R4"}, res.Skipped)
}

func TestSeries_FromToAcrossEras(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "series", "--config", cfg, "--selection", "account:620", "--from", "H30", "--to", "R2", "--json")
	require.NoError(t, err)

	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Empty(t, res.Series)
	assert.Equal(t, []string{"H30", "R1", "R2"}, res.Skipped)
}

func TestSeries_FromToFlagRules(t *testing.T) {
	_, cfg := newProject(t)

	_, err := runZaim(t, "series", "--config", cfg, "--selection", "account:620", "--from", "R5")
	assert.Error(t, err)

	_, err = runZaim(t, "series", "--config", cfg, "--selection", "account:620", "--from", "R5", "--to", "R6", "--years", "R6")
	assert.Error(t, err)

	_, err = runZaim(t, "series", "--config", cfg, "--selection", "account:620", "--from", "R6", "--to", "R5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reversed")
}

func TestTable_UnknownEra(t *testing.T) {
	_, cfg := newProject(t)
	_, err := runZaim(t, "table", "--config", cfg, "--selection", "account:620", "--years", "S60")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S60")
}

func TestExport_Table(t *testing.T) {
	dir, cfg := newProject(t)
	outDir := filepath.Join(dir, "exports")
	out, err := runZaim(t, "export", "--config", cfg, "--selection", "account:620", "--years", "R5,R6", "--out", outDir)
	require.NoError(t, err)

	path := filepath.Join(outDir, "給料手当_月次推移.csv")
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "R6,150,")
	assert.Contains(t, string(data), ",50.0")

	entries, err := auditlog.Read(filepath.Join(dir, "logs", "audit-log.csv"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auditlog.SourceCLI, entries[0].Source)
	assert.Equal(t, "pl", entries[0].Statement)
	assert.Equal(t, "給料手当_月次推移.csv", entries[0].Target)
}

func TestExport_SeriesAndSVG(t *testing.T) {
	dir, cfg := newProject(t)
	outDir := filepath.Join(dir, "exports")

	_, err := runZaim(t, "export", "--config", cfg, "--selection", "account:620", "--format", "series", "-o", outDir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "給料手当_系列_月次推移.csv"))
	assert.NoError(t, err)

	_, err = runZaim(t, "export", "--config", cfg, "--selection", "account:620", "--format", "svg", "-o", outDir)
	require.NoError(t, err)
	svg, err := os.ReadFile(filepath.Join(outDir, "給料手当_月次推移.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestExport_BadFormat(t *testing.T) {
	_, cfg := newProject(t)
	_, err := runZaim(t, "export", "--config", cfg, "--selection", "account:620", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	// The format is rejected before any config or data is read.
	missing := filepath.Join(t.TempDir(), "zaim.yaml")
	_, err = runZaim(t, "export", "--config", missing, "--selection", "account:620", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestExport_SeveralSelections(t *testing.T) {
	dir, cfg := newProject(t)
	outDir := filepath.Join(dir, "exports")
	out, err := runZaim(t, "export", "--config", cfg,
		"--selection", "account:620", "--selection", "account:410",
		"--from", "R5", "--to", "R6", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "給料手当_月次推移.csv")
	assert.Contains(t, out, "売上高_月次推移.csv")

	entries, err := auditlog.Read(filepath.Join(dir, "logs", "audit-log.csv"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "account:620", entries[0].Selection)
	assert.Equal(t, []string{"R5", "R6"}, entries[0].Years)
	assert.Equal(t, "account:410", entries[1].Selection)
	assert.Equal(t, []string{"R5"}, entries[1].Years)
}

func TestCheck_OK(t *testing.T) {
	_, cfg := newProject(t)
	out, err := runZaim(t, "check", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: 3 line items in 2 fiscal years")
}

func TestCheck_Problems(t *testing.T) {
	dir, cfg := newProject(t)
	writeShiftJIS(t, filepath.Join(dir, "data", "monthly_pl", "R4_monthly.csv"), plHeader+"\n"+
		"620,給料手当,1,1,1,1,1,1,1,1,1,1,1,1,20\n"+
		"999,雑費,1,1,1,1,1,1,1,1,1,1,1,1,12\n")

	out, err := runZaim(t, "check", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems found")
	assert.Contains(t, out, "annual-total [R4/620]")
	assert.Contains(t, out, "unclassified [999]")

	// A wide enough tolerance clears the total mismatch.
	_, err = runZaim(t, "check", "--config", cfg, "--tolerance", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 problems found")
}

func TestBadStatement(t *testing.T) {
	_, cfg := newProject(t)
	_, err := runZaim(t, "years", "--config", cfg, "--statement", "cf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statement")
}

func TestMissingConfig(t *testing.T) {
	_, err := runZaim(t, "years", "--config", filepath.Join(t.TempDir(), "zaim.yaml"))
	assert.Error(t, err)
}
