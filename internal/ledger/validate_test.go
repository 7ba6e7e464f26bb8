package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riichinakano/forest-zaim-app/internal/accounts"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// mockMaster implements ClassificationChecker for testing.
type mockMaster struct {
	codes map[int]bool
}

func (m *mockMaster) Exists(code int) bool {
	return m.codes[code]
}

func newMockMaster(codes ...int) *mockMaster {
	m := &mockMaster{codes: make(map[int]bool)}
	for _, c := range codes {
		m.codes[c] = true
	}
	return m
}

func item(year string, code int, name string, month, total int64) model.LineItem {
	li := model.LineItem{FiscalYear: year, AccountCode: code, AccountName: name}
	for i := range li.Monthly {
		li.Monthly[i] = month
	}
	li.AnnualTotal = total
	return li
}

func TestCheckTotals(t *testing.T) {
	items := []model.LineItem{
		item("R5", 410, "売上高", 10, 120),
		item("R5", 620, "給料手当", 10, 121),
		item("R5", 630, "法定福利費", 10, 125),
	}

	findings := CheckTotals(items, 0)
	require.Len(t, findings, 2)
	assert.Equal(t, CheckAnnualTotal, findings[0].Check)
	assert.Equal(t, 620, findings[0].AccountCode)
	assert.Contains(t, findings[0].Error(), "R5/620")
	assert.Contains(t, findings[0].Description, "diff 1")

	findings = CheckTotals(items, 1)
	require.Len(t, findings, 1)
	assert.Equal(t, 630, findings[0].AccountCode)
}

func TestDuplicateNames(t *testing.T) {
	items := []model.LineItem{
		item("H30", 520, "外注費", 1, 12),
		item("R1", 520, "外注費", 1, 12),
		item("R2", 650, "外注費", 1, 12),
		item("R2", 410, "売上高", 1, 12),
		item("R3", 520, "外注費", 1, 12),
		item("R3", 650, "外注費", 1, 12),
	}

	dups := DuplicateNames(items)
	require.Len(t, dups, 1)
	assert.Equal(t, "外注費", dups[0].Name)
	assert.True(t, dups[0].Overlap)
	require.Len(t, dups[0].Codes, 2)
	assert.Equal(t, CodeYears{Code: 520, Years: []string{"H30", "R1", "R3"}}, dups[0].Codes[0])
	assert.Equal(t, CodeYears{Code: 650, Years: []string{"R2", "R3"}}, dups[0].Codes[1])
}

func TestDuplicateNames_NoOverlap(t *testing.T) {
	items := []model.LineItem{
		item("H30", 520, "外注費", 1, 12),
		item("R1", 650, "外注費", 1, 12),
	}

	dups := DuplicateNames(items)
	require.Len(t, dups, 1)
	assert.False(t, dups[0].Overlap)
}

func TestUnclassified(t *testing.T) {
	items := []model.LineItem{
		item("R5", 410, "売上高", 1, 12),
		item("R5", 999, "雑損失", 1, 12),
		item("R6", 999, "雑損失", 1, 12),
		item("R6", 888, "特別損失", 1, 12),
	}

	assert.Equal(t, []int{888, 999}, Unclassified(items, newMockMaster(410)))
	assert.Empty(t, Unclassified(items, newMockMaster(410, 888, 999)))
}

func TestValidate(t *testing.T) {
	snap := &Snapshot{
		Statement: model.StatementPL,
		Items: []model.LineItem{
			item("R5", 410, "売上高", 10, 130),
			item("R5", 999, "雑損失", 1, 12),
		},
		Classifications: accounts.DefaultMaster(model.StatementPL),
		HasMaster:       true,
	}

	findings := Validate(snap, 0)
	require.Len(t, findings, 2)
	assert.Equal(t, CheckAnnualTotal, findings[0].Check)
	assert.Equal(t, CheckUnclassified, findings[1].Check)
	assert.Equal(t, 999, findings[1].AccountCode)

	// Without a master there is nothing to compare codes against.
	snap.HasMaster = false
	snap.Classifications = nil
	findings = Validate(snap, 0)
	require.Len(t, findings, 1)
	assert.Equal(t, CheckAnnualTotal, findings[0].Check)
}

func TestCheckTotals_NoWraparound(t *testing.T) {
	huge := item("R6", 620, "給料手当", 0, math.MaxInt64)
	huge.Monthly[0] = -1

	wraps := item("R6", 630, "法定福利費", math.MaxInt64/6, 0)

	findings := CheckTotals([]model.LineItem{huge, wraps}, 10)
	require.Len(t, findings, 2)
	assert.Equal(t, 620, findings[0].AccountCode)
	assert.Contains(t, findings[0].Description, "diff 9223372036854775807")
	assert.Equal(t, 630, findings[1].AccountCode)
	assert.Contains(t, findings[1].Description, "overflows")
}
