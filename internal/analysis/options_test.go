package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func TestSelectionOptions_WithMaster(t *testing.T) {
	snap := testSnapshot(lineItem("R5", 620, "給料手当", 1))

	opts := SelectionOptions(snap)
	require.NotEmpty(t, opts)

	assert.Equal(t, "category:収益", opts[0].Selection)
	assert.Equal(t, "大分類：収益（合算）", opts[0].Display)
	assert.True(t, opts[0].Rollup)
	assert.Equal(t, "category:費用", opts[1].Selection)
	assert.Equal(t, "subcategory:売上高", opts[2].Selection)

	var accountsSeen []int
	for _, o := range opts {
		if !o.Rollup {
			accountsSeen = append(accountsSeen, o.Code)
		}
	}
	assert.Equal(t, []int{410, 420, 430, 510, 520, 610, 620, 630, 640, 710}, accountsSeen)

	for _, o := range opts {
		_, err := model.ParseSelection(o.Selection)
		assert.NoError(t, err, o.Selection)
	}
}

func TestSelectionOptions_WithoutMaster(t *testing.T) {
	snap := testSnapshot(
		lineItem("R4", 620, "給与", 1),
		lineItem("R5", 410, "売上高", 1),
		lineItem("R5", 620, "給料手当", 1),
	)
	snap.HasMaster = false
	snap.Classifications = nil

	opts := SelectionOptions(snap)
	require.Len(t, opts, 2)
	assert.Equal(t, Option{Selection: "account:410", Display: "売上高 (410)", Code: 410, Category: model.Unclassified}, opts[0])
	assert.Equal(t, "給料手当 (620)", opts[1].Display)
	assert.Equal(t, model.Unclassified, opts[1].Category)
}

func TestSelectionOptions_UnclassifiedAfterMaster(t *testing.T) {
	snap := testSnapshot(
		lineItem("R5", 620, "給料手当", 1),
		lineItem("R5", 999, "雑損失", 1),
	)

	opts := SelectionOptions(snap)
	last := opts[len(opts)-1]
	assert.Equal(t, "account:999", last.Selection)
	assert.Equal(t, "雑損失 (999) - 未分類", last.Display)
	assert.Equal(t, model.Unclassified, last.Category)
	assert.False(t, last.Rollup)

	for _, o := range opts[:len(opts)-1] {
		assert.NotEqual(t, 999, o.Code)
	}
}

func TestLabel(t *testing.T) {
	snap := testSnapshot(lineItem("R5", 999, "雑損失", 1))

	assert.Equal(t, "給料手当", Label(model.AccountSelection{Code: 620}, snap))
	assert.Equal(t, "雑損失", Label(model.AccountSelection{Code: 999}, snap))
	assert.Equal(t, "科目12345", Label(model.AccountSelection{Code: 12345}, snap))
	assert.Equal(t, "中分類：売上原価（合算）", Label(model.SubcategorySelection{Name: "売上原価"}, snap))
	assert.Equal(t, "大分類：収益（合算）", Label(model.CategorySelection{Name: "収益"}, snap))
}
