package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultMaster(model.StatementPL))

	c, ok := svc.Get(620)
	assert.True(t, ok)
	assert.Equal(t, "給料手当", c.AccountName)

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(410))
	assert.False(t, svc.Exists(9999))
}

func TestCategoryOf(t *testing.T) {
	svc := NewService(DefaultMaster(model.StatementPL))
	assert.Equal(t, model.CategoryRevenue, svc.CategoryOf(410))
	assert.Equal(t, model.Unclassified, svc.CategoryOf(9999))
}

func TestCategoriesAndSubcategories(t *testing.T) {
	svc := NewService(DefaultMaster(model.StatementPL))

	assert.Equal(t, []string{model.CategoryRevenue, model.CategoryExpense}, svc.Categories())
	assert.Equal(t, []string{"売上原価", "販売費及び一般管理費", "営業外費用"}, svc.Subcategories(model.CategoryExpense))
	assert.Len(t, svc.Subcategories(""), 5)
	assert.Empty(t, svc.Subcategories("資産"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	master := DefaultMaster(model.StatementPL)
	dir := filepath.Join(t.TempDir(), "config")

	require.NoError(t, NewService(master).Save(dir, MasterFile))

	_, err := os.Stat(filepath.Join(dir, MasterFile))
	require.NoError(t, err)

	svc, err := Load(dir, MasterFile)
	require.NoError(t, err)
	assert.Equal(t, master, svc.All())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir(), MasterFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOptional(t *testing.T) {
	svc, found, err := LoadOptional(t.TempDir(), MasterFile)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, svc.All())
}

func TestMasterFileFor(t *testing.T) {
	assert.Equal(t, MasterFile, MasterFileFor(model.StatementPL))
	assert.Equal(t, BSMasterFile, MasterFileFor(model.StatementBS))
}
