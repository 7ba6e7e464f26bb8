package accounts

import "github.com/riichinakano/forest-zaim-app/internal/model"

// DefaultMaster returns a starter classification master for a statement.
// It is written by `zaim init` and is meant to be edited.
func DefaultMaster(st model.Statement) []model.AccountClassification {
	switch st {
	case model.StatementBS:
		return balanceSheetMaster()
	default:
		return profitAndLossMaster()
	}
}

func profitAndLossMaster() []model.AccountClassification {
	return []model.AccountClassification{
		{AccountCode: 410, AccountName: "売上高", Category: model.CategoryRevenue, Subcategory: "売上高", DisplayOrder: 1},
		{AccountCode: 420, AccountName: "補助金収入", Category: model.CategoryRevenue, Subcategory: "営業外収益", DisplayOrder: 2},
		{AccountCode: 430, AccountName: "雑収入", Category: model.CategoryRevenue, Subcategory: "営業外収益", DisplayOrder: 3},
		{AccountCode: 510, AccountName: "仕入高", Category: model.CategoryExpense, Subcategory: "売上原価", FixedCostClass: "変動費", DisplayOrder: 10},
		{AccountCode: 520, AccountName: "外注費", Category: model.CategoryExpense, Subcategory: "売上原価", FixedCostClass: "変動費", DisplayOrder: 11},
		{AccountCode: 610, AccountName: "役員報酬", Category: model.CategoryExpense, Subcategory: "販売費及び一般管理費", FixedCostClass: "固定費", DisplayOrder: 20},
		{AccountCode: 620, AccountName: "給料手当", Category: model.CategoryExpense, Subcategory: "販売費及び一般管理費", FixedCostClass: "固定費", DisplayOrder: 21},
		{AccountCode: 630, AccountName: "減価償却費", Category: model.CategoryExpense, Subcategory: "販売費及び一般管理費", FixedCostClass: "固定費", DisplayOrder: 22},
		{AccountCode: 640, AccountName: "燃料費", Category: model.CategoryExpense, Subcategory: "販売費及び一般管理費", FixedCostClass: "変動費", DisplayOrder: 23},
		{AccountCode: 710, AccountName: "支払利息", Category: model.CategoryExpense, Subcategory: "営業外費用", FixedCostClass: "固定費", DisplayOrder: 30},
	}
}

func balanceSheetMaster() []model.AccountClassification {
	return []model.AccountClassification{
		{AccountCode: 111, AccountName: "現金", Category: "資産", Subcategory: "流動資産", DisplayOrder: 1},
		{AccountCode: 121, AccountName: "普通預金", Category: "資産", Subcategory: "流動資産", DisplayOrder: 2},
		{AccountCode: 211, AccountName: "建物", Category: "資産", Subcategory: "固定資産", DisplayOrder: 10},
		{AccountCode: 221, AccountName: "機械装置", Category: "資産", Subcategory: "固定資産", DisplayOrder: 11},
		{AccountCode: 311, AccountName: "買掛金", Category: "負債", Subcategory: "流動負債", DisplayOrder: 20},
		{AccountCode: 321, AccountName: "長期借入金", Category: "負債", Subcategory: "固定負債", DisplayOrder: 21},
		{AccountCode: 920, AccountName: "資本金", Category: "純資産", Subcategory: "株主資本", DisplayOrder: 30},
	}
}
