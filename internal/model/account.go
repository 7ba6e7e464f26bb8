package model

// Unclassified is the category reported for account codes the master omits.
// Such accounts can be selected individually but never join a rollup.
const Unclassified = "未分類"

// Top-tier categories used by the default P&L master.
const (
	CategoryRevenue = "収益"
	CategoryExpense = "費用"
)

// AccountClassification represents a row in account_master.csv.
type AccountClassification struct {
	AccountCode    int
	AccountName    string
	Category       string // 大分類
	Subcategory    string // 中分類
	FixedCostClass string // 固定費区分, optional
	DisplayOrder   int
}
