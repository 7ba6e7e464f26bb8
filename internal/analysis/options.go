package analysis

import (
	"fmt"
	"slices"

	"github.com/riichinakano/forest-zaim-app/internal/ledger"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Option is one entry of the selection picker.
type Option struct {
	Selection string `json:"selection"` // parseable by model.ParseSelection
	Display   string `json:"display"`
	Rollup    bool   `json:"rollup"`
	Code      int    `json:"code,omitempty"`
	Category  string `json:"category,omitempty"`
}

// SelectionOptions lists what can be queried in snap. With a master, category
// rollups come first, then subcategory rollups, then every master account in
// display order, then any data codes the master omits under
// model.Unclassified. Without a master, each account code found in the data
// is listed in code order.
func SelectionOptions(snap *ledger.Snapshot) []Option {
	if !snap.HasMaster || len(snap.Classifications) == 0 {
		return dataOptions(snap)
	}

	svc := snap.Accounts()
	var opts []Option
	for _, c := range svc.Categories() {
		sel := model.CategorySelection{Name: c}
		opts = append(opts, Option{
			Selection: sel.String(),
			Display:   rollupLabel(sel),
			Rollup:    model.IsRollup(sel),
			Category:  c,
		})
	}
	for _, c := range svc.Categories() {
		for _, sc := range svc.Subcategories(c) {
			sel := model.SubcategorySelection{Name: sc}
			opts = append(opts, Option{
				Selection: sel.String(),
				Display:   rollupLabel(sel),
				Rollup:    model.IsRollup(sel),
				Category:  c,
			})
		}
	}
	for _, ac := range svc.All() {
		opts = append(opts, Option{
			Selection: model.AccountSelection{Code: ac.AccountCode}.String(),
			Display:   fmt.Sprintf("%s (%d) - %s", ac.AccountName, ac.AccountCode, ac.Category),
			Code:      ac.AccountCode,
			Category:  ac.Category,
		})
	}
	names := latestNames(snap.Items)
	for _, code := range ledger.Unclassified(snap.Items, svc) {
		category := svc.CategoryOf(code)
		opts = append(opts, Option{
			Selection: model.AccountSelection{Code: code}.String(),
			Display:   fmt.Sprintf("%s (%d) - %s", names[code], code, category),
			Code:      code,
			Category:  category,
		})
	}
	return opts
}

func dataOptions(snap *ledger.Snapshot) []Option {
	svc := snap.Accounts()
	names := latestNames(snap.Items)
	codes := make([]int, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	opts := make([]Option, 0, len(codes))
	for _, code := range codes {
		opts = append(opts, Option{
			Selection: model.AccountSelection{Code: code}.String(),
			Display:   fmt.Sprintf("%s (%d)", names[code], code),
			Code:      code,
			Category:  svc.CategoryOf(code),
		})
	}
	return opts
}

// Label returns a human-readable name for sel, used for titles and export
// file names. Accounts use the master name, falling back to the most recent
// name in the data.
func Label(sel model.Selection, snap *ledger.Snapshot) string {
	switch s := sel.(type) {
	case model.AccountSelection:
		if ac, ok := snap.Accounts().Get(s.Code); ok {
			return ac.AccountName
		}
		if name, ok := latestNames(snap.Items)[s.Code]; ok && name != "" {
			return name
		}
		return fmt.Sprintf("科目%d", s.Code)
	case model.SubcategorySelection, model.CategorySelection:
		return rollupLabel(s)
	default:
		return fmt.Sprint(sel)
	}
}

func rollupLabel(sel model.Selection) string {
	switch s := sel.(type) {
	case model.CategorySelection:
		return "大分類：" + s.Name + "（合算）"
	case model.SubcategorySelection:
		return "中分類：" + s.Name + "（合算）"
	default:
		return sel.String()
	}
}

// latestNames maps each code to its name in the latest year it appears.
// Items are in fiscal-year order, so later rows win.
func latestNames(items []model.LineItem) map[int]string {
	names := make(map[int]string)
	for _, li := range items {
		names[li.AccountCode] = li.AccountName
	}
	return names
}
