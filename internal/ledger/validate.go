package ledger

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/riichinakano/forest-zaim-app/internal/model"
)

// Check identifies a data-quality rule.
type Check string

const (
	CheckAnnualTotal   Check = "annual-total"
	CheckDuplicateName Check = "duplicate-name"
	CheckUnclassified  Check = "unclassified"
)

// Finding describes a single data-quality problem. Findings are reported,
// never corrected.
type Finding struct {
	Check       Check
	FiscalYear  string
	AccountCode int
	Description string
}

func (f Finding) Error() string {
	if f.FiscalYear == "" {
		return fmt.Sprintf("%s [%d]: %s", f.Check, f.AccountCode, f.Description)
	}
	return fmt.Sprintf("%s [%s/%d]: %s", f.Check, f.FiscalYear, f.AccountCode, f.Description)
}

// ClassificationChecker tests whether an account code is in the master.
type ClassificationChecker interface {
	Exists(code int) bool
}

// CheckTotals reports line items whose annual total differs from the sum of
// their months by more than tolerance.
func CheckTotals(items []model.LineItem, tolerance int64) []Finding {
	var out []Finding
	for _, li := range items {
		var desc string
		sum, ok := li.CheckedMonthlySum()
		switch {
		case !ok:
			desc = fmt.Sprintf("monthly sum of annual total %d overflows int64", li.AnnualTotal)
		case !model.WithinTolerance(li.AnnualTotal, sum, tolerance):
			desc = fmt.Sprintf("annual total %d != monthly sum %d (diff %d)", li.AnnualTotal, sum, model.SaturatingSub(li.AnnualTotal, sum))
		default:
			continue
		}
		out = append(out, Finding{
			Check:       CheckAnnualTotal,
			FiscalYear:  li.FiscalYear,
			AccountCode: li.AccountCode,
			Description: desc,
		})
	}
	return out
}

// NameUsage lists every code that appears under one display name.
type NameUsage struct {
	Name  string
	Codes []CodeYears
	// Overlap is true when two of the codes appear in the same fiscal year,
	// so the name alone cannot identify an account in that year.
	Overlap bool
}

// CodeYears is one code and the fiscal years it appears in.
type CodeYears struct {
	Code  int
	Years []string
}

// DuplicateNames finds display names shared by more than one account code.
// Such accounts are distinct and must never be merged by name. Items must be
// in fiscal-year order; results are ordered by name.
func DuplicateNames(items []model.LineItem) []NameUsage {
	years := make(map[string]map[int][]string)
	for _, li := range items {
		byCode, ok := years[li.AccountName]
		if !ok {
			byCode = make(map[int][]string)
			years[li.AccountName] = byCode
		}
		ys := byCode[li.AccountCode]
		if len(ys) == 0 || ys[len(ys)-1] != li.FiscalYear {
			byCode[li.AccountCode] = append(ys, li.FiscalYear)
		}
	}

	var out []NameUsage
	for name, byCode := range years {
		if len(byCode) < 2 {
			continue
		}
		u := NameUsage{Name: name}
		seen := make(map[string]bool)
		for code, ys := range byCode {
			u.Codes = append(u.Codes, CodeYears{Code: code, Years: ys})
			for _, y := range ys {
				if seen[y] {
					u.Overlap = true
				}
				seen[y] = true
			}
		}
		slices.SortFunc(u.Codes, func(a, b CodeYears) int { return cmp.Compare(a.Code, b.Code) })
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b NameUsage) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Unclassified returns the distinct codes present in items but absent from
// the master, in ascending order. Those accounts only support single-account
// selections.
func Unclassified(items []model.LineItem, master ClassificationChecker) []int {
	seen := make(map[int]bool)
	var out []int
	for _, li := range items {
		if seen[li.AccountCode] || master.Exists(li.AccountCode) {
			continue
		}
		seen[li.AccountCode] = true
		out = append(out, li.AccountCode)
	}
	slices.Sort(out)
	return out
}

// Validate runs every check over a snapshot.
func Validate(snap *Snapshot, tolerance int64) []Finding {
	findings := CheckTotals(snap.Items, tolerance)

	for _, u := range DuplicateNames(snap.Items) {
		desc := fmt.Sprintf("name %q used by %d codes", u.Name, len(u.Codes))
		if u.Overlap {
			desc += " within the same fiscal year"
		}
		for _, c := range u.Codes {
			findings = append(findings, Finding{
				Check:       CheckDuplicateName,
				AccountCode: c.Code,
				Description: fmt.Sprintf("%s (years %v)", desc, c.Years),
			})
		}
	}

	if snap.HasMaster {
		for _, code := range Unclassified(snap.Items, snap.Accounts()) {
			findings = append(findings, Finding{
				Check:       CheckUnclassified,
				AccountCode: code,
				Description: "not in account master; excluded from rollups",
			})
		}
	}
	return findings
}
