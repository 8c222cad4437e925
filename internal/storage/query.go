package storage

import (
	"strings"

	"samscope/internal/models"
)

// BuildWhere renders a filter into a parameterized WHERE clause and the
// ordered argument list for its placeholders. An empty filter yields an
// empty clause (unconditional match). Conditions are AND-combined:
// equality for single-valued fields, IN for agency sets, LIKE over the
// text columns for the keyword, and inclusive range comparisons for the
// posting-date and award-value bounds.
func BuildWhere(f *models.Filter) (string, []any) {
	if f.IsEmpty() {
		return "", nil
	}

	var conds []string
	var args []any

	if f.Keyword != "" {
		conds = append(conds, "(title LIKE ? OR synopsis LIKE ? OR contract_description LIKE ?)")
		pattern := "%" + f.Keyword + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if len(f.Agencies) > 0 {
		placeholders := strings.Repeat("?,", len(f.Agencies))
		conds = append(conds, "agency IN ("+placeholders[:len(placeholders)-1]+")")
		for _, a := range f.Agencies {
			args = append(args, a)
		}
	}
	for _, eq := range []struct {
		column string
		value  string
	}{
		{"naics_code", f.NAICSCode},
		{"psc_code", f.PSCCode},
		{"setaside", f.SetAside},
		{"type", f.ContractType},
	} {
		if eq.value != "" {
			conds = append(conds, eq.column+" = ?")
			args = append(args, eq.value)
		}
	}
	if f.DatePostedFrom != "" {
		conds = append(conds, "date_posted >= ?")
		args = append(args, f.DatePostedFrom)
	}
	if f.DatePostedTo != "" {
		conds = append(conds, "date_posted <= ?")
		args = append(args, f.DatePostedTo)
	}
	if f.AwardValueMin != nil {
		conds = append(conds, "contract_award_value >= ?")
		args = append(args, *f.AwardValueMin)
	}
	if f.AwardValueMax != nil {
		conds = append(conds, "contract_award_value <= ?")
		args = append(args, *f.AwardValueMax)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
