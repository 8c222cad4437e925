package storage

import (
	"strings"
	"testing"

	"samscope/internal/models"
)

func TestBuildWhereEmptyFilter(t *testing.T) {
	where, args := BuildWhere(&models.Filter{})
	if where != "" || args != nil {
		t.Errorf("empty filter: where=%q args=%v", where, args)
	}
	where, args = BuildWhere(nil)
	if where != "" || args != nil {
		t.Errorf("nil filter: where=%q args=%v", where, args)
	}
}

func TestBuildWherePlaceholderCount(t *testing.T) {
	// For equality/membership keys, placeholder count equals the total
	// number of scalar values: each list element contributes one.
	f := &models.Filter{
		Agencies:     []string{"DOD", "GSA", "VA"},
		NAICSCode:    "541512",
		PSCCode:      "D310",
		SetAside:     "SBA",
		ContractType: "Solicitation",
	}
	where, args := BuildWhere(f)
	if got, want := strings.Count(where, "?"), 7; got != want {
		t.Errorf("placeholder count = %d, want %d (clause %q)", got, want, where)
	}
	if len(args) != 7 {
		t.Errorf("args = %d, want 7", len(args))
	}
	if !strings.Contains(where, "agency IN (?,?,?)") {
		t.Errorf("missing membership condition: %q", where)
	}
	if !strings.HasPrefix(where, "WHERE ") || strings.Contains(where, " OR ") {
		t.Errorf("conditions must be AND-combined: %q", where)
	}
}

func TestBuildWhereKeyword(t *testing.T) {
	where, args := BuildWhere(&models.Filter{Keyword: "cyber"})
	if !strings.Contains(where, "title LIKE ?") ||
		!strings.Contains(where, "synopsis LIKE ?") ||
		!strings.Contains(where, "contract_description LIKE ?") {
		t.Errorf("keyword clause: %q", where)
	}
	if len(args) != 3 || args[0] != "%cyber%" {
		t.Errorf("keyword args: %v", args)
	}
}

func TestBuildWhereRanges(t *testing.T) {
	min, max := 10000.0, 500000.0
	f := &models.Filter{
		DatePostedFrom: "2024-01-01",
		DatePostedTo:   "2024-06-30",
		AwardValueMin:  &min,
		AwardValueMax:  &max,
	}
	where, args := BuildWhere(f)
	for _, cond := range []string{
		"date_posted >= ?", "date_posted <= ?",
		"contract_award_value >= ?", "contract_award_value <= ?",
	} {
		if !strings.Contains(where, cond) {
			t.Errorf("missing %q in %q", cond, where)
		}
	}
	if len(args) != 4 {
		t.Errorf("args = %v", args)
	}
	if args[2] != 10000.0 || args[3] != 500000.0 {
		t.Errorf("value bounds out of order: %v", args)
	}
}

func TestBuildWhereArgOrderMatchesClause(t *testing.T) {
	f := &models.Filter{
		Keyword:   "radar",
		Agencies:  []string{"DOD"},
		NAICSCode: "334511",
	}
	where, args := BuildWhere(f)
	if got, want := strings.Count(where, "?"), len(args); got != want {
		t.Errorf("%d placeholders for %d args", got, want)
	}
	if args[len(args)-1] != "334511" {
		t.Errorf("expected naics last, got %v", args)
	}
}
