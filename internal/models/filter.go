package models

import "encoding/json"

// Filter is the closed set of recognized search constraints. Zero values
// mean "no constraint"; an empty filter matches every contract.
type Filter struct {
	// Keyword matches against title, synopsis, and description.
	Keyword string `json:"keyword,omitempty"`
	// Agencies is a set of acceptable awarding agencies.
	Agencies []string `json:"agency,omitempty"`
	NAICSCode    string `json:"naics_code,omitempty"`
	PSCCode      string `json:"psc_code,omitempty"`
	SetAside     string `json:"setaside,omitempty"`
	ContractType string `json:"type,omitempty"`
	// Posting date range, inclusive, ISO dates.
	DatePostedFrom string `json:"date_posted_start,omitempty"`
	DatePostedTo   string `json:"date_posted_end,omitempty"`
	// Award value range, inclusive. Nil means unbounded.
	AwardValueMin *float64 `json:"award_value_min,omitempty"`
	AwardValueMax *float64 `json:"award_value_max,omitempty"`
}

// IsEmpty reports whether the filter carries no constraints.
func (f *Filter) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.Keyword == "" && len(f.Agencies) == 0 &&
		f.NAICSCode == "" && f.PSCCode == "" &&
		f.SetAside == "" && f.ContractType == "" &&
		f.DatePostedFrom == "" && f.DatePostedTo == "" &&
		f.AwardValueMin == nil && f.AwardValueMax == nil
}

// Serialize returns the filter as JSON, for use in model prompts. This is
// also the fallback "enhanced query" when query rewriting fails.
func (f *Filter) Serialize() string {
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}
