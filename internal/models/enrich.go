package models

// AnnotatedContract is a contract augmented with a relevance score and
// explanation from the analysis stage. Analyzed is false for contracts
// that were never submitted to the model (beyond the analysis cap, or
// when the analysis call itself failed).
type AnnotatedContract struct {
	*Contract
	RelevanceScore float64 `json:"relevance_score"`
	Explanation    string  `json:"explanation,omitempty"`
	Analyzed       bool    `json:"analyzed"`
}

// Entity extraction categories, in presentation order.
const (
	CategoryOrganizations  = "Organizations"
	CategoryLocations      = "Locations"
	CategoryTechnologies   = "Technologies"
	CategoryKeyPersonnel   = "Key Personnel"
	CategoryImportantDates = "Important Dates"
)

// EntityCategories lists the fixed extraction categories.
var EntityCategories = []string{
	CategoryOrganizations,
	CategoryLocations,
	CategoryTechnologies,
	CategoryKeyPersonnel,
	CategoryImportantDates,
}

// Entities maps each category to the extracted text fragments, in the
// order the model produced them. All categories are always present.
type Entities map[string][]string

// NewEntities returns an entity map with every category present and empty.
func NewEntities() Entities {
	e := make(Entities, len(EntityCategories))
	for _, c := range EntityCategories {
		e[c] = []string{}
	}
	return e
}
