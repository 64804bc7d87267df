package model

// ExtractedClaims is what the statement extractor pulls out of a draft body
type ExtractedClaims struct {
	KeyStatements    []string         `json:"keyStatements"`    // Atomic factual assertions
	Entities         Entities         `json:"entities"`         // Named entities mentioned in the draft
	SearchQueries    []string         `json:"searchQueries"`    // Queries used for source discovery
	TechnicalDetails TechnicalDetails `json:"technicalDetails"` // Attack mechanics
}

// Entities groups named entities by kind
type Entities struct {
	Organizations []string `json:"organizations"`
	People        []string `json:"people"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
	Amounts       []string `json:"amounts"`
}

// TechnicalDetails describes how an incident happened
type TechnicalDetails struct {
	AttackVectors   []string `json:"attackVectors"`
	Vulnerabilities []string `json:"vulnerabilities"`
	ImpactedSystems []string `json:"impactedSystems"`
}

// Chunk returns a copy holding only the given statements, with the full
// entity and technical context carried over
func (c ExtractedClaims) Chunk(statements []string) ExtractedClaims {
	return ExtractedClaims{
		KeyStatements:    statements,
		Entities:         c.Entities,
		SearchQueries:    c.SearchQueries,
		TechnicalDetails: c.TechnicalDetails,
	}
}
