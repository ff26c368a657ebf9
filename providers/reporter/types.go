package reporter

// SearchCriteria sind die Filterkriterien der RePORTER v2 Projects-API.
// Leere Slices werden beim Marshalling weggelassen.
type SearchCriteria struct {
	PINames         []PIName    `json:"pi_names,omitempty"`
	OrgNames        []string    `json:"org_names,omitempty"`
	FiscalYears     []int       `json:"fiscal_years,omitempty"`
	ActivityCodes   []string    `json:"activity_codes,omitempty"`
	AgencyICAdmin   []string    `json:"agency_ic_admin,omitempty"`
	CoreProjectNums []string    `json:"project_nums,omitempty"`
	AdvancedText    *TextSearch `json:"advanced_text_search,omitempty"`
}

// PIName ist ein PI-Filter im RePORTER-Format.
type PIName struct {
	AnyName string `json:"any_name"`
}

// TextSearch ist die Volltextsuche über Titel/Abstract/Terms.
type TextSearch struct {
	Operator    string `json:"operator"`
	SearchField string `json:"search_field"`
	SearchText  string `json:"search_text"`
}

// SearchRequest ist der POST-Body für /projects/search.
type SearchRequest struct {
	Criteria  SearchCriteria `json:"criteria"`
	Offset    int            `json:"offset"`
	Limit     int            `json:"limit"`
	SortField string         `json:"sort_field,omitempty"`
	SortOrder string         `json:"sort_order,omitempty"`
}

// SearchResponse ist die Antwort von /projects/search.
type SearchResponse struct {
	Meta    Meta      `json:"meta"`
	Results []Project `json:"results"`
}

// Meta enthält die Gesamttrefferzahl der Suche.
type Meta struct {
	Total int `json:"total"`
}

// Project ist ein einzelnes Projekt-Jahr aus RePORTER. Jede Zeile ist
// ein Fiscal-Year-Slice, mehrere Slices teilen sich eine
// Core-Projektnummer.
type Project struct {
	ProjectNum       string        `json:"project_num"`
	CoreProjectNum   string        `json:"core_project_num"`
	FiscalYear       int           `json:"fiscal_year"`
	AwardAmount      *int64        `json:"award_amount"`
	ActivityCode     string        `json:"activity_code"`
	ProjectTitle     string        `json:"project_title"`
	AbstractText     string        `json:"abstract_text"`
	ProjectStartDate string        `json:"project_start_date"`
	ProjectEndDate   string        `json:"project_end_date"`
	AgencyICAdmin    Agency        `json:"agency_ic_admin"`
	AgencyICFundings []Agency      `json:"agency_ic_fundings"`
	Organization     Organization  `json:"organization"`
	PIs              []PrincipalPI `json:"principal_investigators"`
}

// Agency ist ein Institut/Center der NIH.
type Agency struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
}

// Organization ist die Empfängerorganisation eines Awards.
type Organization struct {
	OrgName string `json:"org_name"`
}

// PrincipalPI ist ein Principal Investigator eines Awards.
type PrincipalPI struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}
