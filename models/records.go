package models

import "time"

// Die Record-Typen in dieser Datei sind die Schnittstelle zwischen den
// Providern und der Ingestion: reine Datenstrukturen, keine GORM-Modelle.
// Nil-Pointer bedeutet "Feld nicht geliefert" und lässt beim Merge den
// gespeicherten Wert unangetastet.

// PublicationRecord ist ein normalisierter PubMed-Datensatz.
type PublicationRecord struct {
	PMID    string   `json:"pmid"`
	Title   string   `json:"title"`
	Topic   string   `json:"topic,omitempty"`
	Journal string   `json:"journal,omitempty"`
	Year    *int     `json:"year,omitempty"`
	Authors []Author `json:"authors,omitempty"`
}

// FiscalYearFact ist ein Jahres-Fakt eines Awards (eine Zeile pro FY).
type FiscalYearFact struct {
	FiscalYear  int    `json:"fiscal_year"`
	TotalCostFY int64  `json:"total_cost_fy"`
	ProjectNum  string `json:"project_num,omitempty"`
}

// AwardRecord ist ein normalisierter RePORTER-Datensatz auf Core-Ebene,
// inklusive aller Fiscal-Year-Slices.
type AwardRecord struct {
	CoreProjectNum string           `json:"core_project_num"`
	Agency         string           `json:"agency,omitempty"`
	OrgName        string           `json:"org_name,omitempty"`
	Status         string           `json:"status,omitempty"`
	Mechanism      string           `json:"mechanism,omitempty"`
	ProjectStart   *time.Time       `json:"project_start,omitempty"`
	ProjectEnd     *time.Time       `json:"project_end,omitempty"`
	FundingICs     []string         `json:"funding_ics,omitempty"`
	PINames        []string         `json:"pi_names,omitempty"`
	Title          string           `json:"title,omitempty"`
	Abstract       string           `json:"abstract,omitempty"`
	FiscalYears    []FiscalYearFact `json:"fiscal_years,omitempty"`
}

// OpportunityDetailRecord ist der optionale Detail-Payload aus fetchOpportunity.
// PostDate, ArchiveDate und OpportunityCategory aus dem Detail überschreiben
// beim Merge die Werte aus dem Suchtreffer.
type OpportunityDetailRecord struct {
	Description          string     `json:"description,omitempty"`
	AwardCeiling         string     `json:"award_ceiling,omitempty"`
	AwardFloor           string     `json:"award_floor,omitempty"`
	CostSharing          bool       `json:"cost_sharing"`
	ApplicantEligibility string     `json:"applicant_eligibility,omitempty"`
	AgencyContactName    string     `json:"agency_contact_name,omitempty"`
	AgencyContactPhone   string     `json:"agency_contact_phone,omitempty"`
	AgencyContactEmail   string     `json:"agency_contact_email,omitempty"`
	FundingDescLink      string     `json:"funding_desc_link,omitempty"`
	CFDANumbers          []string   `json:"cfda_numbers,omitempty"`
	PostDate             *time.Time `json:"post_date,omitempty"`
	ArchiveDate          *time.Time `json:"archive_date,omitempty"`
	OpportunityCategory  string     `json:"opportunity_category,omitempty"`
}

// OpportunityRecord ist ein normalisierter Grants.gov-Datensatz.
type OpportunityRecord struct {
	GrantsGovID         string                   `json:"grantsgov_id"`
	OpportunityNumber   string                   `json:"opportunity_number,omitempty"`
	Title               string                   `json:"title,omitempty"`
	AgencyCode          string                   `json:"agency_code,omitempty"`
	AgencyName          string                   `json:"agency_name,omitempty"`
	OppStatus           string                   `json:"opp_status,omitempty"`
	DocType             string                   `json:"doc_type,omitempty"`
	OpenDate            *time.Time               `json:"open_date,omitempty"`
	CloseDate           *time.Time               `json:"close_date,omitempty"`
	PostDate            *time.Time               `json:"post_date,omitempty"`
	ArchiveDate         *time.Time               `json:"archive_date,omitempty"`
	OpportunityCategory string                   `json:"opportunity_category,omitempty"`
	Detail              *OpportunityDetailRecord `json:"detail,omitempty"`
}
