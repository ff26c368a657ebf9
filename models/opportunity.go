package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gültige Status-Werte für Grants.gov Opportunities.
const (
	OppPosted     = "posted"
	OppForecasted = "forecasted"
	OppClosed     = "closed"
	OppArchived   = "archived"
)

// Gültige Dokumenttypen für Opportunities.
const (
	DocSynopsis         = "synopsis"
	DocForecast         = "forecast"
	DocFullAnnouncement = "full_announcement"
)

var validOppStatuses = map[string]bool{
	OppPosted: true, OppForecasted: true, OppClosed: true, OppArchived: true,
}

var validDocTypes = map[string]bool{
	DocSynopsis: true, DocForecast: true, DocFullAnnouncement: true,
}

// ValidOppStatus prüft, ob ein Opportunity-Status zur bekannten Domäne gehört.
func ValidOppStatus(s string) bool { return validOppStatuses[s] }

// ValidDocType prüft, ob ein Dokumenttyp zur bekannten Domäne gehört.
func ValidDocType(s string) bool { return validDocTypes[s] }

// FundingOpportunity repräsentiert eine offene Ausschreibung von Grants.gov,
// bewusst getrennt von GrantAward (gefördertes Projekt).
type FundingOpportunity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GrantsGovID       string `json:"grantsgov_id" gorm:"column:grantsgov_id;uniqueIndex;not null"`
	OpportunityNumber string `json:"opportunity_number,omitempty" gorm:"index"`
	Title             string `json:"title,omitempty" gorm:"index"`
	AgencyCode        string `json:"agency_code,omitempty" gorm:"index"`
	AgencyName        string `json:"agency_name,omitempty"`

	OppStatus string `json:"opp_status" gorm:"index"`
	DocType   string `json:"doc_type,omitempty"`

	OpenDate    *time.Time `json:"open_date,omitempty" gorm:"index"`
	CloseDate   *time.Time `json:"close_date,omitempty" gorm:"index"`
	PostDate    *time.Time `json:"post_date,omitempty"`
	ArchiveDate *time.Time `json:"archive_date,omitempty"`

	OpportunityCategory string `json:"opportunity_category,omitempty"`

	// Optionaler Detail-Payload aus fetchOpportunity.
	Description          string         `json:"description,omitempty" gorm:"type:text"`
	AwardCeiling         string         `json:"award_ceiling,omitempty"`
	AwardFloor           string         `json:"award_floor,omitempty"`
	CostSharing          bool           `json:"cost_sharing"`
	ApplicantEligibility string         `json:"applicant_eligibility,omitempty" gorm:"type:text"`
	AgencyContactName    string         `json:"agency_contact_name,omitempty"`
	AgencyContactPhone   string         `json:"agency_contact_phone,omitempty"`
	AgencyContactEmail   string         `json:"agency_contact_email,omitempty"`
	FundingDescLink      string         `json:"funding_desc_link,omitempty"`
	CFDANumbers          datatypes.JSON `json:"cfda_numbers,omitempty" gorm:"column:cfda_numbers"`
}

// TableName gibt explizit den Tabellennamen an.
func (FundingOpportunity) TableName() string {
	return "grants_opportunity"
}
