package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gültige Status-Werte für geförderte Grants.
const (
	GrantActive    = "active"
	GrantCompleted = "completed"
	GrantPending   = "pending"
	GrantUnknown   = "unknown"
)

var validGrantStatuses = map[string]bool{
	GrantActive: true, GrantCompleted: true, GrantPending: true, GrantUnknown: true,
}

// ValidGrantStatus prüft, ob ein Grant-Status zur bekannten Domäne gehört.
func ValidGrantStatus(s string) bool { return validGrantStatuses[s] }

// GrantAward repräsentiert einen geförderten Grant auf Core-Ebene
// (eine Zeile pro core_project_num, Jahres-Slices separat in grants_fy).
type GrantAward struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CoreProjectNum *string `json:"core_project_num,omitempty" gorm:"column:core_project_num;uniqueIndex"`
	Agency         string  `json:"agency,omitempty" gorm:"index"`
	OrgName        string  `json:"org_name,omitempty"`
	Status         string  `json:"status" gorm:"index;default:'unknown'"`
	Mechanism      string  `json:"mechanism,omitempty" gorm:"index"`

	// Titel, Abstract und PI-Namen aus dem jeweils aktuellsten
	// Fiscal-Year-Snapshot des Awards.
	Title    string         `json:"title,omitempty" gorm:"index"`
	Abstract string         `json:"abstract,omitempty" gorm:"type:text"`
	PINames  datatypes.JSON `json:"pi_names,omitempty" gorm:"column:pi_names"`

	ProjectStart *time.Time `json:"project_start,omitempty"`
	ProjectEnd   *time.Time `json:"project_end,omitempty"`

	// Deadline ist nur für pending Opportunities sinnvoll, sonst NULL.
	Deadline *time.Time `json:"deadline,omitempty"`

	FitScore *float64 `json:"fit_score,omitempty"`
	Notes    string   `json:"notes,omitempty" gorm:"type:text"`

	// Funding-ICs (z.B. HL, DK), serialisiert als JSON-Liste.
	FundingICs datatypes.JSON `json:"funding_ics,omitempty" gorm:"column:funding_ics"`
}

// TableName gibt explizit den Tabellennamen an.
func (GrantAward) TableName() string {
	return "grants_core"
}

// GrantAwardYear ist der Fiscal-Year-Slice eines Grants: genau eine Zeile
// pro (grant_id, fiscal_year), Betrag last-write-wins.
type GrantAwardYear struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GrantID    uint `json:"grant_id" gorm:"index:idx_grants_fy_unique,unique;not null"`
	FiscalYear int  `json:"fiscal_year" gorm:"index:idx_grants_fy_unique,unique;not null"`

	TotalCostFY int64  `json:"total_cost_fy"`
	ProjectNum  string `json:"project_num,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (GrantAwardYear) TableName() string {
	return "grants_fy"
}
