package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gültige Projekt-Stages (Lebenszyklus eines Forschungsprojekts).
const (
	StageIdea           = "idea"
	StagePlanning       = "planning"
	StageDataCollection = "data-collection"
	StageAnalysis       = "analysis"
	StageManuscript     = "manuscript"
	StageSubmitted      = "submitted"
	StageFunded         = "funded"
	StageInactive       = "inactive"
)

// Gültige Provenance-Quellen für Projekte.
const (
	SourceManual    = "manual"
	SourcePubMed    = "pubmed"
	SourceReporter  = "reporter"
	SourceGrantsGov = "grants.gov"
	SourceSynthetic = "synthetic"
)

var validStages = map[string]bool{
	StageIdea: true, StagePlanning: true, StageDataCollection: true,
	StageAnalysis: true, StageManuscript: true, StageSubmitted: true,
	StageFunded: true, StageInactive: true,
}

var validSources = map[string]bool{
	SourceManual: true, SourcePubMed: true, SourceReporter: true,
	SourceGrantsGov: true, SourceSynthetic: true,
}

// ValidStage prüft, ob ein Stage-Wert zur bekannten Domäne gehört.
func ValidStage(s string) bool { return validStages[s] }

// ValidSource prüft, ob eine Provenance-Quelle zur bekannten Domäne gehört.
func ValidSource(s string) bool { return validSources[s] }

// Project repräsentiert ein Forschungsprojekt und dessen Lebenszyklus.
type Project struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string `json:"title" gorm:"not null;index"`
	Abstract string `json:"abstract,omitempty" gorm:"type:text"`
	COINotes string `json:"coi_notes,omitempty" gorm:"column:coi_notes;type:text"`

	Stage  string `json:"stage" gorm:"index;default:'idea'"`
	Source string `json:"source" gorm:"index;default:'manual'"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// Gecachte KI-Felder. AiManualOverride=true friert sie gegen
	// automatisches Überschreiben ein.
	AiSummary             string         `json:"ai_summary,omitempty" gorm:"type:text"`
	AiKeywords            datatypes.JSON `json:"ai_keywords,omitempty"`
	AiStageGuess          string         `json:"ai_stage_guess,omitempty"`
	AiSuggestedMechanisms string         `json:"ai_suggested_mechanisms,omitempty"`
	AiGeneratedAt         *time.Time     `json:"ai_generated_at,omitempty"`
	AiManualOverride      bool           `json:"ai_manual_override" gorm:"default:false"`
}

// TableName gibt explizit den Tabellennamen an.
func (Project) TableName() string {
	return "projects"
}
