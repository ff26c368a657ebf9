package models

import (
	"time"

	"gorm.io/datatypes"
)

// Author ist ein Eintrag in der eingebetteten Autorenliste einer Publikation.
type Author struct {
	Last        string `json:"last"`
	Fore        string `json:"fore,omitempty"`
	Initials    string `json:"initials,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

// Publication repräsentiert eine wissenschaftliche Publikation.
// PMID ist der natürliche Schlüssel; synthetische Einträge ohne PMID sind
// erlaubt, können aber bei Re-Ingestion nicht wiedererkannt werden.
type Publication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PMID    *string `json:"pmid,omitempty" gorm:"column:pmid;uniqueIndex"`
	Title   string  `json:"title" gorm:"index"`
	Topic   string  `json:"topic,omitempty" gorm:"index"`
	Journal string  `json:"journal,omitempty"`
	Year    *int    `json:"year,omitempty" gorm:"index"`

	// Strukturierte Autorenliste, serialisiert als JSON.
	AuthorsJSON datatypes.JSON `json:"authors_json,omitempty" gorm:"column:authors_json"`
}

// TableName gibt explizit den Tabellennamen an.
func (Publication) TableName() string {
	return "pubs"
}
