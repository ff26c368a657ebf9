package models

import "time"

// Person repräsentiert eine Forscherin oder einen Forscher (PI, Co-I, Autor).
type Person struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirstName string `json:"first_name" gorm:"index:idx_people_name"`
	LastName  string `json:"last_name" gorm:"index:idx_people_name"`
	FullName  string `json:"full_name,omitempty" gorm:"index"`

	Affiliation string `json:"affiliation,omitempty"`
	Email       string `json:"email,omitempty"`
	// ORCID ist bewusst KEIN Unique-Key: die Quelldaten liefern ihn zu selten,
	// Duplikate werden manuell bereinigt.
	ORCID string `json:"orcid,omitempty" gorm:"index"`
	Role  string `json:"role,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Person) TableName() string {
	return "people"
}

// DisplayName liefert den anzeigbaren Namen (FullName, sonst Vor- + Nachname).
func (p *Person) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.FirstName + " " + p.LastName
}
