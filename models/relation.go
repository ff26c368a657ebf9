package models

import "time"

// PersonProject verbindet Personen und Projekte (n:m) mit Rollen-Annotation.
type PersonProject struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PersonID  uint   `json:"person_id" gorm:"index:idx_ppl_proj_unique,unique;not null"`
	ProjectID uint   `json:"project_id" gorm:"index:idx_ppl_proj_unique,unique;not null"`
	Role      string `json:"role,omitempty"` // z.B. PI, Co-I
}

// TableName gibt explizit den Tabellennamen an.
func (PersonProject) TableName() string {
	return "people_project_relation"
}

// ProjectPublication verbindet Projekte und Publikationen (n:m).
type ProjectPublication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID     uint   `json:"project_id" gorm:"index:idx_proj_pub_unique,unique;not null"`
	PublicationID uint   `json:"pub_id" gorm:"column:pub_id;index:idx_proj_pub_unique,unique;not null"`
	Provenance    string `json:"provenance,omitempty"` // Quelle der Kante, z.B. pubmed
}

// TableName gibt explizit den Tabellennamen an.
func (ProjectPublication) TableName() string {
	return "project_pub_relation"
}

// ProjectGrant verbindet Projekte und Grants (n:m) mit Rolle und Konfidenz.
type ProjectGrant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID  uint     `json:"project_id" gorm:"index:idx_proj_grant_unique,unique;not null"`
	GrantID    uint     `json:"grant_id" gorm:"index:idx_proj_grant_unique,unique;not null"`
	Role       string   `json:"role,omitempty"` // z.B. funded, inferred
	Confidence *float64 `json:"confidence,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (ProjectGrant) TableName() string {
	return "project_grant_relation"
}

// AuthorPublication verbindet Personen und Publikationen mit Autorenposition.
type AuthorPublication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PersonID       uint `json:"person_id" gorm:"index:idx_author_pub_unique,unique;not null"`
	PublicationID  uint `json:"pub_id" gorm:"column:pub_id;index:idx_author_pub_unique,unique;not null"`
	AuthorPosition int  `json:"author_position"`
}

// TableName gibt explizit den Tabellennamen an.
func (AuthorPublication) TableName() string {
	return "author_pub_relation"
}
