package models

import "time"

// Besitzer-Varianten für Links. Die Konstruktoren unten sind der einzige
// vorgesehene Weg, einen Link zu bauen; der Zustand "weder Projekt noch
// Grant" bzw. "beides" ist damit gar nicht erst konstruierbar.
const (
	LinkOwnerProject = "project"
	LinkOwnerGrant   = "grant"
)

// Link ist eine URL mit Typ-Label, die genau einem Projekt ODER einem
// Grant gehört (getaggte Variante statt zweier nullbarer Fremdschlüssel).
type Link struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerType string `json:"owner_type" gorm:"index:idx_links_owner;not null"`
	OwnerID   uint   `json:"owner_id" gorm:"index:idx_links_owner;not null"`

	URL      string `json:"url" gorm:"not null"`
	LinkType string `json:"link_type,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Link) TableName() string {
	return "links"
}

// NewProjectLink baut einen Link, der einem Projekt gehört.
func NewProjectLink(projectID uint, url, linkType string) Link {
	return Link{OwnerType: LinkOwnerProject, OwnerID: projectID, URL: url, LinkType: linkType}
}

// NewGrantLink baut einen Link, der einem Grant gehört.
func NewGrantLink(grantID uint, url, linkType string) Link {
	return Link{OwnerType: LinkOwnerGrant, OwnerID: grantID, URL: url, LinkType: linkType}
}

// ValidLinkOwner prüft die Besitzer-Variante eines Links.
func ValidLinkOwner(ownerType string) bool {
	return ownerType == LinkOwnerProject || ownerType == LinkOwnerGrant
}
