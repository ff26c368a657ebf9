package models

import "time"

// Tag ist ein Freitext-Label an genau einem Projekt.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectID uint   `json:"project_id" gorm:"index:idx_tags_project_label,unique;not null"`
	Label     string `json:"label" gorm:"index:idx_tags_project_label,unique;index;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (Tag) TableName() string {
	return "tags"
}
