package models

import "time"

// SearchQuery ist das Audit-Log einer Opportunity-Suche: append-only,
// wird nie mutiert (deshalb auch kein UpdatedAt).
type SearchQuery struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Keyword  string `json:"keyword"`
	Statuses string `json:"statuses,omitempty"`
	Agencies string `json:"agencies,omitempty"`
	Category string `json:"category,omitempty"`
	ALN      string `json:"aln,omitempty" gorm:"column:aln"`

	RowsPerPage    int `json:"rows_per_page"`
	PagesRequested int `json:"pages_requested"`
	StartRecord    int `json:"start_record"`
	TotalResults   int `json:"total_results"`

	// Pfad des hochgeladenen JSON-Artefakts (S3), falls vorhanden.
	OutputFile string `json:"output_file,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (SearchQuery) TableName() string {
	return "grants_search_queries"
}
