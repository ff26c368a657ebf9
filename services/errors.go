package services

import "fmt"

// Fehler-Taxonomie der Ingestion:
//   - ValidationError: Feld außerhalb der Domäne bzw. verletzte
//     Link-Invariante; der Datensatz wird komplett abgelehnt.
//   - IntegrityError: Relation auf eine nicht existierende Entität;
//     fatal für die einzelne Operation, nicht für den Batch.
//   - Uniqueness-Races werden intern abgefangen (gorm.ErrDuplicatedKey →
//     Update-Pfad) und erreichen den Aufrufer nie.

// ValidationError beschreibt ein abgelehntes Feld.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q value %q: %s", e.Field, e.Value, e.Reason)
}

// IntegrityError beschreibt eine Relation auf eine fehlende Entität.
type IntegrityError struct {
	Entity string
	ID     uint
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: %s %d does not exist", e.Entity, e.ID)
}

// invalidEnum baut den Standard-ValidationError für Enum-Felder.
func invalidEnum(field, value string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: "outside known domain"}
}
