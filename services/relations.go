package services

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pi-tracker/models"
)

// RelationService kapselt die n:m-Kanten des Graphen. Attach ist idempotent:
// dieselbe Kante mit derselben Annotation ist ein No-Op, eine geänderte
// Annotation wird in place aktualisiert, nie dupliziert.
type RelationService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewRelationService erstellt eine neue Instanz des RelationService.
func NewRelationService(db *gorm.DB, logger *zap.Logger) *RelationService {
	return &RelationService{DB: db, Logger: logger}
}

// ensureExists prüft, ob die referenzierte Entität existiert, und übersetzt
// das Fehlen in einen IntegrityError statt einer generischen FK-Verletzung.
func ensureExists(tx *gorm.DB, model interface{}, entity string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &IntegrityError{Entity: entity, ID: id}
	}
	return nil
}

// ---------- Person <-> Projekt ----------

func attachPersonProject(tx *gorm.DB, personID, projectID uint, role string) error {
	if err := ensureExists(tx, &models.Person{}, "person", personID); err != nil {
		return err
	}
	if err := ensureExists(tx, &models.Project{}, "project", projectID); err != nil {
		return err
	}

	var existing models.PersonProject
	err := tx.Where("person_id = ? AND project_id = ?", personID, projectID).First(&existing).Error
	if err == nil {
		if existing.Role == role {
			return nil // Kante samt Rolle schon vorhanden
		}
		return tx.Model(&existing).Update("role", role).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	rel := models.PersonProject{PersonID: personID, ProjectID: projectID, Role: role}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "person_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&rel).Error
}

// AttachPersonToProject verbindet Person und Projekt mit einer Rolle.
func (r *RelationService) AttachPersonToProject(personID, projectID uint, role string) error {
	return attachPersonProject(r.DB, personID, projectID, role)
}

// DetachPersonFromProject entfernt die Kante Person-Projekt.
func (r *RelationService) DetachPersonFromProject(personID, projectID uint) error {
	return r.DB.Where("person_id = ? AND project_id = ?", personID, projectID).
		Delete(&models.PersonProject{}).Error
}

// ---------- Projekt <-> Publikation ----------

func attachProjectPublication(tx *gorm.DB, projectID, pubID uint, provenance string) error {
	if err := ensureExists(tx, &models.Project{}, "project", projectID); err != nil {
		return err
	}
	if err := ensureExists(tx, &models.Publication{}, "publication", pubID); err != nil {
		return err
	}

	var existing models.ProjectPublication
	err := tx.Where("project_id = ? AND pub_id = ?", projectID, pubID).First(&existing).Error
	if err == nil {
		if existing.Provenance == provenance {
			return nil
		}
		return tx.Model(&existing).Update("provenance", provenance).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	rel := models.ProjectPublication{ProjectID: projectID, PublicationID: pubID, Provenance: provenance}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "pub_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"provenance"}),
	}).Create(&rel).Error
}

// AttachPublicationToProject verbindet Projekt und Publikation.
func (r *RelationService) AttachPublicationToProject(projectID, pubID uint, provenance string) error {
	return attachProjectPublication(r.DB, projectID, pubID, provenance)
}

// DetachPublicationFromProject entfernt die Kante Projekt-Publikation.
func (r *RelationService) DetachPublicationFromProject(projectID, pubID uint) error {
	return r.DB.Where("project_id = ? AND pub_id = ?", projectID, pubID).
		Delete(&models.ProjectPublication{}).Error
}

// ---------- Projekt <-> Grant ----------

func attachProjectGrant(tx *gorm.DB, projectID, grantID uint, role string, confidence *float64, notes string) error {
	if err := ensureExists(tx, &models.Project{}, "project", projectID); err != nil {
		return err
	}
	if err := ensureExists(tx, &models.GrantAward{}, "grant", grantID); err != nil {
		return err
	}

	var existing models.ProjectGrant
	err := tx.Where("project_id = ? AND grant_id = ?", projectID, grantID).First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{}
		if existing.Role != role {
			updates["role"] = role
		}
		if confidence != nil && (existing.Confidence == nil || *existing.Confidence != *confidence) {
			updates["confidence"] = *confidence
		}
		if notes != "" && existing.Notes != notes {
			updates["notes"] = notes
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&existing).Updates(updates).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	rel := models.ProjectGrant{ProjectID: projectID, GrantID: grantID, Role: role, Confidence: confidence, Notes: notes}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "grant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "confidence", "notes"}),
	}).Create(&rel).Error
}

// AttachGrantToProject verbindet Projekt und Grant mit Rolle/Konfidenz/Notizen.
func (r *RelationService) AttachGrantToProject(projectID, grantID uint, role string, confidence *float64, notes string) error {
	return attachProjectGrant(r.DB, projectID, grantID, role, confidence, notes)
}

// DetachGrantFromProject entfernt die Kante Projekt-Grant.
func (r *RelationService) DetachGrantFromProject(projectID, grantID uint) error {
	return r.DB.Where("project_id = ? AND grant_id = ?", projectID, grantID).
		Delete(&models.ProjectGrant{}).Error
}

// ---------- Person <-> Publikation (Autorenschaft) ----------

func attachAuthorPublication(tx *gorm.DB, personID, pubID uint, position int) error {
	if err := ensureExists(tx, &models.Person{}, "person", personID); err != nil {
		return err
	}
	if err := ensureExists(tx, &models.Publication{}, "publication", pubID); err != nil {
		return err
	}

	var existing models.AuthorPublication
	err := tx.Where("person_id = ? AND pub_id = ?", personID, pubID).First(&existing).Error
	if err == nil {
		if existing.AuthorPosition == position {
			return nil
		}
		return tx.Model(&existing).Update("author_position", position).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	rel := models.AuthorPublication{PersonID: personID, PublicationID: pubID, AuthorPosition: position}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "person_id"}, {Name: "pub_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"author_position"}),
	}).Create(&rel).Error
}

// AttachAuthorToPublication verbindet Person und Publikation als Autor.
func (r *RelationService) AttachAuthorToPublication(personID, pubID uint, position int) error {
	return attachAuthorPublication(r.DB, personID, pubID, position)
}

// ---------- Tags ----------

// AttachTag hängt ein Label an ein Projekt; pro (Projekt, Label) genau einmal.
func (r *RelationService) AttachTag(projectID uint, label string) error {
	if label == "" {
		return &ValidationError{Field: "label", Value: label, Reason: "empty tag label"}
	}
	if err := ensureExists(r.DB, &models.Project{}, "project", projectID); err != nil {
		return err
	}
	tag := models.Tag{ProjectID: projectID, Label: label}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "label"}},
		DoNothing: true,
	}).Create(&tag).Error
}

// DetachTag entfernt ein Label von einem Projekt.
func (r *RelationService) DetachTag(projectID uint, label string) error {
	return r.DB.Where("project_id = ? AND label = ?", projectID, label).
		Delete(&models.Tag{}).Error
}

// ---------- Links ----------

// AttachLink speichert einen Link nach Prüfung der Besitzer-Variante.
// Unbekannter Besitzer-Typ oder fehlende ID ist ein ValidationError,
// ein Besitzer, den es nicht (mehr) gibt, ein IntegrityError.
func (r *RelationService) AttachLink(link models.Link) error {
	if !models.ValidLinkOwner(link.OwnerType) {
		return &ValidationError{Field: "owner_type", Value: link.OwnerType, Reason: "link must belong to a project or a grant"}
	}
	if link.OwnerID == 0 {
		return &ValidationError{Field: "owner_id", Value: "0", Reason: "link owner missing"}
	}
	if link.URL == "" {
		return &ValidationError{Field: "url", Value: "", Reason: "empty link url"}
	}

	switch link.OwnerType {
	case models.LinkOwnerProject:
		if err := ensureExists(r.DB, &models.Project{}, "project", link.OwnerID); err != nil {
			return err
		}
	case models.LinkOwnerGrant:
		if err := ensureExists(r.DB, &models.GrantAward{}, "grant", link.OwnerID); err != nil {
			return err
		}
	}

	return r.DB.Create(&link).Error
}

// DetachLink löscht einen Link über seine ID.
func (r *RelationService) DetachLink(linkID uint) error {
	return r.DB.Delete(&models.Link{}, linkID).Error
}
