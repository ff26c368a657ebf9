package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pi-tracker/models"
)

// ProjectService bündelt Projekt-Lebenszyklus und den KI-Cache-Schreibpfad.
type ProjectService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewProjectService erstellt eine neue Instanz des ProjectService.
func NewProjectService(db *gorm.DB, logger *zap.Logger) *ProjectService {
	return &ProjectService{DB: db, Logger: logger}
}

// AIUpdate ist der Payload des KI-Cache-Schreibpfads. Die Generierung
// selbst passiert extern; hier wird nur gecacht.
type AIUpdate struct {
	Summary             string   `json:"summary,omitempty"`
	Keywords            []string `json:"keywords,omitempty"`
	StageGuess          string   `json:"stage_guess,omitempty"`
	SuggestedMechanisms string   `json:"suggested_mechanisms,omitempty"`
}

// CreateProject validiert die Enum-Felder und legt ein Projekt an.
func (s *ProjectService) CreateProject(ctx context.Context, project *models.Project) error {
	if project.Stage == "" {
		project.Stage = models.StageIdea
	}
	if project.Source == "" {
		project.Source = models.SourceManual
	}
	if !models.ValidStage(project.Stage) {
		return invalidEnum("stage", project.Stage)
	}
	if !models.ValidSource(project.Source) {
		return invalidEnum("source", project.Source)
	}
	if project.Title == "" {
		return &ValidationError{Field: "title", Value: "", Reason: "project title required"}
	}
	return s.DB.WithContext(ctx).Create(project).Error
}

// UpdateStage setzt die Projekt-Stage nach Enum-Prüfung.
func (s *ProjectService) UpdateStage(ctx context.Context, projectID uint, stage string) error {
	if !models.ValidStage(stage) {
		return invalidEnum("stage", stage)
	}
	res := s.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("stage", stage)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &IntegrityError{Entity: "project", ID: projectID}
	}
	return nil
}

// UpdateAICache schreibt generierte KI-Felder, respektiert aber den
// Manual-Override: ist er gesetzt, bleibt der Cache unangetastet.
func (s *ProjectService) UpdateAICache(ctx context.Context, projectID uint, update AIUpdate) error {
	if update.StageGuess != "" && !models.ValidStage(update.StageGuess) {
		return invalidEnum("ai_stage_guess", update.StageGuess)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &IntegrityError{Entity: "project", ID: projectID}
			}
			return err
		}
		if project.AiManualOverride {
			s.Logger.Info("KI-Cache-Update übersprungen: Manual-Override aktiv",
				zap.Uint("project_id", projectID))
			return nil
		}

		updates := map[string]interface{}{
			"ai_generated_at":    time.Now().UTC(),
			"ai_manual_override": false,
		}
		if update.Summary != "" {
			updates["ai_summary"] = update.Summary
		}
		if len(update.Keywords) > 0 {
			b, err := json.Marshal(update.Keywords)
			if err != nil {
				return err
			}
			updates["ai_keywords"] = datatypes.JSON(b)
		}
		if update.StageGuess != "" {
			updates["ai_stage_guess"] = update.StageGuess
		}
		if update.SuggestedMechanisms != "" {
			updates["ai_suggested_mechanisms"] = update.SuggestedMechanisms
		}
		return tx.Model(&project).Updates(updates).Error
	})
}

// SetManualSummary überschreibt die Zusammenfassung von Hand und setzt den
// Override, der künftige automatische Updates blockt.
func (s *ProjectService) SetManualSummary(ctx context.Context, projectID uint, summary string) error {
	res := s.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"ai_summary":         summary,
			"ai_manual_override": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &IntegrityError{Entity: "project", ID: projectID}
	}
	return nil
}

// ClearManualOverride gibt den KI-Cache wieder für automatische Updates frei.
func (s *ProjectService) ClearManualOverride(ctx context.Context, projectID uint) error {
	return s.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("ai_manual_override", false).Error
}

// DeleteProject löscht ein Projekt samt eigener Tags, Links und
// Relations-Zeilen. Referenzierte Publikationen/Personen/Grants bleiben
// unangetastet, der Cascade endet an der Kante.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &IntegrityError{Entity: "project", ID: projectID}
			}
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.LinkOwnerProject, projectID).
			Delete(&models.Link{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.PersonProject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectPublication{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectGrant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}

// DeletePerson löscht eine Person samt ihrer Relations-Zeilen.
func (s *ProjectService) DeletePerson(ctx context.Context, personID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var person models.Person
		if err := tx.First(&person, personID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &IntegrityError{Entity: "person", ID: personID}
			}
			return err
		}
		if err := tx.Where("person_id = ?", personID).Delete(&models.PersonProject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("person_id = ?", personID).Delete(&models.AuthorPublication{}).Error; err != nil {
			return err
		}
		return tx.Delete(&person).Error
	})
}

// DeletePublication löscht eine Publikation samt ihrer Relations-Zeilen.
func (s *ProjectService) DeletePublication(ctx context.Context, pubID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pub models.Publication
		if err := tx.First(&pub, pubID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &IntegrityError{Entity: "publication", ID: pubID}
			}
			return err
		}
		if err := tx.Where("pub_id = ?", pubID).Delete(&models.ProjectPublication{}).Error; err != nil {
			return err
		}
		if err := tx.Where("pub_id = ?", pubID).Delete(&models.AuthorPublication{}).Error; err != nil {
			return err
		}
		return tx.Delete(&pub).Error
	})
}

// DeleteGrant löscht einen Grant samt Jahres-Slices, Links und
// Relations-Zeilen.
func (s *ProjectService) DeleteGrant(ctx context.Context, grantID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var grant models.GrantAward
		if err := tx.First(&grant, grantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &IntegrityError{Entity: "grant", ID: grantID}
			}
			return err
		}
		if err := tx.Where("grant_id = ?", grantID).Delete(&models.GrantAwardYear{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.LinkOwnerGrant, grantID).
			Delete(&models.Link{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grant_id = ?", grantID).Delete(&models.ProjectGrant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&grant).Error
	})
}
