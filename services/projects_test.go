package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pi-tracker/models"
)

func newTestProjects(t *testing.T) *ProjectService {
	t.Helper()
	return NewProjectService(newTestDB(t), zap.NewNop())
}

func TestCreateProjectDefaultsAndValidation(t *testing.T) {
	svc := newTestProjects(t)
	ctx := context.Background()

	var ve *ValidationError
	if err := svc.CreateProject(ctx, &models.Project{}); !errors.As(err, &ve) {
		t.Fatalf("leerer Titel muss ValidationError sein, war %v", err)
	}
	if err := svc.CreateProject(ctx, &models.Project{Title: "X", Stage: "draft"}); !errors.As(err, &ve) {
		t.Fatalf("unbekannte Stage muss ValidationError sein, war %v", err)
	}
	if err := svc.CreateProject(ctx, &models.Project{Title: "X", Source: "scraper"}); !errors.As(err, &ve) {
		t.Fatalf("unbekannte Source muss ValidationError sein, war %v", err)
	}

	project := models.Project{Title: "Pilotstudie"}
	if err := svc.CreateProject(ctx, &project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.Stage != models.StageIdea || project.Source != models.SourceManual {
		t.Fatalf("Defaults falsch: stage=%q source=%q", project.Stage, project.Source)
	}
}

func TestUpdateStageValidation(t *testing.T) {
	svc := newTestProjects(t)
	ctx := context.Background()

	project := models.Project{Title: "Stufenlauf"}
	if err := svc.CreateProject(ctx, &project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	var ve *ValidationError
	if err := svc.UpdateStage(ctx, project.ID, "done"); !errors.As(err, &ve) {
		t.Fatalf("unbekannte Stage muss ValidationError sein, war %v", err)
	}

	var ie *IntegrityError
	if err := svc.UpdateStage(ctx, project.ID+99, models.StageFunded); !errors.As(err, &ie) {
		t.Fatalf("fehlendes Projekt muss IntegrityError sein, war %v", err)
	}

	if err := svc.UpdateStage(ctx, project.ID, models.StageManuscript); err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	var reloaded models.Project
	svc.DB.First(&reloaded, project.ID)
	if reloaded.Stage != models.StageManuscript {
		t.Fatalf("Stage = %q", reloaded.Stage)
	}
}

func TestAICacheRespectsManualOverride(t *testing.T) {
	svc := newTestProjects(t)
	ctx := context.Background()

	project := models.Project{Title: "Override-Test"}
	if err := svc.CreateProject(ctx, &project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if err := svc.UpdateAICache(ctx, project.ID, AIUpdate{Summary: "generierte Fassung", Keywords: []string{"imaging"}}); err != nil {
		t.Fatalf("UpdateAICache: %v", err)
	}
	var reloaded models.Project
	svc.DB.First(&reloaded, project.ID)
	if reloaded.AiSummary != "generierte Fassung" || reloaded.AiGeneratedAt == nil {
		t.Fatalf("KI-Cache nicht geschrieben: %+v", reloaded)
	}

	if err := svc.SetManualSummary(ctx, project.ID, "handgeschriebene Fassung"); err != nil {
		t.Fatalf("SetManualSummary: %v", err)
	}

	// Mit gesetztem Override prallt das automatische Update ab.
	if err := svc.UpdateAICache(ctx, project.ID, AIUpdate{Summary: "neuer Generator-Output"}); err != nil {
		t.Fatalf("UpdateAICache unter Override: %v", err)
	}
	svc.DB.First(&reloaded, project.ID)
	if reloaded.AiSummary != "handgeschriebene Fassung" {
		t.Fatalf("Override verletzt: AiSummary = %q", reloaded.AiSummary)
	}
	if !reloaded.AiManualOverride {
		t.Fatalf("Override-Flag verloren")
	}

	if err := svc.ClearManualOverride(ctx, project.ID); err != nil {
		t.Fatalf("ClearManualOverride: %v", err)
	}
	if err := svc.UpdateAICache(ctx, project.ID, AIUpdate{Summary: "neuer Generator-Output"}); err != nil {
		t.Fatalf("UpdateAICache nach Freigabe: %v", err)
	}
	svc.DB.First(&reloaded, project.ID)
	if reloaded.AiSummary != "neuer Generator-Output" {
		t.Fatalf("Update nach Freigabe fehlt: %q", reloaded.AiSummary)
	}
}

func TestUpdateAICacheValidatesStageGuess(t *testing.T) {
	svc := newTestProjects(t)

	var ve *ValidationError
	err := svc.UpdateAICache(context.Background(), 1, AIUpdate{StageGuess: "somewhere"})
	if !errors.As(err, &ve) {
		t.Fatalf("unbekannter Stage-Guess muss ValidationError sein, war %v", err)
	}
}

func TestDeleteProjectCascadeStopsAtEdges(t *testing.T) {
	svc := newTestProjects(t)
	relations := NewRelationService(svc.DB, zap.NewNop())
	ctx := context.Background()

	project := models.Project{Title: "Zu löschen"}
	if err := svc.CreateProject(ctx, &project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	person := models.Person{FirstName: "Nora", LastName: "Lang", FullName: "Nora Lang"}
	svc.DB.Create(&person)
	pub := models.Publication{Title: "Bleibt bestehen"}
	svc.DB.Create(&pub)
	core := "R03EB111111"
	grant := models.GrantAward{CoreProjectNum: &core}
	svc.DB.Create(&grant)

	if err := relations.AttachPersonToProject(person.ID, project.ID, "PI"); err != nil {
		t.Fatalf("Attach Person: %v", err)
	}
	if err := relations.AttachPublicationToProject(project.ID, pub.ID, models.SourceManual); err != nil {
		t.Fatalf("Attach Publikation: %v", err)
	}
	if err := relations.AttachGrantToProject(project.ID, grant.ID, "funded", nil, ""); err != nil {
		t.Fatalf("Attach Grant: %v", err)
	}
	if err := relations.AttachTag(project.ID, "pilot"); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}
	if err := relations.AttachLink(models.NewProjectLink(project.ID, "https://osf.io/xyz", "osf")); err != nil {
		t.Fatalf("AttachLink: %v", err)
	}

	if err := svc.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	counts := map[string]int64{}
	for table, model := range map[string]interface{}{
		"tags":   &models.Tag{},
		"links":  &models.Link{},
		"ppl":    &models.PersonProject{},
		"pubs":   &models.ProjectPublication{},
		"grants": &models.ProjectGrant{},
	} {
		var c int64
		svc.DB.Model(model).Count(&c)
		counts[table] = c
	}
	for table, c := range counts {
		if c != 0 {
			t.Fatalf("%s: %d Zeilen nach Cascade übrig", table, c)
		}
	}

	// Die referenzierten Entitäten überleben den Cascade.
	var remaining int64
	svc.DB.Model(&models.Person{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("Person weggelöscht")
	}
	svc.DB.Model(&models.Publication{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("Publikation weggelöscht")
	}
	svc.DB.Model(&models.GrantAward{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("Grant weggelöscht")
	}

	var ie *IntegrityError
	if err := svc.DeleteProject(ctx, project.ID); !errors.As(err, &ie) {
		t.Fatalf("Doppel-Delete muss IntegrityError sein, war %v", err)
	}
}

func TestDeleteGrantRemovesSlicesAndLinks(t *testing.T) {
	svc := newTestProjects(t)
	relations := NewRelationService(svc.DB, zap.NewNop())
	ctx := context.Background()

	core := "P30CA999999"
	grant := models.GrantAward{CoreProjectNum: &core}
	svc.DB.Create(&grant)
	svc.DB.Create(&models.GrantAwardYear{GrantID: grant.ID, FiscalYear: 2022, TotalCostFY: 100000})
	svc.DB.Create(&models.GrantAwardYear{GrantID: grant.ID, FiscalYear: 2023, TotalCostFY: 110000})
	if err := relations.AttachLink(models.NewGrantLink(grant.ID, "https://reporter.nih.gov/project/1", "reporter")); err != nil {
		t.Fatalf("AttachLink: %v", err)
	}

	if err := svc.DeleteGrant(ctx, grant.ID); err != nil {
		t.Fatalf("DeleteGrant: %v", err)
	}

	var c int64
	svc.DB.Model(&models.GrantAwardYear{}).Count(&c)
	if c != 0 {
		t.Fatalf("Jahres-Slices übrig: %d", c)
	}
	svc.DB.Model(&models.Link{}).Count(&c)
	if c != 0 {
		t.Fatalf("Links übrig: %d", c)
	}
}

func TestNaturalKeyUniquenessSurfacesAsDuplicatedKey(t *testing.T) {
	svc := newTestProjects(t)

	core := "R01GM424242"
	if err := svc.DB.Create(&models.GrantAward{CoreProjectNum: &core}).Error; err != nil {
		t.Fatalf("erster Insert: %v", err)
	}
	err := svc.DB.Create(&models.GrantAward{CoreProjectNum: &core}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("zweiter Insert: %v, erwartet gorm.ErrDuplicatedKey", err)
	}

	// NULL-Schlüssel kollidieren nicht.
	if err := svc.DB.Create(&models.GrantAward{}).Error; err != nil {
		t.Fatalf("Insert ohne Schlüssel: %v", err)
	}
	if err := svc.DB.Create(&models.GrantAward{}).Error; err != nil {
		t.Fatalf("zweiter Insert ohne Schlüssel: %v", err)
	}
}
