package services

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"pi-tracker/models"
)

func newTestRelations(t *testing.T) *RelationService {
	t.Helper()
	return NewRelationService(newTestDB(t), zap.NewNop())
}

func seedPersonAndProject(t *testing.T, svc *RelationService) (uint, uint) {
	t.Helper()
	person := models.Person{FirstName: "Lena", LastName: "Vogt", FullName: "Lena Vogt"}
	if err := svc.DB.Create(&person).Error; err != nil {
		t.Fatalf("Person anlegen: %v", err)
	}
	project := models.Project{Title: "Biomarker panel", Stage: models.StageIdea, Source: models.SourceManual}
	if err := svc.DB.Create(&project).Error; err != nil {
		t.Fatalf("Projekt anlegen: %v", err)
	}
	return person.ID, project.ID
}

func TestAttachPersonToProjectIdempotent(t *testing.T) {
	svc := newTestRelations(t)
	personID, projectID := seedPersonAndProject(t, svc)

	for i := 0; i < 2; i++ {
		if err := svc.AttachPersonToProject(personID, projectID, "PI"); err != nil {
			t.Fatalf("Attach %d: %v", i, err)
		}
	}

	var rels []models.PersonProject
	svc.DB.Find(&rels)
	if len(rels) != 1 {
		t.Fatalf("Kanten = %d, erwartet 1", len(rels))
	}

	// Geänderte Rolle aktualisiert die Kante in place.
	if err := svc.AttachPersonToProject(personID, projectID, "Co-I"); err != nil {
		t.Fatalf("Attach mit neuer Rolle: %v", err)
	}
	svc.DB.Find(&rels)
	if len(rels) != 1 {
		t.Fatalf("Kanten = %d, erwartet weiterhin 1", len(rels))
	}
	if rels[0].Role != "Co-I" {
		t.Fatalf("Role = %q, erwartet Co-I", rels[0].Role)
	}
}

func TestAttachRejectsDanglingReferences(t *testing.T) {
	svc := newTestRelations(t)
	personID, projectID := seedPersonAndProject(t, svc)

	var ie *IntegrityError
	if err := svc.AttachPersonToProject(personID, projectID+99, "PI"); !errors.As(err, &ie) {
		t.Fatalf("err = %v, erwartet IntegrityError", err)
	}
	if ie.Entity != "project" {
		t.Fatalf("Entity = %q", ie.Entity)
	}
	if err := svc.AttachPersonToProject(personID+99, projectID, "PI"); !errors.As(err, &ie) {
		t.Fatalf("err = %v, erwartet IntegrityError", err)
	}
	if err := svc.AttachPublicationToProject(projectID, 12345, models.SourceManual); !errors.As(err, &ie) {
		t.Fatalf("err = %v, erwartet IntegrityError", err)
	}
}

func TestAttachGrantUpdatesAnnotations(t *testing.T) {
	svc := newTestRelations(t)
	_, projectID := seedPersonAndProject(t, svc)

	core := "K08DK777777"
	grant := models.GrantAward{CoreProjectNum: &core, Status: models.GrantActive}
	if err := svc.DB.Create(&grant).Error; err != nil {
		t.Fatalf("Grant anlegen: %v", err)
	}

	if err := svc.AttachGrantToProject(projectID, grant.ID, "funded", nil, ""); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	conf := 0.9
	if err := svc.AttachGrantToProject(projectID, grant.ID, "funded", &conf, "manuell geprüft"); err != nil {
		t.Fatalf("Re-Attach: %v", err)
	}

	var rels []models.ProjectGrant
	svc.DB.Find(&rels)
	if len(rels) != 1 {
		t.Fatalf("Kanten = %d, erwartet 1", len(rels))
	}
	if rels[0].Confidence == nil || *rels[0].Confidence != 0.9 {
		t.Fatalf("Confidence = %v", rels[0].Confidence)
	}
	if rels[0].Notes != "manuell geprüft" {
		t.Fatalf("Notes = %q", rels[0].Notes)
	}
}

func TestAttachAuthorPositionUpdates(t *testing.T) {
	svc := newTestRelations(t)
	personID, _ := seedPersonAndProject(t, svc)

	pub := models.Publication{Title: "Authored paper"}
	if err := svc.DB.Create(&pub).Error; err != nil {
		t.Fatalf("Publikation anlegen: %v", err)
	}

	if err := svc.AttachAuthorToPublication(personID, pub.ID, 2); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := svc.AttachAuthorToPublication(personID, pub.ID, 1); err != nil {
		t.Fatalf("Re-Attach: %v", err)
	}

	var rels []models.AuthorPublication
	svc.DB.Find(&rels)
	if len(rels) != 1 || rels[0].AuthorPosition != 1 {
		t.Fatalf("Autoren-Kante falsch: %+v", rels)
	}
}

func TestAttachTagUniquePerProjectAndLabel(t *testing.T) {
	svc := newTestRelations(t)
	_, projectID := seedPersonAndProject(t, svc)

	for i := 0; i < 2; i++ {
		if err := svc.AttachTag(projectID, "oncology"); err != nil {
			t.Fatalf("AttachTag %d: %v", i, err)
		}
	}
	var count int64
	svc.DB.Model(&models.Tag{}).Count(&count)
	if count != 1 {
		t.Fatalf("Tags = %d, erwartet 1", count)
	}

	var ve *ValidationError
	if err := svc.AttachTag(projectID, ""); !errors.As(err, &ve) {
		t.Fatalf("leeres Label muss ValidationError sein, war %v", err)
	}

	if err := svc.DetachTag(projectID, "oncology"); err != nil {
		t.Fatalf("DetachTag: %v", err)
	}
	svc.DB.Model(&models.Tag{}).Count(&count)
	if count != 0 {
		t.Fatalf("Tags = %d nach Detach", count)
	}
}

func TestAttachLinkValidatesOwnerVariant(t *testing.T) {
	svc := newTestRelations(t)
	_, projectID := seedPersonAndProject(t, svc)

	var ve *ValidationError
	if err := svc.AttachLink(models.Link{OwnerType: "person", OwnerID: 1, URL: "https://x"}); !errors.As(err, &ve) {
		t.Fatalf("unbekannter Besitzer-Typ muss ValidationError sein, war %v", err)
	}
	if err := svc.AttachLink(models.Link{OwnerType: models.LinkOwnerProject, URL: "https://x"}); !errors.As(err, &ve) {
		t.Fatalf("fehlende Owner-ID muss ValidationError sein, war %v", err)
	}
	if err := svc.AttachLink(models.NewProjectLink(projectID, "", "protocol")); !errors.As(err, &ve) {
		t.Fatalf("leere URL muss ValidationError sein, war %v", err)
	}

	var ie *IntegrityError
	if err := svc.AttachLink(models.NewGrantLink(4242, "https://reporter.nih.gov", "reporter")); !errors.As(err, &ie) {
		t.Fatalf("Link auf fehlenden Grant muss IntegrityError sein, war %v", err)
	}

	if err := svc.AttachLink(models.NewProjectLink(projectID, "https://osf.io/abcde", "preregistration")); err != nil {
		t.Fatalf("gültiger Link: %v", err)
	}

	var links []models.Link
	svc.DB.Find(&links)
	if len(links) != 1 {
		t.Fatalf("Links = %d, erwartet 1", len(links))
	}
	if err := svc.DetachLink(links[0].ID); err != nil {
		t.Fatalf("DetachLink: %v", err)
	}
}
