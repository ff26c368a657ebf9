package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pi-tracker/models"
)

// IngestOutcome unterscheidet die drei Ausgänge eines Upserts, damit der
// Aufrufer Logging/Metriken steuern und No-Ops erkennen kann.
type IngestOutcome string

const (
	OutcomeCreated IngestOutcome = "created"
	OutcomeUpdated IngestOutcome = "updated"
	OutcomeNoOp    IngestOutcome = "noop"
)

// IngestResult ist das Ergebnis eines einzelnen Ingest-Aufrufs.
type IngestResult struct {
	Outcome  IngestOutcome `json:"outcome"`
	EntityID uint          `json:"entity_id"`
}

// RecordFailure hält einen fehlgeschlagenen Datensatz eines Batches fest.
type RecordFailure struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	Err   error  `json:"-"`
	Error string `json:"error"`
}

// IngestReport fasst einen Batch-Lauf zusammen. Validierungs- und
// Integritätsfehler brechen den Batch nicht ab, sondern landen in Failures.
type IngestReport struct {
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	NoOps    int             `json:"noops"`
	Failures []RecordFailure `json:"failures,omitempty"`
}

func (r *IngestReport) add(res IngestResult) {
	switch res.Outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeNoOp:
		r.NoOps++
	}
}

// recoverable meldet, ob ein Fehler den Batch weiterlaufen lässt.
func recoverable(err error) bool {
	var ve *ValidationError
	var ie *IntegrityError
	return errors.As(err, &ve) || errors.As(err, &ie)
}

// IngestService ist der Reconciliation-Kern: er bildet externe Datensätze
// über ihren natürlichen Schlüssel auf bestehende Entitäten ab oder legt
// neue an, und verdrahtet anschließend die implizierten Relationen neu.
// Jeder Datensatz läuft in genau einer kurzen Transaktion.
type IngestService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewIngestService erstellt eine neue Instanz des IngestService.
func NewIngestService(db *gorm.DB, logger *zap.Logger) *IngestService {
	return &IngestService{DB: db, Logger: logger}
}

// authorsJSON serialisiert eine Autorenliste deterministisch.
func authorsJSON(authors []models.Author) (datatypes.JSON, error) {
	if len(authors) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(authors)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func stringsJSON(values []string) (datatypes.JSON, error) {
	if len(values) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// ---------- Publikationen ----------

// IngestPublication verarbeitet einen PubMed-Datensatz. Natürlicher Schlüssel
// ist die PMID; Datensätze ohne PMID werden IMMER neu angelegt (bewusste
// Policy gegen False Merges, Duplikate bei Handdaten sind akzeptiert).
// projectID > 0 verdrahtet zusätzlich die Kante Projekt-Publikation.
func (s *IngestService) IngestPublication(ctx context.Context, rec models.PublicationRecord, projectID uint) (IngestResult, error) {
	aj, err := authorsJSON(rec.Authors)
	if err != nil {
		return IngestResult{}, err
	}

	var result IngestResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pub := models.Publication{
			Title:       rec.Title,
			Topic:       rec.Topic,
			Journal:     rec.Journal,
			Year:        rec.Year,
			AuthorsJSON: aj,
		}

		if rec.PMID == "" {
			if err := tx.Create(&pub).Error; err != nil {
				return err
			}
			result = IngestResult{Outcome: OutcomeCreated, EntityID: pub.ID}
		} else {
			pmid := rec.PMID
			pub.PMID = &pmid

			var existing models.Publication
			err := tx.Where("pmid = ?", pmid).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Insert als Compare-and-Swap: verliert er das Rennen gegen
				// einen parallelen Writer, fällt er auf den Update-Pfad zurück.
				res := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "pmid"}},
					DoNothing: true,
				}).Create(&pub)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected > 0 {
					result = IngestResult{Outcome: OutcomeCreated, EntityID: pub.ID}
					break
				}
				if err := tx.Where("pmid = ?", pmid).First(&existing).Error; err != nil {
					return err
				}
				fallthrough
			case err == nil:
				if existing.ID != 0 {
					r, err := s.mergePublication(tx, &existing, &rec, aj)
					if err != nil {
						return err
					}
					result = r
				}
			default:
				return err
			}
		}

		if projectID > 0 {
			if err := attachProjectPublication(tx, projectID, result.EntityID, models.SourcePubMed); err != nil {
				return err
			}
		}
		return nil
	})
	return result, err
}

// mergePublication führt den Feld-Diff gegen den Bestand aus und schreibt
// nur, wenn sich tatsächlich etwas ändert (kein Timestamp-Churn bei No-Ops).
func (s *IngestService) mergePublication(tx *gorm.DB, existing *models.Publication, rec *models.PublicationRecord, aj datatypes.JSON) (IngestResult, error) {
	updates := map[string]interface{}{}
	if rec.Title != "" && rec.Title != existing.Title {
		updates["title"] = rec.Title
	}
	if rec.Topic != "" && rec.Topic != existing.Topic {
		updates["topic"] = rec.Topic
	}
	if rec.Journal != "" && rec.Journal != existing.Journal {
		updates["journal"] = rec.Journal
	}
	// Jahr: eingehendes NULL lässt den gespeicherten Wert stehen (COALESCE)
	if rec.Year != nil && (existing.Year == nil || *existing.Year != *rec.Year) {
		updates["year"] = *rec.Year
	}
	if len(aj) > 0 && !bytes.Equal(existing.AuthorsJSON, aj) {
		updates["authors_json"] = aj
	}

	if len(updates) == 0 {
		return IngestResult{Outcome: OutcomeNoOp, EntityID: existing.ID}, nil
	}
	if err := tx.Model(existing).Updates(updates).Error; err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Outcome: OutcomeUpdated, EntityID: existing.ID}, nil
}

// IngestPublicationBatch verarbeitet mehrere Publikationen und sammelt
// Validierungs-/Integritätsfehler statt abzubrechen.
func (s *IngestService) IngestPublicationBatch(ctx context.Context, recs []models.PublicationRecord, projectID uint) (IngestReport, error) {
	var report IngestReport
	for i, rec := range recs {
		res, err := s.IngestPublication(ctx, rec, projectID)
		if err != nil {
			if recoverable(err) {
				report.Failures = append(report.Failures, RecordFailure{Index: i, Key: rec.PMID, Err: err, Error: err.Error()})
				continue
			}
			return report, err
		}
		report.add(res)
	}
	return report, nil
}

// ---------- Grants (RePORTER) ----------

// IngestAward verarbeitet einen Award-Datensatz auf Core-Ebene inklusive
// aller Fiscal-Year-Slices. Natürlicher Schlüssel ist core_project_num;
// ohne ihn wird immer neu angelegt. projectID > 0 verdrahtet zusätzlich
// die Kante Projekt-Grant.
func (s *IngestService) IngestAward(ctx context.Context, rec models.AwardRecord, projectID uint) (IngestResult, error) {
	if rec.Status != "" && !models.ValidGrantStatus(rec.Status) {
		return IngestResult{}, invalidEnum("status", rec.Status)
	}
	icsJSON, err := stringsJSON(rec.FundingICs)
	if err != nil {
		return IngestResult{}, err
	}
	piJSON, err := stringsJSON(rec.PINames)
	if err != nil {
		return IngestResult{}, err
	}

	var result IngestResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grant := models.GrantAward{
			Agency:       rec.Agency,
			OrgName:      rec.OrgName,
			Status:       rec.Status,
			Mechanism:    rec.Mechanism,
			Title:        rec.Title,
			Abstract:     rec.Abstract,
			PINames:      piJSON,
			ProjectStart: rec.ProjectStart,
			ProjectEnd:   rec.ProjectEnd,
			FundingICs:   icsJSON,
		}
		if grant.Status == "" {
			grant.Status = models.GrantUnknown
		}

		if rec.CoreProjectNum == "" {
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
			result = IngestResult{Outcome: OutcomeCreated, EntityID: grant.ID}
		} else {
			core := rec.CoreProjectNum
			grant.CoreProjectNum = &core

			var existing models.GrantAward
			err := tx.Where("core_project_num = ?", core).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				res := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "core_project_num"}},
					DoNothing: true,
				}).Create(&grant)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected > 0 {
					result = IngestResult{Outcome: OutcomeCreated, EntityID: grant.ID}
					break
				}
				if err := tx.Where("core_project_num = ?", core).First(&existing).Error; err != nil {
					return err
				}
				fallthrough
			case err == nil:
				if existing.ID != 0 {
					r, err := s.mergeAward(tx, &existing, &rec, icsJSON, piJSON)
					if err != nil {
						return err
					}
					result = r
				}
			default:
				return err
			}
		}

		// Fiscal-Year-Slices: last-write-wins pro (grant_id, fiscal_year)
		slicesChanged, err := s.upsertFiscalYears(tx, result.EntityID, rec.FiscalYears)
		if err != nil {
			return err
		}
		if slicesChanged && result.Outcome == OutcomeNoOp {
			result.Outcome = OutcomeUpdated
		}

		if projectID > 0 {
			if err := attachProjectGrant(tx, projectID, result.EntityID, "funded", nil, ""); err != nil {
				return err
			}
		}
		return nil
	})
	return result, err
}

func (s *IngestService) mergeAward(tx *gorm.DB, existing *models.GrantAward, rec *models.AwardRecord, icsJSON, piJSON datatypes.JSON) (IngestResult, error) {
	updates := map[string]interface{}{}
	if rec.Agency != "" && rec.Agency != existing.Agency {
		updates["agency"] = rec.Agency
	}
	if rec.OrgName != "" && rec.OrgName != existing.OrgName {
		updates["org_name"] = rec.OrgName
	}
	if rec.Status != "" && rec.Status != existing.Status {
		updates["status"] = rec.Status
	}
	if rec.Mechanism != "" && rec.Mechanism != existing.Mechanism {
		updates["mechanism"] = rec.Mechanism
	}
	if rec.Title != "" && rec.Title != existing.Title {
		updates["title"] = rec.Title
	}
	if rec.Abstract != "" && rec.Abstract != existing.Abstract {
		updates["abstract"] = rec.Abstract
	}
	if len(piJSON) > 0 && !bytes.Equal(existing.PINames, piJSON) {
		updates["pi_names"] = piJSON
	}
	// Projektzeitraum: Spanne wächst, schrumpft aber nie
	if rec.ProjectStart != nil && (existing.ProjectStart == nil || rec.ProjectStart.Before(*existing.ProjectStart)) {
		updates["project_start"] = *rec.ProjectStart
	}
	if rec.ProjectEnd != nil && (existing.ProjectEnd == nil || rec.ProjectEnd.After(*existing.ProjectEnd)) {
		updates["project_end"] = *rec.ProjectEnd
	}
	if len(icsJSON) > 0 && !bytes.Equal(existing.FundingICs, icsJSON) {
		updates["funding_ics"] = icsJSON
	}

	if len(updates) == 0 {
		return IngestResult{Outcome: OutcomeNoOp, EntityID: existing.ID}, nil
	}
	if err := tx.Model(existing).Updates(updates).Error; err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Outcome: OutcomeUpdated, EntityID: existing.ID}, nil
}

// upsertFiscalYears schreibt Jahres-Slices idempotent; Rückgabe meldet,
// ob sich mindestens ein Slice tatsächlich geändert hat.
func (s *IngestService) upsertFiscalYears(tx *gorm.DB, grantID uint, facts []models.FiscalYearFact) (bool, error) {
	changed := false
	for _, fact := range facts {
		if fact.FiscalYear == 0 {
			continue
		}
		var existing models.GrantAwardYear
		err := tx.Where("grant_id = ? AND fiscal_year = ?", grantID, fact.FiscalYear).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			slice := models.GrantAwardYear{
				GrantID:     grantID,
				FiscalYear:  fact.FiscalYear,
				TotalCostFY: fact.TotalCostFY,
				ProjectNum:  fact.ProjectNum,
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "grant_id"}, {Name: "fiscal_year"}},
				DoUpdates: clause.AssignmentColumns([]string{"total_cost_fy", "project_num"}),
			}).Create(&slice)
			if res.Error != nil {
				return changed, res.Error
			}
			changed = true
		case err == nil:
			updates := map[string]interface{}{}
			if existing.TotalCostFY != fact.TotalCostFY {
				updates["total_cost_fy"] = fact.TotalCostFY
			}
			if fact.ProjectNum != "" && existing.ProjectNum != fact.ProjectNum {
				updates["project_num"] = fact.ProjectNum
			}
			if len(updates) > 0 {
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return changed, err
				}
				changed = true
			}
		default:
			return changed, err
		}
	}
	return changed, nil
}

// IngestAwardBatch verarbeitet mehrere Award-Datensätze.
func (s *IngestService) IngestAwardBatch(ctx context.Context, recs []models.AwardRecord, projectID uint) (IngestReport, error) {
	var report IngestReport
	for i, rec := range recs {
		res, err := s.IngestAward(ctx, rec, projectID)
		if err != nil {
			if recoverable(err) {
				report.Failures = append(report.Failures, RecordFailure{Index: i, Key: rec.CoreProjectNum, Err: err, Error: err.Error()})
				continue
			}
			return report, err
		}
		report.add(res)
	}
	return report, nil
}

// ---------- Opportunities (Grants.gov) ----------

// IngestOpportunity verarbeitet einen Grants.gov-Datensatz. Der natürliche
// Schlüssel grantsgov_id ist Pflicht; Treffer ohne ID lehnt schon die
// ETL-Seite ab, hier ist es ein ValidationError.
func (s *IngestService) IngestOpportunity(ctx context.Context, rec models.OpportunityRecord) (IngestResult, error) {
	if rec.GrantsGovID == "" {
		return IngestResult{}, &ValidationError{Field: "grantsgov_id", Value: "", Reason: "natural key required for opportunities"}
	}
	if rec.OppStatus != "" && !models.ValidOppStatus(rec.OppStatus) {
		return IngestResult{}, invalidEnum("opp_status", rec.OppStatus)
	}
	if rec.DocType != "" && !models.ValidDocType(rec.DocType) {
		return IngestResult{}, invalidEnum("doc_type", rec.DocType)
	}

	var cfdaJSON datatypes.JSON
	if rec.Detail != nil {
		var err error
		cfdaJSON, err = stringsJSON(rec.Detail.CFDANumbers)
		if err != nil {
			return IngestResult{}, err
		}
	}

	var result IngestResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FundingOpportunity
		err := tx.Where("grantsgov_id = ?", rec.GrantsGovID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			opp := opportunityFromRecord(&rec, cfdaJSON)
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "grantsgov_id"}},
				DoNothing: true,
			}).Create(&opp)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result = IngestResult{Outcome: OutcomeCreated, EntityID: opp.ID}
				return nil
			}
			if err := tx.Where("grantsgov_id = ?", rec.GrantsGovID).First(&existing).Error; err != nil {
				return err
			}
			fallthrough
		case err == nil:
			if existing.ID != 0 {
				r, err := s.mergeOpportunity(tx, &existing, &rec, cfdaJSON)
				if err != nil {
					return err
				}
				result = r
			}
			return nil
		default:
			return err
		}
	})
	return result, err
}

func opportunityFromRecord(rec *models.OpportunityRecord, cfdaJSON datatypes.JSON) models.FundingOpportunity {
	opp := models.FundingOpportunity{
		GrantsGovID:         rec.GrantsGovID,
		OpportunityNumber:   rec.OpportunityNumber,
		Title:               rec.Title,
		AgencyCode:          rec.AgencyCode,
		AgencyName:          rec.AgencyName,
		OppStatus:           rec.OppStatus,
		DocType:             rec.DocType,
		OpenDate:            rec.OpenDate,
		CloseDate:           rec.CloseDate,
		PostDate:            rec.PostDate,
		ArchiveDate:         rec.ArchiveDate,
		OpportunityCategory: rec.OpportunityCategory,
	}
	if rec.Detail != nil {
		opp.Description = rec.Detail.Description
		opp.AwardCeiling = rec.Detail.AwardCeiling
		opp.AwardFloor = rec.Detail.AwardFloor
		opp.CostSharing = rec.Detail.CostSharing
		opp.ApplicantEligibility = rec.Detail.ApplicantEligibility
		opp.AgencyContactName = rec.Detail.AgencyContactName
		opp.AgencyContactPhone = rec.Detail.AgencyContactPhone
		opp.AgencyContactEmail = rec.Detail.AgencyContactEmail
		opp.FundingDescLink = rec.Detail.FundingDescLink
		opp.CFDANumbers = cfdaJSON
		if rec.Detail.PostDate != nil {
			opp.PostDate = rec.Detail.PostDate
		}
		if rec.Detail.ArchiveDate != nil {
			opp.ArchiveDate = rec.Detail.ArchiveDate
		}
		if rec.Detail.OpportunityCategory != "" {
			opp.OpportunityCategory = rec.Detail.OpportunityCategory
		}
	}
	return opp
}

func (s *IngestService) mergeOpportunity(tx *gorm.DB, existing *models.FundingOpportunity, rec *models.OpportunityRecord, cfdaJSON datatypes.JSON) (IngestResult, error) {
	updates := map[string]interface{}{}
	setStr := func(col, incoming, stored string) {
		if incoming != "" && incoming != stored {
			updates[col] = incoming
		}
	}

	setStr("opportunity_number", rec.OpportunityNumber, existing.OpportunityNumber)
	setStr("title", rec.Title, existing.Title)
	setStr("agency_code", rec.AgencyCode, existing.AgencyCode)
	setStr("agency_name", rec.AgencyName, existing.AgencyName)
	setStr("opp_status", rec.OppStatus, existing.OppStatus)
	setStr("doc_type", rec.DocType, existing.DocType)

	// Kategorie und Post-/Archive-Datum: der Detail-Payload gewinnt gegen
	// den Suchtreffer (er trägt die ausgeschriebene Kategorie).
	category := rec.OpportunityCategory
	postDate := rec.PostDate
	archiveDate := rec.ArchiveDate
	if rec.Detail != nil {
		if rec.Detail.OpportunityCategory != "" {
			category = rec.Detail.OpportunityCategory
		}
		if rec.Detail.PostDate != nil {
			postDate = rec.Detail.PostDate
		}
		if rec.Detail.ArchiveDate != nil {
			archiveDate = rec.Detail.ArchiveDate
		}
	}
	setStr("opportunity_category", category, existing.OpportunityCategory)

	if rec.OpenDate != nil && (existing.OpenDate == nil || !existing.OpenDate.Equal(*rec.OpenDate)) {
		updates["open_date"] = *rec.OpenDate
	}
	if rec.CloseDate != nil && (existing.CloseDate == nil || !existing.CloseDate.Equal(*rec.CloseDate)) {
		updates["close_date"] = *rec.CloseDate
	}
	if postDate != nil && (existing.PostDate == nil || !existing.PostDate.Equal(*postDate)) {
		updates["post_date"] = *postDate
	}
	if archiveDate != nil && (existing.ArchiveDate == nil || !existing.ArchiveDate.Equal(*archiveDate)) {
		updates["archive_date"] = *archiveDate
	}

	if rec.Detail != nil {
		setStr("description", rec.Detail.Description, existing.Description)
		setStr("award_ceiling", rec.Detail.AwardCeiling, existing.AwardCeiling)
		setStr("award_floor", rec.Detail.AwardFloor, existing.AwardFloor)
		setStr("applicant_eligibility", rec.Detail.ApplicantEligibility, existing.ApplicantEligibility)
		setStr("agency_contact_name", rec.Detail.AgencyContactName, existing.AgencyContactName)
		setStr("agency_contact_phone", rec.Detail.AgencyContactPhone, existing.AgencyContactPhone)
		setStr("agency_contact_email", rec.Detail.AgencyContactEmail, existing.AgencyContactEmail)
		setStr("funding_desc_link", rec.Detail.FundingDescLink, existing.FundingDescLink)
		if rec.Detail.CostSharing != existing.CostSharing {
			updates["cost_sharing"] = rec.Detail.CostSharing
		}
		if len(cfdaJSON) > 0 && !bytes.Equal(existing.CFDANumbers, cfdaJSON) {
			updates["cfda_numbers"] = cfdaJSON
		}
	}

	if len(updates) == 0 {
		return IngestResult{Outcome: OutcomeNoOp, EntityID: existing.ID}, nil
	}
	if err := tx.Model(existing).Updates(updates).Error; err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Outcome: OutcomeUpdated, EntityID: existing.ID}, nil
}

// IngestOpportunityBatch verarbeitet mehrere Opportunities.
func (s *IngestService) IngestOpportunityBatch(ctx context.Context, recs []models.OpportunityRecord) (IngestReport, error) {
	var report IngestReport
	for i, rec := range recs {
		res, err := s.IngestOpportunity(ctx, rec)
		if err != nil {
			if recoverable(err) {
				report.Failures = append(report.Failures, RecordFailure{Index: i, Key: rec.GrantsGovID, Err: err, Error: err.Error()})
				continue
			}
			return report, err
		}
		report.add(res)
	}
	return report, nil
}

// ---------- Personen / Auto-Projekte ----------

// EnsurePerson sucht eine Person exakt über Vor- und Nachname und legt sie
// bei Bedarf an. Bewusst KEIN Fuzzy-Matching; Duplikate aus verschiedenen
// Quellen werden manuell bereinigt.
func (s *IngestService) EnsurePerson(ctx context.Context, first, last, affiliation, role string) (uint, error) {
	var person models.Person
	err := s.DB.WithContext(ctx).
		Where("first_name = ? AND last_name = ?", first, last).
		Order("id").
		First(&person).Error
	if err == nil {
		return person.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	person = models.Person{
		FirstName:   first,
		LastName:    last,
		FullName:    first + " " + last,
		Affiliation: affiliation,
		Role:        role,
	}
	if err := s.DB.WithContext(ctx).Create(&person).Error; err != nil {
		return 0, err
	}
	return person.ID, nil
}

// EnsureAutoProject liefert das Auto-Container-Projekt einer Person für
// aktuelle Publikationen und legt es bei Bedarf an (Stage analysis,
// Source pubmed), inklusive PI-Kante.
func (s *IngestService) EnsureAutoProject(ctx context.Context, personID uint, fullName string) (uint, error) {
	title := fmt.Sprintf("Auto: %s Recent Publications", fullName)

	var projectID uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Project
		err := tx.
			Joins("JOIN people_project_relation ppr ON ppr.project_id = projects.id").
			Where("projects.title = ? AND ppr.person_id = ?", title, personID).
			First(&existing).Error
		if err == nil {
			projectID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		project := models.Project{
			Title:    title,
			Abstract: "Auto-created container for recent publications",
			Stage:    models.StageAnalysis,
			Source:   models.SourcePubMed,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		projectID = project.ID
		return attachPersonProject(tx, personID, projectID, "PI")
	})
	return projectID, err
}
