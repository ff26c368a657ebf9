package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pi-tracker/config"
	"pi-tracker/models"
	"pi-tracker/providers"
	"pi-tracker/providers/grantsgov"
	"pi-tracker/providers/pubmed"
	"pi-tracker/providers/reporter"
)

// FetchService orchestriert die externen Quellen: Provider holen und
// normalisieren, die Ingestion gleicht gegen den Bestand ab.
type FetchService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	PubMed    *pubmed.Fetcher
	Reporter  *reporter.Fetcher
	GrantsGov *grantsgov.Fetcher
	Ingest    *IngestService
	SearchLog *SearchLogService
}

// NewFetchService verdrahtet die Provider mit der Ingestion.
func NewFetchService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, searchLog *SearchLogService) *FetchService {
	svc := &FetchService{
		Config:    cfg,
		DB:        db,
		Logger:    logger,
		PubMed:    pubmed.New(cfg, logger),
		Reporter:  reporter.New(cfg, logger),
		GrantsGov: grantsgov.New(cfg, logger),
		Ingest:    &IngestService{DB: db, Logger: logger},
		SearchLog: searchLog,
	}

	names := make([]string, 0, 3)
	for _, src := range []providers.Source{svc.PubMed, svc.Reporter, svc.GrantsGov} {
		names = append(names, src.Name())
	}
	logger.Info("Provider registriert", zap.Strings("sources", names))
	return svc
}

// SyncFacultyPublications holt für jede Faculty-Person die neuesten
// PubMed-Publikationen in deren Auto-Projekt. Fehler einzelner Personen
// brechen den Lauf nicht ab.
func (f *FetchService) SyncFacultyPublications(ctx context.Context) (IngestReport, error) {
	var faculty []models.Person
	if err := f.DB.WithContext(ctx).Where("role = ?", "faculty").Order("id").Find(&faculty).Error; err != nil {
		return IngestReport{}, err
	}

	var total IngestReport
	for _, person := range faculty {
		report, err := f.SyncPersonPublications(ctx, person.ID)
		if err != nil {
			f.Logger.Error("Publikations-Sync für Person fehlgeschlagen",
				zap.Uint("person_id", person.ID),
				zap.String("name", person.DisplayName()),
				zap.Error(err))
			continue
		}
		total.Created += report.Created
		total.Updated += report.Updated
		total.NoOps += report.NoOps
		total.Failures = append(total.Failures, report.Failures...)
	}
	return total, nil
}

// SyncPersonPublications holt die neuesten Publikationen einer Person,
// legt ihr Auto-Projekt bei Bedarf an und verdrahtet pro Publikation die
// Autoren (Erstautor als PI, die übrigen als Co-I am Projekt).
func (f *FetchService) SyncPersonPublications(ctx context.Context, personID uint) (IngestReport, error) {
	var person models.Person
	if err := f.DB.WithContext(ctx).First(&person, personID).Error; err != nil {
		return IngestReport{}, err
	}

	fullName := person.DisplayName()
	records, err := f.PubMed.SearchByAuthor(ctx, fullName, person.Affiliation)
	if err != nil {
		return IngestReport{}, fmt.Errorf("PubMed-Suche für %s: %w", fullName, err)
	}
	if len(records) == 0 {
		return IngestReport{}, nil
	}

	projectID, err := f.Ingest.EnsureAutoProject(ctx, personID, fullName)
	if err != nil {
		return IngestReport{}, err
	}

	var report IngestReport
	for i, rec := range records {
		res, err := f.Ingest.IngestPublication(ctx, rec, projectID)
		if err != nil {
			if recoverable(err) {
				report.Failures = append(report.Failures, RecordFailure{Index: i, Key: rec.PMID, Err: err, Error: err.Error()})
				continue
			}
			return report, err
		}
		report.add(res)

		if err := f.linkAuthors(ctx, res.EntityID, projectID, rec.Authors); err != nil {
			f.Logger.Warn("Autoren-Verdrahtung fehlgeschlagen",
				zap.String("pmid", rec.PMID), zap.Error(err))
		}
	}

	f.Logger.Info("Publikations-Sync abgeschlossen",
		zap.String("person", fullName),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("noops", report.NoOps))
	return report, nil
}

// linkAuthors legt die Autoren als Personen an und verdrahtet sie mit
// Publikation und Projekt: Erstautor als PI, die übrigen als Co-I.
func (f *FetchService) linkAuthors(ctx context.Context, pubID, projectID uint, authors []models.Author) error {
	relations := &RelationService{DB: f.DB, Logger: f.Logger}

	for i, author := range authors {
		if author.Last == "" {
			continue
		}
		personID, err := f.Ingest.EnsurePerson(ctx, author.Fore, author.Last, author.Affiliation, "")
		if err != nil {
			return err
		}
		if err := relations.AttachAuthorToPublication(personID, pubID, i+1); err != nil {
			return err
		}

		role := "Co-I"
		if i == 0 {
			role = "PI"
		}
		if err := relations.AttachPersonToProject(personID, projectID, role); err != nil {
			return err
		}
	}
	return nil
}

// SyncFacultyAwards holt für jede Faculty-Person die NIH-Awards aus
// RePORTER. Die Awards werden ohne Projekt-Kante gespeichert; die
// Zuordnung zu Projekten bleibt ein manueller Schritt.
func (f *FetchService) SyncFacultyAwards(ctx context.Context) (IngestReport, error) {
	var faculty []models.Person
	if err := f.DB.WithContext(ctx).Where("role = ?", "faculty").Order("id").Find(&faculty).Error; err != nil {
		return IngestReport{}, err
	}

	var total IngestReport
	for _, person := range faculty {
		records, err := f.Reporter.SearchByPI(ctx, person.DisplayName())
		if err != nil {
			f.Logger.Error("RePORTER-Suche fehlgeschlagen",
				zap.String("name", person.DisplayName()), zap.Error(err))
			continue
		}
		report, err := f.Ingest.IngestAwardBatch(ctx, records, 0)
		if err != nil {
			return total, err
		}
		total.Created += report.Created
		total.Updated += report.Updated
		total.NoOps += report.NoOps
		total.Failures = append(total.Failures, report.Failures...)
	}
	return total, nil
}

// SyncAwardsForProject holt die Awards zu einer Volltextsuche und hängt
// sie als "funded" an das angegebene Projekt.
func (f *FetchService) SyncAwardsForProject(ctx context.Context, projectID uint, searchText string) (IngestReport, error) {
	records, err := f.Reporter.SearchByText(ctx, searchText)
	if err != nil {
		return IngestReport{}, err
	}
	return f.Ingest.IngestAwardBatch(ctx, records, projectID)
}

// SyncOpportunities führt eine Grants.gov-Suche aus, gleicht die Treffer
// ab und protokolliert die Suche inklusive Roh-Artefakt im Audit-Log.
// Mit withDetails werden die Detail-Payloads pro Treffer nachgeladen.
func (f *FetchService) SyncOpportunities(ctx context.Context, q grantsgov.Query, withDetails bool) (IngestReport, error) {
	result, err := f.GrantsGov.Search(ctx, q)
	if err != nil {
		return IngestReport{}, err
	}

	if withDetails {
		for i := range result.Records {
			detail, err := f.GrantsGov.FetchDetail(ctx, result.Records[i].GrantsGovID)
			if err != nil {
				f.Logger.Warn("Detail-Abruf fehlgeschlagen",
					zap.String("grantsgov_id", result.Records[i].GrantsGovID),
					zap.Error(err))
				continue
			}
			result.Records[i].Detail = detail
		}
	}

	report, err := f.Ingest.IngestOpportunityBatch(ctx, result.Records)
	if err != nil {
		return report, err
	}

	entry := models.SearchQuery{
		Keyword:        q.Keyword,
		Statuses:       strings.Join(q.Statuses, "|"),
		Agencies:       strings.Join(q.Agencies, "|"),
		Category:       q.Category,
		ALN:            q.ALN,
		RowsPerPage:    f.Config.GrantsGovRows,
		PagesRequested: result.Pages,
		TotalResults:   result.Total,
	}
	if _, err := f.SearchLog.Record(ctx, entry, result.Raw); err != nil {
		f.Logger.Warn("Such-Audit-Log konnte nicht geschrieben werden", zap.Error(err))
	}

	return report, nil
}

// RunScheduledSync ist der Cron-Einstieg: Publikationen und Awards für
// alle Faculty-Personen. Opportunity-Suchen laufen nur auf Anfrage, weil
// sie ein Keyword brauchen. Die Reports gehen an den Aufrufer, damit der
// auch geplante Läufe in den Metriken zählt.
func (f *FetchService) RunScheduledSync(ctx context.Context) (pubReport, awardReport IngestReport) {
	if report, err := f.SyncFacultyPublications(ctx); err != nil {
		f.Logger.Error("Geplanter Publikations-Sync fehlgeschlagen", zap.Error(err))
	} else {
		pubReport = report
		f.Logger.Info("Geplanter Publikations-Sync fertig",
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("noops", report.NoOps),
			zap.Int("failures", len(report.Failures)))
	}

	if report, err := f.SyncFacultyAwards(ctx); err != nil {
		f.Logger.Error("Geplanter Award-Sync fehlgeschlagen", zap.Error(err))
	} else {
		awardReport = report
		f.Logger.Info("Geplanter Award-Sync fertig",
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("noops", report.NoOps),
			zap.Int("failures", len(report.Failures)))
	}
	return pubReport, awardReport
}
