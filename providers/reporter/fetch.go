package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"pi-tracker/config"
	"pi-tracker/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// maxOffset ist die harte Paginierungsgrenze der RePORTER-API: Offsets
// ab 14999 liefern einen Fehler, unabhängig von der Trefferzahl.
const maxOffset = 14999

// Fetcher holt NIH-Awards über die RePORTER v2 API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// New erstellt einen neuen RePORTER-Fetcher.
func New(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "reporter"
}

// SearchByPI sucht alle Awards eines Principal Investigators.
func (f *Fetcher) SearchByPI(ctx context.Context, piName string) ([]models.AwardRecord, error) {
	return f.Search(ctx, SearchCriteria{PINames: []PIName{{AnyName: piName}}})
}

// SearchByText sucht Awards über die Volltextsuche in Titel, Abstract
// und Projekt-Terms.
func (f *Fetcher) SearchByText(ctx context.Context, text string) ([]models.AwardRecord, error) {
	return f.Search(ctx, SearchCriteria{
		AdvancedText: &TextSearch{
			Operator:    "and",
			SearchField: "projecttitle,abstracttext,terms",
			SearchText:  text,
		},
	})
}

// Search holt alle Projekt-Jahre zu den Kriterien und aggregiert sie zu
// einem AwardRecord pro Core-Projektnummer.
func (f *Fetcher) Search(ctx context.Context, criteria SearchCriteria) ([]models.AwardRecord, error) {
	pageSize := f.Config.ReporterPageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 500
	}

	var all []Project
	offset := 0
	for page := 0; page < f.Config.ReporterMaxPages; page++ {
		if offset > maxOffset {
			f.Logger.Warn("RePORTER-Offset-Grenze erreicht, Abbruch der Paginierung",
				zap.Int("offset", offset))
			break
		}

		resp, err := f.searchPage(ctx, criteria, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)

		offset += len(resp.Results)
		if len(resp.Results) == 0 || offset >= resp.Meta.Total {
			break
		}

		if f.Config.ReporterSleepSec > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(f.Config.ReporterSleepSec * float64(time.Second))):
			}
		}
	}

	records := aggregate(all)
	f.Logger.Info("RePORTER-Awards geladen",
		zap.Int("project_years", len(all)),
		zap.Int("awards", len(records)))
	return records, nil
}

func (f *Fetcher) searchPage(ctx context.Context, criteria SearchCriteria, offset, limit int) (*SearchResponse, error) {
	body, err := json.Marshal(SearchRequest{
		Criteria:  criteria,
		Offset:    offset,
		Limit:     limit,
		SortField: "fiscal_year",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/projects/search", f.Config.ReporterBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RePORTER-Request fehlgeschlagen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("RePORTER-Status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("RePORTER-Antwort ungültig: %w", err)
	}
	return &parsed, nil
}

// aggregate fasst Projekt-Jahre pro Core-Projektnummer zusammen. Die
// Kopf-Felder kommen aus dem jüngsten Fiscal-Year-Slice, die
// Projektlaufzeit ist die Hülle über alle Slices.
func aggregate(projects []Project) []models.AwardRecord {
	byCore := make(map[string]*models.AwardRecord)
	latestFY := make(map[string]int)
	var order []string

	for _, p := range projects {
		core := strings.TrimSpace(p.CoreProjectNum)
		if core == "" {
			core = strings.TrimSpace(p.ProjectNum)
		}
		if core == "" {
			continue
		}

		rec, ok := byCore[core]
		if !ok {
			rec = &models.AwardRecord{CoreProjectNum: core}
			byCore[core] = rec
			order = append(order, core)
		}

		start := parseDate(p.ProjectStartDate)
		end := parseDate(p.ProjectEndDate)
		if start != nil && (rec.ProjectStart == nil || start.Before(*rec.ProjectStart)) {
			rec.ProjectStart = start
		}
		if end != nil && (rec.ProjectEnd == nil || end.After(*rec.ProjectEnd)) {
			rec.ProjectEnd = end
		}

		if p.FiscalYear >= latestFY[core] {
			latestFY[core] = p.FiscalYear
			applySnapshot(rec, p)
		}

		if p.FiscalYear > 0 {
			var cost int64
			if p.AwardAmount != nil {
				cost = *p.AwardAmount
			}
			rec.FiscalYears = append(rec.FiscalYears, models.FiscalYearFact{
				FiscalYear:  p.FiscalYear,
				TotalCostFY: cost,
				ProjectNum:  p.ProjectNum,
			})
		}
	}

	records := make([]models.AwardRecord, 0, len(order))
	for _, core := range order {
		rec := byCore[core]
		rec.Status = inferStatus(rec.ProjectEnd)
		sort.Slice(rec.FiscalYears, func(i, j int) bool {
			return rec.FiscalYears[i].FiscalYear < rec.FiscalYears[j].FiscalYear
		})
		records = append(records, *rec)
	}
	return records
}

// applySnapshot übernimmt die Kopf-Felder aus einem Fiscal-Year-Slice.
func applySnapshot(rec *models.AwardRecord, p Project) {
	if p.AgencyICAdmin.Abbreviation != "" {
		rec.Agency = p.AgencyICAdmin.Abbreviation
	}
	if p.Organization.OrgName != "" {
		rec.OrgName = p.Organization.OrgName
	}
	if p.ActivityCode != "" {
		rec.Mechanism = p.ActivityCode
	}
	if p.ProjectTitle != "" {
		rec.Title = p.ProjectTitle
	}
	if p.AbstractText != "" {
		rec.Abstract = p.AbstractText
	}
	if len(p.AgencyICFundings) > 0 {
		ics := make([]string, 0, len(p.AgencyICFundings))
		for _, ic := range p.AgencyICFundings {
			if ic.Abbreviation != "" {
				ics = append(ics, ic.Abbreviation)
			}
		}
		rec.FundingICs = ics
	}
	if len(p.PIs) > 0 {
		names := make([]string, 0, len(p.PIs))
		for _, pi := range p.PIs {
			name := strings.TrimSpace(pi.FullName)
			if name == "" {
				name = strings.TrimSpace(pi.FirstName + " " + pi.LastName)
			}
			if name != "" {
				names = append(names, name)
			}
		}
		rec.PINames = names
	}
}

// inferStatus leitet den Award-Status aus dem Projektende ab: Ende in
// der Zukunft heißt aktiv, Ende in der Vergangenheit abgeschlossen.
func inferStatus(projectEnd *time.Time) string {
	if projectEnd == nil {
		return models.GrantUnknown
	}
	if projectEnd.After(time.Now()) {
		return models.GrantActive
	}
	return models.GrantCompleted
}

// parseDate parst die RePORTER-Datumsformate (ISO mit und ohne Zeitanteil).
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
