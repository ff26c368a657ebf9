package grantsgov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pi-tracker/config"
	"pi-tracker/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher holt Ausschreibungen über die Grants.gov Search-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// New erstellt einen neuen Grants.gov-Fetcher.
func New(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "grants.gov"
}

// Query beschreibt eine Suche gegen search2. Statuses sind die
// Grants.gov-Statusnamen (posted, forecasted, closed, archived).
type Query struct {
	Keyword  string
	Statuses []string
	Agencies []string
	ALN      string
	Category string
}

// SearchResult bündelt die normalisierten Treffer einer Suche mit den
// Rohdaten (für das Such-Artefakt) und den Paginierungszahlen.
type SearchResult struct {
	Records []models.OpportunityRecord
	Raw     []byte
	Total   int
	Pages   int
}

// Search führt eine paginierte search2-Suche aus. Treffer ohne id
// werden mit einem Warn-Log übersprungen.
func (f *Fetcher) Search(ctx context.Context, q Query) (*SearchResult, error) {
	rows := f.Config.GrantsGovRows
	if rows <= 0 {
		rows = 50
	}

	result := &SearchResult{}
	var rawHits []OppHit

	for page := 0; page < f.Config.GrantsGovPages; page++ {
		data, err := f.searchPage(ctx, q, rows, page*rows)
		if err != nil {
			return nil, err
		}
		result.Total = data.HitCount
		result.Pages++

		for _, hit := range data.OppHits {
			if hit.ID.String() == "" {
				f.Logger.Warn("Grants.gov-Treffer ohne id übersprungen",
					zap.String("number", hit.Number))
				continue
			}
			rawHits = append(rawHits, hit)
			result.Records = append(result.Records, normalizeHit(hit))
		}

		if (page+1)*rows >= data.HitCount || len(data.OppHits) == 0 {
			break
		}
	}

	raw, err := json.Marshal(rawHits)
	if err != nil {
		return nil, err
	}
	result.Raw = raw

	f.Logger.Info("Grants.gov-Suche abgeschlossen",
		zap.String("keyword", q.Keyword),
		zap.Int("total", result.Total),
		zap.Int("fetched", len(result.Records)))
	return result, nil
}

func (f *Fetcher) searchPage(ctx context.Context, q Query, rows, start int) (*searchData, error) {
	body := searchRequest{
		Rows:              rows,
		StartRecordNum:    start,
		Keyword:           q.Keyword,
		OppStatuses:       strings.Join(q.Statuses, "|"),
		Agencies:          strings.Join(q.Agencies, "|"),
		ALN:               q.ALN,
		FundingCategories: q.Category,
	}

	var resp searchResponse
	if err := f.post(ctx, "search2", body, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != 0 {
		return nil, fmt.Errorf("Grants.gov-Fehlercode %d: %s", resp.ErrorCode, resp.Msg)
	}
	return &resp.Data, nil
}

// FetchDetail lädt den Detail-Payload einer Opportunity nach.
func (f *Fetcher) FetchDetail(ctx context.Context, grantsGovID string) (*models.OpportunityDetailRecord, error) {
	var resp fetchResponse
	if err := f.post(ctx, "fetchOpportunity", fetchRequest{OpportunityID: grantsGovID}, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != 0 {
		return nil, fmt.Errorf("Grants.gov-Fehlercode %d bei fetchOpportunity", resp.ErrorCode)
	}

	syn := resp.Data.Synopsis
	if syn == nil {
		syn = resp.Data.Forecast
	}
	if syn == nil {
		return nil, nil
	}

	detail := &models.OpportunityDetailRecord{
		Description:          firstNonEmpty(syn.SynopsisDesc, syn.ForecastDesc),
		AwardCeiling:         syn.AwardCeiling,
		AwardFloor:           syn.AwardFloor,
		CostSharing:          strings.EqualFold(syn.CostSharing, "yes") || strings.EqualFold(syn.CostSharing, "true"),
		ApplicantEligibility: syn.ApplicantEligibilityDesc,
		AgencyContactName:    syn.AgencyContactName,
		AgencyContactPhone:   syn.AgencyContactPhone,
		AgencyContactEmail:   syn.AgencyContactEmail,
		FundingDescLink:      syn.FundingDescLinkURL,
		PostDate:             parseUSDate(firstNonEmpty(syn.PostingDate, resp.Data.PostDate)),
		ArchiveDate:          parseUSDate(firstNonEmpty(syn.ArchiveDate, resp.Data.ArchiveDate)),
		OpportunityCategory:  resp.Data.OpportunityCategory.Description,
	}
	for _, c := range resp.Data.CFDAs {
		if c.CFDANumber != "" {
			detail.CFDANumbers = append(detail.CFDANumbers, c.CFDANumber)
		}
	}
	return detail, nil
}

func (f *Fetcher) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s", f.Config.GrantsGovBaseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Grants.gov-Request fehlgeschlagen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Grants.gov-Status %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("Grants.gov-Antwort ungültig: %w", err)
	}
	return nil
}

// normalizeHit wandelt einen Suchtreffer in einen OpportunityRecord um.
// Status- und Dokumenttyp werden auf die bekannte Domäne normalisiert.
func normalizeHit(hit OppHit) models.OpportunityRecord {
	return models.OpportunityRecord{
		GrantsGovID:         hit.ID.String(),
		OpportunityNumber:   hit.Number,
		Title:               hit.Title,
		AgencyCode:          hit.AgencyCode,
		AgencyName:          hit.Agency,
		OppStatus:           strings.ToLower(strings.TrimSpace(hit.OppStatus)),
		DocType:             normalizeDocType(hit.DocType),
		OpenDate:            parseUSDate(hit.OpenDate),
		CloseDate:           parseUSDate(hit.CloseDate),
		PostDate:            parseUSDate(hit.PostDate),
		ArchiveDate:         parseUSDate(hit.ArchiveDate),
		OpportunityCategory: strings.TrimSpace(hit.OpportunityCategory),
	}
}

func normalizeDocType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "synopsis":
		return models.DocSynopsis
	case "forecast":
		return models.DocForecast
	case "full announcement", "full_announcement":
		return models.DocFullAnnouncement
	default:
		return ""
	}
}

// parseUSDate parst das Grants.gov-Datumsformat MM/DD/YYYY.
func parseUSDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("01/02/2006", s)
	if err != nil {
		return nil
	}
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
