package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pi-tracker/config"
	"pi-tracker/models"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Fetcher holt Publikationen über die NCBI eUtils API (eSearch + eFetch).
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// New erstellt einen neuen PubMed-Fetcher.
func New(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen der Quelle zurück.
func (f *Fetcher) Name() string {
	return "pubmed"
}

// SearchByAuthor sucht die neuesten Publikationen eines Autors. Die
// Affiliation schränkt die Suche optional ein, um Namensvettern
// auszufiltern.
func (f *Fetcher) SearchByAuthor(ctx context.Context, fullName, affiliation string) ([]models.PublicationRecord, error) {
	term := fmt.Sprintf("%s[FAU]", fullName)
	if affiliation != "" {
		term = fmt.Sprintf("%s AND %s[AD]", term, affiliation)
	}
	return f.Search(ctx, term)
}

// Search führt eine eSearch-Anfrage aus und lädt die Treffer per eFetch
// nach. Sortiert wird nach Publikationsdatum, neueste zuerst.
func (f *Fetcher) Search(ctx context.Context, term string) ([]models.PublicationRecord, error) {
	ids, err := f.esearch(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		f.Logger.Info("Keine PubMed-Treffer", zap.String("term", term))
		return nil, nil
	}
	return f.efetch(ctx, ids)
}

func (f *Fetcher) esearch(ctx context.Context, term string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(f.Config.PubMedRetMax))
	params.Set("sort", "pub date")
	f.identify(params)

	endpoint := fmt.Sprintf("%s/esearch.fcgi?%s", f.Config.PubMedBaseURL, params.Encode())
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("esearch fehlgeschlagen: %w", err)
	}

	var resp ESearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("esearch-Antwort ungültig: %w", err)
	}
	return resp.ESearchResult.IDList, nil
}

func (f *Fetcher) efetch(ctx context.Context, ids []string) ([]models.PublicationRecord, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")
	f.identify(params)

	endpoint := fmt.Sprintf("%s/efetch.fcgi?%s", f.Config.PubMedBaseURL, params.Encode())
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("efetch fehlgeschlagen: %w", err)
	}

	var set ArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("efetch-XML ungültig: %w", err)
	}

	records := make([]models.PublicationRecord, 0, len(set.Articles))
	for _, article := range set.Articles {
		records = append(records, normalizeArticle(article))
	}
	f.Logger.Info("PubMed-Artikel geladen", zap.Int("count", len(records)))
	return records, nil
}

// identify hängt die NCBI-Identifikationsparameter an. Mit API-Key
// erlaubt NCBI 10 statt 3 Requests pro Sekunde.
func (f *Fetcher) identify(params url.Values) {
	if f.Config.PubMedAPIKey != "" {
		params.Set("api_key", f.Config.PubMedAPIKey)
	}
	if f.Config.PubMedEmail != "" {
		params.Set("email", f.Config.PubMedEmail)
	}
	if f.Config.PubMedTool != "" {
		params.Set("tool", f.Config.PubMedTool)
	}
}

func (f *Fetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unerwarteter Status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// normalizeArticle wandelt einen eFetch-Artikel in einen
// PublicationRecord um. Das Jahr wird notfalls aus dem freien
// MedlineDate extrahiert.
func normalizeArticle(article PubmedArticle) models.PublicationRecord {
	cit := article.MedlineCitation

	rec := models.PublicationRecord{
		PMID:    strings.TrimSpace(cit.PMID),
		Title:   strings.TrimSpace(cit.Article.ArticleTitle),
		Journal: strings.TrimSpace(cit.Article.Journal.Title),
		Topic:   extractTopic(cit),
	}

	if y := parseYear(cit.Article.Journal.JournalIssue.PubDate); y != 0 {
		year := y
		rec.Year = &year
	}

	for _, a := range cit.Article.Authors {
		if a.LastName == "" && a.CollectiveN == "" {
			continue
		}
		author := models.Author{
			Last:     a.LastName,
			Fore:     a.ForeName,
			Initials: a.Initials,
		}
		if a.LastName == "" {
			author.Last = a.CollectiveN
		}
		if len(a.Affiliations) > 0 {
			author.Affiliation = a.Affiliations[0].Affiliation
		}
		rec.Authors = append(rec.Authors, author)
	}

	return rec
}

func parseYear(pd PubDate) int {
	if pd.Year != "" {
		if y, err := strconv.Atoi(pd.Year); err == nil {
			return y
		}
	}
	if m := yearRe.FindString(pd.MedlineDate); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}

// extractTopic bildet aus den Autoren-Keywords (ersatzweise den
// MeSH-Deskriptoren) ein kurzes Themenfeld.
func extractTopic(cit MedlineCitation) string {
	var terms []string
	for _, list := range cit.KeywordLists {
		for _, kw := range list.Keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				terms = append(terms, kw)
			}
		}
	}
	if len(terms) == 0 {
		for _, mh := range cit.MeshHeadings {
			if d := strings.TrimSpace(mh.DescriptorName); d != "" {
				terms = append(terms, d)
			}
		}
	}
	if len(terms) > 3 {
		terms = terms[:3]
	}
	return strings.Join(terms, ", ")
}
