package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"pi-tracker/config"
	"pi-tracker/models"
)

const syncArticleXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>39012345</PMID>
      <Article>
        <ArticleTitle>Vascular Stiffness in Aging Cohorts</ArticleTitle>
        <Journal>
          <Title>Circulation Research</Title>
          <JournalIssue><PubDate><Year>2024</Year></PubDate></JournalIssue>
        </Journal>
        <AuthorList>
          <Author><LastName>Nowak</LastName><ForeName>Ada</ForeName></Author>
          <Author><LastName>Herzog</LastName><ForeName>Paul</ForeName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

const syncReporterJSON = `{
  "meta": {"total": 1},
  "results": [{
    "project_num": "5R01HL123456-03",
    "core_project_num": "R01HL123456",
    "fiscal_year": 2024,
    "award_amount": 450000,
    "activity_code": "R01",
    "project_title": "Vascular Remodeling in Hypertension",
    "organization": {"org_name": "Example University"},
    "agency_ic_admin": {"abbreviation": "NHLBI"},
    "principal_investigators": [{"full_name": "Nowak, Ada"}]
  }]
}`

// Der geplante Lauf muss seine Reports an den Aufrufer liefern, damit
// Cron-Syncs genauso in den Zählern landen wie die On-Demand-Trigger.
func TestRunScheduledSyncReturnsReportsPerSource(t *testing.T) {
	db := newTestDB(t)
	person := models.Person{FirstName: "Ada", LastName: "Nowak", FullName: "Nowak, Ada", Role: "faculty"}
	if err := db.Create(&person).Error; err != nil {
		t.Fatalf("Person anlegen: %v", err)
	}

	pubmedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "esearch") {
			fmt.Fprint(w, `{"esearchresult":{"count":"1","retmax":"1","idlist":["39012345"]}}`)
			return
		}
		fmt.Fprint(w, syncArticleXML)
	}))
	defer pubmedSrv.Close()

	reporterSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, syncReporterJSON)
	}))
	defer reporterSrv.Close()

	cfg := &config.Config{
		PubMedBaseURL:    pubmedSrv.URL,
		PubMedRetMax:     5,
		ReporterBaseURL:  reporterSrv.URL,
		ReporterPageSize: 10,
		ReporterMaxPages: 1,
	}
	svc := NewFetchService(cfg, db, zap.NewNop(), nil)

	pubReport, awardReport := svc.RunScheduledSync(context.Background())
	if pubReport.Created != 1 {
		t.Fatalf("Publikations-Report Created = %d, erwartet 1", pubReport.Created)
	}
	if awardReport.Created != 1 {
		t.Fatalf("Award-Report Created = %d, erwartet 1", awardReport.Created)
	}

	var grant models.GrantAward
	if err := db.Where("core_project_num = ?", "R01HL123456").First(&grant).Error; err != nil {
		t.Fatalf("Grant fehlt: %v", err)
	}
	if grant.Title != "Vascular Remodeling in Hypertension" {
		t.Fatalf("Title = %q", grant.Title)
	}
	if len(grant.PINames) == 0 {
		t.Fatalf("PINames leer")
	}
}
