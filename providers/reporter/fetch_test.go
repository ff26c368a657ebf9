package reporter

import (
	"testing"
	"time"

	"pi-tracker/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestAggregateMergesSlicesPerCore(t *testing.T) {
	projects := []Project{
		{
			ProjectNum:       "5R01CA123456-03",
			CoreProjectNum:   "R01CA123456",
			FiscalYear:       2023,
			AwardAmount:      int64Ptr(510000),
			ActivityCode:     "R01",
			ProjectTitle:     "Titel aus FY2023",
			ProjectStartDate: "2021-04-01T00:00:00",
			ProjectEndDate:   "2099-03-31T00:00:00",
			AgencyICAdmin:    Agency{Abbreviation: "NCI"},
			Organization:     Organization{OrgName: "Example University"},
			PIs:              []PrincipalPI{{FullName: "Maria Keller"}},
		},
		{
			ProjectNum:       "1R01CA123456-01",
			CoreProjectNum:   "R01CA123456",
			FiscalYear:       2021,
			AwardAmount:      int64Ptr(480000),
			ProjectTitle:     "Alter Titel aus FY2021",
			ProjectStartDate: "2020-04-01T00:00:00",
			ProjectEndDate:   "2098-03-31T00:00:00",
		},
	}

	records := aggregate(projects)
	if len(records) != 1 {
		t.Fatalf("Awards = %d, erwartet 1", len(records))
	}
	rec := records[0]

	if rec.CoreProjectNum != "R01CA123456" {
		t.Fatalf("CoreProjectNum = %q", rec.CoreProjectNum)
	}
	// Kopf-Felder aus dem jüngsten Slice.
	if rec.Title != "Titel aus FY2023" {
		t.Fatalf("Title = %q", rec.Title)
	}
	if rec.Agency != "NCI" || rec.OrgName != "Example University" {
		t.Fatalf("Snapshot-Felder falsch: %+v", rec)
	}
	// Laufzeit ist die Hülle über beide Slices.
	wantStart := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2099, 3, 31, 0, 0, 0, 0, time.UTC)
	if rec.ProjectStart == nil || !rec.ProjectStart.Equal(wantStart) {
		t.Fatalf("ProjectStart = %v", rec.ProjectStart)
	}
	if rec.ProjectEnd == nil || !rec.ProjectEnd.Equal(wantEnd) {
		t.Fatalf("ProjectEnd = %v", rec.ProjectEnd)
	}
	// Jahres-Fakten aufsteigend sortiert.
	if len(rec.FiscalYears) != 2 {
		t.Fatalf("FiscalYears = %d", len(rec.FiscalYears))
	}
	if rec.FiscalYears[0].FiscalYear != 2021 || rec.FiscalYears[1].TotalCostFY != 510000 {
		t.Fatalf("FY-Fakten falsch: %+v", rec.FiscalYears)
	}
	if rec.Status != models.GrantActive {
		t.Fatalf("Status = %q, erwartet active (Ende in der Zukunft)", rec.Status)
	}
}

func TestAggregateSkipsRowsWithoutCore(t *testing.T) {
	records := aggregate([]Project{{FiscalYear: 2022}})
	if len(records) != 0 {
		t.Fatalf("Awards = %d, erwartet 0", len(records))
	}
}

func TestInferStatus(t *testing.T) {
	if got := inferStatus(nil); got != models.GrantUnknown {
		t.Fatalf("nil -> %q", got)
	}
	past := time.Now().AddDate(-1, 0, 0)
	if got := inferStatus(&past); got != models.GrantCompleted {
		t.Fatalf("vergangenes Ende -> %q", got)
	}
	future := time.Now().AddDate(1, 0, 0)
	if got := inferStatus(&future); got != models.GrantActive {
		t.Fatalf("zukünftiges Ende -> %q", got)
	}
}

func TestParseDateFormats(t *testing.T) {
	for _, s := range []string{"2023-09-01T00:00:00", "2023-09-01T00:00:00Z", "2023-09-01"} {
		got := parseDate(s)
		if got == nil || got.Year() != 2023 || got.Month() != 9 {
			t.Fatalf("parseDate(%q) = %v", s, got)
		}
	}
	if parseDate("") != nil || parseDate("09/01/2023") != nil {
		t.Fatal("ungültige Eingaben müssen nil liefern")
	}
}
