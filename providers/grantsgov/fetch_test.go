package grantsgov

import (
	"encoding/json"
	"testing"

	"pi-tracker/models"
)

func TestNormalizeHit(t *testing.T) {
	raw := []byte(`{
		"id": 356164,
		"number": "PAR-24-100",
		"title": "Innovative Approaches to Cancer Imaging",
		"agencyCode": "HHS-NIH11",
		"agency": "National Institutes of Health",
		"oppStatus": "Posted",
		"docType": "Full Announcement",
		"openDate": "01/15/2024",
		"closeDate": "05/07/2025",
		"postDate": "01/10/2024",
		"archiveDate": "06/06/2025",
		"opportunityCategory": "Discretionary"
	}`)
	var hit OppHit
	if err := json.Unmarshal(raw, &hit); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	rec := normalizeHit(hit)
	if rec.GrantsGovID != "356164" {
		t.Fatalf("GrantsGovID = %q", rec.GrantsGovID)
	}
	if rec.OppStatus != models.OppPosted {
		t.Fatalf("OppStatus = %q, erwartet posted", rec.OppStatus)
	}
	if rec.DocType != models.DocFullAnnouncement {
		t.Fatalf("DocType = %q", rec.DocType)
	}
	if rec.OpenDate == nil || rec.OpenDate.Year() != 2024 || rec.OpenDate.Month() != 1 || rec.OpenDate.Day() != 15 {
		t.Fatalf("OpenDate = %v", rec.OpenDate)
	}
	if rec.CloseDate == nil || rec.CloseDate.Year() != 2025 {
		t.Fatalf("CloseDate = %v", rec.CloseDate)
	}
	if rec.PostDate == nil || rec.PostDate.Month() != 1 || rec.PostDate.Day() != 10 {
		t.Fatalf("PostDate = %v", rec.PostDate)
	}
	if rec.ArchiveDate == nil || rec.ArchiveDate.Month() != 6 || rec.ArchiveDate.Day() != 6 {
		t.Fatalf("ArchiveDate = %v", rec.ArchiveDate)
	}
	if rec.OpportunityCategory != "Discretionary" {
		t.Fatalf("OpportunityCategory = %q", rec.OpportunityCategory)
	}
}

func TestNormalizeDocType(t *testing.T) {
	cases := map[string]string{
		"synopsis":          models.DocSynopsis,
		"Forecast":          models.DocForecast,
		"Full Announcement": models.DocFullAnnouncement,
		"full_announcement": models.DocFullAnnouncement,
		"modification":      "",
	}
	for in, want := range cases {
		if got := normalizeDocType(in); got != want {
			t.Fatalf("normalizeDocType(%q) = %q, erwartet %q", in, got, want)
		}
	}
}

func TestParseUSDate(t *testing.T) {
	if got := parseUSDate("12/31/2024"); got == nil || got.Month() != 12 || got.Day() != 31 {
		t.Fatalf("parseUSDate = %v", got)
	}
	for _, bad := range []string{"", "2024-12-31", "31/12/2024"} {
		if parseUSDate(bad) != nil {
			t.Fatalf("parseUSDate(%q) muss nil sein", bad)
		}
	}
}
