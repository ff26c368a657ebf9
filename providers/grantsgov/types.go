package grantsgov

import "encoding/json"

// searchRequest ist der POST-Body für den search2-Endpunkt.
type searchRequest struct {
	Rows              int    `json:"rows"`
	StartRecordNum    int    `json:"startRecordNum"`
	Keyword           string `json:"keyword,omitempty"`
	OppStatuses       string `json:"oppStatuses,omitempty"`
	Agencies          string `json:"agencies,omitempty"`
	ALN               string `json:"aln,omitempty"`
	FundingCategories string `json:"fundingCategories,omitempty"`
}

// searchResponse ist die Antwort des search2-Endpunkts.
type searchResponse struct {
	ErrorCode int        `json:"errorcode"`
	Msg       string     `json:"msg"`
	Data      searchData `json:"data"`
}

type searchData struct {
	HitCount    int      `json:"hitCount"`
	StartRecord int      `json:"startRecord"`
	OppHits     []OppHit `json:"oppHits"`
}

// OppHit ist ein einzelner Suchtreffer. Treffer ohne id sind Altlasten
// im Index und werden übersprungen.
type OppHit struct {
	ID                  json.Number `json:"id"`
	Number              string      `json:"number"`
	Title               string      `json:"title"`
	AgencyCode          string      `json:"agencyCode"`
	Agency              string      `json:"agency"`
	OppStatus           string      `json:"oppStatus"`
	DocType             string      `json:"docType"`
	OpenDate            string      `json:"openDate"`
	CloseDate           string      `json:"closeDate"`
	PostDate            string      `json:"postDate"`
	ArchiveDate         string      `json:"archiveDate"`
	OpportunityCategory string      `json:"opportunityCategory"`
}

// fetchRequest ist der POST-Body für den fetchOpportunity-Endpunkt.
type fetchRequest struct {
	OpportunityID string `json:"opportunityId"`
}

// fetchResponse ist die Antwort des fetchOpportunity-Endpunkts.
type fetchResponse struct {
	ErrorCode int       `json:"errorcode"`
	Data      fetchData `json:"data"`
}

type fetchData struct {
	Synopsis            *synopsis           `json:"synopsis"`
	Forecast            *synopsis           `json:"forecast"`
	CFDAs               []cfda              `json:"cfdas"`
	OpportunityCategory opportunityCategory `json:"opportunityCategory"`
	PostDate            string              `json:"postingDate"`
	ArchiveDate         string              `json:"archiveDate"`
}

// synopsis trägt die Detailfelder; Forecast-Opportunities liefern
// dieselbe Struktur unter einem anderen Schlüssel.
type synopsis struct {
	SynopsisDesc             string `json:"synopsisDesc"`
	ForecastDesc             string `json:"forecastDesc"`
	AwardCeiling             string `json:"awardCeiling"`
	AwardFloor               string `json:"awardFloor"`
	CostSharing              string `json:"costSharing"`
	ApplicantEligibilityDesc string `json:"applicantEligibilityDesc"`
	AgencyContactName        string `json:"agencyContactName"`
	AgencyContactPhone       string `json:"agencyContactPhone"`
	AgencyContactEmail       string `json:"agencyContactEmail"`
	FundingDescLinkURL       string `json:"fundingDescLinkUrl"`
	PostingDate              string `json:"postingDate"`
	ArchiveDate              string `json:"archiveDate"`
}

type cfda struct {
	CFDANumber string `json:"cfdaNumber"`
}

type opportunityCategory struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}
