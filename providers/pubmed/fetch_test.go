package pubmed

import (
	"encoding/xml"
	"testing"
)

const sampleArticle = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>38012345</PMID>
      <Article>
        <Journal>
          <Title>The Lancet Oncology</Title>
          <JournalIssue>
            <PubDate><MedlineDate>2024 Jan-Feb</MedlineDate></PubDate>
          </JournalIssue>
        </Journal>
        <ArticleTitle>Imaging biomarkers in early-stage disease</ArticleTitle>
        <AuthorList>
          <Author>
            <LastName>Keller</LastName>
            <ForeName>Maria</ForeName>
            <Initials>M</Initials>
            <AffiliationInfo><Affiliation>Example University Hospital</Affiliation></AffiliationInfo>
          </Author>
          <Author>
            <CollectiveName>IMAGING Study Group</CollectiveName>
          </Author>
        </AuthorList>
      </Article>
      <KeywordList>
        <Keyword>imaging</Keyword>
        <Keyword>biomarkers</Keyword>
        <Keyword>screening</Keyword>
        <Keyword>oncology</Keyword>
      </KeywordList>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestNormalizeArticle(t *testing.T) {
	var set ArticleSet
	if err := xml.Unmarshal([]byte(sampleArticle), &set); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(set.Articles) != 1 {
		t.Fatalf("Artikel = %d", len(set.Articles))
	}

	rec := normalizeArticle(set.Articles[0])
	if rec.PMID != "38012345" {
		t.Fatalf("PMID = %q", rec.PMID)
	}
	if rec.Title != "Imaging biomarkers in early-stage disease" {
		t.Fatalf("Title = %q", rec.Title)
	}
	if rec.Journal != "The Lancet Oncology" {
		t.Fatalf("Journal = %q", rec.Journal)
	}
	// Jahr aus dem freien MedlineDate extrahiert.
	if rec.Year == nil || *rec.Year != 2024 {
		t.Fatalf("Year = %v", rec.Year)
	}
	// Topic aus den ersten drei Keywords.
	if rec.Topic != "imaging, biomarkers, screening" {
		t.Fatalf("Topic = %q", rec.Topic)
	}

	if len(rec.Authors) != 2 {
		t.Fatalf("Autoren = %d", len(rec.Authors))
	}
	if rec.Authors[0].Last != "Keller" || rec.Authors[0].Affiliation != "Example University Hospital" {
		t.Fatalf("Erstautor falsch: %+v", rec.Authors[0])
	}
	// Kollektivautoren landen im Last-Feld.
	if rec.Authors[1].Last != "IMAGING Study Group" {
		t.Fatalf("Kollektivautor falsch: %+v", rec.Authors[1])
	}
}

func TestParseYear(t *testing.T) {
	if y := parseYear(PubDate{Year: "2019"}); y != 2019 {
		t.Fatalf("Year = %d", y)
	}
	if y := parseYear(PubDate{MedlineDate: "Winter 2021"}); y != 2021 {
		t.Fatalf("MedlineDate = %d", y)
	}
	if y := parseYear(PubDate{}); y != 0 {
		t.Fatalf("leeres PubDate = %d", y)
	}
}
