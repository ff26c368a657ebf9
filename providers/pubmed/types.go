package pubmed

import "encoding/xml"

// ESearchResponse ist die JSON-Antwort des eSearch-Endpunkts.
type ESearchResponse struct {
	ESearchResult ESearchResult `json:"esearchresult"`
}

// ESearchResult enthält die Trefferliste einer eSearch-Anfrage.
type ESearchResult struct {
	Count  string   `json:"count"`
	RetMax string   `json:"retmax"`
	IDList []string `json:"idlist"`
}

// ArticleSet ist das Wurzelelement der eFetch-XML-Antwort.
type ArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle repräsentiert einen einzelnen Artikel aus eFetch.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
}

// MedlineCitation enthält PMID und Artikelmetadaten.
type MedlineCitation struct {
	PMID         string        `xml:"PMID"`
	Article      Article       `xml:"Article"`
	KeywordLists []KeywordList `xml:"KeywordList"`
	MeshHeadings []MeshHeading `xml:"MeshHeadingList>MeshHeading"`
}

// Article enthält Titel, Journal und Autorenliste.
type Article struct {
	ArticleTitle string   `xml:"ArticleTitle"`
	Journal      Journal  `xml:"Journal"`
	Authors      []Author `xml:"AuthorList>Author"`
}

// Journal enthält den Journalnamen und das Erscheinungsdatum.
type Journal struct {
	Title        string       `xml:"Title"`
	ISOAbbrev    string       `xml:"ISOAbbreviation"`
	JournalIssue JournalIssue `xml:"JournalIssue"`
}

// JournalIssue enthält das Publikationsdatum.
type JournalIssue struct {
	PubDate PubDate `xml:"PubDate"`
}

// PubDate kann entweder ein strukturiertes Jahr oder ein freies
// MedlineDate enthalten (z.B. "2023 Jan-Feb").
type PubDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}

// Author repräsentiert einen einzelnen Autor eines Artikels.
type Author struct {
	LastName     string            `xml:"LastName"`
	ForeName     string            `xml:"ForeName"`
	Initials     string            `xml:"Initials"`
	Affiliations []AffiliationInfo `xml:"AffiliationInfo"`
	CollectiveN  string            `xml:"CollectiveName"`
}

// AffiliationInfo enthält eine einzelne Affiliation eines Autors.
type AffiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

// KeywordList enthält die Autoren-Keywords eines Artikels.
type KeywordList struct {
	Keywords []string `xml:"Keyword"`
}

// MeshHeading enthält einen MeSH-Deskriptor.
type MeshHeading struct {
	DescriptorName string `xml:"DescriptorName"`
}
