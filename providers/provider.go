package providers

// Source ist das gemeinsame Minimal-Interface der Fetcher (PubMed, RePORTER,
// Grants.gov). Die Record-Typen der Quellen sind zu verschieden für ein
// gemeinsames Search-Interface; jede Quelle exportiert ihre eigenen
// typisierten Fetch-Methoden.
type Source interface {
	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "pubmed").
	Name() string
}
