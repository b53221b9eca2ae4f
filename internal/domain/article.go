package domain

// Article is a discovered news item flowing through the pipeline.
type Article struct {
	Title       string
	Link        string
	Source      string
	PublishedAt string
	Query       string
	Content     string
	ResolvedURL bool
	HasBody     bool
}

// Valid reports whether the article carries the fields every stage relies on.
func (a Article) Valid() bool {
	return a.Title != "" && a.Link != ""
}

// ArticleRefs returns pointers into the slice so sequential stages share ownership.
func ArticleRefs(articles []Article) []*Article {
	refs := make([]*Article, len(articles))
	for i := range articles {
		refs[i] = &articles[i]
	}
	return refs
}

// EnrichmentStatus enumerates what happened to an article during enrichment.
type EnrichmentStatus string

const (
	EnrichSkipped    EnrichmentStatus = "skipped"
	EnrichFetched    EnrichmentStatus = "fetched"
	EnrichEmpty      EnrichmentStatus = "empty"
	EnrichAggregator EnrichmentStatus = "aggregator"
	EnrichFailed     EnrichmentStatus = "failed"
)
