package domain

// Product is one offering of the seller together with the signals that
// suggest a prospect needs it.
type Product struct {
	Category string   `yaml:"category" json:"category"`
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	// Pitch is a template; {company} and {headline} are substituted.
	Pitch string `yaml:"pitch" json:"pitch"`
	ROI   string `yaml:"roi" json:"roi"`
}

// Knowledge is the domain context given to both extraction paths.
type Knowledge struct {
	Seller   string    `yaml:"seller" json:"seller"`
	Products []Product `yaml:"products" json:"products"`
}

// EnrichReport counts per-article enrichment outcomes.
type EnrichReport struct {
	Attempted int `json:"attempted"`
	Resolved  int `json:"resolved"`
	Fallbacks int `json:"fallbacks"`
	Bodies    int `json:"bodies"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
