package sources

import (
	"context"
	"log/slog"

	"LeadScanner/internal/config"
	"LeadScanner/internal/ports"
	"LeadScanner/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
	onFail   func(source string)
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// OnFailure registers a hook called once per failed source (metrics).
func (s *StrategySource) OnFailure(fn func(source string)) {
	s.onFail = fn
}

// Fetch runs every configured site concurrently. A site whose strategy is
// unknown counts as a failed source; it never aborts the others.
func (s *StrategySource) Fetch(ctx context.Context, req ports.FetchRequest) ports.FetchReport {
	var report ports.FetchReport
	if s.registry == nil {
		s.warn("scanner registry is not configured")
		return report
	}

	s.debug("fetch sources", "sites", len(s.sites), "queries", len(req.Queries))

	jobs := make([]scanner.Job, 0, len(s.sites))
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			s.warn("skip site", "site", site.Name, "error", err)
			report.FailedSources = append(report.FailedSources, site.Name)
			s.failed(site.Name)
			continue
		}

		jobs = append(jobs, scanner.Job{
			Label:   site.Name,
			Scanner: strategy,
			Request: scanner.Request{
				SiteName:      site.Name,
				URL:           site.URL,
				Queries:       req.Queries,
				MaxItems:      req.MaxItems,
				PerQueryItems: req.PerQueryItems,
				Options:       site.Options,
			},
		})
	}

	outcome := scanner.FanOut(ctx, s.logger, jobs)
	for _, failure := range outcome.Failures {
		report.FailedSources = append(report.FailedSources, failure.Label)
		s.failed(failure.Label)
	}
	report.Articles = outcome.Articles

	s.debug("sources done", "total_articles", len(report.Articles), "failed", len(report.FailedSources))
	return report
}

func (s *StrategySource) failed(source string) {
	if s.onFail != nil {
		s.onFail(source)
	}
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
