package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"LeadScanner/internal/deadline"
	"LeadScanner/internal/dedupe"
	"LeadScanner/internal/domain"
	"LeadScanner/internal/extractor"
	"LeadScanner/internal/ports"
	"LeadScanner/internal/retry"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Profile    ports.ProfileProvider
	Source     ports.ArticleSource
	Enricher   ports.Enricher
	Generator  ports.Generator
	Repository ports.LeadRepository
	Notifier   ports.Notifier
	Observer   ports.RunObserver
	Logger     *slog.Logger
	// Now overrides the clock; tests use it to burn budget deterministically.
	Now func() time.Time
}

// Pipeline implements the deadline-aware lead discovery workflow.
type Pipeline struct {
	profile    ports.ProfileProvider
	source     ports.ArticleSource
	enricher   ports.Enricher
	generator  ports.Generator
	repository ports.LeadRepository
	notifier   ports.Notifier
	observer   ports.RunObserver
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		profile:    deps.Profile,
		source:     deps.Source,
		enricher:   deps.Enricher,
		generator:  deps.Generator,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		observer:   deps.Observer,
		logger:     logger,
		now:        now,
	}
}

// run is the per-request state; it never outlives Run.
type run struct {
	req       Request
	deadline  deadline.Deadline
	knowledge domain.Knowledge
	articles  []domain.Article
	result    Result
	logger    *slog.Logger
}

// Run drives PROFILE -> FETCH -> ENRICH -> EXTRACT -> DONE against one soft
// deadline. Any state escapes to QUICK_FALLBACK when the remaining budget
// drops below the safety margin, and EXTRACT does so on timeout, generator
// failure or unusable output. Stage failures degrade locally; only Run
// decides the terminal outcome. The error is non-nil only for invalid
// requests.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	r := &run{
		req:       req.withDefaults(),
		deadline:  deadline.NewWithClock(req.SoftDeadline, p.now),
		knowledge: extractor.DefaultKnowledge(),
		result:    Result{RunID: uuid.NewString()},
	}
	r.logger = p.logger.With("run_id", r.result.RunID)

	state := StateProfile
	for state != StateDone {
		r.result.States = append(r.result.States, state)
		r.logger.Debug("pipeline state", "state", state, "remaining", r.deadline.Remaining())

		started := p.now()
		next := p.step(ctx, r, state)
		p.observeStage(state, p.now().Sub(started))
		state = next
	}
	r.result.States = append(r.result.States, StateDone)

	p.finish(ctx, r)
	return r.result, nil
}

func (p *Pipeline) step(ctx context.Context, r *run, state State) State {
	if state != StateQuickFallback && !r.deadline.HasAtLeast(r.req.SafetyMargin) {
		return p.escape(r, ReasonDeadline)
	}
	if state != StateQuickFallback && ctx.Err() != nil {
		return p.escape(r, ReasonDeadline)
	}

	switch state {
	case StateProfile:
		return p.loadProfile(ctx, r)
	case StateFetch:
		return p.fetch(ctx, r)
	case StateEnrich:
		return p.enrich(ctx, r)
	case StateExtract:
		return p.extract(ctx, r)
	case StateQuickFallback:
		return p.quickFallback(r)
	default:
		return StateDone
	}
}

func (p *Pipeline) escape(r *run, reason string) State {
	if r.result.FallbackReason == "" {
		r.result.FallbackReason = reason
	}
	return StateQuickFallback
}

func (p *Pipeline) loadProfile(ctx context.Context, r *run) State {
	if p.profile == nil {
		return StateFetch
	}
	knowledge, err := p.profile.Profile(ctx)
	if err != nil || len(knowledge.Products) == 0 {
		r.logger.Warn("profile unavailable, using default catalog", "error", err)
		return StateFetch
	}
	r.knowledge = knowledge
	return StateFetch
}

func (p *Pipeline) fetch(ctx context.Context, r *run) State {
	if p.source == nil {
		return p.noArticles(r)
	}

	fetchCtx, cancel := r.deadline.Context(ctx, r.req.SafetyMargin)
	report := p.source.Fetch(fetchCtx, ports.FetchRequest{
		Queries:       r.req.Queries,
		MaxItems:      r.req.MaxItems,
		PerQueryItems: r.req.PerQueryItems,
	})
	cancel()

	r.result.FailedSources = report.FailedSources
	for _, source := range report.FailedSources {
		p.observeSourceFailure(source)
	}

	r.articles = dedupe.Dedupe(report.Articles)
	r.result.ArticlesFound = len(report.Articles)
	r.result.ArticlesKept = len(r.articles)
	r.logger.Info("articles fetched", "found", len(report.Articles), "kept", len(r.articles), "failed_sources", len(report.FailedSources))

	if len(r.articles) == 0 {
		if !r.deadline.HasAtLeast(r.req.SafetyMargin) {
			return p.escape(r, ReasonDeadline)
		}
		return p.noArticles(r)
	}
	return StateEnrich
}

func (p *Pipeline) enrich(ctx context.Context, r *run) State {
	if p.enricher == nil {
		return StateExtract
	}

	enrichCtx, cancel := r.deadline.Context(ctx, r.req.SafetyMargin)
	report := p.enricher.Enrich(enrichCtx, domain.ArticleRefs(r.articles), ports.EnrichOptions{
		BatchSize:   r.req.BatchSize,
		Delay:       r.req.BatchDelay,
		ResolveURLs: r.req.ResolveURLs,
	})
	cancel()

	r.result.Enrichment = report
	if p.observer != nil {
		p.observer.ObserveEnrichment(report)
	}
	r.logger.Info("articles enriched", "attempted", report.Attempted, "bodies", report.Bodies, "resolved", report.Resolved, "fallback_links", report.Fallbacks)
	return StateExtract
}

func (p *Pipeline) extract(ctx context.Context, r *run) State {
	if p.generator == nil {
		return p.escape(r, ReasonNoGenerator)
	}

	budget := r.deadline.Remaining() - r.req.SafetyMargin
	if budget < r.req.MinExtractBudget {
		return p.escape(r, ReasonInsufficientTime)
	}

	prompt := extractor.BuildPrompt(r.articles, r.knowledge)
	policy := retry.Policy{Retries: 0, Timeout: budget, Label: "extract"}
	output, err := retry.Do(ctx, r.logger, policy, func(ctx context.Context) (string, error) {
		return p.generator.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, retry.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("extraction fell back", "error", fmt.Errorf("%w: %w", domain.ErrExtractionTimeout, err))
			return p.escape(r, ReasonExtractionTimeout)
		}
		r.logger.Warn("extraction fell back", "error", err)
		return p.escape(r, ReasonExtractionError)
	}

	raw, err := extractor.ParseLeads(output)
	if err != nil {
		r.logger.Warn("extraction fell back", "error", err)
		return p.escape(r, ReasonParseError)
	}

	leads := extractor.Normalize(raw, r.articles, domain.OriginAI)
	if len(leads) == 0 {
		r.logger.Warn("extraction fell back", "raw_leads", len(raw))
		return p.escape(r, ReasonEmptyExtraction)
	}

	r.result.Leads = leads
	r.result.Outcome = OutcomeOK
	return StateDone
}

func (p *Pipeline) quickFallback(r *run) State {
	if len(r.articles) == 0 {
		r.result.Outcome = OutcomeDeadlineExceeded
		r.result.Message = "The search ran out of time before any article was collected. Please try again."
		return StateDone
	}

	r.result.Leads = extractor.Heuristic(r.articles, r.knowledge)
	r.result.Outcome = OutcomeFallback
	if p.observer != nil {
		p.observer.ObserveFallback(r.result.FallbackReason)
	}
	r.logger.Info("heuristic leads produced", "reason", r.result.FallbackReason, "leads", len(r.result.Leads))
	return StateDone
}

func (p *Pipeline) noArticles(r *run) State {
	r.result.Outcome = OutcomeNoArticles
	r.result.Message = "No articles matched the search. Try broader queries."
	return StateDone
}

// finish hands leads to the collaborators. Their failures never change the outcome.
func (p *Pipeline) finish(ctx context.Context, r *run) {
	r.result.Elapsed = r.deadline.Elapsed()
	r.result.ElapsedMs = r.result.Elapsed.Milliseconds()
	if r.result.Leads == nil {
		r.result.Leads = []domain.LeadCandidate{}
	}

	if p.observer != nil {
		p.observer.ObserveRun(string(r.result.Outcome), r.result.Elapsed, r.result.Leads)
	}
	r.logger.Info("pipeline finished",
		"outcome", r.result.Outcome,
		"leads", len(r.result.Leads),
		"states", r.result.States,
		"elapsed", r.result.Elapsed)

	if len(r.result.Leads) == 0 {
		return
	}

	if p.repository != nil {
		if err := p.repository.EnsureSchema(ctx); err != nil {
			r.logger.Error("ensure lead schema", "error", err)
		} else if err := p.repository.SaveLeads(ctx, r.result.RunID, r.result.Leads); err != nil {
			r.logger.Error("persist leads", "error", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, BuildDigestMessage(r.result)); err != nil {
			r.logger.Error("publish digest", "error", err)
		}
	}
}

func (p *Pipeline) observeStage(state State, d time.Duration) {
	if p.observer != nil {
		p.observer.ObserveStage(string(state), d)
	}
}

func (p *Pipeline) observeSourceFailure(source string) {
	if p.observer != nil {
		p.observer.ObserveSourceFailure(source)
	}
}
