package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/extractor"
	"LeadScanner/internal/ports"
	"LeadScanner/internal/scanner"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSource struct {
	articles []domain.Article
	failed   []string
	onFetch  func()
}

func (f *fakeSource) Fetch(context.Context, ports.FetchRequest) ports.FetchReport {
	if f.onFetch != nil {
		f.onFetch()
	}
	return ports.FetchReport{Articles: append([]domain.Article(nil), f.articles...), FailedSources: f.failed}
}

// fanOutSource runs real scanner jobs so source isolation is exercised end to end.
type fanOutSource struct {
	jobs []scanner.Job
}

func (f fanOutSource) Fetch(ctx context.Context, _ ports.FetchRequest) ports.FetchReport {
	outcome := scanner.FanOut(ctx, nil, f.jobs)
	report := ports.FetchReport{Articles: outcome.Articles}
	for _, failure := range outcome.Failures {
		report.FailedSources = append(report.FailedSources, failure.Label)
	}
	return report
}

type brokenScanner struct{}

func (brokenScanner) Name() string { return "broken" }

func (brokenScanner) Scan(context.Context, scanner.Request) ([]domain.Article, error) {
	return nil, errors.New("connection refused")
}

type recordingEnricher struct {
	calls int
	opts  ports.EnrichOptions
}

func (e *recordingEnricher) Enrich(_ context.Context, articles []*domain.Article, opts ports.EnrichOptions) domain.EnrichReport {
	e.calls++
	e.opts = opts
	for _, a := range articles {
		a.Content = a.Content + " enriched"
	}
	return domain.EnrichReport{Attempted: len(articles)}
}

type fakeGenerator struct {
	delay  time.Duration
	output string
	err    error
	calls  int
	mu     sync.Mutex
}

func (g *fakeGenerator) Generate(ctx context.Context, _ string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.delay > 0 {
		// Ignores ctx on purpose: the pipeline must not depend on the generator honouring it.
		time.Sleep(g.delay)
	}
	return g.output, g.err
}

type memoryRepo struct {
	ensured int
	saved   map[string][]domain.LeadCandidate
}

func (m *memoryRepo) EnsureSchema(context.Context) error {
	m.ensured++
	return nil
}

func (m *memoryRepo) SaveLeads(_ context.Context, runID string, leads []domain.LeadCandidate) error {
	if m.saved == nil {
		m.saved = map[string][]domain.LeadCandidate{}
	}
	m.saved[runID] = leads
	return nil
}

type memoryNotifier struct{ digests []string }

func (m *memoryNotifier) PublishDigest(_ context.Context, digest string) error {
	m.digests = append(m.digests, digest)
	return nil
}

var sampleArticles = []domain.Article{
	{Title: "Acme Robotics opens new assembly plant", Link: "https://planet.example/acme", Source: "Planet"},
	{Title: "Acme Robotics opens new assembly plant  ", Link: "https://wire.example/acme", Source: "Wire"},
	{Title: "Globex hires 500 engineers for data platform", Link: "https://globex.example/press", Source: "Globex"},
}

const aiOutput = "```json\n" + `{"leads":[
  {"company":"Globex","summary":"Hiring spree","product":"Hiring Accelerator","score":72,"confidence":"MEDIUM",
   "sources":[{"title":"Globex hires","url":"https://globex.example/press"}]},
  {"company":"Acme Robotics","summary":"New plant","product":"Line Automation Suite","roi":"20% lower cost","score":97,"confidence":"HIGH",
   "sources":[{"url":"https://planet.example/acme"}]},
  {"company":"Ghost","product":"X","score":90,"confidence":"HIGH","sources":[{"url":"https://invented.example"}]}
]}` + "\n```"

func baseRequest() Request {
	return Request{
		Queries:          []string{"plant expansion"},
		SoftDeadline:     2 * time.Second,
		SafetyMargin:     50 * time.Millisecond,
		MinExtractBudget: 50 * time.Millisecond,
		BatchSize:        2,
		ResolveURLs:      true,
	}
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	enricher := &recordingEnricher{}
	repo := &memoryRepo{}
	notifier := &memoryNotifier{}
	p := NewPipeline(PipelineDeps{
		Source:     &fakeSource{articles: sampleArticles},
		Enricher:   enricher,
		Generator:  &fakeGenerator{output: aiOutput},
		Repository: repo,
		Notifier:   notifier,
	})

	res, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.NoError(t, res.Err())
	assert.Equal(t, []State{StateProfile, StateFetch, StateEnrich, StateExtract, StateDone}, res.States)
	assert.Equal(t, 3, res.ArticlesFound)
	assert.Equal(t, 2, res.ArticlesKept)
	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, ports.EnrichOptions{BatchSize: 2, ResolveURLs: true}, enricher.opts)

	require.Len(t, res.Leads, 2)
	assert.Equal(t, "Acme Robotics", res.Leads[0].Company)
	assert.Equal(t, 97, res.Leads[0].Score)
	assert.Equal(t, domain.GradeA, res.Leads[0].Grade)
	assert.NotEmpty(t, res.Leads[0].Assumptions)
	assert.Equal(t, "Globex", res.Leads[1].Company)
	assert.Equal(t, domain.OriginAI, res.Leads[1].Origin)

	assert.Equal(t, 1, repo.ensured)
	assert.Len(t, repo.saved[res.RunID], 2)
	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "Acme Robotics [A 97, HIGH]")
}

func TestRunNoArticlesWhenEverySourceFails(t *testing.T) {
	t.Parallel()

	jobs := []scanner.Job{
		{Label: "feed-a", Scanner: brokenScanner{}},
		{Label: "feed-b", Scanner: brokenScanner{}},
		{Label: "search", Scanner: brokenScanner{}},
	}
	gen := &fakeGenerator{output: aiOutput}
	p := NewPipeline(PipelineDeps{Source: fanOutSource{jobs: jobs}, Generator: gen})

	res, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoArticles, res.Outcome)
	assert.ErrorIs(t, res.Err(), domain.ErrNoArticlesFound)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.Leads)
	assert.ElementsMatch(t, []string{"feed-a", "feed-b", "search"}, res.FailedSources)
	assert.Equal(t, 0, gen.calls)
}

func TestRunPartialSourceFailure(t *testing.T) {
	t.Parallel()

	jobs := []scanner.Job{
		{Label: "down-1", Scanner: brokenScanner{}},
		{Label: "ok", Scanner: staticScanner{articles: sampleArticles[2:]}},
		{Label: "down-2", Scanner: brokenScanner{}},
	}
	p := NewPipeline(PipelineDeps{Source: fanOutSource{jobs: jobs}, Generator: &fakeGenerator{output: aiOutput}})

	res, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, 1, res.ArticlesKept)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Globex", res.Leads[0].Company)
}

type staticScanner struct{ articles []domain.Article }

func (staticScanner) Name() string { return "static" }

func (s staticScanner) Scan(context.Context, scanner.Request) ([]domain.Article, error) {
	return s.articles, nil
}

func TestRunSlowExtractorFallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	req := baseRequest()
	req.SoftDeadline = 300 * time.Millisecond
	req.SafetyMargin = 20 * time.Millisecond
	req.MinExtractBudget = 20 * time.Millisecond

	gen := &fakeGenerator{delay: 2 * time.Second, output: aiOutput}
	p := NewPipeline(PipelineDeps{Source: &fakeSource{articles: sampleArticles}, Generator: gen})

	started := time.Now()
	res, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, ReasonExtractionTimeout, res.FallbackReason)
	assert.Equal(t, []State{StateProfile, StateFetch, StateEnrich, StateExtract, StateQuickFallback, StateDone}, res.States)

	require.NotEmpty(t, res.Leads)
	known := map[string]bool{}
	for _, a := range sampleArticles {
		known[a.Link] = true
	}
	for _, lead := range res.Leads {
		assert.Equal(t, domain.OriginHeuristic, lead.Origin)
		require.NotEmpty(t, lead.Sources)
		for _, src := range lead.Sources {
			assert.True(t, known[src.URL], src.URL)
		}
	}
}

func TestRunDeadlineDegradation(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	req := baseRequest()
	req.SoftDeadline = 30 * time.Second
	req.SafetyMargin = time.Second

	enricher := &recordingEnricher{}
	gen := &fakeGenerator{output: aiOutput}
	p := NewPipeline(PipelineDeps{
		Source: &fakeSource{
			articles: sampleArticles,
			onFetch:  func() { clock.Advance(29*time.Second + 900*time.Millisecond) },
		},
		Enricher:  enricher,
		Generator: gen,
		Now:       clock.Now,
	})

	res, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, ReasonDeadline, res.FallbackReason)
	assert.Contains(t, res.States, StateQuickFallback)
	assert.NotContains(t, res.States, StateExtract)
	assert.NotEmpty(t, res.Leads)
	assert.Equal(t, 0, enricher.calls)
	assert.Equal(t, 0, gen.calls)
}

func TestRunDeadlineExceededWithoutArticles(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := NewPipeline(PipelineDeps{
		Source: &fakeSource{onFetch: func() { clock.Advance(time.Minute) }},
		Now:    clock.Now,
	})

	res, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeDeadlineExceeded, res.Outcome)
	assert.ErrorIs(t, res.Err(), domain.ErrDeadlineExceeded)
	assert.Empty(t, res.Leads)
}

func TestRunExtractorFailuresFallBack(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		gen    *fakeGenerator
		reason string
	}{
		"malformed": {gen: &fakeGenerator{output: "I could not find any leads, sorry."}, reason: ReasonParseError},
		"error":     {gen: &fakeGenerator{err: errors.New("503 from upstream")}, reason: ReasonExtractionError},
		"empty":     {gen: &fakeGenerator{output: `{"leads":[{"company":"Ghost","product":"X","score":90,"sources":[{"url":"https://invented.example"}]}]}`}, reason: ReasonEmptyExtraction},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := NewPipeline(PipelineDeps{Source: &fakeSource{articles: sampleArticles}, Generator: tc.gen})
			res, err := p.Run(context.Background(), baseRequest())
			require.NoError(t, err)

			assert.Equal(t, OutcomeFallback, res.Outcome)
			assert.Equal(t, tc.reason, res.FallbackReason)
			assert.NotEmpty(t, res.Leads)
			for _, l := range res.Leads {
				assert.Equal(t, domain.ConfidenceLow, l.Confidence)
				assert.LessOrEqual(t, l.Score, 65)
				assert.Equal(t, domain.GradeB, l.Grade)
			}
		})
	}
}

func TestRunWithoutGeneratorUsesHeuristic(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{Source: &fakeSource{articles: sampleArticles}})
	res, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, ReasonNoGenerator, res.FallbackReason)
}

type fixedProfile struct{ knowledge domain.Knowledge }

func (f fixedProfile) Profile(context.Context) (domain.Knowledge, error) {
	return f.knowledge, nil
}

func TestRunFallbackAlwaysYieldsLeads(t *testing.T) {
	t.Parallel()

	catalogs := map[string]domain.Knowledge{
		"unnamed product": {Products: []domain.Product{{Category: "Automation", Keywords: []string{"plant", "engineers"}}}},
		"no keywords":     {Products: []domain.Product{{Name: "Audit"}}},
		"static profile":  extractor.NewStaticProfile(domain.Knowledge{Products: []domain.Product{{Category: "Automation"}}}).Knowledge(),
	}
	for name, k := range catalogs {
		p := NewPipeline(PipelineDeps{Profile: fixedProfile{knowledge: k}, Source: &fakeSource{articles: sampleArticles}})

		res, err := p.Run(context.Background(), baseRequest())
		require.NoError(t, err, name)
		assert.Equal(t, OutcomeFallback, res.Outcome, name)
		assert.NotEmpty(t, res.Leads, name)
		for _, l := range res.Leads {
			assert.NotEmpty(t, l.Product, name)
		}
	}
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{})

	_, err := p.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = p.Run(context.Background(), Request{SoftDeadline: time.Second, SafetyMargin: 2 * time.Second})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRunNeverEmitsGradeC(t *testing.T) {
	t.Parallel()

	output := `[{"company":"Low","product":"P","score":30,"confidence":"HIGH","sources":[{"url":"https://globex.example/press"}]},
	           {"company":"Capped","product":"P","score":99,"confidence":"LOW","sources":[{"url":"https://globex.example/press"}]}]`
	p := NewPipeline(PipelineDeps{Source: &fakeSource{articles: sampleArticles}, Generator: &fakeGenerator{output: output}})

	res, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	require.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Capped", res.Leads[0].Company)
	assert.Equal(t, 65, res.Leads[0].Score)
	assert.Equal(t, domain.GradeB, res.Leads[0].Grade)
}
