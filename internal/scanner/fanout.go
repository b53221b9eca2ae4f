package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"LeadScanner/internal/domain"
)

// Job binds a strategy to one request under a human-readable label.
type Job struct {
	Label   string
	Scanner Scanner
	Request Request
}

// Failure records one isolated source failure.
type Failure struct {
	Label string
	Err   error
}

// Outcome is the settled result of a fan-out.
type Outcome struct {
	Articles []domain.Article
	Failures []Failure
}

// FanOut runs every job concurrently and settles all of them. Failed jobs are
// logged and excluded; successful results are concatenated in job order, not
// completion order. It never returns an error.
func FanOut(ctx context.Context, logger *slog.Logger, jobs []Job) Outcome {
	results := make([][]domain.Article, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			results[i], errs[i] = runJob(ctx, job)
			return nil // non-fatal
		})
	}
	_ = g.Wait()

	var out Outcome
	for i, job := range jobs {
		if errs[i] != nil {
			if logger != nil {
				logger.Warn("source failed", "source", job.Label, "error", errs[i])
			}
			out.Failures = append(out.Failures, Failure{Label: job.Label, Err: errs[i]})
			continue
		}
		out.Articles = append(out.Articles, results[i]...)
	}

	return out
}

func runJob(ctx context.Context, job Job) (articles []domain.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles = nil
			err = fmt.Errorf("%w: %s panicked: %v", domain.ErrSourceFailure, job.Label, r)
		}
	}()

	if job.Scanner == nil {
		return nil, fmt.Errorf("%w: %s has no scanner", domain.ErrSourceFailure, job.Label)
	}

	found, err := job.Scanner.Scan(ctx, job.Request)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceFailure, job.Label, err)
	}

	accepted := make([]domain.Article, 0, len(found))
	for _, article := range found {
		if !article.Valid() {
			continue
		}
		if article.Source == "" {
			article.Source = job.Request.SiteName
		}
		accepted = append(accepted, article)
		if job.Request.MaxItems > 0 && len(accepted) == job.Request.MaxItems {
			break
		}
	}
	return accepted, nil
}
