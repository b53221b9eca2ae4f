package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"LeadScanner/internal/domain"
)

// QueryFunc fetches articles for a single search term.
type QueryFunc func(ctx context.Context, query string) ([]domain.Article, error)

// EachQuery runs fn for every non-blank term concurrently, caps each term at
// perQuery items, tags articles with their term and merges them in term order.
// It fails only when every term failed.
func EachQuery(ctx context.Context, queries []string, perQuery int, fn QueryFunc) ([]domain.Article, error) {
	terms := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			terms = append(terms, q)
		}
	}
	if len(terms) == 0 {
		return nil, errors.New("no search terms")
	}

	results := make([][]domain.Article, len(terms))
	errs := make([]error, len(terms))

	var g errgroup.Group
	for i, term := range terms {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = nil
					errs[i] = fmt.Errorf("query %q panicked: %v", term, r)
				}
			}()

			found, err := fn(ctx, term)
			if err != nil {
				errs[i] = err
				return nil
			}
			if perQuery > 0 && len(found) > perQuery {
				found = found[:perQuery]
			}
			for j := range found {
				if found[j].Query == "" {
					found[j].Query = term
				}
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged []domain.Article
		failed []error
	)
	for i := range terms {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		merged = append(merged, results[i]...)
	}
	if len(failed) == len(terms) {
		return nil, errors.Join(failed...)
	}
	return merged, nil
}
