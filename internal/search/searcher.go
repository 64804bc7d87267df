// Package search discovers and scores candidate sources for fact verification.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/incidentcheck/internal/cache"
	"github.com/ppiankov/incidentcheck/internal/model"
)

// Options tunes source discovery
type Options struct {
	MaxResultsPerQuery int           // Results kept per query
	MinReliability     float64       // Results scoring below are dropped
	QueryDelay         time.Duration // Pause between provider calls
	Cache              cache.Cache   // Optional; keyed by (query, count)
	CacheTTL           time.Duration
	Logger             *slog.Logger
}

// DefaultOptions returns 5 results per query, 0.6 minimum reliability and a 200ms delay
func DefaultOptions() Options {
	return Options{
		MaxResultsPerQuery: 5,
		MinReliability:     0.6,
		QueryDelay:         200 * time.Millisecond,
		CacheTTL:           time.Hour,
	}
}

// Searcher runs queries sequentially and turns hits into scored source records
type Searcher struct {
	client WebSearcher
	scorer *ReliabilityScorer
	opts   Options
	pacer  *rate.Limiter
	now    func() time.Time
	logger *slog.Logger
}

// NewSearcher creates a searcher
func NewSearcher(client WebSearcher, scorer *ReliabilityScorer, opts Options) *Searcher {
	if opts.MaxResultsPerQuery <= 0 {
		opts.MaxResultsPerQuery = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limit := rate.Inf
	if opts.QueryDelay > 0 {
		limit = rate.Every(opts.QueryDelay)
	}

	return &Searcher{
		client: client,
		scorer: scorer,
		opts:   opts,
		pacer:  rate.NewLimiter(limit, 1),
		now:    time.Now,
		logger: opts.Logger,
	}
}

// FindSources searches every query and returns sources deduplicated by URL,
// in discovery order. A failing query is skipped; only when every query
// fails is the last error returned.
func (s *Searcher) FindSources(ctx context.Context, queries []string) ([]model.SourceRecord, error) {
	seenQuery := make(map[string]bool)
	seenURL := make(map[string]bool)
	var sources []model.SourceRecord

	attempted, failed := 0, 0
	var lastErr error

	for _, q := range queries {
		q = strings.Join(strings.Fields(q), " ")
		key := strings.ToLower(q)
		if q == "" || seenQuery[key] {
			continue
		}
		seenQuery[key] = true
		attempted++

		results, err := s.search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return sources, ctx.Err()
			}
			failed++
			lastErr = err
			s.logger.Warn("search query failed, skipping",
				slog.String("query", q),
				slog.String("error", err.Error()))
			continue
		}

		now := s.now()
		kept := 0
		for _, r := range results {
			record := s.toRecord(r, now)
			if record.URL == "" || record.Reliability < s.opts.MinReliability {
				continue
			}
			if seenURL[record.URL] {
				continue
			}
			seenURL[record.URL] = true
			sources = append(sources, record)
			kept++
		}
		s.logger.Debug("search query done",
			slog.String("query", q),
			slog.Int("results", len(results)),
			slog.Int("kept", kept))
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("all %d search queries failed: %w", attempted, lastErr)
	}
	return sources, nil
}

// search returns at most MaxResultsPerQuery hits, from cache when possible
func (s *Searcher) search(ctx context.Context, query string) ([]WebResult, error) {
	count := s.opts.MaxResultsPerQuery
	key := cache.Key("search", query, strconv.Itoa(count))

	var results []WebResult
	if cache.GetJSON(s.opts.Cache, key, &results) {
		s.logger.Debug("search cache hit", slog.String("query", query))
		return results, nil
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	results, err := s.client.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}
	if len(results) > count {
		results = results[:count]
	}

	if err := cache.SetJSON(s.opts.Cache, key, results, s.opts.CacheTTL); err != nil {
		s.logger.Warn("search cache write failed", slog.String("error", err.Error()))
	}
	return results, nil
}

func (s *Searcher) toRecord(r WebResult, now time.Time) model.SourceRecord {
	record := model.SourceRecord{
		URL:         strings.TrimSpace(r.URL),
		Title:       StripHTML(r.Title),
		Snippet:     StripHTML(r.Description),
		Domain:      ResultDomain(r),
		Reliability: s.scorer.Score(r, now),
	}
	if published, ok := ParseAge(r.Age, now); ok {
		record.PublishDate = &published
	}
	return record
}
