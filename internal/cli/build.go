package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/incidentcheck/internal/cache"
	"github.com/ppiankov/incidentcheck/internal/corpus"
	"github.com/ppiankov/incidentcheck/internal/dedupe"
	"github.com/ppiankov/incidentcheck/internal/extract"
	"github.com/ppiankov/incidentcheck/internal/llm"
	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/pipeline"
	"github.com/ppiankov/incidentcheck/internal/ratelimit"
	"github.com/ppiankov/incidentcheck/internal/search"
	"github.com/ppiankov/incidentcheck/internal/verify"
)

// buildPipeline wires every stage the configuration enables. Stages whose
// dependencies are missing are left out and logged, never faked.
func buildPipeline(cfg *model.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var memCache cache.Cache
	if cfg.Cache.Enabled {
		memCache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
	}

	opts := pipeline.Options{
		MinConfidence: cfg.Validation.MinFactCheckConfidence,
		Logger:        logger,
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		logger.Warn("no LLM provider configured; duplication and fact checks disabled")
		return pipeline.NewPipeline(opts), nil
	}

	store, err := buildCorpus(cfg, memCache, logger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts.Duplication = dedupe.NewDetector(store, dedupe.NewLLMComparer(provider, cfg.LLM.Model), dedupe.Options{
			Dirs:      cfg.Corpus.Paths,
			Threshold: cfg.Validation.DuplicateSimilarityThreshold,
			Logger:    logger,
		})
	} else {
		logger.Warn("no corpus configured; duplication check disabled")
	}

	if !cfg.Validation.FactCheck {
		return pipeline.NewPipeline(opts), nil
	}

	caller := ratelimit.NewCaller(provider,
		ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.InputTokensPerMinute, cfg.RateLimit.MinInterval, cfg.RateLimit.Window, logger),
		retryPolicy(cfg.Retry),
		cfg.LLM.Timeout,
		logger,
	)

	opts.Extractor = extract.NewClaimExtractor(caller, extract.Options{
		MaxSearchQueries: cfg.Verify.MaxSearchQueries,
		LargeInputBytes:  cfg.Verify.LargeInputBytes,
		Model:            cfg.LLM.Model,
		Logger:           logger,
	})
	opts.Verifier = verify.NewVerifier(caller, verify.Options{
		ChunkSize:     cfg.Verify.ChunkSize,
		MinConfidence: cfg.Verify.MinConfidence,
		MaxSources:    cfg.Verify.MaxSources,
		SnippetChars:  cfg.Verify.SnippetChars,
		Model:         cfg.LLM.Model,
		Logger:        logger,
	})

	// Assigned only when non-nil so the interface stays nil otherwise
	searcher, err := buildSearcher(cfg, memCache, logger)
	if err != nil {
		return nil, err
	}
	if searcher != nil {
		opts.Searcher = searcher
	} else {
		logger.Warn("BRAVE_API_KEY not set; facts are verified without web sources")
	}

	return pipeline.NewPipeline(opts), nil
}

// buildCorpus prefers a local checkout over the GitHub API. It returns nil
// when neither is configured.
func buildCorpus(cfg *model.Config, c cache.Cache, logger *slog.Logger) (corpus.Store, error) {
	var store corpus.Store
	switch {
	case cfg.Corpus.Dir != "":
		store = corpus.NewDirStore(cfg.Corpus.Dir)
	case cfg.Corpus.GitHubRepo != "":
		gh, err := corpus.NewGitHubStore(corpus.GitHubConfig{
			Repo:       cfg.Corpus.GitHubRepo,
			Ref:        cfg.Corpus.GitHubRef,
			Token:      cfg.Corpus.GitHubToken,
			APIBase:    cfg.Corpus.GitHubAPI,
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    cfg.HTTP.Timeout,
			HTTPProxy:  cfg.HTTP.HTTPProxy,
			HTTPSProxy: cfg.HTTP.HTTPSProxy,
			NoProxy:    cfg.HTTP.NoProxy,
		})
		if err != nil {
			return nil, fmt.Errorf("create corpus store: %w", err)
		}
		store = gh
	default:
		return nil, nil
	}

	if c != nil {
		store = corpus.NewCachedStore(store, c, cfg.Cache.TTL, logger)
	}
	return store, nil
}

// buildSearcher returns nil when no search API key is available
func buildSearcher(cfg *model.Config, c cache.Cache, logger *slog.Logger) (*search.Searcher, error) {
	if cfg.Search.APIKey == "" {
		return nil, nil
	}
	client, err := search.NewBraveClient(search.BraveConfig{
		APIKey:     cfg.Search.APIKey,
		BaseURL:    cfg.Search.BaseURL,
		UserAgent:  cfg.HTTP.UserAgent,
		Timeout:    cfg.HTTP.Timeout,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}

	return search.NewSearcher(client,
		search.NewReliabilityScorer(cfg.Search.ReliableDomains, cfg.Search.MediumTrustDomains),
		search.Options{
			MaxResultsPerQuery: cfg.Search.MaxResultsPerQuery,
			MinReliability:     cfg.Search.MinReliability,
			QueryDelay:         cfg.Search.QueryDelay,
			Cache:              c,
			CacheTTL:           cfg.Cache.TTL,
			Logger:             logger,
		}), nil
}

func retryPolicy(rc model.RetryConfig) ratelimit.RetryPolicy {
	p := ratelimit.DefaultRetryPolicy()
	p.MaxAttempts = rc.MaxAttempts
	p.BaseDelay = rc.BaseDelay
	p.MaxDelay = rc.MaxDelay
	p.Jitter = rc.Jitter
	p.MaxTotal = rc.MaxTotal
	return p
}
