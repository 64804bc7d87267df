package model

import "time"

// Config is the complete incidentcheck configuration
type Config struct {
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Corpus     CorpusConfig     `yaml:"corpus" mapstructure:"corpus"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Sequencer  SequencerConfig  `yaml:"sequencer" mapstructure:"sequencer"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// LLMConfig selects and tunes the inference oracle
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai anthropic claude ollama"`
	Model    string `yaml:"model" mapstructure:"model"`
	// Prefer OPENAI_API_KEY / ANTHROPIC_API_KEY
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	// Per-request timeout
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// Response body read timeout
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gt=0"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gt=0"`
}

// SearchConfig tunes source discovery
type SearchConfig struct {
	// Prefer BRAVE_API_KEY
	APIKey             string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	MaxResultsPerQuery int           `yaml:"max_results_per_query" mapstructure:"max_results_per_query" validate:"gt=0,lte=20"`
	MinReliability     float64       `yaml:"min_reliability" mapstructure:"min_reliability" validate:"gte=0,lte=1"`
	QueryDelay         time.Duration `yaml:"query_delay" mapstructure:"query_delay" validate:"gte=0"`
	ReliableDomains    []string      `yaml:"reliable_domains" mapstructure:"reliable_domains"`
	MediumTrustDomains []string      `yaml:"medium_trust_domains" mapstructure:"medium_trust_domains"`
}

// CorpusConfig locates the existing article corpus
type CorpusConfig struct {
	// Local checkout; wins over GitHub when set
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
	// owner/name
	GitHubRepo string `yaml:"github_repo,omitempty" mapstructure:"github_repo"`
	GitHubRef  string `yaml:"github_ref,omitempty" mapstructure:"github_ref"`
	// Prefer GITHUB_TOKEN
	GitHubToken string `yaml:"github_token,omitempty" mapstructure:"github_token"`
	GitHubAPI   string `yaml:"github_api" mapstructure:"github_api" validate:"required,url"`
	// Directories searched for same-named articles
	Paths []string `yaml:"paths" mapstructure:"paths" validate:"min=1"`
}

// ValidationConfig holds the empirically calibrated verdict thresholds
type ValidationConfig struct {
	DuplicateSimilarityThreshold float64 `yaml:"duplicate_similarity_threshold" mapstructure:"duplicate_similarity_threshold" validate:"gt=0,lte=1"`
	MinFactCheckConfidence       float64 `yaml:"min_fact_check_confidence" mapstructure:"min_fact_check_confidence" validate:"gte=0,lte=1"`
	FactCheck                    bool    `yaml:"fact_check" mapstructure:"fact_check"`
}

// VerifyConfig tunes claim extraction and fact verification
type VerifyConfig struct {
	ChunkSize        int     `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gt=0"`
	MinConfidence    float64 `yaml:"min_confidence" mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	MaxSources       int     `yaml:"max_sources" mapstructure:"max_sources" validate:"gt=0"`
	SnippetChars     int     `yaml:"snippet_chars" mapstructure:"snippet_chars" validate:"gt=0"`
	MaxSearchQueries int     `yaml:"max_search_queries" mapstructure:"max_search_queries" validate:"gt=0"`
	LargeInputBytes  int     `yaml:"large_input_bytes" mapstructure:"large_input_bytes" validate:"gt=0"`
}

// RateLimitConfig is the per-process inference budget
type RateLimitConfig struct {
	RequestsPerMinute    int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute" validate:"gt=0"`
	InputTokensPerMinute int           `yaml:"input_tokens_per_minute" mapstructure:"input_tokens_per_minute" validate:"gt=0"`
	MinInterval          time.Duration `yaml:"min_interval" mapstructure:"min_interval" validate:"gte=0"`
	Window               time.Duration `yaml:"window" mapstructure:"window" validate:"gt=0"`
}

// RetryConfig describes the backoff policy for transient oracle failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gt=0"`
	BaseDelay   time.Duration `yaml:"base_delay" mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay    time.Duration `yaml:"max_delay" mapstructure:"max_delay" validate:"gte=0"`
	Jitter      time.Duration `yaml:"jitter" mapstructure:"jitter" validate:"gte=0"`
	MaxTotal    time.Duration `yaml:"max_total" mapstructure:"max_total" validate:"gte=0"`
}

// SequencerConfig controls the single-slot job sequencer
type SequencerConfig struct {
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout" validate:"gt=0"`
}

// CacheConfig controls in-process caching of search and corpus reads
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// HTTPConfig holds settings shared by every outbound HTTP client
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "anthropic",
			Model:       "claude-3-5-sonnet-20241022",
			Timeout:     20 * time.Second,
			ReadTimeout: 15 * time.Second,
			MaxTokens:   4000,
		},
		Search: SearchConfig{
			BaseURL:            "https://api.search.brave.com/res/v1/web/search",
			MaxResultsPerQuery: 5,
			MinReliability:     0.6,
			QueryDelay:         200 * time.Millisecond,
			ReliableDomains:    DefaultReliableDomains(),
			MediumTrustDomains: DefaultMediumTrustDomains(),
		},
		Corpus: CorpusConfig{
			GitHubAPI: "https://api.github.com",
			GitHubRef: "main",
			Paths:     []string{"articles"},
		},
		Validation: ValidationConfig{
			DuplicateSimilarityThreshold: 0.8,
			MinFactCheckConfidence:       0.7,
			FactCheck:                    true,
		},
		Verify: VerifyConfig{
			ChunkSize:        5,
			MinConfidence:    0.7,
			MaxSources:       8,
			SnippetChars:     300,
			MaxSearchQueries: 10,
			LargeInputBytes:  150_000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:    50,
			InputTokensPerMinute: 40_000,
			MinInterval:          1200 * time.Millisecond,
			Window:               time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    8 * time.Second,
			Jitter:      time.Second,
			MaxTotal:    60 * time.Second,
		},
		Sequencer: SequencerConfig{
			LockTimeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "incidentcheck/0.1 (+https://github.com/ppiankov/incidentcheck)",
		},
	}
}

// DefaultReliableDomains lists news, security and blockchain-forensics outlets
func DefaultReliableDomains() []string {
	return []string{
		// News
		"reuters.com", "bloomberg.com", "apnews.com", "bbc.com", "cnbc.com",
		"wsj.com", "nytimes.com", "ft.com", "forbes.com", "theguardian.com",
		"techcrunch.com", "theverge.com", "wired.com", "arstechnica.com", "zdnet.com",
		// Crypto press
		"coindesk.com", "cointelegraph.com", "theblock.co", "decrypt.co", "dlnews.com",
		"rekt.news",
		// Security press
		"bleepingcomputer.com", "therecord.media", "krebsonsecurity.com", "securityweek.com",
		"darkreading.com", "thehackernews.com", "cyberscoop.com",
		// Blockchain forensics and auditors
		"chainalysis.com", "elliptic.co", "trmlabs.com", "certik.com", "peckshield.com",
		"slowmist.com", "immunefi.com", "halborn.com", "etherscan.io",
	}
}

// DefaultMediumTrustDomains lists code-hosting, reference and discussion platforms
func DefaultMediumTrustDomains() []string {
	return []string{
		"github.com", "gitlab.com", "wikipedia.org", "medium.com", "reddit.com",
		"stackexchange.com", "stackoverflow.com", "substack.com", "mirror.xyz",
		"x.com", "twitter.com", "news.ycombinator.com",
	}
}
