package model

import "time"

// Config holds the complete erosion configuration
type Config struct {
	Scoring     ScoringConfig     `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Trends      TrendsConfig      `json:"trends" yaml:"trends" mapstructure:"trends"`
	Debate      DebateConfig      `json:"debate" yaml:"debate" mapstructure:"debate"`
	Assessment  AssessmentConfig  `json:"assessment" yaml:"assessment" mapstructure:"assessment"`
	LLM         LLMConfig         `json:"llm" yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `json:"cache" yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `json:"store" yaml:"store" mapstructure:"store"`
	Sources     SourcesConfig     `json:"sources" yaml:"sources" mapstructure:"sources"`
	Keywords    KeywordsConfig    `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
}

// ScoringConfig holds the tunable severity weights.
// The defaults are documented starting points, not calibrated constants.
type ScoringConfig struct {
	CaptureWeight    float64            `json:"capture_weight" yaml:"capture_weight" mapstructure:"capture_weight"`
	DriftWeight      float64            `json:"drift_weight" yaml:"drift_weight" mapstructure:"drift_weight"`
	WarningWeight    float64            `json:"warning_weight" yaml:"warning_weight" mapstructure:"warning_weight"`
	ClassMultipliers map[string]float64 `json:"class_multipliers" yaml:"class_multipliers" mapstructure:"class_multipliers"`
	HalfLifeWeeks    float64            `json:"half_life_weeks" yaml:"half_life_weeks" mapstructure:"half_life_weeks"`
}

// TrendsConfig controls baseline comparison
type TrendsConfig struct {
	WindowWeeks int     `json:"window_weeks" yaml:"window_weeks" mapstructure:"window_weeks"`
	Epsilon     float64 `json:"epsilon" yaml:"epsilon" mapstructure:"epsilon"` // Floor for the baseline mean
	LowRatio    float64 `json:"low_ratio" yaml:"low_ratio" mapstructure:"low_ratio"`
	MediumRatio float64 `json:"medium_ratio" yaml:"medium_ratio" mapstructure:"medium_ratio"`
	HighRatio   float64 `json:"high_ratio" yaml:"high_ratio" mapstructure:"high_ratio"`
}

// DebateConfig controls the prosecutor/defense/arbitrator exchange
type DebateConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	TurnTimeout   time.Duration `json:"turn_timeout" yaml:"turn_timeout" mapstructure:"turn_timeout"`
	OpeningWords  int           `json:"opening_words" yaml:"opening_words" mapstructure:"opening_words"`
	RebuttalWords int           `json:"rebuttal_words" yaml:"rebuttal_words" mapstructure:"rebuttal_words"`
	MaxEvidence   int           `json:"max_evidence" yaml:"max_evidence" mapstructure:"max_evidence"` // Evidence items included in prompts
}

// AssessmentConfig controls the merge coordinator
type AssessmentConfig struct {
	AIEnabled       bool          `json:"ai_enabled" yaml:"ai_enabled" mapstructure:"ai_enabled"`
	CoverageTarget  int           `json:"coverage_target" yaml:"coverage_target" mapstructure:"coverage_target"` // Items needed for full coverage
	ProviderTimeout time.Duration `json:"provider_timeout" yaml:"provider_timeout" mapstructure:"provider_timeout"`
}

// LLMConfig lists the AI providers available to the engine
type LLMConfig struct {
	Preferred string              `json:"preferred" yaml:"preferred" mapstructure:"preferred"`
	Providers []LLMProviderConfig `json:"providers" yaml:"providers" mapstructure:"providers"`
}

// LLMProviderConfig configures a single AI provider
type LLMProviderConfig struct {
	Name              string  `json:"name" yaml:"name" mapstructure:"name"` // openai, anthropic, ollama, gemini
	Model             string  `json:"model" yaml:"model" mapstructure:"model"`
	APIKey            string  `json:"-" yaml:"-" mapstructure:"api_key"`
	BaseURL           string  `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `json:"timeout" yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
	HTTPProxy         string  `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls the optional read-through cache
type CacheConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `json:"dir" yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `json:"memory_ttl" yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `json:"disk_ttl" yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisAddr string        `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisTTL  time.Duration `json:"redis_ttl" yaml:"redis_ttl" mapstructure:"redis_ttl"`
}

// StoreConfig points at the persistence database
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// SourcesConfig controls fetching of remote evidence feeds
type SourcesConfig struct {
	UserAgent     string        `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxBytes      int64         `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`
	RespectRobots bool          `json:"respect_robots" yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// KeywordsConfig points at an optional vocabulary override
type KeywordsConfig struct {
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// ConcurrencyConfig controls worker pools
type ConcurrencyConfig struct {
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			CaptureWeight: 4,
			DriftWeight:   2,
			WarningWeight: 1,
			ClassMultipliers: map[string]float64{
				string(ClassCourtOpinion):   1.5,
				string(ClassExecutiveOrder): 1.4,
				string(ClassFinalRule):      1.3,
				string(ClassReport):         1.2,
				string(ClassProposedRule):   1.0,
				string(ClassNotice):         0.9,
				string(ClassNewsArticle):    0.8,
				string(ClassPressRelease):   0.6,
				string(ClassUnknown):        1.0,
			},
			HalfLifeWeeks: 8,
		},
		Trends: TrendsConfig{
			WindowWeeks: 26,
			Epsilon:     0.5,
			LowRatio:    2,
			MediumRatio: 3,
			HighRatio:   5,
		},
		Debate: DebateConfig{
			Enabled:       true,
			TurnTimeout:   90 * time.Second,
			OpeningWords:  300,
			RebuttalWords: 250,
			MaxEvidence:   15,
		},
		Assessment: AssessmentConfig{
			AIEnabled:       false, // Disabled until providers are configured
			CoverageTarget:  10,
			ProviderTimeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			Preferred: "anthropic",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".erosion/cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
			RedisTTL:  6 * time.Hour,
		},
		Store: StoreConfig{
			Path: ".erosion/erosion.db",
		},
		Sources: SourcesConfig{
			UserAgent:     "Erosion/0.1 (+https://github.com/ppiankov/erosion)",
			Timeout:       30 * time.Second,
			MaxBytes:      8 << 20,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
