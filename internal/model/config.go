package model

import "time"

// Config is the immutable run configuration. It is built once by the CLI
// from flags, environment, and config file, then passed by value into
// each component entry point; no component reads ambient process state.
type Config struct {
	Stats       StatsConfig       `yaml:"stats" mapstructure:"stats"`
	Validation  ValidationConfig  `yaml:"validation" mapstructure:"validation"`
	Score       ScoreConfig       `yaml:"score" mapstructure:"score"`
	Insight     InsightConfig     `yaml:"insight" mapstructure:"insight"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	AppStore    AppStoreConfig    `yaml:"app_store" mapstructure:"app_store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// StatsConfig controls the statistical summarizer.
type StatsConfig struct {
	MinSample           int     `yaml:"min_sample" mapstructure:"min_sample"`                     // Sample threshold for full size adequacy
	SignificanceCeiling float64 `yaml:"significance_ceiling" mapstructure:"significance_ceiling"` // Cap for segments below MinSample
	CVThreshold         float64 `yaml:"cv_threshold" mapstructure:"cv_threshold"`                 // Coefficient-of-variation limit
	DispersionPenalty   float64 `yaml:"dispersion_penalty" mapstructure:"dispersion_penalty"`     // Multiplier applied above CVThreshold
}

// ValidationConfig controls numeric claim checking.
type ValidationConfig struct {
	RangeTolerance float64 `yaml:"range_tolerance" mapstructure:"range_tolerance"` // Fraction of the observed range
}

// ScoreConfig holds confidence weighting. Any non-negative weights keep
// overall confidence monotonic in each sub-score.
type ScoreConfig struct {
	QualityWeight      float64 `yaml:"quality_weight" mapstructure:"quality_weight"`
	SignificanceWeight float64 `yaml:"significance_weight" mapstructure:"significance_weight"`
	SupportWeight      float64 `yaml:"support_weight" mapstructure:"support_weight"`
	NeutralSupport     float64 `yaml:"neutral_support" mapstructure:"neutral_support"` // Supported ratio when no claims are checkable
}

// InsightConfig bounds the request builder.
type InsightConfig struct {
	TopSegments     int `yaml:"top_segments" mapstructure:"top_segments"`           // Segments serialized into the payload
	MaxPayloadBytes int `yaml:"max_payload_bytes" mapstructure:"max_payload_bytes"` // Hard bound on prompt size
}

// LLMConfig configures the generative-text provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, gemini, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // Seconds per section request
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AppStoreConfig configures the app-store data provider.
type AppStoreConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Host              string  `yaml:"host" mapstructure:"host"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	MaxApps           int     `yaml:"max_apps" mapstructure:"max_apps"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // Seconds per request
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallelism.
type ConcurrencyConfig struct {
	SectionWorkers int `yaml:"section_workers" mapstructure:"section_workers"` // Concurrent provider calls per bundle
	BatchWorkers   int `yaml:"batch_workers" mapstructure:"batch_workers"`     // Concurrent dataset files in batch mode
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Stats: StatsConfig{
			MinSample:           30,
			SignificanceCeiling: 0.5,
			CVThreshold:         1.0,
			DispersionPenalty:   0.75,
		},
		Validation: ValidationConfig{
			RangeTolerance: 0.15,
		},
		Score: ScoreConfig{
			QualityWeight:      1.0 / 3.0,
			SignificanceWeight: 1.0 / 3.0,
			SupportWeight:      1.0 / 3.0,
			NeutralSupport:     0.5,
		},
		Insight: InsightConfig{
			TopSegments:     8,
			MaxPayloadBytes: 8192,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default; bundles degrade to statistics-only
			Timeout:   30,
			MaxTokens: 2000,
		},
		AppStore: AppStoreConfig{
			BaseURL:           "https://appstore-scrapper-api.p.rapidapi.com/app/details",
			Host:              "appstore-scrapper-api.p.rapidapi.com",
			MaxApps:           50,
			RequestsPerSecond: 0.5,
			Timeout:           15,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".marketlens-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			SectionWorkers: 4,
			BatchWorkers:   4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Dir:           "reports",
		},
	}
}
