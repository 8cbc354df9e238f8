package model

import "time"

// Config is the complete ChainContext configuration
type Config struct {
	Trust       TrustConfig       `yaml:"trust" mapstructure:"trust"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Chain       ChainConfig       `yaml:"chain" mapstructure:"chain"`
	Attestation AttestationConfig `yaml:"attestation" mapstructure:"attestation"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// TrustConfig holds the trust scoring parameters.
// The weights and thresholds are empirically chosen constants carried over
// from the original deployment; they are configurable but the defaults
// should not be altered without new requirements.
type TrustConfig struct {
	BaseRate           float64 `yaml:"base_rate" mapstructure:"base_rate"`
	BaseWeight         float64 `yaml:"base_weight" mapstructure:"base_weight"`
	RecencyWeight      float64 `yaml:"recency_weight" mapstructure:"recency_weight"`
	SourceWeight       float64 `yaml:"source_weight" mapstructure:"source_weight"`
	CrossWeight        float64 `yaml:"cross_weight" mapstructure:"cross_weight"`
	OnchainWeight      float64 `yaml:"onchain_weight" mapstructure:"onchain_weight"`
	RecencyDecay       float64 `yaml:"recency_decay" mapstructure:"recency_decay"`     // per-day exponential decay constant
	CrossSteepness     float64 `yaml:"cross_steepness" mapstructure:"cross_steepness"` // logistic steepness for confirmation counts
	OnchainBonus       float64 `yaml:"onchain_bonus" mapstructure:"onchain_bonus"`     // flat bonus for on-chain verified items
	UnknownSourceScore float64 `yaml:"unknown_source_score" mapstructure:"unknown_source_score"`

	// SourceReliability maps source kinds to static reliability scores in [0,1]
	SourceReliability map[string]float64 `yaml:"source_reliability" mapstructure:"source_reliability"`

	// Tier thresholds: trust > High is high tier, trust < Low is low tier,
	// everything between (inclusive on both ends) is medium.
	HighTrustThreshold float64 `yaml:"high_trust_threshold" mapstructure:"high_trust_threshold"`
	LowTrustThreshold  float64 `yaml:"low_trust_threshold" mapstructure:"low_trust_threshold"`
}

// LLMConfig holds generation and embedding client configuration
type LLMConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model          string        `yaml:"model" mapstructure:"model"`
	EmbeddingModel string        `yaml:"embedding_model" mapstructure:"embedding_model"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ChainConfig holds blockchain verification configuration
type ChainConfig struct {
	RPCURL              string        `yaml:"rpc_url" mapstructure:"rpc_url"`
	AttestationContract string        `yaml:"attestation_contract" mapstructure:"attestation_contract"`
	Timeout             time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst               int           `yaml:"burst" mapstructure:"burst"`
}

// AttestationConfig holds proof token acquisition configuration
type AttestationConfig struct {
	Audience        string        `yaml:"audience" mapstructure:"audience"`
	MetadataURLs    []string      `yaml:"metadata_urls" mapstructure:"metadata_urls"`
	MetadataTimeout time.Duration `yaml:"metadata_timeout" mapstructure:"metadata_timeout"`
	SignerPath      string        `yaml:"signer_path" mapstructure:"signer_path"`
	SignerSudo      bool          `yaml:"signer_sudo" mapstructure:"signer_sudo"`
	HelperScript    string        `yaml:"helper_script" mapstructure:"helper_script"`
	TokenFile       string        `yaml:"token_file" mapstructure:"token_file"`
	CommandTimeout  time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`
}

// CacheConfig holds embedding cache configuration
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisURI  string        `yaml:"redis_uri,omitempty" mapstructure:"redis_uri"`
}

// StoreConfig holds query record persistence configuration
type StoreConfig struct {
	MongoURI string `yaml:"mongo_uri,omitempty" mapstructure:"mongo_uri"`
	Database string `yaml:"database" mapstructure:"database"`
}

// ConcurrencyConfig holds worker pool sizing
type ConcurrencyConfig struct {
	ScoringWorkers int `yaml:"scoring_workers" mapstructure:"scoring_workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Trust: TrustConfig{
			BaseRate:           0.5,
			BaseWeight:         0.1,
			RecencyWeight:      0.3,
			SourceWeight:       0.2,
			CrossWeight:        0.2,
			OnchainWeight:      0.2,
			RecencyDecay:       0.1,
			CrossSteepness:     0.5,
			OnchainBonus:       0.2,
			UnknownSourceScore: 0.3,
			SourceReliability: map[string]float64{
				"ftso_2s":           0.95,
				"ftso_90s":          0.9,
				"blockchain_state":  0.95,
				"flare_docs":        0.85,
				"github_code":       0.8,
				"github_issues":     0.6,
				"twitter_official":  0.7,
				"twitter_community": 0.4,
			},
			HighTrustThreshold: 0.6,
			LowTrustThreshold:  0.4,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        30 * time.Second,
			MaxTokens:      1500,
		},
		Chain: ChainConfig{
			RPCURL:              "https://flare-api.flare.network/ext/C/rpc",
			AttestationContract: "0x93012953008ef9AbcB71F48C340166E8f384e985",
			Timeout:             10 * time.Second,
			RequestsPerSecond:   2,
			Burst:               5,
		},
		Attestation: AttestationConfig{
			Audience: "ChainContext",
			MetadataURLs: []string{
				"http://metadata.google.internal/computeMetadata/v1/instance/attestation-token",
				"http://metadata.google.internal/computeMetadata/v1/instance/confidential-vm/attestation-token",
				"http://metadata.google.internal/computeMetadata/v1/instance/confidential_computing/attestation",
			},
			MetadataTimeout: 5 * time.Second,
			SignerPath:      "/usr/local/bin/gotpm",
			SignerSudo:      true,
			HelperScript:    "/opt/chaincontext/bin/get_attestation.sh",
			TokenFile:       "attestation_token.txt",
			CommandTimeout:  10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".chaincontext-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Store: StoreConfig{
			Database: "chaincontext",
		},
		Concurrency: ConcurrencyConfig{
			ScoringWorkers: 4,
		},
	}
}
