// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package config loads the application configuration of lexis.
//
// Settings come from three layers, later layers winning: built-in defaults,
// a YAML file, and LEXIS_* environment variables. Environment variables may
// also be provided through .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/cluster"
	"github.com/poiesic/lexis/search"
	"github.com/poiesic/lexis/segment"
	"github.com/poiesic/lexis/selector"
	"github.com/poiesic/lexis/sentence"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendBadger   = "badger"
	BackendPgvector = "pgvector"
)

// Text query modes of the vector store.
const (
	TextQueryEmbedding = "embedding"
	TextQueryLexical   = "lexical"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Token counters.
const (
	TokenizerTiktoken = "tiktoken"
	TokenizerApprox   = "approx"
)

// StorageConfig selects and configures the vector store.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path is the badger directory. Empty runs badger in memory.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string of the pgvector backend.
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
	// TextQuery controls how the store answers keyword queries: by embedding
	// the query text, or by lexical matching.
	TextQuery string `yaml:"text_query"`
	// TextSearchConfig is the PostgreSQL text search configuration.
	TextSearchConfig string `yaml:"text_search_config"`
}

// EmbeddingConfig configures the embedding provider and its decorators.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"`
	Host              string        `yaml:"host"`
	Model             string        `yaml:"model"`
	APIToken          string        `yaml:"api_token"`
	Dimensions        int           `yaml:"dimensions"`
	Timeout           time.Duration `yaml:"timeout"`
	BatchSize         int           `yaml:"batch_size"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxInFlight       int           `yaml:"max_in_flight"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CacheEntries      int64         `yaml:"cache_entries"`
}

// TextConfig selects the sentence splitter and token counter.
type TextConfig struct {
	Splitter  string `yaml:"splitter"`
	Tokenizer string `yaml:"tokenizer"`
	// Encoding is the tiktoken encoding name.
	Encoding string `yaml:"encoding"`
}

// SearchConfig configures the search orchestrator.
type SearchConfig struct {
	DefaultLimit    int           `yaml:"default_limit"`
	MaxLimit        int           `yaml:"max_limit"`
	KeywordQueries  int           `yaml:"keyword_queries"`
	StrategyTimeout time.Duration `yaml:"strategy_timeout"`
	ClampRelevance  bool          `yaml:"clamp_relevance"`
}

// IngestionConfig configures the ingestion pipeline.
type IngestionConfig struct {
	// PoolSize is the number of documents processed concurrently.
	// Zero selects half the CPUs.
	PoolSize           int           `yaml:"pool_size"`
	SegmentConcurrency int           `yaml:"segment_concurrency"`
	StoreTimeout       time.Duration `yaml:"store_timeout"`
}

// Config is the root application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Text      TextConfig      `yaml:"text"`
	Segment   segment.Config  `yaml:"segment"`
	Cluster   cluster.Config  `yaml:"cluster"`
	Search    SearchConfig    `yaml:"search"`
	Selector  selector.Config `yaml:"selector"`
	Ingestion IngestionConfig `yaml:"ingestion"`
}

// Default returns the built-in configuration: embedded badger storage in
// ./lexis-data and a local OpenAI-compatible embedding server.
func Default() *Config {
	emb := ai.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Backend:          BackendBadger,
			Path:             "lexis-data",
			Collection:       search.DefaultCollection,
			TextQuery:        TextQueryEmbedding,
			TextSearchConfig: "german",
		},
		Embedding: EmbeddingConfig{
			Provider:    ProviderOpenAI,
			Host:        emb.EmbeddingHost,
			Model:       emb.EmbeddingModel,
			APIToken:    emb.APIToken,
			Timeout:     emb.Timeout,
			BatchSize:   emb.BatchSize,
			MaxAttempts: emb.MaxAttempts,
			BaseDelay:   emb.BaseDelay,
			MaxInFlight: emb.MaxInFlight,
		},
		Text: TextConfig{
			Splitter:  string(sentence.KindUnicode),
			Tokenizer: TokenizerTiktoken,
		},
		Segment: segment.DefaultConfig(),
		Cluster: cluster.DefaultConfig(),
		Search: SearchConfig{
			DefaultLimit:    search.DefaultLimit,
			MaxLimit:        search.DefaultMaxLimit,
			KeywordQueries:  search.DefaultKeywordQueries,
			StrategyTimeout: search.DefaultStrategyTimeout,
			ClampRelevance:  true,
		},
		Selector: selector.DefaultConfig(),
		Ingestion: IngestionConfig{
			SegmentConcurrency: 4,
			StoreTimeout:       30 * time.Second,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, applies the
// environment and validates the result. An empty path skips the file.
func Load(path string, env Lookup) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}
	if env != nil {
		if err := cfg.ApplyEnv(env); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AI returns the embedding settings as an ai.Config.
func (c *Config) AI() *ai.Config {
	e := c.Embedding
	return ai.NewConfig(
		ai.WithEmbeddingHost(e.Host),
		ai.WithEmbeddingModel(e.Model),
		ai.WithAPIToken(e.APIToken),
		ai.WithDimensions(e.Dimensions),
		ai.WithTimeout(e.Timeout),
		ai.WithBatchSize(e.BatchSize),
		ai.WithRetry(e.MaxAttempts, e.BaseDelay),
		ai.WithThrottle(e.MaxInFlight, e.RequestsPerSecond),
		ai.WithCacheEntries(e.CacheEntries),
	)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendBadger:
	case BackendPgvector:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the pgvector backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	switch c.Storage.TextQuery {
	case TextQueryEmbedding, TextQueryLexical:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.text_query %q", c.Storage.TextQuery))
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if err := c.AI().Validate(); err != nil {
			errs = append(errs, err)
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}
	if _, err := sentence.New(sentence.Kind(c.Text.Splitter)); err != nil {
		errs = append(errs, err)
	}
	switch c.Text.Tokenizer {
	case TokenizerTiktoken, TokenizerApprox:
	default:
		errs = append(errs, fmt.Errorf("unknown text.tokenizer %q", c.Text.Tokenizer))
	}
	for _, v := range []interface{ Validate() error }{c.Segment, c.Cluster, c.Selector} {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = append(errs, errors.New("search limits must satisfy 1 <= default_limit <= max_limit"))
	}
	if c.Ingestion.PoolSize < 0 || c.Ingestion.SegmentConcurrency < 0 {
		errs = append(errs, errors.New("ingestion concurrency cannot be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
