package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Lookup resolves an environment variable, like os.LookupEnv.
type Lookup func(key string) (string, bool)

// Environment returns a Lookup over the process environment backed by the
// given .env files. Process variables win over file values, and earlier
// files win over later ones. Missing files are ignored.
func Environment(files ...string) (Lookup, error) {
	fileVars := make(map[string]string)
	for i := len(files) - 1; i >= 0; i-- {
		vars, err := godotenv.Read(files[i])
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", files[i], err)
		}
		for k, v := range vars {
			fileVars[k] = v
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

// MapLookup returns a Lookup over a fixed map.
func MapLookup(vars map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// ApplyEnv overrides settings from LEXIS_* variables.
func (c *Config) ApplyEnv(env Lookup) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := env(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := env(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := env(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("LEXIS_LOG_LEVEL", &c.LogLevel)
	str("LEXIS_STORAGE_BACKEND", &c.Storage.Backend)
	str("LEXIS_STORAGE_PATH", &c.Storage.Path)
	str("LEXIS_PG_DSN", &c.Storage.DSN)
	str("LEXIS_COLLECTION", &c.Storage.Collection)
	str("LEXIS_TEXT_QUERY", &c.Storage.TextQuery)
	str("LEXIS_EMBEDDING_PROVIDER", &c.Embedding.Provider)
	str("LEXIS_EMBEDDING_HOST", &c.Embedding.Host)
	str("LEXIS_EMBEDDING_MODEL", &c.Embedding.Model)
	str("OPENAI_API_KEY", &c.Embedding.APIToken)
	str("LEXIS_API_TOKEN", &c.Embedding.APIToken)
	num("LEXIS_EMBEDDING_DIMENSIONS", &c.Embedding.Dimensions)
	dur("LEXIS_EMBEDDING_TIMEOUT", &c.Embedding.Timeout)
	str("LEXIS_SPLITTER", &c.Text.Splitter)
	str("LEXIS_TOKENIZER", &c.Text.Tokenizer)
	num("LEXIS_POOL_SIZE", &c.Ingestion.PoolSize)
	dur("LEXIS_STRATEGY_TIMEOUT", &c.Search.StrategyTimeout)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
