package ai

// Decorate wraps a raw provider embedder with the decorators enabled in cfg:
// retries with per-attempt timeouts, batching with bounded in-flight
// requests, and an optional cache. The cache is outermost so hits never
// touch the provider.
func Decorate(base Embedder, cfg *Config) (Embedder, error) {
	if base == nil {
		return nil, ErrEmbedderRequired
	}
	retrying, err := NewRetryingEmbedder(base, cfg)
	if err != nil {
		return nil, err
	}
	throttled, err := NewThrottledEmbedder(retrying, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheEntries <= 0 {
		return throttled, nil
	}
	return NewCachingEmbedder(throttled, cfg.CacheEntries)
}
