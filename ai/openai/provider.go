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


package openai

import (
	"io"
	"log/slog"

	"github.com/poiesic/lexis/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
type Provider struct {
	config   *ai.Config
	embedder ai.Embedder
	counter  ai.TokenCounter
	logger   *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithTokenCounter sets the token counter. Defaults to ai.ApproxTokenCounter.
func WithTokenCounter(counter ai.TokenCounter) ProviderOption {
	return func(p *Provider) {
		if counter != nil {
			p.counter = counter
		}
	}
}

// NewProvider creates a new OpenAI-compatible provider whose embedder is
// decorated according to config.
func NewProvider(config *ai.Config, opts ...ProviderOption) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	embedder, err := ai.Decorate(base, config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		counter:  ai.ApproxTokenCounter{},
		logger:   slog.Default().With("component", "openai-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) TokenCounter() ai.TokenCounter {
	return p.counter
}

// Close releases the embedding cache, if any.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	if c, ok := p.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
