package ai

import (
	"context"
	"math"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// CreateEmbedding computes a vector for text using the primary provider.
// Embeddings from different providers are not comparable, so there is no
// fan-out here: if the primary lacks embedding support the call silently
// re-routes to the first active config that has it.
func (s *Service) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	configs, err := s.loader.LoadActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, ErrNoProviderConfigured
	}

	ordered := make([]llm.ProviderConfig, 0, len(configs))
	ordered = append(ordered, primaryOf(configs))
	for _, cfg := range configs {
		if !cfg.IsPrimary {
			ordered = append(ordered, cfg)
		}
	}

	for _, cfg := range ordered {
		provider, err := s.clients.Get(cfg)
		if err != nil {
			return nil, err
		}
		if !provider.SupportsEmbeddings() {
			continue
		}
		return provider.Embed(ctx, text)
	}
	return nil, ErrNoEmbeddingProvider
}

// CosineSimilarity returns the dot-product-over-norms ratio of two vectors.
// Vectors of unequal length fail with ErrDimensionMismatch; a zero vector
// yields similarity 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
