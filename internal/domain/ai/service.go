// Package ai implements multi-provider AI orchestration: config loading with
// environment fallback, concurrent fan-out completion across active providers,
// synthesis of surviving responses via the primary provider, and an embedding
// facade with capability-based fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/eventbus"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// ProviderSource hands out provider adapters for configs. Production wires
// *llm.ClientCache; tests substitute stub providers.
type ProviderSource interface {
	Get(cfg llm.ProviderConfig) (llm.Provider, error)
	Purge()
}

// ProviderResponse is one successful fan-out result, consumed only by the
// synthesizer.
type ProviderResponse struct {
	Provider string
	Response string
}

// Service is the orchestration entry point used by the HTTP handlers.
type Service struct {
	loader  *ConfigLoader
	clients ProviderSource
	bus     eventbus.EventBus
	logger  *log.Logger
}

func NewService(loader *ConfigLoader, clients ProviderSource, bus eventbus.EventBus, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{loader: loader, clients: clients, bus: bus, logger: logger}
}

// SynthesisFallbackEvent is published on eventbus.TopicSynthesisFallback when
// the synthesis call failed and a raw provider response was served instead.
type SynthesisFallbackEvent struct {
	Primary   string `json:"primary"`
	ServedBy  string `json:"served_by"`
	Detail    string `json:"detail"`
	Survivors int    `json:"survivors"`
}

// CompleteMulti runs a chat completion against every active provider config.
//
// Zero configs fail with ErrNoProviderConfigured before any network call. A
// single config is a pure pass-through. With two or more configs the calls run
// concurrently and settle independently; if all fail the joined errors come
// back wrapped in ErrAllProvidersFailed, a single survivor is returned
// verbatim, and two or more survivors are merged by one synthesis call on the
// primary provider.
func (s *Service) CompleteMulti(ctx context.Context, req llm.ChatRequest) (string, error) {
	req = req.Normalized()

	configs, err := s.loader.LoadActive(ctx)
	if err != nil {
		return "", err
	}
	if len(configs) == 0 {
		return "", ErrNoProviderConfigured
	}

	if len(configs) == 1 {
		provider, err := s.clients.Get(configs[0])
		if err != nil {
			return "", err
		}
		return provider.ChatCompletion(ctx, req)
	}

	responses, failures := s.fanOut(ctx, configs, req)
	if len(responses) == 0 {
		return "", fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(failures...))
	}
	if len(responses) == 1 {
		return responses[0].Response, nil
	}

	primary := primaryOf(configs)
	merged, err := s.synthesize(ctx, primary, responses, req)
	if err != nil {
		// Deliberate policy: serve the first surviving raw response rather
		// than failing a request we already have answers for.
		s.logger.Printf("ai: synthesis via %s failed, serving raw response from %s: %v",
			primary.Kind, responses[0].Provider, err)
		if s.bus != nil {
			s.bus.Publish(eventbus.TopicSynthesisFallback, SynthesisFallbackEvent{
				Primary:   string(primary.Kind),
				ServedBy:  responses[0].Provider,
				Detail:    err.Error(),
				Survivors: len(responses),
			})
		}
		return responses[0].Response, nil
	}
	return merged, nil
}

// fanOut calls every config concurrently and joins all outcomes. Results keep
// config order so the survivor set is stable given identical availability.
func (s *Service) fanOut(ctx context.Context, configs []llm.ProviderConfig, req llm.ChatRequest) ([]ProviderResponse, []error) {
	type outcome struct {
		name string
		text string
		err  error
	}

	outcomes := make([]outcome, len(configs))
	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg llm.ProviderConfig) {
			defer wg.Done()
			provider, err := s.clients.Get(cfg)
			if err != nil {
				outcomes[i] = outcome{name: string(cfg.Kind), err: err}
				return
			}
			text, err := provider.ChatCompletion(ctx, req)
			outcomes[i] = outcome{name: provider.Name(), text: text, err: err}
		}(i, cfg)
	}
	wg.Wait()

	var responses []ProviderResponse
	var failures []error
	for _, o := range outcomes {
		if o.err != nil {
			s.logger.Printf("ai: provider %s failed: %v", o.name, o.err)
			failures = append(failures, fmt.Errorf("%s: %w", o.name, o.err))
			continue
		}
		responses = append(responses, ProviderResponse{Provider: o.name, Response: o.text})
	}
	return responses, failures
}

// TestConnection verifies a candidate config is reachable with its credential.
// The adapter is built fresh, not cached, so untested keys never pollute the
// client cache.
func (s *Service) TestConnection(ctx context.Context, cfg llm.ProviderConfig) error {
	provider, err := llm.New(cfg)
	if err != nil {
		return err
	}
	return provider.HealthCheck(ctx)
}

// Invalidate clears the config snapshot and the provider client cache.
// Required after any provider-settings change.
func (s *Service) Invalidate() {
	s.loader.Invalidate()
	s.clients.Purge()
}

func primaryOf(configs []llm.ProviderConfig) llm.ProviderConfig {
	for _, cfg := range configs {
		if cfg.IsPrimary {
			return cfg
		}
	}
	return configs[0]
}
