package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/LunaGrandjean/LVMH-project/pkg/jsonutil"
	"github.com/LunaGrandjean/LVMH-project/pkg/llm"
	"github.com/LunaGrandjean/LVMH-project/pkg/logging"
	"github.com/LunaGrandjean/LVMH-project/pkg/metrics"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/prompts"
	"github.com/LunaGrandjean/LVMH-project/pkg/retry"
)

const (
	// NoExternalDataText fills the factor fields when the enrichment source is not used.
	NoExternalDataText = "no external data available"
	// UnknownLabel is the categorical value used when no climate or disruption label is known.
	UnknownLabel = "Unknown"

	// rawFactorChunk is how many characters of an unparsable reply go into each factor field.
	rawFactorChunk = 200

	defaultEnrichmentTemperature = 0.2
)

// ResolveRequest identifies the supplier location to enrich. Only Country and City form the
// cache key; the supplier fields shape the prompt of the first resolution for that key.
type ResolveRequest struct {
	Country      string
	City         string
	SupplierName string
	Category     string
}

// Key returns the cache key for the request.
func (r ResolveRequest) Key() models.ContextKey {
	return models.NewContextKey(r.Country, r.City)
}

// ContextResolver supplies geopolitical and environmental inputs for supplier locations.
// It never fails: every call yields a usable ExternalContext.
type ContextResolver interface {
	Resolve(ctx context.Context, req ResolveRequest) models.ExternalContext
	// ResolveAll resolves every distinct location, in parallel up to the configured limit.
	ResolveAll(ctx context.Context, reqs []ResolveRequest) map[models.ContextKey]models.ExternalContext
	// LastError returns the sanitized enrichment failure recorded for key, if any.
	LastError(key models.ContextKey) string
	// Reset empties the cache and the recorded errors.
	Reset()
}

// ContextResolverConfig tunes the enrichment calls.
type ContextResolverConfig struct {
	Temperature float64
	// RatePerSecond caps outbound calls; 0 disables the limiter.
	RatePerSecond float64
	// Concurrency bounds ResolveAll; values below 1 resolve serially.
	Concurrency int
	// BreakerThreshold is the number of consecutive call failures that stops further calls for
	// BreakerReset. 0 disables the breaker.
	BreakerThreshold int
	BreakerReset     time.Duration
	// Retry governs repeated attempts on transient call failures. Nil makes one attempt.
	Retry *retry.Config
}

type contextResolver struct {
	client  llm.LLMClient
	cache   *ContextCache
	limiter *rate.Limiter
	breaker *llm.CircuitBreaker
	group   singleflight.Group
	cfg     ContextResolverConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	errMu  sync.RWMutex
	errors map[models.ContextKey]string
}

// NewContextResolver builds a resolver over an injected cache. A nil client means enrichment is
// unavailable and every miss resolves to the static fallback.
func NewContextResolver(
	client llm.LLMClient,
	cache *ContextCache,
	cfg ContextResolverConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) ContextResolver {
	if cache == nil {
		cache = NewContextCache()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultEnrichmentTemperature
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	var breaker *llm.CircuitBreaker
	if cfg.BreakerThreshold > 0 {
		breaker = llm.NewCircuitBreaker(llm.CircuitBreakerConfig{
			Threshold:  cfg.BreakerThreshold,
			ResetAfter: cfg.BreakerReset,
		})
	}
	return &contextResolver{
		client:  client,
		cache:   cache,
		limiter: limiter,
		breaker: breaker,
		cfg:     cfg,
		metrics: m,
		logger:  logger.Named("context-resolver"),
		errors:  make(map[models.ContextKey]string),
	}
}

var _ ContextResolver = (*contextResolver)(nil)

func (r *contextResolver) Resolve(ctx context.Context, req ResolveRequest) models.ExternalContext {
	key := req.Key()
	if cached, ok := r.cache.Get(key); ok {
		r.metrics.IncrementContextLookup(true)
		return cached
	}
	r.metrics.IncrementContextLookup(false)

	v, _, _ := r.group.Do(string(key), func() (any, error) {
		// A concurrent flight may have stored the key between our lookup and this one.
		if cached, ok := r.cache.Get(key); ok {
			return cached, nil
		}
		resolved, cacheable := r.fetch(ctx, key, req)
		if cacheable {
			r.cache.Put(key, resolved)
		}
		return resolved, nil
	})
	return v.(models.ExternalContext)
}

func (r *contextResolver) ResolveAll(ctx context.Context, reqs []ResolveRequest) map[models.ContextKey]models.ExternalContext {
	unique := make(map[models.ContextKey]ResolveRequest, len(reqs))
	for _, req := range reqs {
		if _, seen := unique[req.Key()]; !seen {
			unique[req.Key()] = req
		}
	}

	results := make(map[models.ContextKey]models.ExternalContext, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for key, req := range unique {
		g.Go(func() error {
			resolved := r.Resolve(gctx, req)
			mu.Lock()
			results[key] = resolved
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *contextResolver) LastError(key models.ContextKey) string {
	r.errMu.RLock()
	defer r.errMu.RUnlock()
	return r.errors[key]
}

func (r *contextResolver) Reset() {
	r.cache.Reset()
	r.errMu.Lock()
	r.errors = make(map[models.ContextKey]string)
	r.errMu.Unlock()
}

// fetch resolves one location. The bool is false when the result must not be cached because
// the caller's context ended before the provider answered.
func (r *contextResolver) fetch(ctx context.Context, key models.ContextKey, req ResolveRequest) (models.ExternalContext, bool) {
	if r.client == nil {
		r.metrics.IncrementEnrichmentOutcome(metrics.OutcomeOffline)
		return StaticContext(req.Country), true
	}

	if r.breaker != nil {
		if err := r.breaker.Allow(); err != nil {
			return r.failed(key, req, err), true
		}
	}

	retryCfg := r.cfg.Retry
	if retryCfg == nil {
		retryCfg = &retry.Config{}
	}
	prompt := prompts.BuildLocationContextPrompt(prompts.LocationContext{
		Supplier: req.SupplierName,
		Category: req.Category,
		City:     req.City,
		Country:  req.Country,
	})
	resp, err := retry.Do(ctx, retryCfg, isTransientEnrichmentError, func(ctx context.Context) (*llm.GenerateResponseResult, error) {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		start := time.Now()
		resp, err := r.client.GenerateResponse(ctx, prompt, prompts.LocationContextSystemMessage, r.cfg.Temperature)
		r.metrics.ObserveEnrichmentLatency(time.Since(start))
		if err != nil {
			r.logger.Debug("Enrichment attempt failed",
				zap.Stringer("key", key),
				zap.String("error", logging.SanitizeError(err)))
		}
		return resp, err
	})
	if err != nil {
		// A caller that went away says nothing about the provider.
		if ctx.Err() != nil {
			return r.canceled(key, req, err), false
		}
		if r.breaker != nil {
			r.breaker.RecordFailure()
		}
		return r.failed(key, req, err), true
	}
	if r.breaker != nil {
		r.breaker.RecordSuccess()
	}

	parsed, ok := parseEnrichment(resp.Content, req.Country)
	if !ok {
		r.metrics.IncrementEnrichmentOutcome(metrics.OutcomeParseFallback)
		r.logger.Warn("Enrichment reply was not a JSON object, using raw text",
			zap.Stringer("key", key),
			zap.Int("reply_len", len(resp.Content)))
		return parsed, true
	}

	r.metrics.IncrementEnrichmentOutcome(metrics.OutcomeExternal)
	r.logger.Debug("Resolved location context",
		zap.Stringer("key", key),
		zap.Float64("geopolitical_score", parsed.GeopoliticalScore),
		zap.Float64("environmental_score", parsed.EnvironmentalScore))
	return parsed, true
}

func isTransientEnrichmentError(err error) bool {
	return llm.ClassifyError(err).Retryable
}

// failed records the sanitized cause and returns the static fallback carrying it.
func (r *contextResolver) failed(key models.ContextKey, req ResolveRequest, err error) models.ExternalContext {
	classified := llm.ClassifyError(err)
	message := logging.SanitizeError(classified)

	r.errMu.Lock()
	r.errors[key] = message
	r.errMu.Unlock()

	r.metrics.IncrementEnrichmentOutcome(metrics.OutcomeError)
	r.logger.Warn("Enrichment failed, using static fallback",
		zap.Stringer("key", key),
		zap.String("error_type", string(classified.Type)),
		zap.String("error", message))

	fallback := StaticContext(req.Country)
	reason := fmt.Sprintf("%s (%s)", NoExternalDataText, classified.Message)
	fallback.GeopoliticalFactors = reason
	fallback.EnvironmentalFactors = reason
	fallback.Error = message
	return fallback
}

// canceled returns the static fallback for a caller whose context ended. Nothing is recorded
// against the location, so the next caller asks the provider again.
func (r *contextResolver) canceled(key models.ContextKey, req ResolveRequest, err error) models.ExternalContext {
	r.metrics.IncrementEnrichmentOutcome(metrics.OutcomeCanceled)
	r.logger.Debug("Enrichment abandoned by caller",
		zap.Stringer("key", key),
		zap.Error(err))

	fallback := StaticContext(req.Country)
	fallback.Error = logging.SanitizeError(err)
	return fallback
}

// StaticContext is the deterministic offline context for a country. It depends on nothing else.
func StaticContext(country string) models.ExternalContext {
	return models.ExternalContext{
		GeopoliticalFactors:       NoExternalDataText,
		GeopoliticalScore:         CountryGeoRisk(country),
		EnvironmentalFactors:      NoExternalDataText,
		EnvironmentalScore:        NeutralEnvironmentalRisk,
		ClimateRisk:               UnknownLabel,
		SupplyChainDisruptionRisk: UnknownLabel,
		Source:                    models.ContextSourceFallback,
	}
}

type enrichmentPayload struct {
	GeopoliticalFactors       json.RawMessage `json:"geopolitical_factors"`
	GeopoliticalScore         json.RawMessage `json:"geopolitical_score"`
	EnvironmentalFactors      json.RawMessage `json:"environmental_factors"`
	EnvironmentalScore        json.RawMessage `json:"environmental_score"`
	ClimateRisk               json.RawMessage `json:"climate_risk"`
	SupplyChainDisruptionRisk json.RawMessage `json:"supply_chain_disruption_risk"`
}

// parseEnrichment turns a model reply into a context. The bool is false when no JSON object
// could be read; the returned context then carries the raw reply split across the factor fields.
func parseEnrichment(content, country string) (models.ExternalContext, bool) {
	payload, err := llm.ParseJSONObject[enrichmentPayload](content)
	if err != nil {
		return models.ExternalContext{
			GeopoliticalFactors:       logging.RuneSlice(content, 0, rawFactorChunk),
			GeopoliticalScore:         CountryGeoRisk(country),
			EnvironmentalFactors:      logging.RuneSlice(content, rawFactorChunk, rawFactorChunk),
			EnvironmentalScore:        NeutralEnvironmentalRisk,
			ClimateRisk:               UnknownLabel,
			SupplyChainDisruptionRisk: UnknownLabel,
			Source:                    models.ContextSourceParseFallback,
		}, false
	}

	geo, ok := jsonutil.FlexibleFloat(payload.GeopoliticalScore)
	if !ok {
		geo = CountryGeoRisk(country)
	}
	env, ok := jsonutil.FlexibleFloat(payload.EnvironmentalScore)
	if !ok {
		env = NeutralEnvironmentalRisk
	}

	return models.ExternalContext{
		GeopoliticalFactors:       jsonutil.FlexibleStringValue(payload.GeopoliticalFactors),
		GeopoliticalScore:         clamp01(geo),
		EnvironmentalFactors:      jsonutil.FlexibleStringValue(payload.EnvironmentalFactors),
		EnvironmentalScore:        clamp01(env),
		ClimateRisk:               labelOrUnknown(payload.ClimateRisk),
		SupplyChainDisruptionRisk: labelOrUnknown(payload.SupplyChainDisruptionRisk),
		Source:                    models.ContextSourceExternal,
	}, true
}

func labelOrUnknown(raw json.RawMessage) string {
	if s := jsonutil.FlexibleStringValue(raw); s != "" {
		return s
	}
	return UnknownLabel
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
