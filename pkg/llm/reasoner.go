// Package llm adapts external text-generation services to a single
// generate(system, user, temperature) contract that never fails: any problem
// is reported as "unavailable" so callers can degrade.
package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
	"github.com/ekaya-inc/ekaya-assist/pkg/retry"
)

// Call outcomes passed to a CallObserver.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeUnconfigured = "unconfigured"
	OutcomeCircuitOpen  = "circuit_open"
)

// CallObserver is notified once per Generate call.
type CallObserver func(provider, outcome string, elapsed time.Duration)

// Generator is the contract the orchestrator relies on. ok is false when the
// service is not configured or the call failed; text may be "" when ok.
type Generator interface {
	Generate(ctx context.Context, system, user string, temperature float64) (text string, ok bool)
}

// Reasoner wraps a Provider with retry, a circuit breaker and error logging.
type Reasoner struct {
	provider  Provider
	breaker   *CircuitBreaker
	retry     *retry.Config
	maxTokens int
	timeout   time.Duration
	observer  CallObserver
	logger    *zap.Logger
}

// Option configures a Reasoner.
type Option func(*Reasoner)

// WithRetry sets the retry policy. Only retryable errors are retried.
func WithRetry(cfg *retry.Config) Option {
	return func(r *Reasoner) { r.retry = cfg }
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(r *Reasoner) { r.breaker = cb }
}

func WithMaxTokens(n int) Option {
	return func(r *Reasoner) { r.maxTokens = n }
}

// WithTimeout bounds one Generate call, retries included. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Reasoner) { r.timeout = d }
}

func WithCallObserver(fn CallObserver) Option {
	return func(r *Reasoner) { r.observer = fn }
}

// NewReasoner creates a Reasoner. A nil provider means the service is not
// configured and every Generate call reports unavailable.
func NewReasoner(provider Provider, logger *zap.Logger, opts ...Option) *Reasoner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reasoner{
		provider: provider,
		breaker:  NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		retry:    retry.DefaultConfig(),
		logger:   logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(r)
	}
	// WithRetry(nil) means a single attempt
	cfg := retry.Config{}
	if r.retry != nil {
		cfg = *r.retry
	}
	cfg.ShouldRetry = IsRetryable
	r.retry = &cfg
	return r
}

// Configured reports whether a provider is present.
func (r *Reasoner) Configured() bool {
	return r != nil && r.provider != nil
}

// Generate returns the primary text of the response. It never returns an error.
func (r *Reasoner) Generate(ctx context.Context, system, user string, temperature float64) (string, bool) {
	if !r.Configured() {
		r.observe("", OutcomeUnconfigured, 0)
		return "", false
	}
	name := r.provider.Name()

	if r.breaker != nil {
		if allowed, err := r.breaker.Allow(); !allowed {
			r.logger.Warn("Reasoning call skipped",
				zap.String("provider", name),
				zap.String("circuit_state", r.breaker.State().String()),
				zap.Error(err))
			r.observe(name, OutcomeCircuitOpen, 0)
			return "", false
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req := Request{System: system, User: user, Temperature: temperature, MaxTokens: r.maxTokens}
	start := time.Now()

	r.logger.Debug("Reasoning request",
		zap.String("provider", name),
		zap.String("model", r.provider.Model()),
		zap.Int("prompt_len", len(user)),
		zap.Float64("temperature", temperature))

	attempt := 0
	text, err := retry.DoWithResult(ctx, r.retry, func() (string, error) {
		attempt++
		out, err := r.provider.Complete(ctx, req)
		if err != nil {
			classified := ClassifyError(err)
			classified.Provider = name
			return "", classified
		}
		return out, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		if r.breaker != nil {
			r.breaker.RecordFailure()
		}
		classified := ClassifyError(err)
		r.logger.Error("Reasoning request failed",
			zap.String("provider", name),
			zap.String("model", r.provider.Model()),
			zap.String("error_type", string(classified.Type)),
			zap.Bool("retryable", classified.Retryable),
			zap.Int("attempts", attempt),
			zap.Duration("elapsed", elapsed),
			zap.String("error", logging.SanitizeError(err)))
		r.observe(name, OutcomeError, elapsed)
		return "", false
	}

	if r.breaker != nil {
		r.breaker.RecordSuccess()
	}
	r.logger.Info("Reasoning request completed",
		zap.String("provider", name),
		zap.Int("response_len", len(text)),
		zap.Int("attempts", attempt),
		zap.Duration("elapsed", elapsed))
	r.observe(name, OutcomeOK, elapsed)
	return text, true
}

func (r *Reasoner) observe(provider, outcome string, elapsed time.Duration) {
	if r != nil && r.observer != nil {
		r.observer(provider, outcome, elapsed)
	}
}
