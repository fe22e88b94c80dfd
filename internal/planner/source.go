// Package planner decides where a weekly plan comes from: the bundled static
// catalog or a fresh generation by Gemini, with a silent fallback to the
// static plan whenever generation fails.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nutrision/internal/llm"
	"nutrision/internal/recipe"
	"nutrision/internal/shared"
)

// AgentName identifies plan generations in execution metrics.
const AgentName = "PlanGenerator"

// DefaultStaticDelay paces the static plan like a network round-trip.
const DefaultStaticDelay = 800 * time.Millisecond

var (
	// ErrGeneratorUnavailable is reported when no generator is configured.
	ErrGeneratorUnavailable = errors.New("plan generator not configured")
	// ErrRateLimited is reported when the generation budget is exhausted.
	ErrRateLimited = errors.New("plan generation rate limited")
)

// Origin tells where a plan came from.
type Origin string

const (
	OriginStatic    Origin = "static"
	OriginGenerated Origin = "generated"
	OriginFallback  Origin = "fallback"
)

// Result is the outcome of a Generate call. Plan is always set. Err carries
// the reason a requested generation fell back to the static plan.
type Result struct {
	Plan   *recipe.WeeklyPlan
	Origin Origin
	Meta   shared.AgentMeta
	Err    error
}

// Option configures a Source.
type Option func(*Source)

// WithGenerator enables AI generation through g.
func WithGenerator(g llm.StructuredGenerator) Option {
	return func(s *Source) { s.generator = g }
}

// WithRateLimit caps AI generations per minute across the process.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *Source) {
		if perMinute > 0 {
			s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(burst, 1))
		}
	}
}

// WithStaticDelay overrides the artificial delay of the static path.
func WithStaticDelay(d time.Duration) Option {
	return func(s *Source) { s.delay = d }
}

// Source selects between the static catalog and AI generation.
type Source struct {
	generator llm.StructuredGenerator
	limiter   *rate.Limiter
	delay     time.Duration
	static    *recipe.WeeklyPlan
	logger    *zap.Logger
	newID     func() string
}

// NewSource loads the static catalog and applies opts.
func NewSource(logger *zap.Logger, opts ...Option) (*Source, error) {
	static, err := StaticPlan()
	if err != nil {
		return nil, fmt.Errorf("failed to load static plan: %w", err)
	}

	s := &Source{
		delay:  DefaultStaticDelay,
		static: static,
		logger: logger,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AIEnabled reports whether a generator is configured.
func (s *Source) AIEnabled() bool {
	return s.generator != nil
}

// Generate returns the static plan after the artificial delay when useAI is
// false. Otherwise it asks the generator for a new plan and falls back to
// the static plan on any failure. The only error is the context's, when it
// ends before a plan is ready.
func (s *Source) Generate(ctx context.Context, useAI bool) (Result, error) {
	if !useAI {
		if err := s.wait(ctx); err != nil {
			return Result{}, err
		}
		return Result{Plan: s.staticCopy(), Origin: OriginStatic}, nil
	}

	plan, meta, err := s.generate(ctx)
	if err == nil {
		return Result{Plan: plan, Origin: OriginGenerated, Meta: meta}, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	s.logger.Warn("AI generation failed, falling back to static plan", zap.Error(err))
	return Result{Plan: s.staticCopy(), Origin: OriginFallback, Meta: meta, Err: err}, nil
}

func (s *Source) generate(ctx context.Context) (*recipe.WeeklyPlan, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: AgentName}
	if s.generator == nil {
		return nil, meta, ErrGeneratorUnavailable
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return nil, meta, ErrRateLimited
	}

	prompt, err := buildGeneratorPrompt()
	if err != nil {
		return nil, meta, fmt.Errorf("failed to build generator prompt: %w", err)
	}

	start := time.Now()
	resp, err := s.generator.GenerateStructured(ctx, prompt, weeklyPlanSchema())
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate plan: %w", err)
	}
	meta.Usage = resp.Usage

	plan, err := s.decodePlan(resp.Content)
	if err != nil {
		return nil, meta, err
	}

	s.logger.Info("weekly plan generated",
		zap.String("week_id", plan.WeekID),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	return plan, meta, nil
}

func (s *Source) decodePlan(content string) (*recipe.WeeklyPlan, error) {
	var days []recipe.DailyPlan
	if err := json.Unmarshal([]byte(content), &days); err != nil {
		return nil, fmt.Errorf("failed to parse generated plan: %w", err)
	}

	plan := &recipe.WeeklyPlan{WeekID: s.newID(), Days: days}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("generated plan rejected: %w", err)
	}
	return plan, nil
}

func (s *Source) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// staticCopy returns the static plan under a fresh week id. Days and
// recipes are shared with the catalog snapshot.
func (s *Source) staticCopy() *recipe.WeeklyPlan {
	return &recipe.WeeklyPlan{WeekID: s.newID(), Days: s.static.Days}
}
