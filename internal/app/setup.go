package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"nutrision/internal/clipper"
	"nutrision/internal/config"
	"nutrision/internal/database"
	"nutrision/internal/llm"
	"nutrision/internal/metrics"
	"nutrision/internal/planner"
	"nutrision/internal/session"
)

// Runtime is an App together with the resources it owns.
type Runtime struct {
	App      *App
	Registry *prometheus.Registry
	closers  []llm.Closer
}

// Setup opens the database, builds the AI clients the configuration allows
// and wires the App. Close releases everything Setup opened.
func Setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Registry: prometheus.NewRegistry()}
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	rt.closers = append(rt.closers, db)

	opts := []planner.Option{
		planner.WithStaticDelay(cfg.StaticPlanDelay),
		planner.WithRateLimit(cfg.AIRequestsPerMinute, cfg.AIBurst),
	}

	var textGen llm.TextGenerator
	if cfg.AIEnabled() {
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		rt.closers = append(rt.closers, gemini)
		opts = append(opts, planner.WithGenerator(gemini))
		textGen = gemini
	} else {
		logger.Info("GEMINI_API_KEY not set, serving the static plan only")
	}
	if cfg.GroqAPIKey != "" {
		textGen = llm.NewGroqClient(cfg)
	}

	source, err := planner.NewSource(logger, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var recipeClipper *clipper.Clipper
	if textGen != nil {
		recipeClipper = clipper.NewClipper(textGen, logger)
	}

	rt.App = NewApp(
		source,
		planner.NewPlanRepository(db.SQL),
		session.NewRepository(db.SQL, cfg.DefaultPortions),
		metrics.NewStore(db.SQL),
		metrics.NewCollectors(rt.Registry),
		recipeClipper,
		logger,
	)
	return rt, nil
}

// Close releases the resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
