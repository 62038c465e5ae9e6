package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/zen-systems/erpassist/pkg/adapter"
	"github.com/zen-systems/erpassist/pkg/assist"
	"github.com/zen-systems/erpassist/pkg/config"
	"github.com/zen-systems/erpassist/pkg/docstore"
	"github.com/zen-systems/erpassist/pkg/embedding"
	"github.com/zen-systems/erpassist/pkg/images"
	"github.com/zen-systems/erpassist/pkg/logger"
	"github.com/zen-systems/erpassist/pkg/metrics"
	"github.com/zen-systems/erpassist/pkg/triage"
	"github.com/zen-systems/erpassist/pkg/vision"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	fs       afero.Fs
	adapters map[string]adapter.Adapter
	metrics  *metrics.Metrics
	embedder embedding.Embedder
	store    docstore.Store
	images   *images.Locator
	engine   *assist.Engine
	vision   *vision.Analyzer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Assistant.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("missing API key for %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// newApp wires adapters, the passage store and the turn engine.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Assistant.Logging)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		fs:      afero.NewOsFs(),
		metrics: metrics.New(),
	}

	registry, err := adapter.NewRegistry(adapter.Keys{
		Google:    cfg.GoogleAPIKey,
		OpenAI:    cfg.OpenAIAPIKey,
		Anthropic: cfg.AnthropicAPIKey,
		DeepSeek:  cfg.DeepSeekAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create adapters: %w", err)
	}
	a.adapters = registry

	if a.embedder, err = newEmbedder(cfg.Assistant.Embedding, registry); err != nil {
		return nil, err
	}
	if a.store, err = docstore.Open(ctx, cfg.Assistant.Store, cfg.Assistant.Embedding.Dimension, a.fs); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	ac := cfg.Assistant
	triageAdapter, err := a.target(ac.Triage)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}
	answerAdapter, err := a.target(ac.Answer.RouteTarget)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	visionAdapter, err := a.target(ac.Vision)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}

	retriever := docstore.NewRetriever(a.embedder, a.store, docstore.SearchOptions{
		TopK:     ac.Retrieval.TopK,
		MinScore: ac.Retrieval.Threshold(),
	})
	a.images = images.NewLocator(a.fs, ac.Images.Dir, ac.Images.URLPrefix)
	a.engine = assist.NewEngine(
		triage.NewClassifier(triageAdapter, ac.ResolveModel(ac.Triage.Model)),
		retriever,
		assist.NewLLMGenerator(answerAdapter, ac.ResolveModel(ac.Answer.Model), ac.Answer.Sentinel),
		a.images,
		assist.Options{
			Sentinel: ac.Answer.Sentinel,
			Logger:   log,
			Observer: a.metrics,
		},
	)
	a.vision = vision.NewAnalyzer(visionAdapter, ac.ResolveModel(ac.Vision.Model), a.fs)

	return a, nil
}

func (a *app) target(t config.RouteTarget) (adapter.Adapter, error) {
	if !a.cfg.HasAdapter(t.Adapter) {
		return nil, fmt.Errorf("adapter %q not available (missing API key)", t.Adapter)
	}
	impl, ok := a.adapters[t.Adapter]
	if !ok {
		return nil, fmt.Errorf("adapter %q not available", t.Adapter)
	}
	return a.metrics.Instrument(impl), nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func newEmbedder(cfg config.EmbeddingConfig, adapters map[string]adapter.Adapter) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "google":
		g, ok := adapters["google"].(*adapter.GoogleAdapter)
		if !ok {
			return nil, fmt.Errorf("embedding provider google requires GOOGLE_API_KEY")
		}
		return embedding.NewGoogleEmbedder(g.Client(), cfg.Model, cfg.Dimension)
	case "openai":
		o, ok := adapters["openai"].(*adapter.OpenAIAdapter)
		if !ok {
			return nil, fmt.Errorf("embedding provider openai requires OPENAI_API_KEY")
		}
		return embedding.NewOpenAIEmbedder(o.Client(), cfg.Model, cfg.Dimension)
	case "hash":
		return embedding.NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
