package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/config"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/db"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/llm"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/loader"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/modelhub"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/portfolio"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/proxy"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/runtime"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// loadConfig resolves the configuration: config file, then environment,
// then built-in defaults for anything still unset. Overrides (usually
// command flags) run last, before validation.
func loadConfig(getenv func(string) string, overrides ...func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	if err := cfg.FromEnv(getenv); err != nil {
		return config.Config{}, err
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	if verbose {
		cfg.Verbose = true
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadFacts reads the Fact Set from the configured file or database owner.
func loadFacts(ctx context.Context, cfg config.Config, logger *zap.Logger) (*types.Portfolio, error) {
	switch {
	case cfg.FactsFile != "":
		facts, err := portfolio.LoadFile(cfg.FactsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded facts from file", zap.String("path", cfg.FactsFile))
		return facts, nil

	case cfg.Owner != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer database.Close()

		record, err := database.LoadPortfolio(ctx, cfg.Owner)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded facts from database",
			zap.String("owner", record.Owner),
			zap.Time("updated_at", record.UpdatedAt))
		return record.Facts, nil
	}
	return nil, fmt.Errorf("no Fact Set configured: set facts_file or owner")
}

// proxyConfig maps the provider settings onto the gateway configuration.
func proxyConfig(cfg config.Config) proxy.Config {
	pc := proxy.DefaultConfig()
	pc.ModelHubHost = cfg.ModelHubHost
	pc.DatasetHubHost = cfg.DatasetHubHost
	pc.DefaultHost = cfg.DefaultHost
	pc.DefaultNamespace = cfg.DefaultNamespace
	return pc
}

// providerHosts lists the hosts whose requests the loader reroutes.
func providerHosts(cfg config.Config) []string {
	var hosts []string
	for _, h := range []string{cfg.ModelHubHost, cfg.DatasetHubHost, cfg.DefaultHost} {
		if h != "" && !slices.Contains(hosts, h) {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// newLoader wires the runtime backends and the model hub into a Loader. The
// returned func releases the loader and the Gemini client.
func newLoader(cfg config.Config, gatewayBase string, observer loader.Observer, logger *zap.Logger) (*loader.Loader, func()) {
	gemini := runtime.NewGemini(cfg.APIKey, llm.DefaultConfig(), llm.TierFast)
	backends := runtime.New(logger, cfg.Backend, runtime.NewCPU(), gemini)
	hub := modelhub.New(modelhub.DefaultConcurrency, logger)

	ld := loader.New(loader.Config{
		ModelURL:      cfg.ModelURL,
		GatewayBase:   gatewayBase,
		ProviderHosts: providerHosts(cfg),
		Timeout:       time.Duration(cfg.LoadTimeoutSeconds) * time.Second,
		MinScore:      cfg.MinAnswerScore,
		Observer:      observer,
	}, backends, hub, logger)

	return ld, func() {
		ld.Close()
		if err := gemini.Close(); err != nil {
			logger.Debug("gemini client close failed", zap.Error(err))
		}
	}
}
