package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ziadkadry99/freestyler/internal/bars"
	"github.com/ziadkadry99/freestyler/internal/config"
	"github.com/ziadkadry99/freestyler/internal/db"
	"github.com/ziadkadry99/freestyler/internal/freestyle"
	"github.com/ziadkadry99/freestyler/internal/history"
	"github.com/ziadkadry99/freestyler/internal/llm"
	"github.com/ziadkadry99/freestyler/internal/logging"
	"github.com/ziadkadry99/freestyler/internal/persona"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `freestyler init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the zap logger from config; --verbose forces debug.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Format)
}

// buildCatalog returns the built-in personas plus any from persona_files,
// with the configured default selected.
func buildCatalog(cfg *config.Config) (*persona.Catalog, error) {
	catalog := persona.NewCatalog()
	if len(cfg.PersonaFiles) > 0 {
		if _, err := catalog.LoadFiles(cfg.PersonaFiles); err != nil {
			return nil, fmt.Errorf("loading persona files: %w", err)
		}
	}
	if cfg.DefaultPersona != "" {
		if err := catalog.SetDefault(cfg.DefaultPersona); err != nil {
			return nil, fmt.Errorf("default_persona: %w", err)
		}
	}
	return catalog, nil
}

func buildFilter(cfg *config.Config) bars.Filter {
	return bars.Filter{
		Markers:  cfg.Bars.Markers,
		MinWords: cfg.Bars.MinWords,
		Max:      cfg.Bars.Max,
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(llm.Options{
		Provider: string(cfg.Provider),
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.RateLimitRPM), nil
}

// openHistory opens the generation database under data_dir.
func openHistory(cfg *config.Config) (*db.DB, *history.Store, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, history.NewStore(database), nil
}

// buildService wires a freestyle service from config. recorder may be nil.
func buildService(cfg *config.Config, recorder freestyle.Recorder, logger *zap.Logger) (*freestyle.Service, error) {
	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return freestyle.New(provider, catalog, buildFilter(cfg), freestyle.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, recorder, logger), nil
}

// headingFor resolves name against the local catalog for display; unknown
// names are shown as given.
func headingFor(catalog *persona.Catalog, name string) string {
	p, err := catalog.Resolve(name)
	if err != nil {
		p = persona.Persona{Name: name}
	}
	return persona.Heading(p)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
