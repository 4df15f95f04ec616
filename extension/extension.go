// Package extension provides the Forge extension adapter for the billing
// engine.
//
// It implements the forge.Extension interface to integrate the engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.regie" or "regie" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	regie "github.com/billcore/regie"
	"github.com/billcore/regie/store"
	"github.com/billcore/regie/store/memory"
	"github.com/billcore/regie/webhook"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "regie"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant invoicing and payment reconciliation engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the billing engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *regie.Engine
	store      store.Store
	engineOpts []regie.Option
}

// New creates a new billing Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine instance.
// This is nil until Register is called.
func (e *Extension) Engine() *regie.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the billing engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := e.engineOpts
	if !e.config.DisableWebhooks {
		opts = append(opts, regie.WithPlugin(webhook.New(e.store.GetRegie)))
	}

	e.engine = regie.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*regie.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("regie: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("regie: store not initialized")
	}
	return e.store.Ping(ctx)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("regie: configuration is required but not found in config files; " +
				"ensure 'extensions.regie' or 'regie' key exists in your config")
		}
		e.config = programmaticConfig
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("regie: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_webhooks", e.config.DisableWebhooks),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.regie" first (namespaced pattern).
	if cm.IsSet("extensions.regie") {
		if err := cm.Bind("extensions.regie", &cfg); err == nil {
			e.Logger().Debug("regie: loaded config from file",
				forge.F("key", "extensions.regie"),
			)
			return cfg, true
		}
		e.Logger().Warn("regie: failed to bind extensions.regie config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "regie" key.
	if cm.IsSet("regie") {
		if err := cm.Bind("regie", &cfg); err == nil {
			e.Logger().Debug("regie: loaded config from file",
				forge.F("key", "regie"),
			)
			return cfg, true
		}
		e.Logger().Warn("regie: failed to bind regie config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML takes precedence; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableWebhooks {
		yamlConfig.DisableWebhooks = true
	}
	return yamlConfig
}
