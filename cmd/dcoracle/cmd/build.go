package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/config"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/oracle"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"

	// Import sources to register them
	_ "github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources/dexagg"
	_ "github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources/evm"
)

var errNoSourcesAvailable = errors.New("no sources available")

func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetGlobal(logger)

	return cfg, logger, nil
}

// buildSources creates the fallback chain in priority order. A source that
// fails to build is skipped with a warning.
func buildSources(cfg *config.Config, logger *logging.Logger) ([]sources.Source, error) {
	var chain []sources.Source

	for _, sourceCfg := range cfg.EnabledSources() {
		logger.Info("Initializing source", "type", sourceCfg.Type, "name", sourceCfg.Name, "priority", sourceCfg.Priority)

		// copy so the config value is not mutated
		sc := make(map[string]interface{}, len(sourceCfg.Config)+1)
		for k, v := range sourceCfg.Config {
			sc[k] = v
		}
		sc["logger"] = logger

		source, err := sources.Create(sourceCfg.Type, sourceCfg.Name, sc)
		if err != nil {
			logger.Warn("Failed to create source", "type", sourceCfg.Type, "name", sourceCfg.Name, "error", err)
			continue
		}
		chain = append(chain, source)
	}

	if len(chain) == 0 {
		return nil, errNoSourcesAvailable
	}
	return chain, nil
}

func closeSources(chain []sources.Source, logger *logging.Logger) {
	for _, s := range chain {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close source", "source", s.Name(), "error", err)
			}
		}
	}
}

func buildOracle(cfg *config.Config, logger *logging.Logger, opts ...oracle.Option) (*oracle.Oracle, []sources.Source, error) {
	chain, err := buildSources(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	o, err := oracle.New(cfg.Oracle.ToOracle(), chain, logger, opts...)
	if err != nil {
		closeSources(chain, logger)
		return nil, nil, fmt.Errorf("failed to create oracle: %w", err)
	}
	return o, chain, nil
}
