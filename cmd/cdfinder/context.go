package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cdfinder/internal/capture"
	"cdfinder/internal/catalog"
	"cdfinder/internal/catalog/source"
	"cdfinder/internal/config"
	"cdfinder/internal/identification"
	"cdfinder/internal/logging"
	"cdfinder/internal/session"
)

type commandContext struct {
	configFlag   *string
	verboseFlag  *bool
	fileLogsOnly bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) verbose() bool {
	return !c.fileLogsOnly && c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		opts, err := logging.OptionsFromConfig(cfg, !c.verbose())
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(opts)
	})
	return c.logger, c.loggerErr
}

// sessionHandle bundles an orchestrator with the resources it borrows.
type sessionHandle struct {
	*session.Orchestrator
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func (h *sessionHandle) Close() error {
	if h == nil || h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

func (h *sessionHandle) camera() capture.Camera {
	if len(h.cfg.Capture.Command) == 0 {
		return nil
	}
	timeout := time.Duration(h.cfg.Capture.TimeoutSeconds) * time.Second
	return capture.NewCommandCamera(h.cfg.Capture.Command, timeout, h.logger)
}

func (c *commandContext) openSession() (*sessionHandle, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	store, closer, err := source.Open(cfg)
	if err != nil {
		return nil, err
	}
	reader := source.NewReader(store, cfg.Catalog.PageSize, logger)

	var ai identification.Service
	completer, err := identification.NewCompleter(cfg)
	switch {
	case err == nil:
		ai = identification.NewCachedIdentifier(identification.NewIdentifier(completer, logger), cfg.IdentifyCacheTTL(), logger)
	case errors.Is(err, identification.ErrNoCredential):
		logger.Debug("ai disabled; no credential configured")
	default:
		_ = closer.Close()
		return nil, fmt.Errorf("configure ai provider: %w", err)
	}

	orch := session.New(reader, ai, session.Options{
		Catalog: catalog.Options{
			Merge:  catalog.MergeOptions{Dedupe: cfg.Catalog.Dedupe},
			Filter: catalog.FilterOptions{MatchSpecs: cfg.Catalog.MatchSpecs},
		},
		Credential: cfg.AICredential(),
		AITimeout:  cfg.AITimeout(),
		Logger:     logger,
	})
	return &sessionHandle{Orchestrator: orch, cfg: cfg, logger: logger, closer: closer}, nil
}

// withSession opens a session, runs fn, and releases backend connections.
func (c *commandContext) withSession(fn func(*sessionHandle) error) error {
	h, err := c.openSession()
	if err != nil {
		return err
	}
	defer h.Close()
	return fn(h)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func onOff(value bool) string {
	if value {
		return "ON"
	}
	return "OFF"
}
