// Package bootstrap wires configuration into adapters for the binaries.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jooleearr/chatty-boxy/internal/adapters/confluence"
	"github.com/jooleearr/chatty-boxy/internal/adapters/filesystem"
	"github.com/jooleearr/chatty-boxy/internal/adapters/markdown"
	"github.com/jooleearr/chatty-boxy/internal/adapters/sqlite"
	"github.com/jooleearr/chatty-boxy/internal/adapters/weaviate"
	"github.com/jooleearr/chatty-boxy/internal/application/syncer"
	"github.com/jooleearr/chatty-boxy/internal/config"
	"github.com/jooleearr/chatty-boxy/internal/logging"
)

// Runtime holds the opened local state. Remote adapters are built on demand
// so read-only commands work without credentials.
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *sqlite.Store
	Artifacts *filesystem.ArtifactStore

	logCloser io.Closer
}

// Open loads configuration from configPath, sets up logging and opens the
// record store and artifact directory.
func Open(configPath string) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		return nil, err
	}

	rt, err := openWith(cfg, logger)
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	rt.logCloser = logCloser

	if cfg.File != "" {
		logger.Debug("loaded config", slog.String("file", cfg.File))
	}
	return rt, nil
}

func openWith(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	store := sqlite.NewStore()
	if err := store.Open(cfg.Storage.DatabasePath); err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	artifacts, err := filesystem.NewOSArtifactStore(cfg.Storage.ArtifactDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Artifacts: artifacts,
		logCloser: nopCloser{},
	}, nil
}

// Close releases the store and flushes the log file
func (r *Runtime) Close() error {
	return errors.Join(r.Store.Close(), r.logCloser.Close())
}

// Source builds the Confluence client. Fails when the source is not configured.
func (r *Runtime) Source() (*confluence.Client, error) {
	if err := r.Config.ValidateSource(); err != nil {
		return nil, fmt.Errorf("confluence not configured: %w", err)
	}
	c := r.Config.Confluence
	return confluence.NewClient(confluence.Config{
		BaseURL:           c.BaseURL,
		Email:             c.Email,
		APIToken:          c.APIToken,
		PageSize:          c.PageSize,
		MaxItemsPerRun:    c.MaxItemsPerRun,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           c.Timeout,
	}, r.Logger), nil
}

// Detector builds a change detector over the local state only
func (r *Runtime) Detector() *syncer.Detector {
	return syncer.NewDetector(r.Store, r.Artifacts, r.Logger)
}

// Uploader builds the index uploader, or returns nil when no index is configured
func (r *Runtime) Uploader() (*syncer.IndexUploader, error) {
	if !r.Config.IndexEnabled() {
		return nil, nil
	}

	index, err := weaviate.New(r.Config.Index.URL, r.Logger)
	if err != nil {
		return nil, err
	}

	ic := r.Config.Index
	return syncer.NewIndexUploader(index, r.Store, r.Artifacts, syncer.UploaderConfig{
		DisplayName:    ic.DisplayName,
		MaxAttempts:    ic.MaxAttempts,
		InitialBackoff: ic.InitialBackoff,
		MaxBackoff:     ic.MaxBackoff,
		PollInterval:   ic.PollInterval,
		PollTimeout:    ic.PollTimeout,
	}, r.Logger), nil
}

// Orchestrator wires a full sync orchestrator
func (r *Runtime) Orchestrator() (*syncer.Orchestrator, error) {
	source, err := r.Source()
	if err != nil {
		return nil, err
	}
	uploader, err := r.Uploader()
	if err != nil {
		return nil, err
	}

	return syncer.NewOrchestrator(syncer.Deps{
		Source:    source,
		Converter: markdown.NewConverter(r.Config.Confluence.BaseURL),
		Artifacts: r.Artifacts,
		Records:   r.Store,
		Ledger:    r.Store,
		Uploader:  uploader,
	}, syncer.Config{
		Collections:      r.Config.Confluence.Spaces,
		FetchConcurrency: r.Config.Sync.FetchConcurrency,
	}, r.Logger), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
