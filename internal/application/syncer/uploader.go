package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jooleearr/chatty-boxy/internal/application"
	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// UploaderConfig bounds retries and polling for index uploads
type UploaderConfig struct {
	DisplayName    string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// DefaultUploaderConfig returns the settings used when none are configured
func DefaultUploaderConfig() UploaderConfig {
	return UploaderConfig{
		DisplayName:    "chatty-boxy",
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		PollInterval:   2 * time.Second,
		PollTimeout:    5 * time.Minute,
	}
}

// IndexUploader pushes staged artifacts to the search index
type IndexUploader struct {
	index     ports.SearchIndex
	cache     ports.IndexRefCache
	artifacts ports.ArtifactStore
	cfg       UploaderConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewIndexUploader creates an uploader. Zero config fields fall back to defaults.
func NewIndexUploader(index ports.SearchIndex, cache ports.IndexRefCache, artifacts ports.ArtifactStore, cfg UploaderConfig, logger *slog.Logger) *IndexUploader {
	def := DefaultUploaderConfig()
	if cfg.DisplayName == "" {
		cfg.DisplayName = def.DisplayName
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &IndexUploader{
		index:     index,
		cache:     cache,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "uploader")),
		now:       time.Now,
	}
}

// UploadFailure is one artifact that could not be indexed
type UploadFailure struct {
	Item domain.RemoteItem
	Err  error
}

// UploadReport aggregates the outcome of one batch
type UploadReport struct {
	IndexName string
	Uploaded  map[string]string // item ID -> index entry ref
	Failures  []UploadFailure
}

// Upload indexes every staged artifact. Per-item failures land in the report;
// the returned error is reserved for an unreachable index or cancellation.
func (u *IndexUploader) Upload(ctx context.Context, staged []domain.StagedArtifact) (*UploadReport, error) {
	report := &UploadReport{Uploaded: make(map[string]string)}
	if len(staged) == 0 {
		return report, nil
	}

	indexName, err := u.resolveIndex(ctx)
	if err != nil {
		return nil, err
	}
	report.IndexName = indexName

	for _, s := range staged {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ref, err := u.uploadOne(ctx, indexName, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			u.logger.Warn("upload failed",
				slog.String("item_id", s.Item.ID),
				slog.String("location", s.Location),
				slog.String("error", err.Error()))
			report.Failures = append(report.Failures, UploadFailure{Item: s.Item, Err: err})
			continue
		}
		report.Uploaded[s.Item.ID] = ref
	}

	return report, nil
}

// Remove deletes an entry from the cached index. It is a no-op when no
// index has been created yet.
func (u *IndexUploader) Remove(ctx context.Context, entryRef string) error {
	ref, err := u.cache.GetIndexRef(ctx)
	if err != nil {
		return fmt.Errorf("read index ref: %w", err)
	}
	if ref == nil {
		return nil
	}
	return u.index.DeleteItem(ctx, ref.Name, entryRef)
}

// resolveIndex returns the cached index name or creates the index once
func (u *IndexUploader) resolveIndex(ctx context.Context) (string, error) {
	ref, err := u.cache.GetIndexRef(ctx)
	if err != nil {
		return "", fmt.Errorf("read index ref: %w", err)
	}
	if ref != nil && ref.DisplayName == u.cfg.DisplayName {
		if err := u.cache.TouchIndexRef(ctx); err != nil {
			u.logger.Warn("touch index ref", slog.String("error", err.Error()))
		}
		return ref.Name, nil
	}

	name, err := u.index.GetOrCreateIndex(ctx, u.cfg.DisplayName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", application.ErrIndexUnavailable, err)
	}

	now := u.now()
	if err := u.cache.SaveIndexRef(ctx, &domain.IndexRef{
		Name:        name,
		DisplayName: u.cfg.DisplayName,
		CreatedAt:   now,
		LastUsedAt:  now,
	}); err != nil {
		return "", fmt.Errorf("save index ref: %w", err)
	}

	u.logger.Info("using search index", slog.String("name", name))
	return name, nil
}

func (u *IndexUploader) uploadOne(ctx context.Context, indexName string, s domain.StagedArtifact) (string, error) {
	content, err := u.artifacts.Read(s.Location)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	req := ports.UploadRequest{
		IndexName:     indexName,
		DisplayName:   u.cfg.DisplayName,
		Location:      s.Location,
		MimeType:      detectMimeType(s.Location, content),
		Content:       content,
		ItemID:        s.Item.ID,
		CollectionKey: s.Item.CollectionKey,
		Title:         s.Item.Title,
		SourceURL:     s.Item.SourceURL,
	}

	op, err := u.submit(ctx, req)
	if err != nil {
		return "", err
	}

	op, err = u.waitForOperation(ctx, op)
	if err != nil {
		return "", err
	}
	return op.EntryRef, nil
}

// submit retries transport failures with doubling backoff. An operation the
// service rejected is returned as an error without retrying.
func (u *IndexUploader) submit(ctx context.Context, req ports.UploadRequest) (*domain.Operation, error) {
	backoff := u.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		op, err := u.index.UploadItem(ctx, req)
		if err == nil {
			if op.Failed() {
				return nil, fmt.Errorf("indexing rejected: %s", op.Error)
			}
			return op, nil
		}
		lastErr = err

		if attempt == u.cfg.MaxAttempts {
			break
		}
		u.logger.Debug("retrying upload",
			slog.String("item_id", req.ItemID),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff))

		if err := sleepContext(ctx, backoff); err != nil {
			return nil, err
		}
		backoff = min(backoff*2, u.cfg.MaxBackoff)
	}

	return nil, fmt.Errorf("upload failed after %d attempts: %w", u.cfg.MaxAttempts, lastErr)
}

var errPollTimeout = errors.New("timed out waiting for indexing")

// waitForOperation polls until the operation is done or PollTimeout
// elapses. The first poll is immediate, later ones PollInterval apart.
func (u *IndexUploader) waitForOperation(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	if op.Done {
		return op, nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, u.cfg.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(u.cfg.PollInterval)
	defer ticker.Stop()

	for {
		next, err := u.index.PollOperation(pollCtx, op)
		switch {
		case err != nil:
			// Transport errors while polling are retried until the deadline
			u.logger.Debug("poll failed", slog.String("operation", op.Name), slog.String("error", err.Error()))
		case next.Failed():
			return nil, fmt.Errorf("indexing failed: %s", next.Error)
		case next.Done:
			return next, nil
		default:
			op = next
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w after %s", errPollTimeout, u.cfg.PollTimeout)
		case <-ticker.C:
		}
	}
}

func detectMimeType(location string, content []byte) string {
	if path.Ext(location) == ".md" {
		return "text/markdown"
	}
	return mimetype.Detect(content).String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
