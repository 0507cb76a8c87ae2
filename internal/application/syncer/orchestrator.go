package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jooleearr/chatty-boxy/internal/application"
	"github.com/jooleearr/chatty-boxy/internal/application/report"
	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

const defaultFetchConcurrency = 4

// Deps are the collaborators of a sync run. Uploader may be nil when no
// search index is configured.
type Deps struct {
	Source    ports.ContentSource
	Converter ports.Converter
	Artifacts ports.ArtifactStore
	Records   ports.RecordStore
	Ledger    ports.RunLedger
	Uploader  *IndexUploader
}

// Config holds orchestrator settings
type Config struct {
	Collections      []string // Synced when RunOptions.CollectionKeys is empty
	FetchConcurrency int
}

// RunOptions controls a single run
type RunOptions struct {
	ForceFullSync  bool
	CollectionKeys []string
	DryRun         bool
}

// RunResult mirrors the finalized RunRecord plus per-item detail
type RunResult struct {
	RunID          int64
	Success        bool
	Status         domain.RunStatus
	Counts         domain.RunCounts
	UnchangedCount int
	TotalRemote    int
	Errors         []domain.SyncError
	Anomalies      []domain.VersionAnomaly
	Plan           *domain.ChangeSet // Only set for dry runs
	Duration       time.Duration
}

// Orchestrator drives one convergence pass between the source and the mirror
type Orchestrator struct {
	deps     Deps
	detector *Detector
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator wires a sync orchestrator
func NewOrchestrator(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		deps:     deps,
		detector: NewDetector(deps.Records, deps.Artifacts, logger),
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "orchestrator")),
		now:      time.Now,
	}
}

// Detector returns the change detector bound to the same record store
func (o *Orchestrator) Detector() *Detector {
	return o.detector
}

// runState accumulates what happens during one run
type runState struct {
	id      int64
	started time.Time
	counts  domain.RunCounts
	errors  []domain.SyncError
}

func (s *runState) record(stage domain.Stage, collectionKey, itemID string, err error) {
	s.errors = append(s.errors, domain.SyncError{
		Stage:         stage,
		ItemID:        itemID,
		CollectionKey: collectionKey,
		Message:       err.Error(),
	})
}

// Run executes START, FETCH, CLASSIFY, PROCESS_ITEMS, UPLOAD, PERSIST, DELETE
// and FINALIZE in order.
//
// A non-nil error means the run did not complete: either the ledger could
// not be written, the run failed and was marked so, or ctx was cancelled and
// the run was left in the running state.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	// START
	runID, err := o.deps.Ledger.StartRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	state := &runState{id: runID, started: o.now()}
	logger := o.logger.With(slog.Int64("run_id", runID))
	logger.Info("sync started",
		slog.Bool("force_full", opts.ForceFullSync),
		slog.Bool("dry_run", opts.DryRun))

	keys := opts.CollectionKeys
	if len(keys) == 0 {
		keys = o.cfg.Collections
	}
	if len(keys) == 0 {
		return o.fail(ctx, state, application.ErrNoCollections)
	}

	// FETCH
	items, scope, err := o.fetch(ctx, keys, state)
	if err != nil {
		return nil, err
	}

	// CLASSIFY
	var changes *domain.ChangeSet
	if opts.ForceFullSync {
		changes, err = o.detector.ClassifyForced(ctx, items)
	} else {
		changes, err = o.detector.Classify(ctx, items)
	}
	if err != nil {
		return o.fail(ctx, state, fmt.Errorf("classify: %w", err))
	}
	changes.ToDelete, err = o.detector.ClassifyDeletionsFor(ctx, scope, items)
	if err != nil {
		return o.fail(ctx, state, fmt.Errorf("classify deletions: %w", err))
	}
	state.counts.Skipped = changes.UnchangedCount

	logger.Info("changes classified",
		slog.Int("remote_items", len(items)),
		slog.Int("added", changes.Added),
		slog.Int("updated", changes.Updated),
		slog.Int("deleted", len(changes.ToDelete)),
		slog.Int("unchanged", changes.UnchangedCount))

	if opts.DryRun {
		result, err := o.complete(ctx, state, changes)
		if result != nil {
			result.Plan = changes
		}
		return result, err
	}

	// PROCESS_ITEMS
	staged, err := o.processItems(ctx, changes.ToCreateOrUpdate, state)
	if err != nil {
		return nil, err
	}
	if o.deps.Uploader != nil {
		staged = append(staged, reindexStaged(changes.ToReindex)...)
	}

	// UPLOAD
	uploaded, err := o.upload(ctx, staged, state)
	if err != nil {
		return nil, err
	}

	// PERSIST
	if err := o.persist(ctx, staged, uploaded, state); err != nil {
		return nil, err
	}

	// DELETE
	if err := o.deleteStale(ctx, changes.ToDelete, state); err != nil {
		return nil, err
	}

	// FINALIZE
	return o.complete(ctx, state, changes)
}

type fetchResult struct {
	items []domain.RemoteItem
	err   error
}

// fetch lists collections concurrently and returns items in requested
// collection order, plus the collections eligible for deletion detection
func (o *Orchestrator) fetch(ctx context.Context, keys []string, state *runState) ([]domain.RemoteItem, []string, error) {
	results := make([]fetchResult, len(keys))

	var g errgroup.Group
	g.SetLimit(o.cfg.FetchConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			items, err := o.deps.Source.ListItems(ctx, key)
			results[i] = fetchResult{items: items, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var items []domain.RemoteItem
	var scope []string
	for i, key := range keys {
		res := results[i]
		truncated := errors.Is(res.err, ports.ErrListingTruncated)
		if res.err != nil && !truncated {
			fetchErr := &application.FetchError{CollectionKey: key, Err: res.err}
			o.logger.Warn("collection fetch failed",
				slog.String("collection", key),
				slog.String("error", res.err.Error()))
			state.record(domain.StageFetch, key, "", fetchErr)
			continue
		}

		// A capped listing can't prove which records are gone either
		complete := !truncated
		if truncated {
			o.logger.Warn("collection listing truncated, skipping deletions",
				slog.String("collection", key),
				slog.Int("items", len(res.items)))
		}
		for _, item := range res.items {
			if err := application.ValidateRemoteItem(item); err != nil {
				o.logger.Warn("dropping invalid item",
					slog.String("collection", key),
					slog.String("error", err.Error()))
				state.record(domain.StageFetch, key, item.ID, err)
				state.counts.Failed++
				complete = false
				continue
			}
			items = append(items, item)
		}

		// A partially valid listing can't prove which records are gone
		if complete {
			scope = append(scope, key)
		}
	}

	return items, scope, nil
}

// processItems converts and saves each item in order. Failures are recorded
// and the next item is processed.
func (o *Orchestrator) processItems(ctx context.Context, items []domain.RemoteItem, state *runState) ([]domain.StagedArtifact, error) {
	staged := make([]domain.StagedArtifact, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		existing, err := o.deps.Records.Get(ctx, item.ID)
		if err != nil {
			state.record(domain.StageClassify, item.CollectionKey, item.ID, err)
			state.counts.Failed++
			continue
		}

		content, err := o.deps.Converter.Convert(item.RawContent, ports.ConvertMetadata{
			ItemID:        item.ID,
			CollectionKey: item.CollectionKey,
			Title:         item.Title,
			Version:       item.Version,
			Lineage:       item.Lineage,
			Path:          item.Path(),
			SourceURL:     item.SourceURL,
			SyncedAt:      o.now(),
		})
		if err != nil {
			o.logger.Warn("convert failed", slog.String("item_id", item.ID), slog.String("error", err.Error()))
			state.record(domain.StageConvert, item.CollectionKey, item.ID, err)
			state.counts.Failed++
			continue
		}

		location, err := o.deps.Artifacts.Save(item.ID, item.CollectionKey, item.Title, content)
		if err != nil {
			o.logger.Warn("save failed", slog.String("item_id", item.ID), slog.String("error", err.Error()))
			state.record(domain.StageSave, item.CollectionKey, item.ID, err)
			state.counts.Failed++
			continue
		}

		s := domain.StagedArtifact{Item: item, Location: location, IsNew: existing == nil}
		if existing != nil {
			s.PreviousLocation = existing.ArtifactLocation
			s.PreviousRef = existing.ExternalIndexRef
		}
		staged = append(staged, s)
	}

	return staged, nil
}

// upload hands the batch to the index uploader. Only cancellation is fatal.
func (o *Orchestrator) upload(ctx context.Context, staged []domain.StagedArtifact, state *runState) (map[string]string, error) {
	if o.deps.Uploader == nil || len(staged) == 0 {
		return nil, nil
	}

	rep, err := o.deps.Uploader.Upload(ctx, staged)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Error("search index unavailable", slog.String("error", err.Error()))
		state.record(domain.StageUpload, "", "", err)
		state.counts.Failed += len(staged)
		return nil, nil
	}

	for _, f := range rep.Failures {
		state.record(domain.StageUpload, f.Item.CollectionKey, f.Item.ID, f.Err)
		state.counts.Failed++
	}
	return rep.Uploaded, nil
}

// reindexStaged turns records with a pending upload back into staged
// artifacts pointing at their existing files
func reindexStaged(records []domain.SyncedRecord) []domain.StagedArtifact {
	staged := make([]domain.StagedArtifact, 0, len(records))
	for _, r := range records {
		staged = append(staged, domain.StagedArtifact{
			Item: domain.RemoteItem{
				ID:            r.ID,
				CollectionKey: r.CollectionKey,
				Title:         r.Title,
				Version:       r.Version,
				SourceURL:     r.SourceURL,
			},
			Location:         r.ArtifactLocation,
			Reindex:          true,
			PreviousLocation: r.ArtifactLocation,
			PreviousRef:      r.ExternalIndexRef,
		})
	}
	return staged
}

// persist writes a record for every staged artifact, uploaded or not.
// Records whose upload failed are marked pending so a later run retries it.
func (o *Orchestrator) persist(ctx context.Context, staged []domain.StagedArtifact, uploaded map[string]string, state *runState) error {
	for _, s := range staged {
		if err := ctx.Err(); err != nil {
			return err
		}

		ref, ok := uploaded[s.Item.ID]
		if s.Reindex && !ok {
			// Still pending; the record already says so
			continue
		}

		record := &domain.SyncedRecord{
			ID:               s.Item.ID,
			CollectionKey:    s.Item.CollectionKey,
			Title:            s.Item.Title,
			Version:          s.Item.Version,
			LastSyncedAt:     o.now(),
			ArtifactLocation: s.Location,
			SourceURL:        s.Item.SourceURL,
		}

		if ok {
			record.ExternalIndexRef = &ref
		} else {
			// Keep pointing at the previous entry until an upload succeeds
			record.ExternalIndexRef = s.PreviousRef
			record.IndexPending = o.deps.Uploader != nil
		}

		if err := o.deps.Records.Upsert(ctx, record); err != nil {
			o.logger.Warn("persist failed", slog.String("item_id", s.Item.ID), slog.String("error", err.Error()))
			state.record(domain.StagePersist, s.Item.CollectionKey, s.Item.ID, err)
			state.counts.Failed++
			o.dropUnreferenced(s)
			continue
		}

		if s.Reindex {
			continue
		}

		// A renamed item is saved under a new location; drop the old file
		if s.PreviousLocation != "" && s.PreviousLocation != s.Location {
			if _, err := o.deps.Artifacts.Delete(s.PreviousLocation); err != nil {
				o.logger.Warn("remove previous artifact",
					slog.String("item_id", s.Item.ID),
					slog.String("location", s.PreviousLocation),
					slog.String("error", err.Error()))
			}
		}

		if s.IsNew {
			state.counts.Added++
		} else {
			state.counts.Updated++
		}
	}
	return nil
}

// dropUnreferenced removes a file no record points to after a failed upsert.
// A renamed item keeps its previous location as the live artifact.
func (o *Orchestrator) dropUnreferenced(s domain.StagedArtifact) {
	if s.Reindex || s.PreviousLocation == s.Location {
		return
	}
	if _, err := o.deps.Artifacts.Delete(s.Location); err != nil {
		o.logger.Warn("remove unreferenced artifact",
			slog.String("item_id", s.Item.ID),
			slog.String("location", s.Location),
			slog.String("error", err.Error()))
	}
}

// deleteStale removes index entries, artifacts and records of items gone
// from the source. Each step is attempted even if an earlier one failed.
func (o *Orchestrator) deleteStale(ctx context.Context, stale []domain.SyncedRecord, state *runState) error {
	for _, r := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}

		if o.deps.Uploader != nil && r.Indexed() {
			if err := o.deps.Uploader.Remove(ctx, *r.ExternalIndexRef); err != nil {
				state.record(domain.StageDelete, r.CollectionKey, r.ID, fmt.Errorf("remove index entry: %w", err))
			}
		}

		if r.ArtifactLocation != "" {
			if _, err := o.deps.Artifacts.Delete(r.ArtifactLocation); err != nil {
				state.record(domain.StageDelete, r.CollectionKey, r.ID, fmt.Errorf("delete artifact: %w", err))
			}
		}

		if err := o.deps.Records.Delete(ctx, r.ID); err != nil {
			o.logger.Warn("delete record failed", slog.String("item_id", r.ID), slog.String("error", err.Error()))
			state.record(domain.StageDelete, r.CollectionKey, r.ID, fmt.Errorf("delete record: %w", err))
			state.counts.Failed++
			continue
		}
		state.counts.Deleted++
	}
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, state *runState, changes *domain.ChangeSet) (*RunResult, error) {
	summary := report.ErrorSummary(state.errors)
	if err := o.deps.Ledger.CompleteRun(ctx, state.id, state.counts, summary); err != nil {
		return nil, fmt.Errorf("complete run %d: %w", state.id, err)
	}

	result := o.result(state, domain.RunCompleted)
	result.UnchangedCount = changes.UnchangedCount
	result.TotalRemote = changes.Total()
	result.Anomalies = changes.Anomalies

	o.logger.Info("sync completed",
		slog.Int64("run_id", state.id),
		slog.String("counts", report.CountsLine(state.counts)),
		slog.Int("errors", len(state.errors)),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// fail marks the run failed and returns cause. A cancelled context leaves
// the run open.
func (o *Orchestrator) fail(ctx context.Context, state *runState, cause error) (*RunResult, error) {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return nil, cause
	}

	summary := cause.Error()
	if details := report.ErrorSummary(state.errors); details != "" {
		summary += "\n" + details
	}
	if err := o.deps.Ledger.FailRun(ctx, state.id, state.counts, summary); err != nil {
		return nil, fmt.Errorf("fail run %d: %w (cause: %v)", state.id, err, cause)
	}

	o.logger.Error("sync failed", slog.Int64("run_id", state.id), slog.String("error", cause.Error()))
	return o.result(state, domain.RunFailed), cause
}

func (o *Orchestrator) result(state *runState, status domain.RunStatus) *RunResult {
	return &RunResult{
		RunID:    state.id,
		Success:  status == domain.RunCompleted,
		Status:   status,
		Counts:   state.counts,
		Errors:   state.errors,
		Duration: o.now().Sub(state.started),
	}
}
