// Package syncer reconciles remote collections with the local mirror.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// Detector classifies remote items against the record store.
// It only issues read queries.
type Detector struct {
	records   ports.RecordStore
	artifacts ports.ArtifactStore
	logger    *slog.Logger
}

// NewDetector creates a detector reading from the given stores
func NewDetector(records ports.RecordStore, artifacts ports.ArtifactStore, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		records:   records,
		artifacts: artifacts,
		logger:    logger.With(slog.String("component", "detector")),
	}
}

// Classify splits items into NEW, UPDATED and UNCHANGED, preserving input order
func (d *Detector) Classify(ctx context.Context, items []domain.RemoteItem) (*domain.ChangeSet, error) {
	return d.classify(ctx, items, false)
}

// ClassifyForced marks every item for processing. Added and Updated are still
// split by whether a record exists.
func (d *Detector) ClassifyForced(ctx context.Context, items []domain.RemoteItem) (*domain.ChangeSet, error) {
	return d.classify(ctx, items, true)
}

func (d *Detector) classify(ctx context.Context, items []domain.RemoteItem, force bool) (*domain.ChangeSet, error) {
	cs := &domain.ChangeSet{}

	for _, item := range items {
		record, err := d.records.Get(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup record %s: %w", item.ID, err)
		}

		class, anomaly := domain.ClassifyItem(item, record)
		if anomaly != nil {
			d.logger.Warn("version went backwards",
				slog.String("item_id", anomaly.ItemID),
				slog.String("collection", anomaly.CollectionKey),
				slog.Int("remote_version", anomaly.RemoteVersion),
				slog.Int("record_version", anomaly.RecordVersion))
			cs.Anomalies = append(cs.Anomalies, *anomaly)
		}

		if force && !class.NeedsSync() {
			class = domain.ClassUpdated
		}

		switch class {
		case domain.ClassNew:
			cs.Added++
			cs.ToCreateOrUpdate = append(cs.ToCreateOrUpdate, item)
		case domain.ClassUpdated:
			cs.Updated++
			cs.ToCreateOrUpdate = append(cs.ToCreateOrUpdate, item)
		default:
			cs.UnchangedCount++
			if record.IndexPending {
				cs.ToReindex = append(cs.ToReindex, *record)
			}
		}
	}

	return cs, nil
}

// ClassifyDeletions returns records absent from items, scoped to the
// collections that appear in items
func (d *Detector) ClassifyDeletions(ctx context.Context, items []domain.RemoteItem) ([]domain.SyncedRecord, error) {
	return d.ClassifyDeletionsFor(ctx, domain.CollectionKeys(items), items)
}

// ClassifyDeletionsFor returns records in collectionKeys whose ID is not in items.
// A collection listed in collectionKeys with no items has all its records deleted,
// so callers must only pass collections that were fetched successfully.
func (d *Detector) ClassifyDeletionsFor(ctx context.Context, collectionKeys []string, items []domain.RemoteItem) ([]domain.SyncedRecord, error) {
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}

	var stale []domain.SyncedRecord
	for _, key := range collectionKeys {
		records, err := d.records.GetByCollection(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", key, err)
		}
		for _, r := range records {
			if !present[r.ID] {
				stale = append(stale, r)
			}
		}
	}

	return stale, nil
}

// ClassifyCollectionDeletions checks a single collection, ignoring items from others
func (d *Detector) ClassifyCollectionDeletions(ctx context.Context, collectionKey string, items []domain.RemoteItem) ([]domain.SyncedRecord, error) {
	var inCollection []domain.RemoteItem
	for _, item := range items {
		if item.CollectionKey == collectionKey {
			inCollection = append(inCollection, item)
		}
	}
	return d.ClassifyDeletionsFor(ctx, []string{collectionKey}, inCollection)
}

// FindArtifactDrift compares every record with the artifact store
func (d *Detector) FindArtifactDrift(ctx context.Context) (*domain.Drift, error) {
	records, err := d.records.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	drift := &domain.Drift{}
	referenced := make(map[string]bool, len(records))
	for _, r := range records {
		referenced[r.ArtifactLocation] = true

		exists, err := d.artifacts.Exists(r.ArtifactLocation)
		if err != nil {
			return nil, fmt.Errorf("check artifact %s: %w", r.ArtifactLocation, err)
		}
		if !exists {
			drift.MissingArtifacts = append(drift.MissingArtifacts, r)
		}
	}

	locations, err := d.artifacts.List()
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	for _, loc := range locations {
		if !referenced[loc] {
			drift.OrphanedArtifacts = append(drift.OrphanedArtifacts, loc)
		}
	}
	sort.Strings(drift.OrphanedArtifacts)

	return drift, nil
}
