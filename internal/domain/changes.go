package domain

// Classification is the outcome of comparing a remote item with its record
type Classification int

const (
	ClassUnchanged Classification = iota
	ClassNew
	ClassUpdated
)

func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// NeedsSync reports whether the item has to be converted and stored again
func (c Classification) NeedsSync() bool {
	return c == ClassNew || c == ClassUpdated
}

// VersionAnomaly records a remote version lower than the one already synced.
// It is reported but never triggers a sync.
type VersionAnomaly struct {
	ItemID        string
	CollectionKey string
	RemoteVersion int
	RecordVersion int
}

// ClassifyItem decides what to do with a remote item given its existing record.
// A nil record means the item has never been synced.
//
// Title changes only count when the versions are equal; records are always
// matched by ID first.
func ClassifyItem(item RemoteItem, record *SyncedRecord) (Classification, *VersionAnomaly) {
	if record == nil {
		return ClassNew, nil
	}

	switch {
	case item.Version > record.Version:
		return ClassUpdated, nil
	case item.Version < record.Version:
		return ClassUnchanged, &VersionAnomaly{
			ItemID:        item.ID,
			CollectionKey: item.CollectionKey,
			RemoteVersion: item.Version,
			RecordVersion: record.Version,
		}
	case item.Title != record.Title:
		// Renames don't always bump the version
		return ClassUpdated, nil
	default:
		return ClassUnchanged, nil
	}
}

// ChangeSet is the result of one classification pass
type ChangeSet struct {
	ToCreateOrUpdate []RemoteItem   // Fetch order preserved
	ToDelete         []SyncedRecord // Records no longer present remotely
	UnchangedCount   int
	Added            int // Subset of ToCreateOrUpdate with no prior record
	Updated          int
	Anomalies        []VersionAnomaly

	// Unchanged records whose last upload failed; counted in UnchangedCount
	ToReindex []SyncedRecord
}

// Total returns the number of remote items that were classified
func (cs *ChangeSet) Total() int {
	return len(cs.ToCreateOrUpdate) + cs.UnchangedCount
}

// IsEmpty reports whether applying the change set would be a no-op
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.ToCreateOrUpdate) == 0 && len(cs.ToDelete) == 0 && len(cs.ToReindex) == 0
}

// Drift describes mismatches between records and artifacts on disk
type Drift struct {
	MissingArtifacts  []SyncedRecord // Records whose artifact is gone
	OrphanedArtifacts []string       // Artifacts no record points to
}

// Clean reports whether no drift was found
func (d *Drift) Clean() bool {
	return len(d.MissingArtifacts) == 0 && len(d.OrphanedArtifacts) == 0
}
