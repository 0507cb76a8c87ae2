package domain

import "time"

// IndexRef is the cached reference to the external search index
type IndexRef struct {
	Name        string // Index identifier assigned by the search service
	DisplayName string
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

// StagedArtifact is a converted item waiting to be uploaded and persisted
type StagedArtifact struct {
	Item     RemoteItem
	Location string // Artifact store location
	IsNew    bool
	Reindex  bool // Content unchanged, only the index upload is retried

	// From the existing record, if any
	PreviousLocation string
	PreviousRef      *string
}

// Operation is a handle on an asynchronous indexing request
type Operation struct {
	Name     string
	Done     bool
	Error    string // Set when indexing failed on the service side
	EntryRef string // Index entry for the uploaded artifact, set once done
}

// Failed reports whether the service rejected the operation
func (o *Operation) Failed() bool {
	return o.Error != ""
}
