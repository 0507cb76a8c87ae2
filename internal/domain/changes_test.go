package domain

import "testing"

func TestClassifyItem(t *testing.T) {
	tests := []struct {
		name        string
		item        RemoteItem
		record      *SyncedRecord
		expected    Classification
		wantAnomaly bool
	}{
		{
			name:     "no record is new",
			item:     RemoteItem{ID: "1", Title: "A", Version: 1},
			record:   nil,
			expected: ClassNew,
		},
		{
			name:     "higher version is updated",
			item:     RemoteItem{ID: "1", Title: "A", Version: 5},
			record:   &SyncedRecord{ID: "1", Title: "A", Version: 3},
			expected: ClassUpdated,
		},
		{
			name:     "same version same title is unchanged",
			item:     RemoteItem{ID: "1", Title: "A", Version: 3},
			record:   &SyncedRecord{ID: "1", Title: "A", Version: 3},
			expected: ClassUnchanged,
		},
		{
			name:     "rename without version bump is updated",
			item:     RemoteItem{ID: "1", Title: "A renamed", Version: 3},
			record:   &SyncedRecord{ID: "1", Title: "A", Version: 3},
			expected: ClassUpdated,
		},
		{
			name:        "lower version is an anomaly",
			item:        RemoteItem{ID: "1", Title: "A", Version: 2},
			record:      &SyncedRecord{ID: "1", Title: "A", Version: 3},
			expected:    ClassUnchanged,
			wantAnomaly: true,
		},
		{
			name:        "lower version with new title is still an anomaly",
			item:        RemoteItem{ID: "1", Title: "B", Version: 2},
			record:      &SyncedRecord{ID: "1", Title: "A", Version: 3},
			expected:    ClassUnchanged,
			wantAnomaly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, anomaly := ClassifyItem(tt.item, tt.record)
			if got != tt.expected {
				t.Errorf("ClassifyItem() = %v, expected %v", got, tt.expected)
			}
			if (anomaly != nil) != tt.wantAnomaly {
				t.Errorf("ClassifyItem() anomaly = %v, wantAnomaly %v", anomaly, tt.wantAnomaly)
			}
			if anomaly != nil && anomaly.RecordVersion != tt.record.Version {
				t.Errorf("anomaly.RecordVersion = %d, expected %d", anomaly.RecordVersion, tt.record.Version)
			}
		})
	}
}

func TestCollectionKeys(t *testing.T) {
	items := []RemoteItem{
		{ID: "1", CollectionKey: "B"},
		{ID: "2", CollectionKey: "A"},
		{ID: "3", CollectionKey: "B"},
	}

	keys := CollectionKeys(items)
	if len(keys) != 2 || keys[0] != "B" || keys[1] != "A" {
		t.Errorf("CollectionKeys() = %v, expected [B A]", keys)
	}
}

func TestRemoteItemPath(t *testing.T) {
	item := RemoteItem{Title: "Setup", Lineage: []string{"Home", "Guides"}}
	if got := item.Path(); got != "Home / Guides / Setup" {
		t.Errorf("Path() = %q", got)
	}
}

func TestSyncErrorString(t *testing.T) {
	tests := []struct {
		err      SyncError
		expected string
	}{
		{SyncError{Stage: StageConvert, ItemID: "7", CollectionKey: "DEV", Message: "boom"}, "[convert] DEV/7: boom"},
		{SyncError{Stage: StageFetch, CollectionKey: "OPS", Message: "timeout"}, "[fetch] OPS: timeout"},
		{SyncError{Stage: StageUpload, Message: "index unavailable"}, "[upload] index unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.err.String(); got != tt.expected {
				t.Errorf("String() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
