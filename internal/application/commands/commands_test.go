package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/application"
	"github.com/jooleearr/chatty-boxy/internal/application/syncer"
	"github.com/jooleearr/chatty-boxy/internal/domain"
)

type fakeRunner struct {
	got    syncer.RunOptions
	result *syncer.RunResult
	err    error
}

func (f *fakeRunner) Run(_ context.Context, opts syncer.RunOptions) (*syncer.RunResult, error) {
	f.got = opts
	return f.result, f.err
}

// fakeLedger implements ports.RunLedger and ports.RecordStore for read paths
type fakeLedger struct {
	runs    []domain.RunRecord // newest first
	counts  map[string]int
	stalled []domain.RunRecord
	err     error
}

func (f *fakeLedger) StartRun(context.Context) (int64, error) { return 0, errors.New("read only") }
func (f *fakeLedger) CompleteRun(context.Context, int64, domain.RunCounts, string) error {
	return errors.New("read only")
}
func (f *fakeLedger) FailRun(context.Context, int64, domain.RunCounts, string) error {
	return errors.New("read only")
}

func (f *fakeLedger) GetLastRun(context.Context) (*domain.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.runs) == 0 {
		return nil, nil
	}
	r := f.runs[0]
	return &r, nil
}

func (f *fakeLedger) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeLedger) StalledRuns(context.Context, time.Duration) ([]domain.RunRecord, error) {
	return f.stalled, nil
}

func (f *fakeLedger) Get(context.Context, string) (*domain.SyncedRecord, error) { return nil, nil }
func (f *fakeLedger) GetByCollection(context.Context, string) ([]domain.SyncedRecord, error) {
	return nil, nil
}
func (f *fakeLedger) GetAll(context.Context) ([]domain.SyncedRecord, error)  { return nil, nil }
func (f *fakeLedger) Upsert(context.Context, *domain.SyncedRecord) error     { return nil }
func (f *fakeLedger) Delete(context.Context, string) error                   { return nil }
func (f *fakeLedger) CountByCollection(context.Context) (map[string]int, error) {
	return f.counts, nil
}

type fakeDrift struct {
	drift *domain.Drift
	err   error
}

func (f *fakeDrift) FindArtifactDrift(context.Context) (*domain.Drift, error) {
	return f.drift, f.err
}

type fakeSource struct {
	err error
}

func (f *fakeSource) ListItems(context.Context, string) ([]domain.RemoteItem, error) {
	return nil, nil
}

func (f *fakeSource) TestConnection(context.Context) error { return f.err }

func TestSyncCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantErr bool
		errMsg  string
	}{
		{name: "no keys", keys: nil},
		{name: "valid keys", keys: []string{"DEV", "OPS"}},
		{name: "empty key", keys: []string{"DEV", " "}, wantErr: true, errMsg: "cannot be empty"},
		{name: "key with slash", keys: []string{"DEV/OPS"}, wantErr: true, errMsg: "invalid collection key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSyncCommand(&fakeRunner{}, tt.keys, false, false).Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				var validationErr *application.ValidationError
				if !errors.As(err, &validationErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSyncCommand_Execute(t *testing.T) {
	runner := &fakeRunner{result: &syncer.RunResult{
		RunID:    3,
		Success:  true,
		Status:   domain.RunCompleted,
		Counts:   domain.RunCounts{Added: 2, Skipped: 1, Failed: 1},
		Errors:   []domain.SyncError{{Stage: domain.StageConvert, ItemID: "9", CollectionKey: "DEV", Message: "bad"}},
		Duration: 1500 * time.Millisecond,
	}}

	result, err := NewSyncCommand(runner, []string{"DEV"}, true, false).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !runner.got.ForceFullSync || len(runner.got.CollectionKeys) != 1 {
		t.Errorf("options not forwarded: %+v", runner.got)
	}
	if !strings.Contains(result.Message, "Run 3 completed") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if !strings.Contains(result.Message, "(1 errors)") {
		t.Errorf("expected error count in message: %q", result.Message)
	}
}

func TestSyncCommand_ExecuteDryRun(t *testing.T) {
	plan := &domain.ChangeSet{Added: 1, Updated: 2, UnchangedCount: 4, ToDelete: []domain.SyncedRecord{{ID: "7"}}}
	runner := &fakeRunner{result: &syncer.RunResult{RunID: 5, Success: true, Status: domain.RunCompleted, Plan: plan}}

	result, err := NewSyncCommand(runner, nil, false, true).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Dry run 5: 1 to create, 2 to update, 1 to delete, 4 unchanged"
	if result.Message != want {
		t.Errorf("expected %q, got %q", want, result.Message)
	}
}

func TestSyncCommand_ExecuteDryRunNothingToDo(t *testing.T) {
	plan := &domain.ChangeSet{UnchangedCount: 3}
	runner := &fakeRunner{result: &syncer.RunResult{RunID: 6, Success: true, Status: domain.RunCompleted, Plan: plan}}

	result, err := NewSyncCommand(runner, nil, false, true).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Dry run 6: nothing to do, 3 unchanged"
	if result.Message != want {
		t.Errorf("expected %q, got %q", want, result.Message)
	}
}

func TestSyncCommand_ExecuteFatal(t *testing.T) {
	runner := &fakeRunner{err: application.ErrNoCollections}

	_, err := NewSyncCommand(runner, nil, false, false).Execute(context.Background())
	if !errors.Is(err, application.ErrNoCollections) {
		t.Errorf("expected ErrNoCollections, got %v", err)
	}
}

func TestStatusCommand_Execute(t *testing.T) {
	summary := "[fetch] OPS: timeout"
	ledger := &fakeLedger{
		runs: []domain.RunRecord{
			{ID: 4, Status: domain.RunCompleted, ErrorSummary: &summary},
			{ID: 3, Status: domain.RunCompleted},
		},
		counts:  map[string]int{"OPS": 2, "DEV": 5},
		stalled: []domain.RunRecord{{ID: 1, Status: domain.RunRunning}},
	}

	result, err := NewStatusCommand(ledger, ledger).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.LastRun == nil || result.LastRun.ID != 4 {
		t.Errorf("expected last run 4, got %+v", result.LastRun)
	}
	if result.TotalRecords != 7 {
		t.Errorf("expected 7 records, got %d", result.TotalRecords)
	}
	if len(result.Collections) != 2 || result.Collections[0].CollectionKey != "DEV" {
		t.Errorf("expected collections sorted by key, got %+v", result.Collections)
	}
	want := "Last run 4 completed; 7 records in 2 collections; 1 stalled runs"
	if result.Message != want {
		t.Errorf("expected %q, got %q", want, result.Message)
	}
}

func TestStatusCommand_NoRuns(t *testing.T) {
	ledger := &fakeLedger{counts: map[string]int{}}

	result, err := NewStatusCommand(ledger, ledger).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LastRun != nil || result.Message != "No sync has run yet" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestListRunsCommand(t *testing.T) {
	ledger := &fakeLedger{runs: []domain.RunRecord{{ID: 3}, {ID: 2}, {ID: 1}}}

	tests := []struct {
		name    string
		limit   int
		want    int
		wantErr bool
	}{
		{name: "limit below count", limit: 2, want: 2},
		{name: "limit above count", limit: 10, want: 3},
		{name: "zero limit", limit: 0, wantErr: true},
		{name: "limit too large", limit: 501, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewListRunsCommand(ledger, tt.limit).Execute(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Runs) != tt.want {
				t.Errorf("expected %d runs, got %d", tt.want, len(result.Runs))
			}
		})
	}
}

func TestDriftCommand(t *testing.T) {
	clean, err := NewDriftCommand(&fakeDrift{drift: &domain.Drift{}}).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean.Message != "Records and artifacts agree" {
		t.Errorf("unexpected message: %q", clean.Message)
	}

	drifted, err := NewDriftCommand(&fakeDrift{drift: &domain.Drift{
		MissingArtifacts:  []domain.SyncedRecord{{ID: "1"}},
		OrphanedArtifacts: []string{"DEV/2-old.md", "DEV/3-older.md"},
	}}).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if drifted.Message != "1 missing artifacts, 2 orphaned artifacts" {
		t.Errorf("unexpected message: %q", drifted.Message)
	}

	if _, err := NewDriftCommand(&fakeDrift{err: errors.New("disk")}).Execute(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCheckCommand(t *testing.T) {
	ok, err := NewCheckCommand(&fakeSource{}).Execute(context.Background())
	if err != nil || !ok.OK {
		t.Errorf("expected OK, got %+v, %v", ok, err)
	}

	down, err := NewCheckCommand(&fakeSource{err: errors.New("401 unauthorized")}).Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.OK || down.Message != "401 unauthorized" {
		t.Errorf("unexpected result: %+v", down)
	}

	if _, err := NewCheckCommand(&fakeSource{err: context.Canceled}).Execute(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
