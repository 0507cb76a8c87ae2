package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// memRecords is an in-memory RecordStore and RunLedger
type memRecords struct {
	mu      sync.Mutex
	records map[string]domain.SyncedRecord
	runs    []domain.RunRecord

	failUpsert map[string]bool
	failDelete map[string]bool
	failGet    error
}

func newMemRecords(records ...domain.SyncedRecord) *memRecords {
	m := &memRecords{
		records:    make(map[string]domain.SyncedRecord),
		failUpsert: make(map[string]bool),
		failDelete: make(map[string]bool),
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

func (m *memRecords) Get(_ context.Context, id string) (*domain.SyncedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRecords) GetByCollection(_ context.Context, key string) ([]domain.SyncedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SyncedRecord
	for _, r := range m.records {
		if r.CollectionKey == key {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRecords) GetAll(_ context.Context) ([]domain.SyncedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SyncedRecord
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRecords) Upsert(_ context.Context, r *domain.SyncedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert[r.ID] {
		return errors.New("disk full")
	}
	m.records[r.ID] = *r
	return nil
}

func (m *memRecords) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete[id] {
		return errors.New("locked")
	}
	delete(m.records, id)
	return nil
}

func (m *memRecords) CountByCollection(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, r := range m.records {
		counts[r.CollectionKey]++
	}
	return counts, nil
}

func (m *memRecords) StartRun(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.runs) + 1)
	m.runs = append(m.runs, domain.RunRecord{ID: id, StartedAt: time.Now(), Status: domain.RunRunning})
	return id, nil
}

func (m *memRecords) finish(id int64, status domain.RunStatus, counts domain.RunCounts, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID != id {
			continue
		}
		now := time.Now()
		m.runs[i].CompletedAt = &now
		m.runs[i].Status = status
		m.runs[i].Counts = counts
		if summary != "" {
			m.runs[i].ErrorSummary = &summary
		}
		return nil
	}
	return fmt.Errorf("run %d not found", id)
}

func (m *memRecords) CompleteRun(_ context.Context, id int64, counts domain.RunCounts, summary string) error {
	return m.finish(id, domain.RunCompleted, counts, summary)
}

func (m *memRecords) FailRun(_ context.Context, id int64, counts domain.RunCounts, summary string) error {
	return m.finish(id, domain.RunFailed, counts, summary)
}

func (m *memRecords) GetLastRun(_ context.Context) (*domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	r := m.runs[len(m.runs)-1]
	return &r, nil
}

func (m *memRecords) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RunRecord
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *memRecords) StalledRuns(_ context.Context, olderThan time.Duration) ([]domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RunRecord
	for _, r := range m.runs {
		if r.Stalled(time.Now(), olderThan) {
			out = append(out, r)
		}
	}
	return out, nil
}

// memArtifacts is an in-memory ArtifactStore
type memArtifacts struct {
	mu    sync.Mutex
	files map[string]string
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{files: make(map[string]string)}
}

func (a *memArtifacts) Save(itemID, collectionKey, title, content string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	loc := fmt.Sprintf("%s/%s-%s.md", collectionKey, itemID, strings.ToLower(strings.ReplaceAll(title, " ", "-")))
	a.files[loc] = content
	return loc, nil
}

func (a *memArtifacts) Delete(location string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.files[location]
	delete(a.files, location)
	return ok, nil
}

func (a *memArtifacts) Exists(location string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.files[location]
	return ok, nil
}

func (a *memArtifacts) List() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for loc := range a.files {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out, nil
}

func (a *memArtifacts) Read(location string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	content, ok := a.files[location]
	if !ok {
		return nil, fmt.Errorf("%s: not found", location)
	}
	return []byte(content), nil
}

// fakeSource serves fixed collections
type fakeSource struct {
	mu          sync.Mutex
	collections map[string][]domain.RemoteItem
	failing     map[string]error
	truncated   map[string]bool
	calls       []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		collections: make(map[string][]domain.RemoteItem),
		failing:     make(map[string]error),
		truncated:   make(map[string]bool),
	}
}

func (s *fakeSource) set(key string, items ...domain.RemoteItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[key] = items
}

func (s *fakeSource) ListItems(_ context.Context, key string) ([]domain.RemoteItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, key)
	if err := s.failing[key]; err != nil {
		return nil, err
	}
	items := append([]domain.RemoteItem(nil), s.collections[key]...)
	if s.truncated[key] {
		return items, fmt.Errorf("%s capped: %w", key, ports.ErrListingTruncated)
	}
	return items, nil
}

func (s *fakeSource) TestConnection(_ context.Context) error {
	return nil
}

// fakeConverter upper-cases content and fails for selected item IDs
type fakeConverter struct {
	failFor   map[string]bool
	converted []string
}

func (c *fakeConverter) Convert(raw string, meta ports.ConvertMetadata) (string, error) {
	if c.failFor[meta.ItemID] {
		return "", errors.New("malformed markup")
	}
	c.converted = append(c.converted, meta.ItemID)
	return "# " + meta.Title + "\n\n" + strings.ToUpper(raw), nil
}

// fakeIndex is a SearchIndex with scripted failures
type fakeIndex struct {
	mu         sync.Mutex
	created    int
	entries    map[string]string // entry ref -> item ID
	uploads    int
	polls      int
	deleted    []string
	transient  map[string]int // item ID -> remaining transport failures
	rejectFor  map[string]bool
	pendingFor map[string]int // item ID -> polls before done
	neverDone  map[string]bool
	createErr  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		entries:    make(map[string]string),
		transient:  make(map[string]int),
		rejectFor:  make(map[string]bool),
		pendingFor: make(map[string]int),
		neverDone:  make(map[string]bool),
	}
}

func (f *fakeIndex) GetOrCreateIndex(_ context.Context, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	return "Index_" + displayName, nil
}

func (f *fakeIndex) UploadItem(_ context.Context, req ports.UploadRequest) (*domain.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.transient[req.ItemID] > 0 {
		f.transient[req.ItemID]--
		return nil, errors.New("connection reset")
	}
	if f.rejectFor[req.ItemID] {
		return &domain.Operation{Name: "op-" + req.ItemID, Done: true, Error: "unsupported content"}, nil
	}
	ref := "entry-" + req.ItemID
	f.entries[ref] = req.ItemID
	op := &domain.Operation{Name: "op-" + req.ItemID, EntryRef: ref}
	op.Done = f.pendingFor[req.ItemID] == 0 && !f.neverDone[req.ItemID]
	return op, nil
}

func (f *fakeIndex) PollOperation(_ context.Context, op *domain.Operation) (*domain.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	itemID := strings.TrimPrefix(op.Name, "op-")
	if f.neverDone[itemID] {
		return op, nil
	}
	if f.pendingFor[itemID] > 0 {
		f.pendingFor[itemID]--
	}
	next := *op
	next.Done = f.pendingFor[itemID] == 0
	return &next, nil
}

func (f *fakeIndex) DeleteItem(_ context.Context, _ string, entryRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, entryRef)
	f.deleted = append(f.deleted, entryRef)
	return nil
}

// memIndexRefCache is an in-memory IndexRefCache
type memIndexRefCache struct {
	ref     *domain.IndexRef
	touched int
}

func (c *memIndexRefCache) GetIndexRef(_ context.Context) (*domain.IndexRef, error) {
	if c.ref == nil {
		return nil, nil
	}
	r := *c.ref
	return &r, nil
}

func (c *memIndexRefCache) SaveIndexRef(_ context.Context, ref *domain.IndexRef) error {
	r := *ref
	c.ref = &r
	return nil
}

func (c *memIndexRefCache) TouchIndexRef(_ context.Context) error {
	c.touched++
	return nil
}

var (
	_ ports.RecordStore   = (*memRecords)(nil)
	_ ports.RunLedger     = (*memRecords)(nil)
	_ ports.ArtifactStore = (*memArtifacts)(nil)
	_ ports.ContentSource = (*fakeSource)(nil)
	_ ports.Converter     = (*fakeConverter)(nil)
	_ ports.SearchIndex   = (*fakeIndex)(nil)
	_ ports.IndexRefCache = (*memIndexRefCache)(nil)
)

func page(collection, id string, version int, title string) domain.RemoteItem {
	return domain.RemoteItem{
		ID:            id,
		CollectionKey: collection,
		Title:         title,
		Version:       version,
		RawContent:    "<p>" + title + "</p>",
		SourceURL:     "https://wiki.example.com/pages/" + id,
	}
}

func record(collection, id string, version int, title string) domain.SyncedRecord {
	return domain.SyncedRecord{
		ID:               id,
		CollectionKey:    collection,
		Title:            title,
		Version:          version,
		ArtifactLocation: fmt.Sprintf("%s/%s.md", collection, id),
	}
}
