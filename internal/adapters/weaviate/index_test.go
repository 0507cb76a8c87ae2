package weaviate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// fakeAPI keeps classes and objects in memory
type fakeAPI struct {
	classes  map[string]*models.Class
	objects  map[string]*models.Object // class/id -> object
	hidden   map[string]bool           // class/id not yet visible
	putErr   error
	creates  int
	classErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		classes: make(map[string]*models.Class),
		objects: make(map[string]*models.Object),
		hidden:  make(map[string]bool),
	}
}

func (f *fakeAPI) classExists(_ context.Context, class string) (bool, error) {
	if f.classErr != nil {
		return false, f.classErr
	}
	_, ok := f.classes[class]
	return ok, nil
}

func (f *fakeAPI) createClass(_ context.Context, class *models.Class) error {
	f.creates++
	f.classes[class.Class] = class
	return nil
}

func (f *fakeAPI) putObject(_ context.Context, obj *models.Object) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[obj.Class+"/"+string(obj.ID)] = obj
	return nil
}

func (f *fakeAPI) objectExists(_ context.Context, class, id string) (bool, error) {
	key := class + "/" + id
	if f.hidden[key] {
		delete(f.hidden, key)
		return false, nil
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeAPI) deleteObject(_ context.Context, class, id string) error {
	delete(f.objects, class+"/"+id)
	return nil
}

func TestClassName(t *testing.T) {
	tests := []struct {
		display  string
		expected string
	}{
		{"chatty-boxy", "ChattyBoxy"},
		{"wiki pages", "WikiPages"},
		{"Engineering", "Engineering"},
		{"2025 docs", "Page2025Docs"},
		{"---", "Page"},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassName(tt.display))
		})
	}
}

func TestObjectIDIsDeterministic(t *testing.T) {
	assert.Equal(t, ObjectID("123"), ObjectID("123"))
	assert.NotEqual(t, ObjectID("123"), ObjectID("124"))
	assert.Len(t, ObjectID("123"), 36)
}

func TestIndex_GetOrCreateIndexIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	idx := newIndex(api, nil)

	name, err := idx.GetOrCreateIndex(context.Background(), "chatty-boxy")
	require.NoError(t, err)
	assert.Equal(t, "ChattyBoxy", name)

	again, err := idx.GetOrCreateIndex(context.Background(), "chatty-boxy")
	require.NoError(t, err)
	assert.Equal(t, name, again)
	assert.Equal(t, 1, api.creates)

	require.Contains(t, api.classes, "ChattyBoxy")
	assert.Len(t, api.classes["ChattyBoxy"].Properties, 8)
}

func TestIndex_GetOrCreateIndexUnreachable(t *testing.T) {
	api := newFakeAPI()
	api.classErr = errors.New("connection refused")

	_, err := newIndex(api, nil).GetOrCreateIndex(context.Background(), "wiki")
	assert.Error(t, err)
}

func uploadRequest(itemID string) ports.UploadRequest {
	return ports.UploadRequest{
		IndexName:     "Wiki",
		DisplayName:   "wiki",
		Location:      "DEV/" + itemID + "-page.md",
		MimeType:      "text/markdown",
		Content:       []byte("# Page"),
		ItemID:        itemID,
		CollectionKey: "DEV",
		Title:         "Page",
	}
}

func TestIndex_UploadUpserts(t *testing.T) {
	api := newFakeAPI()
	idx := newIndex(api, nil)
	ctx := context.Background()

	op, err := idx.UploadItem(ctx, uploadRequest("1"))
	require.NoError(t, err)
	assert.False(t, op.Done, "visibility is confirmed by polling")
	assert.False(t, op.Failed())
	assert.Equal(t, ObjectID("1"), op.EntryRef)

	polled, err := idx.PollOperation(ctx, op)
	require.NoError(t, err)
	assert.True(t, polled.Done)

	_, err = idx.UploadItem(ctx, uploadRequest("1"))
	require.NoError(t, err)
	assert.Len(t, api.objects, 1)

	obj := api.objects["Wiki/"+op.EntryRef]
	require.NotNil(t, obj)
	props := obj.Properties.(map[string]interface{})
	assert.Equal(t, "# Page", props["content"])
	assert.Equal(t, "DEV", props["collection"])
}

func TestIndex_UploadRejected(t *testing.T) {
	api := newFakeAPI()
	api.putErr = &objectError{status: "FAILED", messages: []string{"invalid property"}}

	op, err := newIndex(api, nil).UploadItem(context.Background(), uploadRequest("1"))
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.True(t, op.Failed())
	assert.Equal(t, "invalid property", op.Error)
}

func TestIndex_UploadTransportError(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("i/o timeout")

	_, err := newIndex(api, nil).UploadItem(context.Background(), uploadRequest("1"))
	assert.Error(t, err)
}

func TestIndex_PollOperation(t *testing.T) {
	api := newFakeAPI()
	idx := newIndex(api, nil)
	ctx := context.Background()

	op, err := idx.UploadItem(ctx, uploadRequest("1"))
	require.NoError(t, err)
	api.hidden["Wiki/"+op.EntryRef] = true

	next, err := idx.PollOperation(ctx, op)
	require.NoError(t, err)
	assert.False(t, next.Done)

	next, err = idx.PollOperation(ctx, next)
	require.NoError(t, err)
	assert.True(t, next.Done)
}

func TestIndex_DeleteItem(t *testing.T) {
	api := newFakeAPI()
	idx := newIndex(api, nil)
	ctx := context.Background()

	op, err := idx.UploadItem(ctx, uploadRequest("1"))
	require.NoError(t, err)
	require.NoError(t, idx.DeleteItem(ctx, "Wiki", op.EntryRef))
	assert.Empty(t, api.objects)
}
