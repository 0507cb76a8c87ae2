// Package weaviate projects artifacts into a Weaviate class.
package weaviate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// objectAPI is the subset of the Weaviate client the index needs
type objectAPI interface {
	classExists(ctx context.Context, class string) (bool, error)
	createClass(ctx context.Context, class *models.Class) error
	putObject(ctx context.Context, obj *models.Object) error
	objectExists(ctx context.Context, class, id string) (bool, error)
	deleteObject(ctx context.Context, class, id string) error
}

// Index implements ports.SearchIndex. Every item maps to a deterministic
// object UUID, so re-uploading replaces the previous object.
type Index struct {
	api    objectAPI
	logger *slog.Logger
	now    func() time.Time
}

// Ensure Index implements ports.SearchIndex
var _ ports.SearchIndex = (*Index)(nil)

// New connects to Weaviate at rawURL (e.g. "http://localhost:8080")
func New(rawURL string, logger *slog.Logger) (*Index, error) {
	cfg := weaviate.Config{Host: rawURL, Scheme: "http"}
	if rest, ok := strings.CutPrefix(rawURL, "https://"); ok {
		cfg.Scheme = "https"
		cfg.Host = rest
	} else if rest, ok := strings.CutPrefix(rawURL, "http://"); ok {
		cfg.Host = rest
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return newIndex(&clientAPI{client: client}, logger), nil
}

func newIndex(api objectAPI, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		api:    api,
		logger: logger.With(slog.String("component", "weaviate")),
		now:    time.Now,
	}
}

// ClassName turns a display name into a valid class name ("chatty-boxy" -> "ChattyBoxy")
func ClassName(displayName string) string {
	var b strings.Builder
	upper := true
	for _, r := range displayName {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) || r > unicode.MaxASCII {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}

	name := b.String()
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "Page" + name
	}
	return name
}

// ObjectID returns the object UUID for an item
func ObjectID(itemID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("chatty-boxy:item:"+itemID)).String()
}

func pageClass(name, displayName string) *models.Class {
	text := func(n, desc string) *models.Property {
		return &models.Property{Name: n, DataType: []string{"text"}, Description: desc}
	}
	return &models.Class{
		Class:       name,
		Description: "Wiki pages mirrored as " + displayName,
		Properties: []*models.Property{
			text("content", "Converted markdown"),
			text("title", "Page title"),
			text("item_id", "Source page ID"),
			text("collection", "Space key"),
			text("source_url", "Link to the page"),
			text("location", "Artifact location"),
			text("mime_type", "Artifact mime type"),
			{Name: "indexed_at", DataType: []string{"int"}, Description: "Unix milliseconds"},
		},
	}
}

// GetOrCreateIndex creates the class for displayName unless it already exists
func (i *Index) GetOrCreateIndex(ctx context.Context, displayName string) (string, error) {
	name := ClassName(displayName)

	exists, err := i.api.classExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("check class %s: %w", name, err)
	}
	if exists {
		return name, nil
	}

	if err := i.api.createClass(ctx, pageClass(name, displayName)); err != nil {
		return "", fmt.Errorf("create class %s: %w", name, err)
	}
	i.logger.Info("created class", slog.String("class", name))
	return name, nil
}

// UploadItem writes the artifact as an object. The returned operation is
// done only when the server rejected the object.
func (i *Index) UploadItem(ctx context.Context, req ports.UploadRequest) (*domain.Operation, error) {
	id := ObjectID(req.ItemID)
	obj := &models.Object{
		Class: req.IndexName,
		ID:    strfmt.UUID(id),
		Properties: map[string]interface{}{
			"content":    string(req.Content),
			"title":      req.Title,
			"item_id":    req.ItemID,
			"collection": req.CollectionKey,
			"source_url": req.SourceURL,
			"location":   req.Location,
			"mime_type":  req.MimeType,
			"indexed_at": i.now().UnixMilli(),
		},
	}

	op := &domain.Operation{Name: req.IndexName + "/" + id, EntryRef: id}
	if err := i.api.putObject(ctx, obj); err != nil {
		if rejected, ok := err.(*objectError); ok {
			// The server answered; retrying won't help
			op.Done = true
			op.Error = rejected.Error()
			return op, nil
		}
		return nil, err
	}

	// Accepted; PollOperation confirms the object is readable
	return op, nil
}

// PollOperation checks whether the object is visible yet
func (i *Index) PollOperation(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	class, id, ok := strings.Cut(op.Name, "/")
	if !ok {
		return nil, fmt.Errorf("malformed operation name: %q", op.Name)
	}

	exists, err := i.api.objectExists(ctx, class, id)
	if err != nil {
		return nil, err
	}

	next := *op
	next.Done = exists
	return &next, nil
}

// DeleteItem removes the object for entryRef
func (i *Index) DeleteItem(ctx context.Context, indexName, entryRef string) error {
	if err := i.api.deleteObject(ctx, indexName, entryRef); err != nil {
		return fmt.Errorf("delete %s/%s: %w", indexName, entryRef, err)
	}
	return nil
}
