package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"
)

// objectError is a per-object failure reported by the batch endpoint
type objectError struct {
	status   string
	messages []string
}

func (e *objectError) Error() string {
	if len(e.messages) == 0 {
		return fmt.Sprintf("object rejected with status %s", e.status)
	}
	return strings.Join(e.messages, "; ")
}

// clientAPI adapts the Weaviate Go client to objectAPI
type clientAPI struct {
	client *weaviate.Client
}

func (c *clientAPI) classExists(ctx context.Context, class string) (bool, error) {
	// The getter fails for unknown classes; fall back to the full schema
	// to tell "missing" apart from "unreachable"
	if _, err := c.client.Schema().ClassGetter().WithClassName(class).Do(ctx); err == nil {
		return true, nil
	}

	schema, err := c.client.Schema().Getter().Do(ctx)
	if err != nil {
		return false, err
	}
	for _, cls := range schema.Classes {
		if cls.Class == class {
			return true, nil
		}
	}
	return false, nil
}

func (c *clientAPI) createClass(ctx context.Context, class *models.Class) error {
	return c.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (c *clientAPI) putObject(ctx context.Context, obj *models.Object) error {
	resp, err := c.client.Batch().ObjectsBatcher().WithObjects(obj).Do(ctx)
	if err != nil {
		return err
	}

	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			continue
		}

		rejected := &objectError{status: "UNKNOWN"}
		if item.Result != nil && item.Result.Status != nil {
			rejected.status = *item.Result.Status
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, e := range item.Result.Errors.Error {
				rejected.messages = append(rejected.messages, e.Message)
			}
		}
		return rejected
	}
	return nil
}

func (c *clientAPI) objectExists(ctx context.Context, class, id string) (bool, error) {
	return c.client.Data().Checker().WithClassName(class).WithID(id).Do(ctx)
}

func (c *clientAPI) deleteObject(ctx context.Context, class, id string) error {
	err := c.client.Data().Deleter().WithClassName(class).WithID(id).Do(ctx)

	// Already gone
	var clientErr *fault.WeaviateClientError
	if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}
