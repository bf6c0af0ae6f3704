// Package store persists generated designs so they can be listed and
// re-rendered later. Backends share the Store interface; the memory
// backend serves tests and single-shot CLI runs, the Mongo backend
// serves the HTTP server.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/design/normalize"
	"github.com/matzehuels/sketchlift/pkg/errors"
)

// Document is a stored design together with its provenance: the raw
// model output it came from and the repairs applied to it.
type Document struct {
	ID        string           `json:"id" bson:"_id"`
	Name      string           `json:"name" bson:"name"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`
	Raw       []byte           `json:"-" bson:"raw,omitempty"`
	Spec      *design.Spec     `json:"spec" bson:"spec"`
	Repairs   normalize.Report `json:"repairs" bson:"repairs"`
}

// Store persists documents.
type Store interface {
	// Put stores a document under its ID, overwriting any previous
	// version.
	Put(ctx context.Context, doc *Document) error

	// Get returns the document with the given ID, or an error with code
	// ErrCodeDocumentNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns stored documents, newest first.
	List(ctx context.Context) ([]*Document, error)

	// Delete removes a document. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeDocumentNotFound, "document not found: %s", id)
}
