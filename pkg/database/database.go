// Package database holds the document store the portal reads and writes through.
// Collections are named by the caller and carry schema-less records.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidQuery is returned for collection names or orderings the store rejects.
	ErrInvalidQuery = errors.New("invalid query")
)

// Direction is the sort order of a listing.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case. An empty string is Desc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	}
	return "", fmt.Errorf("%w: order direction must be 'asc' or 'desc', got %q", ErrInvalidQuery, s)
}

type serverTimestamp struct{}

// ServerTimestamp is a field value the store replaces with its own write time.
var ServerTimestamp = serverTimestamp{}

// Record is one document read back from a collection.
type Record struct {
	ID     string
	Fields map[string]any
}

// MarshalJSON flattens the record to {"id": ..., <fields>...}. The stored id wins
// over any field of the same name.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["id"] = r.ID
	return json.Marshal(out)
}

// DocumentStore defines the document operations the portal needs.
type DocumentStore interface {
	// Add stores data under a new system-assigned ID and returns it.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// List returns every document that has orderBy set, sorted by it.
	List(ctx context.Context, collection, orderBy string, dir Direction) ([]Record, error)
	// Update merges data into an existing document. Missing documents yield ErrNotFound.
	Update(ctx context.Context, collection, docID string, data map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, docID string) error
}

// ValidateCollection rejects names Firestore cannot address as a root collection.
func ValidateCollection(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidQuery)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("%w: collection name %q cannot contain '/'", ErrInvalidQuery, name)
	}
	if name == "." || name == ".." || (strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")) {
		return fmt.Errorf("%w: collection name %q is reserved", ErrInvalidQuery, name)
	}
	return nil
}

func validateDocID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: document ID cannot be empty", ErrInvalidQuery)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: document ID %q cannot contain '/'", ErrInvalidQuery, id)
	}
	return nil
}
