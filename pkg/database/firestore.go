package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements DocumentStore on a Firestore client.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized")
	}
	return &FirestoreStore{client: client}, nil
}

// Add adds a new document with an auto-generated ID.
func (s *FirestoreStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	docRef, _, err := s.client.Collection(collection).Add(ctx, toFirestore(data))
	if err != nil {
		return "", fmt.Errorf("failed to add document to collection '%s': %w", collection, mapError(err))
	}
	return docRef.ID, nil
}

// List runs an ordered query over the whole collection.
func (s *FirestoreStore) List(ctx context.Context, collection, orderBy string, dir Direction) ([]Record, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	if orderBy == "" {
		return nil, fmt.Errorf("%w: order field cannot be empty", ErrInvalidQuery)
	}
	fsDir, err := firestoreDirection(dir)
	if err != nil {
		return nil, err
	}

	// OrderBy takes a single field path so names containing dots are not split.
	query := s.client.Collection(collection).OrderByPath(firestore.FieldPath{orderBy}, fsDir)
	iter := query.Documents(ctx)
	defer iter.Stop()

	records := make([]Record, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate collection '%s': %w", collection, mapError(err))
		}
		records = append(records, Record{ID: doc.Ref.ID, Fields: doc.Data()})
	}
	return records, nil
}

// Update writes the given top-level fields. It fails with ErrNotFound when the document does not exist.
func (s *FirestoreStore) Update(ctx context.Context, collection, docID string, data map[string]any) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if err := validateDocID(docID); err != nil {
		return err
	}
	updates := toUpdates(data)
	if len(updates) == 0 {
		return fmt.Errorf("%w: update for document '%s' has no fields", ErrInvalidQuery, docID)
	}
	_, err := s.client.Collection(collection).Doc(docID).Update(ctx, updates)
	if err != nil {
		return fmt.Errorf("failed to update document '%s' in collection '%s': %w", docID, collection, mapError(err))
	}
	return nil
}

// Delete removes a document from a Firestore collection.
func (s *FirestoreStore) Delete(ctx context.Context, collection, docID string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if err := validateDocID(docID); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(docID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete document '%s' from collection '%s': %w", docID, collection, mapError(err))
	}
	return nil
}

func firestoreDirection(dir Direction) (firestore.Direction, error) {
	switch dir {
	case Asc:
		return firestore.Asc, nil
	case Desc:
		return firestore.Desc, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidQuery, dir)
}

// toFirestore swaps ServerTimestamp for the Firestore sentinel.
func toFirestore(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == ServerTimestamp {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

// toUpdates builds one update per top-level field, sorted for stable writes.
func toUpdates(data map[string]any) []firestore.Update {
	fields := toFirestore(data)
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	updates := make([]firestore.Update, 0, len(names))
	for _, name := range names {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{name}, Value: fields[name]})
	}
	return updates
}

func mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return err
}
