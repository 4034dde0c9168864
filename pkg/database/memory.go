package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps every collection in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	now         func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Add stores a copy of data under a new random ID.
func (m *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}
	id := uuid.NewString()
	coll[id] = m.stamp(cloneMap(data))
	return id, nil
}

// List returns copies of every document carrying orderBy, sorted by it and then by ID.
func (m *MemoryStore) List(ctx context.Context, collection, orderBy string, dir Direction) ([]Record, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	if orderBy == "" {
		return nil, fmt.Errorf("%w: order field cannot be empty", ErrInvalidQuery)
	}
	if dir != Asc && dir != Desc {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidQuery, dir)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	records := make([]Record, 0, len(m.collections[collection]))
	for id, doc := range m.collections[collection] {
		if _, ok := doc[orderBy]; !ok {
			continue
		}
		records = append(records, Record{ID: id, Fields: cloneMap(doc)})
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		c := compareValues(records[i].Fields[orderBy], records[j].Fields[orderBy])
		if c == 0 {
			c = compareValues(records[i].ID, records[j].ID)
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return records, nil
}

// Update merges data into the stored document.
func (m *MemoryStore) Update(ctx context.Context, collection, docID string, data map[string]any) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if err := validateDocID(docID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][docID]
	if !ok {
		return fmt.Errorf("document '%s' in collection '%s': %w", docID, collection, ErrNotFound)
	}
	for k, v := range m.stamp(cloneMap(data)) {
		doc[k] = v
	}
	return nil
}

// Delete removes the document if present.
func (m *MemoryStore) Delete(ctx context.Context, collection, docID string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if err := validateDocID(docID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], docID)
	return nil
}

// stamp replaces ServerTimestamp sentinels with the write time.
func (m *MemoryStore) stamp(doc map[string]any) map[string]any {
	now := m.now()
	for k, v := range doc {
		if v == ServerTimestamp {
			doc[k] = now
		}
	}
	return doc
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []byte:
		return append([]byte(nil), t...)
	}
	return v
}
