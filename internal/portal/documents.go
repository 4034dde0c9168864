package portal

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/metrics"
	"github.com/switzea/portal/pkg/database"
)

// DeleteQuestion is asked before a document is removed.
const DeleteQuestion = "Er du sikker på at du vil slette?"

// System-assigned fields. Callers cannot set them.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldCreatedBy = "createdBy"
	FieldUpdatedAt = "updatedAt"
)

// UnknownCreator is recorded as createdBy when no session is bound.
const UnknownCreator = "unknown"

// Event types published after successful writes.
const (
	EventCreated = "document.created"
	EventUpdated = "document.updated"
	EventDeleted = "document.deleted"
)

// ListOptions orders a listing. Zero values mean createdAt, descending.
type ListOptions struct {
	OrderBy   string
	Direction database.Direction
}

// DocumentEvent is the message published on the event queue.
type DocumentEvent struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"documentId"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CreateDocument stores data in collection together with the creation time
// and creator, and returns the new document ID.
func (w *Wrapper) CreateDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	doc := userFields(data)
	doc[FieldCreatedAt] = database.ServerTimestamp
	doc[FieldCreatedBy] = actor(ctx)

	id, err := w.store.Add(ctx, collection, doc)
	if err != nil {
		w.failed("create", collection, "", err)
		return "", &OpError{Op: "create", Collection: collection, Err: err}
	}
	w.succeeded("create")
	w.logger.Info("Document created", zap.String("collection", collection), zap.String("id", id))
	w.publish(ctx, EventCreated, collection, id)
	return id, nil
}

// GetAllDocuments lists collection in the requested order. On failure the
// slice is empty, never nil, and the error is an *OpError, so callers may
// render the empty result and still report the problem.
func (w *Wrapper) GetAllDocuments(ctx context.Context, collection string, opts ListOptions) ([]database.Record, error) {
	if opts.OrderBy == "" {
		opts.OrderBy = FieldCreatedAt
	}
	if opts.Direction == "" {
		opts.Direction = database.Desc
	}

	records, err := w.store.List(ctx, collection, opts.OrderBy, opts.Direction)
	if err != nil {
		w.failed("list", collection, "", err)
		return []database.Record{}, &OpError{Op: "list", Collection: collection, Err: err}
	}
	if records == nil {
		records = []database.Record{}
	}
	w.succeeded("list")
	w.logger.Debug("Documents loaded", zap.String("collection", collection), zap.Int("count", len(records)))
	return records, nil
}

// UpdateDocument merges data into an existing document and refreshes updatedAt.
func (w *Wrapper) UpdateDocument(ctx context.Context, collection, docID string, data map[string]any) error {
	doc := userFields(data)
	doc[FieldUpdatedAt] = database.ServerTimestamp

	if err := w.store.Update(ctx, collection, docID, doc); err != nil {
		w.failed("update", collection, docID, err)
		return &OpError{Op: "update", Collection: collection, DocID: docID, Err: err}
	}
	w.succeeded("update")
	w.logger.Info("Document updated", zap.String("collection", collection), zap.String("id", docID))
	w.publish(ctx, EventUpdated, collection, docID)
	return nil
}

// DeleteDocument asks for confirmation and removes the document. A declined
// confirmation returns false and a nil error.
func (w *Wrapper) DeleteDocument(ctx context.Context, collection, docID string) (bool, error) {
	if !w.ui.Confirm(ctx, DeleteQuestion) {
		metrics.DocumentOps.WithLabelValues("delete", metrics.ResultDeclined).Inc()
		return false, nil
	}
	if err := w.store.Delete(ctx, collection, docID); err != nil {
		w.failed("delete", collection, docID, err)
		return false, &OpError{Op: "delete", Collection: collection, DocID: docID, Err: err}
	}
	w.succeeded("delete")
	w.logger.Info("Document deleted", zap.String("collection", collection), zap.String("id", docID))
	w.publish(ctx, EventDeleted, collection, docID)
	return true, nil
}

func (w *Wrapper) succeeded(op string) {
	metrics.DocumentOps.WithLabelValues(op, metrics.ResultOK).Inc()
}

func (w *Wrapper) failed(op, collection, docID string, err error) {
	metrics.DocumentOps.WithLabelValues(op, metrics.ResultError).Inc()
	fields := []zap.Field{zap.String("op", op), zap.String("collection", collection), zap.Error(err)}
	if docID != "" {
		fields = append(fields, zap.String("id", docID))
	}
	w.logger.Error("Document operation failed", fields...)
}

// publish emits a change event. Delivery problems never fail the operation.
func (w *Wrapper) publish(ctx context.Context, typ, collection, docID string) {
	if w.eventQueue == "" {
		return
	}
	body, err := json.Marshal(DocumentEvent{
		Type:       typ,
		Collection: collection,
		DocumentID: docID,
		Actor:      actor(ctx),
		OccurredAt: w.now().UTC(),
	})
	if err != nil {
		w.logger.Warn("Failed to encode document event", zap.Error(err))
		return
	}
	if err := w.events.Publish(ctx, w.eventQueue, body); err != nil {
		w.logger.Warn("Failed to publish document event",
			zap.String("type", typ), zap.String("collection", collection), zap.String("id", docID), zap.Error(err))
	}
}

func actor(ctx context.Context) string {
	if s := identity.SessionFromContext(ctx); s != nil && s.UID != "" {
		return s.UID
	}
	return UnknownCreator
}

// userFields copies data without the system-assigned fields.
func userFields(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		switch k {
		case FieldID, FieldCreatedAt, FieldCreatedBy, FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}
