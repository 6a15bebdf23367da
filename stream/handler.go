// Package stream provides DynamoDB Streams handlers that decode changed
// items back into entities.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/docket/store"
)

// Handler processes DynamoDB stream events for one entity type. Records for
// items of other types sharing the table are skipped.
type Handler[T store.Entity] struct {
	mapper   *store.Mapper[T]
	logger   *slog.Logger
	onStore  func(ctx context.Context, e T) error
	onDelete func(ctx context.Context, id string) error
}

// Option configures a Handler.
type Option[T store.Entity] func(*Handler[T])

// OnStore sets the callback for inserted and modified entities.
func OnStore[T store.Entity](fn func(ctx context.Context, e T) error) Option[T] {
	return func(h *Handler[T]) { h.onStore = fn }
}

// OnDelete sets the callback for removed entities.
func OnDelete[T store.Entity](fn func(ctx context.Context, id string) error) Option[T] {
	return func(h *Handler[T]) { h.onDelete = fn }
}

// NewHandler creates a new stream handler. A nil logger uses slog.Default().
func NewHandler[T store.Entity](m *store.Mapper[T], logger *slog.Logger, opts ...Option[T]) *Handler[T] {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler[T]{
		mapper: m,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes a batch of DynamoDB stream records. It stops at the
// first failing record and returns its error, so Lambda retries the batch.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler[T]) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"eventName", record.EventName,
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (h *Handler[T]) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify:
		return h.processStore(ctx, record)
	case events.DynamoDBOperationTypeRemove:
		return h.processDelete(ctx, record)
	default:
		h.logger.Debug("ignoring stream record",
			"eventID", record.EventID,
			"eventName", record.EventName,
		)
		return nil
	}
}

func (h *Handler[T]) processStore(ctx context.Context, record events.DynamoDBEventRecord) error {
	image := record.Change.NewImage
	if !h.owns(image) {
		return nil
	}

	doc, err := ImageDocument(image)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	e, err := h.mapper.Unmarshal(doc)
	if err != nil {
		return fmt.Errorf("unmarshal %s: %w", doc.ID(), err)
	}

	h.logger.Info("entity changed",
		"type", h.mapper.Type(),
		"id", e.GetID(),
		"eventName", record.EventName,
	)
	if h.onStore == nil {
		return nil
	}
	return h.onStore(ctx, e)
}

func (h *Handler[T]) processDelete(ctx context.Context, record events.DynamoDBEventRecord) error {
	// The old image is absent for KEYS_ONLY streams; the type cannot be
	// checked then and the removal is reported regardless.
	if len(record.Change.OldImage) > 0 && !h.owns(record.Change.OldImage) {
		return nil
	}

	id := getStringAttr(record.Change.Keys, store.IDField)
	if id == "" {
		id = getStringAttr(record.Change.OldImage, store.IDField)
	}
	if id == "" {
		return fmt.Errorf("remove record %s has no %s key", record.EventID, store.IDField)
	}

	h.logger.Info("entity removed",
		"type", h.mapper.Type(),
		"id", id,
	)
	if h.onDelete == nil {
		return nil
	}
	return h.onDelete(ctx, id)
}

// owns reports whether an image belongs to the handler's type. Images with
// no type tag are accepted.
func (h *Handler[T]) owns(image map[string]events.DynamoDBAttributeValue) bool {
	tag := getStringAttr(image, store.TypeField)
	if tag == "" || store.TypeTag(tag) == h.mapper.Type() {
		return true
	}
	h.logger.Debug("skipping foreign type",
		"type", tag,
		"want", h.mapper.Type(),
	)
	return false
}
