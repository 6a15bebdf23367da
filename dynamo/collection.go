package dynamo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docket/internal/shard"
	"github.com/jacentio/docket/store"
)

// batchSize is the DynamoDB limit on requests per BatchWriteItem call.
const batchSize = 25

// maxBatchAttempts bounds resubmission of unprocessed batch items.
const maxBatchAttempts = 5

// Collection is a DynamoDB table viewed as a store.Collection.
type Collection struct {
	db    *database
	name  string
	table string
}

// Name implements store.Collection.
func (c *Collection) Name() string { return c.name }

// Table returns the backing table name.
func (c *Collection) Table() string { return c.table }

// Insert implements store.Collection with PutItem, replacing any item with
// the same identifier.
func (c *Collection) Insert(ctx context.Context, doc *store.Document) error {
	item, err := toItem(doc)
	if err != nil {
		return err
	}
	_, err = c.db.currentAPI().PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      item,
	})
	return classify(err)
}

// Find implements store.Collection with a (possibly parallel) Scan.
// A limited Find always scans sequentially so it can stop early.
func (c *Collection) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*store.Document, error) {
	expr, err := compile(filter, opts.Projection)
	if err != nil {
		return nil, err
	}
	if expr.none {
		return nil, nil
	}

	segments := c.db.client.driver.cfg.ScanSegments
	if opts.Limit > 0 {
		segments = 1
	}

	var (
		mu   sync.Mutex
		docs []*store.Document
	)
	err = shard.Each(ctx, segments, func(ctx context.Context, segment, total int32) error {
		return c.scan(ctx, expr, segment, total, func(item map[string]types.AttributeValue) (bool, error) {
			doc, err := fromItem(item)
			if err != nil {
				return false, err
			}
			mu.Lock()
			defer mu.Unlock()
			docs = append(docs, doc)
			return opts.Limit > 0 && len(docs) >= opts.Limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Remove implements store.Collection. Matching identifiers are found with a
// projected Scan and deleted with BatchWriteItem.
func (c *Collection) Remove(ctx context.Context, filter store.Filter) (int64, error) {
	expr, err := compile(filter, []string{store.IDField})
	if err != nil {
		return 0, err
	}
	if expr.none {
		return 0, nil
	}

	var removed atomic.Int64
	err = shard.Each(ctx, c.db.client.driver.cfg.ScanSegments, func(ctx context.Context, segment, total int32) error {
		var keys []map[string]types.AttributeValue
		err := c.scan(ctx, expr, segment, total, func(item map[string]types.AttributeValue) (bool, error) {
			if id, ok := item[store.IDField]; ok {
				keys = append(keys, map[string]types.AttributeValue{store.IDField: id})
			}
			return false, nil
		})
		if err != nil {
			return err
		}
		for start := 0; start < len(keys); start += batchSize {
			end := min(start+batchSize, len(keys))
			if err := c.deleteBatch(ctx, keys[start:end]); err != nil {
				return err
			}
			removed.Add(int64(end - start))
		}
		return nil
	})
	return removed.Load(), err
}

// scan pages through one segment, passing each item to visit until visit
// reports done.
func (c *Collection) scan(ctx context.Context, expr *scanExpr, segment, total int32, visit func(map[string]types.AttributeValue) (bool, error)) error {
	input := &dynamodb.ScanInput{
		TableName: aws.String(c.table),
	}
	if expr.condition != "" {
		input.FilterExpression = aws.String(expr.condition)
	}
	if expr.projection != "" {
		input.ProjectionExpression = aws.String(expr.projection)
	}
	if len(expr.names) > 0 {
		input.ExpressionAttributeNames = expr.names
	}
	if len(expr.values) > 0 {
		input.ExpressionAttributeValues = expr.values
	}
	if total > 1 {
		input.Segment = aws.Int32(segment)
		input.TotalSegments = aws.Int32(total)
	}

	paginator := dynamodb.NewScanPaginator(c.db.currentAPI(), input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", c.table, classify(err))
		}
		for _, item := range page.Items {
			done, err := visit(item)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
	return nil
}

func (c *Collection) deleteBatch(ctx context.Context, keys []map[string]types.AttributeValue) error {
	requests := make([]types.WriteRequest, len(keys))
	for i, k := range keys {
		requests[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}}
	}

	pending := map[string][]types.WriteRequest{c.table: requests}
	for attempt := 0; attempt < maxBatchAttempts && len(pending[c.table]) > 0; attempt++ {
		out, err := c.db.currentAPI().BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("delete from %s: %w", c.table, classify(err))
		}
		pending = out.UnprocessedItems
	}
	if n := len(pending[c.table]); n > 0 {
		return fmt.Errorf("delete from %s: %d items left unprocessed", c.table, n)
	}
	return nil
}

// toItem converts a document to a DynamoDB item.
func toItem(doc *store.Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(doc.Map())
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", doc.ID(), err)
	}
	return item, nil
}

// fromItem converts a DynamoDB item to a document. Numbers decode as
// float64; field order is lexical.
func fromItem(item map[string]types.AttributeValue) (*store.Document, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return store.DocumentFromMap(m), nil
}

var _ store.Collection = (*Collection)(nil)
