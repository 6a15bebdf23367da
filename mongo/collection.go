package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jacentio/docket/store"
)

// Collection is a MongoDB collection viewed as a store.Collection.
type Collection struct {
	db   *database
	name string
}

// Name implements store.Collection.
func (c *Collection) Name() string { return c.name }

// Insert implements store.Collection.
func (c *Collection) Insert(ctx context.Context, doc *store.Document) error {
	_, err := c.db.handle().Collection(c.name).InsertOne(ctx, toBSON(doc))
	if err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, classify(err))
	}
	return nil
}

// Find implements store.Collection.
func (c *Collection) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*store.Document, error) {
	q, err := toQuery(filter)
	if err != nil {
		return nil, err
	}

	fo := options.Find()
	if len(opts.Projection) > 0 {
		fo.SetProjection(projection(opts.Projection))
	}
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}

	cur, err := c.db.handle().Collection(c.name).Find(ctx, q, fo)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.name, classify(err))
	}
	defer cur.Close(ctx)

	var docs []*store.Document
	for cur.Next(ctx) {
		var raw bson.D
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode from %s: %w", c.name, err)
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.name, classify(err))
	}
	return docs, nil
}

// Remove implements store.Collection.
func (c *Collection) Remove(ctx context.Context, filter store.Filter) (int64, error) {
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.db.handle().Collection(c.name).DeleteMany(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.name, classify(err))
	}
	return res.DeletedCount, nil
}

// toQuery translates a filter to a MongoDB query document.
func toQuery(f store.Filter) (any, error) {
	switch f.Op {
	case store.OpAll:
		return bson.D{}, nil
	case store.OpEq:
		return bson.D{{Key: f.Field, Value: toValue(f.Values[0])}}, nil
	case store.OpIn:
		in := make(bson.A, len(f.Values))
		for i, v := range f.Values {
			in[i] = toValue(v)
		}
		return bson.D{{Key: f.Field, Value: bson.D{{Key: "$in", Value: in}}}}, nil
	case store.OpExists:
		return bson.D{{Key: f.Field, Value: bson.D{{Key: "$exists", Value: true}}}}, nil
	case store.OpRaw:
		switch q := f.Native.(type) {
		case bson.D, bson.M:
			return q, nil
		case map[string]any:
			return bson.M(q), nil
		}
		return nil, fmt.Errorf("%w: %T", store.ErrUnsupportedFilter, f.Native)
	}
	return nil, fmt.Errorf("%w: %s", store.ErrUnsupportedFilter, f.Op)
}

// projection includes the named fields and excludes the server _id unless
// it was asked for.
func projection(fields []string) bson.D {
	p := make(bson.D, 0, len(fields)+1)
	wantID := false
	for _, f := range fields {
		if f == "_id" {
			wantID = true
		}
		p = append(p, bson.E{Key: f, Value: 1})
	}
	if !wantID {
		p = append(p, bson.E{Key: "_id", Value: 0})
	}
	return p
}

// toBSON converts a document to an ordered bson.D.
func toBSON(d *store.Document) bson.D {
	out := make(bson.D, 0, d.Len())
	d.Range(func(k string, v any) bool {
		out = append(out, bson.E{Key: k, Value: toValue(v)})
		return true
	})
	return out
}

func toValue(v any) any {
	switch t := v.(type) {
	case *store.Document:
		return toBSON(t)
	case []any:
		a := make(bson.A, len(t))
		for i, e := range t {
			a[i] = toValue(e)
		}
		return a
	default:
		return v
	}
}

// fromBSON converts a decoded bson.D to a document, keeping field order.
func fromBSON(d bson.D) *store.Document {
	doc := store.NewDocument()
	for _, e := range d {
		doc.Set(e.Key, fromValue(e.Value))
	}
	return doc
}

func fromValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		return fromBSON(t)
	case bson.M:
		return store.DocumentFromMap(fromMap(t))
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

func fromMap(m bson.M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}
