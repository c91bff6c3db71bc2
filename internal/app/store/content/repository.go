// internal/app/store/content/repository.go
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/txn"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by writes that target an ID with no document.
	// Reads report absence with a nil result instead.
	ErrNotFound = errors.New("content not found")
	// ErrInvalidID is returned when an ID argument is blank.
	ErrInvalidID = errors.New("content id is required")
)

// Repository reads and writes one content kind. The collection is named
// after the kind and the store is the only source of truth; nothing is cached.
type Repository[T models.Entity] struct {
	kind   string
	db     *mongo.Database
	c      *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

// NewRepository returns a repository for T's kind.
// Callers normally go through a Registry so each kind has one repository.
func NewRepository[T models.Entity](db *mongo.Database, logger *zap.Logger) *Repository[T] {
	var zero T
	kind := zero.Kind()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository[T]{
		kind:   kind,
		db:     db,
		c:      db.Collection(kind),
		logger: logger.With(zap.String("kind", kind)),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Kind returns the content kind (and collection name).
func (r *Repository[T]) Kind() string { return r.kind }

// fail logs err and wraps it with the kind and operation.
func (r *Repository[T]) fail(op string, err error, fields ...zap.Field) error {
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, context.Canceled) {
		r.logger.Error("content store "+op+" failed", append(fields, zap.Error(err))...)
	}
	return fmt.Errorf("%s: %s: %w", r.kind, op, err)
}

// GetAll returns the documents matching q. An empty collection yields an
// empty slice, never an error.
func (r *Repository[T]) GetAll(ctx context.Context, q Query) ([]T, error) {
	filter, err := q.document()
	if err != nil {
		return nil, fmt.Errorf("%s: get all: %w", r.kind, err)
	}
	opts := options.Find()
	if s := q.sort(); s != nil {
		opts.SetSort(s)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := r.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.fail("get all", err)
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, r.fail("get all", err)
	}
	return out, nil
}

// GetByID returns the document with id, or (nil, nil) when there is none.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: get: %w", r.kind, ErrInvalidID)
	}
	var doc T
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail("get", err, zap.String("id", id))
	}
	return &doc, nil
}

// Create inserts entity under a new store-assigned ID and returns it.
// Any ID or timestamps on entity are replaced. IsVisible is stored exactly
// as given; callers holding an untyped payload use CreateFrom, which
// defaults it to true.
func (r *Repository[T]) Create(ctx context.Context, entity T) (string, error) {
	doc, err := r.document(entity)
	if err != nil {
		return "", r.fail("create", err)
	}
	if _, err := r.c.InsertOne(ctx, doc); err != nil {
		return "", r.fail("create", err)
	}
	return doc["_id"].(string), nil
}

// CreateFrom is Create for an untyped payload. is_visible defaults to true.
// Keys that are not fields of the kind are dropped.
func (r *Repository[T]) CreateFrom(ctx context.Context, p Patch) (string, error) {
	entity, err := Decode[T](Patch(p.settable()).withVisibleDefault())
	if err != nil {
		return "", fmt.Errorf("%s: create: %w", r.kind, err)
	}
	return r.Create(ctx, entity)
}

// document converts entity into an insertable document with a fresh ID
// and both timestamps set to now.
func (r *Repository[T]) document(entity T) (bson.M, error) {
	data, err := bson.Marshal(entity)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	now := r.now()
	doc["_id"] = primitive.NewObjectID().Hex()
	doc["created_at"] = now
	doc["updated_at"] = now
	return doc, nil
}

// Update applies p to an existing document. It never creates: a missing id
// returns ErrNotFound. created_at is left untouched and updated_at is set
// to now; store-owned keys in p are ignored.
func (r *Repository[T]) Update(ctx context.Context, id string, p Patch) error {
	if id == "" {
		return fmt.Errorf("%s: update: %w", r.kind, ErrInvalidID)
	}
	set := p.settable()
	set["updated_at"] = r.now()

	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return r.fail("update", err, zap.String("id", id))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: update %s: %w", r.kind, id, ErrNotFound)
	}
	return nil
}

// Upsert applies p to the document with id, creating it under that id when
// absent. created_at is written only on insert. It reports whether a new
// document was created. A new document is visible unless p says otherwise.
func (r *Repository[T]) Upsert(ctx context.Context, id string, p Patch) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%s: upsert: %w", r.kind, ErrInvalidID)
	}
	now := r.now()
	set := p.settable()
	set["updated_at"] = now

	onInsert := bson.M{"created_at": now}
	if _, ok := set["is_visible"]; !ok {
		onInsert["is_visible"] = true
	}
	if _, ok := set["order"]; !ok {
		onInsert["order"] = models.Unplaced
	}

	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set, "$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, r.fail("upsert", err, zap.String("id", id))
	}
	return res.UpsertedCount > 0, nil
}

// Delete removes the document with id, or returns ErrNotFound.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%s: delete: %w", r.kind, ErrInvalidID)
	}
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return r.fail("delete", err, zap.String("id", id))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: delete %s: %w", r.kind, id, ErrNotFound)
	}
	return nil
}

// GetVisible returns visible documents ordered by ascending order. Ties keep
// store order. limit <= 0 means no limit.
func (r *Repository[T]) GetVisible(ctx context.Context, limit int) ([]T, error) {
	all, err := r.GetAll(ctx, Query{Filters: []Filter{Eq("is_visible", true)}})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ContentMeta().Order < all[j].ContentMeta().Order
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// UpdateOrder assigns new orders to a batch of documents. The batch is
// applied as one unit: if any id is unknown nothing is written and
// ErrNotFound is returned. An empty batch is a no-op.
func (r *Repository[T]) UpdateOrder(ctx context.Context, items []OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	writes := make([]mongo.WriteModel, 0, len(items))
	now := r.now()
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("%s: reorder: %w", r.kind, ErrInvalidID)
		}
		if !seen[it.ID] {
			seen[it.ID] = true
			ids = append(ids, it.ID)
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": it.ID}).
			SetUpdate(bson.M{"$set": bson.M{"order": it.Order, "updated_at": now}}))
	}

	err := txn.Run(ctx, r.db, r.logger, func(ctx context.Context) error {
		n, err := r.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return ErrNotFound
		}
		_, err = r.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
		return err
	})
	if err != nil {
		return r.fail("reorder", err, zap.Int("items", len(items)))
	}
	return nil
}

// SeedIfEmpty inserts entities when the collection holds no documents and
// returns how many were written. Each entity gets a fresh ID; entities
// without an order take their 1-based position.
func (r *Repository[T]) SeedIfEmpty(ctx context.Context, entities []T) (int, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(entities))
	for i, e := range entities {
		doc, err := r.document(e)
		if err != nil {
			return 0, r.fail("seed", err)
		}
		if o, ok := doc["order"]; !ok || isZeroNumber(o) {
			doc["order"] = i + 1
		}
		docs = append(docs, doc)
	}

	inserted := 0
	err := txn.Run(ctx, r.db, r.logger, func(ctx context.Context) error {
		inserted = 0
		n, err := r.c.CountDocuments(ctx, bson.M{})
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if _, err := r.c.InsertMany(ctx, docs); err != nil {
			return err
		}
		inserted = len(docs)
		return nil
	})
	if err != nil {
		return 0, r.fail("seed", err)
	}
	if inserted > 0 {
		r.logger.Info("seeded content", zap.Int("count", inserted))
	}
	return inserted, nil
}

// SeedPatches decodes untyped entries and seeds them with SeedIfEmpty.
func (r *Repository[T]) SeedPatches(ctx context.Context, entries []Patch) (int, error) {
	entities := make([]T, 0, len(entries))
	for i, p := range entries {
		e, err := Decode[T](Patch(p.settable()).withVisibleDefault())
		if err != nil {
			return 0, fmt.Errorf("%s: seed entry %d: %w", r.kind, i, err)
		}
		entities = append(entities, e)
	}
	return r.SeedIfEmpty(ctx, entities)
}

// List is GetAll for callers that do not know T.
func (r *Repository[T]) List(ctx context.Context, q Query) (any, error) {
	return r.GetAll(ctx, q)
}

// Visible is GetVisible for callers that do not know T.
func (r *Repository[T]) Visible(ctx context.Context, limit int) (any, error) {
	return r.GetVisible(ctx, limit)
}

// Get is GetByID for callers that do not know T. The result is an untyped
// nil when the document is absent.
func (r *Repository[T]) Get(ctx context.Context, id string) (any, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc, nil
}

// Decode converts an untyped document into T through its bson field names.
func Decode[T models.Entity](p Patch) (T, error) {
	var out T
	data, err := bson.Marshal(p)
	if err != nil {
		return out, fmt.Errorf("encode: %w", err)
	}
	if err := bson.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func isZeroNumber(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}
