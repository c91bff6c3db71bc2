// internal/app/store/content/query.go
package contentstore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Op is a comparison operator in a Filter.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var opOperators = map[Op]string{
	OpNe:  "$ne",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
}

// Filter compares one document field against a value.
// Field uses the stored (snake_case) name, e.g. "is_visible".
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Query narrows and orders a GetAll call. The zero Query returns every
// document in natural store order.
type Query struct {
	Filters []Filter
	SortBy  string
	Desc    bool
	Limit   int64
}

// document builds the Mongo filter. Filters are ANDed.
func (q Query) document() (bson.M, error) {
	if len(q.Filters) == 0 {
		return bson.M{}, nil
	}
	clauses := make([]bson.M, 0, len(q.Filters))
	for _, f := range q.Filters {
		if f.Field == "" {
			return nil, fmt.Errorf("filter: empty field")
		}
		op := f.Op
		if op == "" {
			op = OpEq
		}
		if op == OpEq {
			clauses = append(clauses, bson.M{f.Field: f.Value})
			continue
		}
		mop, ok := opOperators[op]
		if !ok {
			return nil, fmt.Errorf("filter %s: unknown operator %q", f.Field, op)
		}
		clauses = append(clauses, bson.M{f.Field: bson.M{mop: f.Value}})
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return bson.M{"$and": clauses}, nil
}

// sort returns the sort document, or nil for natural order.
// _id breaks ties so equal sort keys come back in a stable order.
func (q Query) sort() bson.D {
	if q.SortBy == "" {
		return nil
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	return bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: 1}}
}

// Patch is a partial document: stored field name to new value.
type Patch map[string]any

// reserved fields are owned by the store and never taken from a Patch.
var reserved = []string{"_id", "id", "created_at", "updated_at"}

// settable returns a copy of p without store-owned fields.
func (p Patch) settable() bson.M {
	out := bson.M{}
	for k, v := range p {
		out[k] = v
	}
	for _, k := range reserved {
		delete(out, k)
	}
	return out
}

// withVisibleDefault returns a copy of p with is_visible set to true when
// the caller did not say otherwise.
func (p Patch) withVisibleDefault() Patch {
	out := Patch{}
	for k, v := range p {
		out[k] = v
	}
	if _, ok := out["is_visible"]; !ok {
		out["is_visible"] = true
	}
	return out
}

// OrderItem assigns a new order to one entity in a reorder batch.
type OrderItem struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}
