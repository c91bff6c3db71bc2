// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates every collection the site uses and attaches JSON-Schema
// validators where a schema is defined. Deployments without collMod support
// (some DocumentDB versions) skip validators with an info log.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("audit_logs", nil)
	ensure("assets", assetsSchema())
	for _, k := range models.ContentKinds() {
		ensure(k.Name, contentSchema(k))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection makes sure name exists and reports whether it created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	if exists, err := collectionExists(ctx, db, name); err == nil && exists {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

// setValidator uses moderate validation so documents written before the
// validator existed can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Debug("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandErr(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErr(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErr(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErr(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	numberTypes = bson.A{"int", "long", "double"}
	stringOrNil = bson.A{"string", "null"}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "role", "status", "auth_method"},
			"properties": bson.M{
				"full_name":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"login_id":    bson.M{"bsonType": stringOrNil},
				"login_id_ci": bson.M{"bsonType": stringOrNil},
				"email":       bson.M{"bsonType": stringOrNil},
				"role":        bson.M{"enum": bson.A{models.RoleAdmin, models.RoleEditor}},
				"status":      bson.M{"enum": bson.A{"active", "disabled"}},
				"auth_method": bson.M{"enum": bson.A{"password", "trust"}},
			},
		},
	}
}

func assetsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "storage_path", "url", "size", "content_type"},
			"properties": bson.M{
				"name":         bson.M{"bsonType": "string", "minLength": 1},
				"storage_path": bson.M{"bsonType": "string", "minLength": 1},
				"url":          bson.M{"bsonType": "string", "minLength": 1},
				"size":         bson.M{"bsonType": numberTypes, "minimum": 0},
				"content_type": bson.M{"bsonType": "string"},
			},
		},
	}
}

// contentSchema enforces the bookkeeping fields every content document
// carries. Domain fields are validated by the admin API before writing.
func contentSchema(k models.KindInfo) bson.M {
	keyType := bson.M{"bsonType": "string"}
	if strings.HasSuffix(k.KeyField, "_number") {
		keyType = bson.M{"bsonType": numberTypes, "minimum": 0}
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"is_visible", "order", "created_at", "updated_at"},
			"properties": bson.M{
				"_id":        bson.M{"bsonType": "string", "minLength": 1},
				"is_visible": bson.M{"bsonType": "bool"},
				"order":      bson.M{"bsonType": numberTypes},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
				k.KeyField:   keyType,
			},
		},
	}
}
