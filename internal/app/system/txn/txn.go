// Package txn runs multi-document writes inside a MongoDB transaction.
//
// Content batches such as a reorder or an initial seed must land all at once.
// On deployments without transaction support (a standalone mongod, DocumentDB
// with transactions disabled) Run falls back to executing the function
// directly, so callers should validate the whole batch before writing.
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    _, err := coll.BulkWrite(ctx, models)
//	    return err
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work. ctx is a mongo.SessionContext when a transaction
// is active and the caller's context otherwise; use it for every operation.
type Func func(ctx context.Context) error

// Run executes fn in a transaction, retrying transient commit errors the way
// the driver's WithTransaction does. A nil log suppresses fallback warnings.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		warn(log, "session unavailable, writing without transaction", err)
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err == nil {
		return nil
	}
	if IsNotSupported(err) {
		warn(log, "transactions unsupported, writing without transaction", err)
		return fn(ctx)
	}
	return err
}

func warn(log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Warn(msg, zap.Error(err))
	}
}

// notSupportedCodes are server codes returned when a deployment cannot run
// multi-document transactions.
//
//	20  IllegalOperation ("Transaction numbers are only allowed on a replica set member or mongos")
//	51  IllegalOperation on older servers
//	263 OperationNotSupportedInTransaction
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err means transactions are unavailable.
// Errors produced by fn itself are not matched unless they carry one of the
// server codes above or mention both a transaction and a deployment limit.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && notSupportedCodes[cmdErr.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
