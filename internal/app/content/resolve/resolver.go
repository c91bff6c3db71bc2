package resolve

import (
	"context"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.uber.org/zap"
)

// Resolver produces the public list for a kind: persisted documents merged
// over the defaults table. It holds no per-request state.
type Resolver struct {
	reg    *contentstore.Registry
	table  *defaults.Table
	logger *zap.Logger
}

// NewResolver returns a resolver. A nil table means no defaults.
func NewResolver(reg *contentstore.Registry, table *defaults.Table, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{reg: reg, table: table, logger: logger}
}

// Table returns the defaults table the resolver merges over.
func (rv *Resolver) Table() *defaults.Table { return rv.table }

// Registry returns the repository registry the resolver reads from.
func (rv *Resolver) Registry() *contentstore.Registry { return rv.reg }

// Resolve returns the visible, ordered list for T. Hidden documents are
// loaded too so they can hide the default they override. A store error is
// logged and the defaults are returned on their own.
func Resolve[T models.Entity](ctx context.Context, rv *Resolver) []T {
	var zero T
	log := rv.logger.With(zap.String("kind", zero.Kind()))

	defs, err := defaults.Typed[T](rv.table)
	if err != nil {
		log.Error("defaults table entry does not decode", zap.Error(err))
		defs = nil
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Read(), log, "resolve "+zero.Kind())
	defer cancel()

	persisted, err := contentstore.For[T](rv.reg).GetAll(ctx, contentstore.Query{})
	if err != nil {
		log.Warn("content read failed, serving defaults", zap.Error(err))
		persisted = nil
	}
	return Merge(defs, persisted)
}
