package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fetcher reloads the signed-in operator on each request, so a disabled
// account or a changed role applies without waiting for the cookie to expire.
type Fetcher struct {
	store  *Store
	logger *zap.Logger
}

var _ auth.UserFetcher = (*Fetcher)(nil)

func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{store: New(db), logger: logger}
}

// FetchUser resolves a session's user ID. Any failure signs the request out.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Read(), f.logger, "reload session operator")
	defer cancel()

	u, err := f.store.GetByID(ctx, oid)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	case err != nil:
		f.logger.Warn("could not reload session operator", zap.String("user_id", userID), zap.Error(err))
		return nil
	case !u.IsActive():
		return nil
	}

	su := &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Role: normalize.Role(u.Role)}
	if u.LoginID != nil {
		su.LoginID = *u.LoginID
	}
	return su
}
