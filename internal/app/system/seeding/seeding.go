// Package seeding creates the first admin and, when asked, copies the
// defaults table into empty content collections at startup.
package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Admin describes the bootstrap admin account.
type Admin struct {
	LoginID  string
	Name     string
	Password string
}

// SeedAdmin creates the admin account when no user has its login ID. An
// existing account is never modified. An empty LoginID disables seeding.
func SeedAdmin(ctx context.Context, db *mongo.Database, a Admin, logger *zap.Logger) error {
	if a.LoginID == "" {
		return nil
	}
	store := userstore.New(db)

	_, err := store.GetByLoginID(ctx, a.LoginID)
	if err == nil {
		logger.Debug("admin seed skipped; user exists", zap.String("login_id", a.LoginID))
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("seed admin: lookup: %w", err)
	}

	if err := authutil.ValidatePassword(a.Password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	hash, err := authutil.HashPassword(a.Password)
	if err != nil {
		return fmt.Errorf("seed admin: hash: %w", err)
	}
	name := a.Name
	if name == "" {
		name = a.LoginID
	}
	loginID := a.LoginID
	u, err := store.Create(ctx, models.User{
		FullName:     name,
		LoginID:      &loginID,
		AuthMethod:   models.AuthPassword,
		PasswordHash: &hash,
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, userstore.ErrDuplicateLoginID) {
		// Another instance seeded it first.
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("seeded admin user", zap.String("login_id", *u.LoginID), zap.String("user_id", u.ID.Hex()))
	return nil
}

// SeedContent copies table entries into every empty content collection and
// returns the number of documents inserted per kind. Collections that already
// hold documents are left alone.
func SeedContent(ctx context.Context, reg *contentstore.Registry, table *defaults.Table, logger *zap.Logger) (map[string]int, error) {
	out := map[string]int{}
	for _, kind := range table.Kinds() {
		repo, err := reg.Repo(kind)
		if err != nil {
			return out, err
		}
		n, err := repo.SeedPatches(ctx, table.Entries(kind))
		if err != nil {
			return out, fmt.Errorf("seed %s: %w", kind, err)
		}
		if n > 0 {
			out[kind] = n
		}
	}
	logger.Info("content seed finished", zap.String("source", table.Source()), zap.Int("kinds_seeded", len(out)))
	return out, nil
}
