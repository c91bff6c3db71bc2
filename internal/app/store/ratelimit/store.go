// Package ratelimit locks a login ID out after repeated failed sign-ins.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt is the failure counter for one login ID.
type Attempt struct {
	LoginID     string     `bson:"login_id"` // folded
	Count       int        `bson:"attempt_count"`
	WindowStart time.Time  `bson:"window_start"`
	LockedUntil *time.Time `bson:"locked_until,omitempty"`
	LastAttempt time.Time  `bson:"last_attempt"`
}

// Store counts failures in the login_attempts collection. A nil *Store
// allows everything, so rate limiting can be switched off by config.
type Store struct {
	c       *mongo.Collection
	max     int
	window  time.Duration
	lockout time.Duration
	now     func() time.Time
}

// New returns a Store that locks a login ID for lockout after max failures
// within window.
func New(db *mongo.Database, max int, window, lockout time.Duration) *Store {
	return &Store{
		c:       db.Collection("login_attempts"),
		max:     max,
		window:  window,
		lockout: lockout,
		now:     time.Now,
	}
}

func key(loginID string) string { return text.Fold(normalize.LoginID(loginID)) }

// LockedUntil returns the lockout expiry, or nil when loginID may try again.
// Lookup errors fail open.
func (s *Store) LockedUntil(ctx context.Context, loginID string) *time.Time {
	if s == nil {
		return nil
	}
	var a Attempt
	if err := s.c.FindOne(ctx, bson.M{"login_id": key(loginID)}).Decode(&a); err != nil {
		return nil
	}
	if a.LockedUntil != nil && s.now().Before(*a.LockedUntil) {
		return a.LockedUntil
	}
	return nil
}

// RecordFailure counts one failure and returns the lockout expiry when this
// failure reached the limit. A window that has lapsed starts over at one.
func (s *Store) RecordFailure(ctx context.Context, loginID string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	k := key(loginID)

	// Reset a lapsed window first; a no-op when the counter is fresh or absent.
	_, err := s.c.UpdateOne(ctx,
		bson.M{"login_id": k, "window_start": bson.M{"$lt": now.Add(-s.window)}},
		bson.M{
			"$set":   bson.M{"attempt_count": 0, "window_start": now},
			"$unset": bson.M{"locked_until": ""},
		})
	if err != nil {
		return nil, err
	}

	var a Attempt
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"login_id": k},
		bson.M{
			"$inc":         bson.M{"attempt_count": 1},
			"$set":         bson.M{"last_attempt": now},
			"$setOnInsert": bson.M{"window_start": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return nil, err
	}
	if a.Count < s.max {
		return nil, nil
	}

	until := now.Add(s.lockout)
	if _, err := s.c.UpdateOne(ctx, bson.M{"login_id": k}, bson.M{"$set": bson.M{"locked_until": until}}); err != nil {
		return nil, err
	}
	return &until, nil
}

// Clear forgets the failures for loginID after a successful sign-in.
func (s *Store) Clear(ctx context.Context, loginID string) error {
	if s == nil {
		return nil
	}
	_, err := s.c.DeleteOne(ctx, bson.M{"login_id": key(loginID)})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

// Get returns the counter for loginID, or nil when none exists.
func (s *Store) Get(ctx context.Context, loginID string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"login_id": key(loginID)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
