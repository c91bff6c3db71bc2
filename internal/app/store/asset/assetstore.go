// Package assetstore keeps metadata for uploaded media. The bytes live in the
// storage backend; documents here record where and under which public URL.
package assetstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MaxListSize caps one page of List.
const MaxListSize = 100

// ErrNameRequired is returned when an asset would be left without a name.
var ErrNameRequired = errors.New("asset name is required")

// Store provides access to the assets collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new asset store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assets")}
}

// CreateInput contains the input for recording an uploaded asset.
type CreateInput struct {
	Name        string
	StoragePath string
	URL         string
	Size        int64
	ContentType string
	CreatedBy   string
}

// Create records an asset and returns it with its new ID.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Asset, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := time.Now().UTC()
	a := models.Asset{
		ID:          primitive.NewObjectID().Hex(),
		Name:        name,
		NameCI:      text.Fold(name),
		StoragePath: input.StoragePath,
		URL:         input.URL,
		Size:        input.Size,
		ContentType: input.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   input.CreatedBy,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns the asset with id, or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, id string) (*models.Asset, error) {
	var a models.Asset
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListResult is one page of assets plus the total match count.
type ListResult struct {
	Assets []models.Asset `json:"assets"`
	Total  int64          `json:"total"`
	Page   int64          `json:"page"`
	Limit  int64          `json:"limit"`
}

// List returns assets sorted by name. search matches anywhere in the name,
// case-insensitively. page is 1-based.
func (s *Store) List(ctx context.Context, search string, page, limit int64) (ListResult, error) {
	filter := bson.M{}
	if q := text.Fold(strings.TrimSpace(search)); q != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	pg := storeutil.NewPage(page, limit, MaxListSize)
	opts := pg.FindOptions().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return ListResult{}, err
	}
	defer cur.Close(ctx)

	out := ListResult{Assets: []models.Asset{}, Total: total}
	if err := cur.All(ctx, &out.Assets); err != nil {
		return ListResult{}, err
	}
	out.Page, out.Limit = pg.Number, pg.Size
	return out, nil
}

// Rename changes the display name. It returns mongo.ErrNoDocuments when the
// asset does not exist.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the asset record. It returns mongo.ErrNoDocuments when
// nothing was removed.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
