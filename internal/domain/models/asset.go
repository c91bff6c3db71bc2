package models

import (
	"time"
)

// Asset is an uploaded media file referenced by content entities,
// for example a team member portrait or a portfolio logo.
type Asset struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`       // display name, initially the upload filename
	NameCI      string    `bson:"name_ci" json:"-"`       // folded for search and sorting
	StoragePath string    `bson:"storage_path" json:"-"`  // key in the storage backend
	URL         string    `bson:"url" json:"url"`         // public URL written into content fields
	Size        int64     `bson:"size" json:"size"`
	ContentType string    `bson:"content_type" json:"content_type"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy   string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// IsImage reports whether the asset can be used in an image field.
func (a *Asset) IsImage() bool {
	switch a.ContentType {
	case "image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml":
		return true
	}
	return false
}
