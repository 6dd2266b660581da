package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File represents a stored file record.
type File struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	FolderID    *primitive.ObjectID `bson:"folder_id,omitempty"` // nil = root level
	Name        string              `bson:"name"`                // Original filename
	NameCI      string              `bson:"name_ci"`             // Case-insensitive for sorting/search
	StoragePath string              `bson:"storage_path"`        // Backing bytes; owned exclusively by this record
	Size        int64               `bson:"size"`                // File size in bytes
	ContentType string              `bson:"content_type"`        // MIME type
	OwnerID     primitive.ObjectID  `bson:"owner_id"`
	IsPublic    bool                `bson:"is_public"`
	SharedWith  []ShareGrant        `bson:"shared_with,omitempty"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

// IsInRoot returns true if the file is at the root level (not in any folder).
func (f *File) IsInRoot() bool {
	return f.FolderID == nil
}

func (f *File) ResourceID() primitive.ObjectID { return f.ID }
func (f *File) ResourceKind() Kind             { return KindFile }
func (f *File) Owner() primitive.ObjectID      { return f.OwnerID }
func (f *File) Public() bool                   { return f.IsPublic }
func (f *File) Grants() []ShareGrant           { return f.SharedWith }
