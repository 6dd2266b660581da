package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder represents a folder in the resource tree.
//
// FileIDs and SubFolderIDs mirror the children's back-references
// (File.FolderID, Folder.ParentID). The back-reference is authoritative:
// listing and the deletion walk query on it; the arrays exist for display
// and are maintained alongside child inserts and removals.
type Folder struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	NameCI       string               `bson:"name_ci"`             // Case-insensitive for sorting/search
	ParentID     *primitive.ObjectID  `bson:"parent_id,omitempty"` // nil = root folder
	OwnerID      primitive.ObjectID   `bson:"owner_id"`
	IsPublic     bool                 `bson:"is_public"`
	SharedWith   []ShareGrant         `bson:"shared_with,omitempty"`
	FileIDs      []primitive.ObjectID `bson:"file_ids,omitempty"`
	SubFolderIDs []primitive.ObjectID `bson:"subfolder_ids,omitempty"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

// IsRoot returns true if the folder is at the root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

func (f *Folder) ResourceID() primitive.ObjectID { return f.ID }
func (f *Folder) ResourceKind() Kind             { return KindFolder }
func (f *Folder) Owner() primitive.ObjectID      { return f.OwnerID }
func (f *Folder) Public() bool                   { return f.IsPublic }
func (f *Folder) Grants() []ShareGrant           { return f.SharedWith }
