package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Kind tags the two resource variants.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Resource is the access-control view shared by File and Folder. Permission
// evaluation reads only this surface, so files and folders are gated
// identically.
type Resource interface {
	ResourceID() primitive.ObjectID
	ResourceKind() Kind
	Owner() primitive.ObjectID
	Public() bool
	Grants() []ShareGrant
}
