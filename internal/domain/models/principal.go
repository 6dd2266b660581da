package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Principal is the authenticated identity performing an operation.
// It is supplied by the authentication layer and never persisted here:
// ownership is matched on ID, sharing grants are matched on Email.
type Principal struct {
	ID    primitive.ObjectID
	Email string
}
