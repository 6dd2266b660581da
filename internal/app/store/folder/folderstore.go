// Package folder provides storage for folder records.
package folder

import (
	"context"
	"time"

	"github.com/dalemusser/stratadrive/internal/app/store/storeutil"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("folders"),
	}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name     string
	ParentID *primitive.ObjectID
	OwnerID  primitive.ObjectID
	IsPublic bool
}

// Create creates a new folder record.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	now := time.Now()
	folder := models.Folder{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		NameCI:    text.Fold(input.Name),
		ParentID:  input.ParentID,
		OwnerID:   input.OwnerID,
		IsPublic:  input.IsPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, folder); err != nil {
		return nil, err
	}

	return &folder, nil
}

// GetByID retrieves a folder by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// Rename updates a folder's display name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now(),
	}})
	return err
}

// SetVisibility atomically replaces the public flag and returns the
// updated record. Visibility never propagates to contained resources.
func (s *Store) SetVisibility(ctx context.Context, id primitive.ObjectID, isPublic bool) (*models.Folder, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_public":  isPublic,
		"updated_at": time.Now(),
	}})
}

// SetSharing atomically replaces the full grant set (no merge) and returns
// the updated record.
func (s *Store) SetSharing(ctx context.Context, id primitive.ObjectID, grants []models.ShareGrant) (*models.Folder, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"shared_with": grants,
		"updated_at":  time.Now(),
	}})
}

// AddFileID records a file in the folder's membership array. The filter
// matches owner_id as well, so the attach is refused in the same document
// operation when the caller does not own the folder; mongo.ErrNoDocuments
// then means "absent or not owned".
func (s *Store) AddFileID(ctx context.Context, id, ownerID, fileID primitive.ObjectID) (*models.Folder, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{
			"$addToSet": bson.M{"file_ids": fileID},
			"$set":      bson.M{"updated_at": time.Now()},
		})
}

// RemoveFileID prunes a file from the folder's membership array.
func (s *Store) RemoveFileID(ctx context.Context, id, fileID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"file_ids": fileID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// AddSubFolderID records a child folder in the membership array, refusing
// in the same operation when the caller does not own the parent.
func (s *Store) AddSubFolderID(ctx context.Context, id, ownerID, subFolderID primitive.ObjectID) (*models.Folder, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{
			"$addToSet": bson.M{"subfolder_ids": subFolderID},
			"$set":      bson.M{"updated_at": time.Now()},
		})
}

// RemoveSubFolderID prunes a child folder from the membership array.
func (s *Store) RemoveSubFolderID(ctx context.Context, id, subFolderID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"subfolder_ids": subFolderID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Folder, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var folder models.Folder
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// Delete deletes a folder record. Deleting an absent ID is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListOptions contains options for listing folders.
type ListOptions struct {
	SortBy    string // "name", "created_at", "updated_at"
	SortOrder int    // 1 = asc, -1 = desc
}

// ListByParent returns all folders within a parent folder.
// Pass nil for parentID to list root folders.
func (s *Store) ListByParent(ctx context.Context, parentID *primitive.ObjectID, opts ListOptions) ([]models.Folder, error) {
	sortField := "name_ci"
	switch opts.SortBy {
	case "created_at", "date":
		sortField = "created_at"
	case "updated_at":
		sortField = "updated_at"
	}

	sortOrder := 1
	if opts.SortOrder != 0 {
		sortOrder = opts.SortOrder
	}

	findOpts := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder}})
	return s.find(ctx, bson.M{"parent_id": parentID}, findOpts)
}

// ListByOwner returns a page of the owner's folders.
// Pass limit <= 0 for the default page size.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, limit, page int64) ([]models.Folder, error) {
	findOpts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"owner_id": ownerID}, findOpts)
}

// ListRootByOwner returns the owner's top-level folders.
func (s *Store) ListRootByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Folder, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"owner_id": ownerID, "parent_id": nil}, findOpts)
}

// SearchByName returns folders whose name contains the query,
// case-insensitive. The scan crosses owner boundaries; callers gate each
// result before showing it.
func (s *Store) SearchByName(ctx context.Context, query string) ([]models.Folder, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"name_ci": bson.M{"$regex": text.Fold(query)}}, findOpts)
}

// ListSharedWith returns folders carrying a sharing grant for the email.
func (s *Store) ListSharedWith(ctx context.Context, email string) ([]models.Folder, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"shared_with.email": email}, findOpts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Folder, error) {
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CountByParent returns the number of folders within a parent folder.
func (s *Store) CountByParent(ctx context.Context, parentID *primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"parent_id": parentID})
}

// GetAncestors returns all ancestors of a folder, ordered from root to
// immediate parent. The walk keeps a visited set so a corrupt parent chain
// cannot loop forever.
func (s *Store) GetAncestors(ctx context.Context, id primitive.ObjectID) ([]models.Folder, error) {
	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var ancestors []models.Folder
	seen := map[primitive.ObjectID]bool{id: true}

	currentParentID := folder.ParentID
	for currentParentID != nil {
		if seen[*currentParentID] {
			break
		}
		seen[*currentParentID] = true

		parent, err := s.GetByID(ctx, *currentParentID)
		if err != nil {
			return nil, err
		}
		// Prepend to get root-first order
		ancestors = append([]models.Folder{*parent}, ancestors...)
		currentParentID = parent.ParentID
	}

	return ancestors, nil
}

// GetPath returns the full path of a folder (ancestors + the folder itself).
func (s *Store) GetPath(ctx context.Context, id primitive.ObjectID) ([]models.Folder, error) {
	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestors, err := s.GetAncestors(ctx, id)
	if err != nil {
		return nil, err
	}

	return append(ancestors, *folder), nil
}

// NameExistsInParent checks if the owner already has a folder with the
// given name in the parent. Pass excludeID to exclude a specific folder
// (useful for renames).
func (s *Store) NameExistsInParent(ctx context.Context, ownerID primitive.ObjectID, name string, parentID *primitive.ObjectID, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"owner_id":  ownerID,
		"parent_id": parentID,
		"name_ci":   text.Fold(name),
	}

	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
