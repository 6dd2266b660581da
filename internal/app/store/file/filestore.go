// Package file provides storage for file records.
package file

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/stratadrive/internal/app/store/storeutil"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("files"),
	}
}

// CreateInput contains the input for creating a file record.
type CreateInput struct {
	FolderID    *primitive.ObjectID
	Name        string
	StoragePath string
	Size        int64
	ContentType string
	OwnerID     primitive.ObjectID
	IsPublic    bool
	SharedWith  []models.ShareGrant
}

// Create creates a new file record.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	now := time.Now()
	file := models.File{
		ID:          primitive.NewObjectID(),
		FolderID:    input.FolderID,
		Name:        input.Name,
		NameCI:      text.Fold(input.Name),
		StoragePath: input.StoragePath,
		Size:        input.Size,
		ContentType: input.ContentType,
		OwnerID:     input.OwnerID,
		IsPublic:    input.IsPublic,
		SharedWith:  input.SharedWith,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, file); err != nil {
		return nil, err
	}

	return &file, nil
}

// GetByID retrieves a file by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Rename updates a file's display name. The storage path is immutable.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now(),
	}})
	return err
}

// UpdateContent records new content metadata after the backing bytes were
// rewritten in place. The storage path is immutable.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, size int64, contentType string) (*models.File, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"size":         size,
		"content_type": contentType,
		"updated_at":   time.Now(),
	}})
}

// SetVisibility atomically replaces the public flag and returns the
// updated record.
func (s *Store) SetVisibility(ctx context.Context, id primitive.ObjectID, isPublic bool) (*models.File, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"is_public":  isPublic,
		"updated_at": time.Now(),
	}})
}

// SetSharing atomically replaces the full grant set (no merge) and returns
// the updated record.
func (s *Store) SetSharing(ctx context.Context, id primitive.ObjectID, grants []models.ShareGrant) (*models.File, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"shared_with": grants,
		"updated_at":  time.Now(),
	}})
}

func (s *Store) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.File, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var file models.File
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Delete deletes a file record. Deleting an absent ID is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListOptions contains options for listing files.
type ListOptions struct {
	SortBy      string // "name", "created_at", "size", "content_type"
	SortOrder   int    // 1 = asc, -1 = desc
	ContentType string // Filter by MIME type prefix (e.g., "image/")
	Search      string // Filter by filename
}

// ListByFolder returns all files within a folder.
// Pass nil for folderID to list root-level files.
func (s *Store) ListByFolder(ctx context.Context, folderID *primitive.ObjectID, opts ListOptions) ([]models.File, error) {
	filter := bson.M{"folder_id": folderID}

	if opts.ContentType != "" {
		filter["content_type"] = bson.M{"$regex": "^" + opts.ContentType}
	}
	if opts.Search != "" {
		filter["name_ci"] = bson.M{"$regex": text.Fold(opts.Search)}
	}

	return s.find(ctx, filter, options.Find().SetSort(sortSpec(opts)))
}

// ListByOwner returns a page of the owner's files across all folders.
// Pass limit <= 0 for the default page size.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, limit, page int64) ([]models.File, error) {
	findOpts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"owner_id": ownerID}, findOpts)
}

// ListRootByOwner returns the owner's files that live outside any folder.
func (s *Store) ListRootByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.File, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"owner_id": ownerID, "folder_id": nil}, findOpts)
}

// SearchByName returns files whose name contains the query,
// case-insensitive. The scan crosses owner boundaries; callers gate each
// result before showing it.
func (s *Store) SearchByName(ctx context.Context, query string) ([]models.File, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"name_ci": bson.M{"$regex": text.Fold(query)}}, findOpts)
}

// ListSharedWith returns files carrying a sharing grant for the email.
func (s *Store) ListSharedWith(ctx context.Context, email string) ([]models.File, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	return s.find(ctx, bson.M{"shared_with.email": email}, findOpts)
}

// GetByFolderID returns all files directly contained in a folder.
func (s *Store) GetByFolderID(ctx context.Context, folderID primitive.ObjectID) ([]models.File, error) {
	return s.find(ctx, bson.M{"folder_id": folderID}, nil)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.File, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = s.c.Find(ctx, filter, opts)
	} else {
		cursor, err = s.c.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func sortSpec(opts ListOptions) bson.D {
	sortField := "name_ci"
	switch opts.SortBy {
	case "created_at", "date":
		sortField = "created_at"
	case "size":
		sortField = "size"
	case "content_type", "type":
		sortField = "content_type"
	}

	sortOrder := 1
	if opts.SortOrder != 0 {
		sortOrder = opts.SortOrder
	}

	return bson.D{{Key: sortField, Value: sortOrder}}
}

// CountByFolderID returns the number of files directly in a folder.
func (s *Store) CountByFolderID(ctx context.Context, folderID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"folder_id": folderID})
}

// NameExistsInFolder checks if the owner already has a file with the given
// name in the folder. Pass excludeID to exclude a specific file (useful
// for renames).
func (s *Store) NameExistsInFolder(ctx context.Context, ownerID primitive.ObjectID, name string, folderID *primitive.ObjectID, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"owner_id":  ownerID,
		"folder_id": folderID,
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

// FileTypeCategory returns a category string for a content type.
func FileTypeCategory(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case contentType == "application/pdf":
		return "pdf"
	case strings.Contains(contentType, "spreadsheet") || strings.Contains(contentType, "excel"):
		return "spreadsheet"
	case strings.Contains(contentType, "document") || strings.Contains(contentType, "word"):
		return "document"
	case strings.Contains(contentType, "presentation") || strings.Contains(contentType, "powerpoint"):
		return "presentation"
	case strings.Contains(contentType, "zip") || strings.Contains(contentType, "compressed") || strings.Contains(contentType, "archive"):
		return "archive"
	default:
		return "file"
	}
}
