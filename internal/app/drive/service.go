// internal/app/drive/service.go

// Package drive implements the owned, shareable file/folder tree: ownership
// and sharing checks, visibility and grant mutations, uploads and clones,
// and cascading deletion with storage reclamation.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	"github.com/dalemusser/stratadrive/internal/app/store/file"
	"github.com/dalemusser/stratadrive/internal/app/store/folder"
	"github.com/dalemusser/stratadrive/internal/app/system/auditlog"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/reclaim"
	"github.com/dalemusser/stratadrive/internal/app/system/txn"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Deps holds the backends the service is built from.
type Deps struct {
	DB          *mongo.Database
	Blobs       blob.Store
	Logger      *zap.Logger
	AuditConfig auditlog.Config
}

// Service is the application-level API over the file/folder tree. All
// operations take the acting principal and enforce the access rules before
// touching storage.
type Service struct {
	db        *mongo.Database
	files     *file.Store
	folders   *folder.Store
	blobs     blob.Store
	reclaimer *reclaim.Reclaimer
	audit     *auditlog.Logger
	logger    *zap.Logger
}

// NewService assembles a Service from connected backends.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:        deps.DB,
		files:     file.New(deps.DB),
		folders:   folder.New(deps.DB),
		blobs:     deps.Blobs,
		reclaimer: reclaim.New(deps.Blobs, logger),
		audit:     auditlog.New(audit.New(deps.DB), logger, deps.AuditConfig),
		logger:    logger,
	}
}

/* ------------------------------ lookups ------------------------------ */

func (s *Service) getFile(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *Service) getFolder(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// require resolves the decision for a resource at the given level,
// mapping a denial to ErrForbidden.
func (s *Service) require(p models.Principal, r models.Resource, level authz.Level) error {
	d := authz.Evaluate(p, r, level)
	if !d.Allowed {
		s.logger.Debug("access denied",
			zap.String("principal", p.ID.Hex()),
			zap.String("resource", r.ResourceID().Hex()),
			zap.String("level", level.String()),
			zap.String("reason", d.Reason))
		return ErrForbidden
	}
	return nil
}

// Evaluate reports the access decision for a resource without acting on it.
// The snapshot is fetched fresh, so the decision reflects the current
// visibility and sharing state.
func (s *Service) Evaluate(ctx context.Context, p models.Principal, kind models.Kind, id primitive.ObjectID, level authz.Level) (authz.Decision, error) {
	var r models.Resource
	switch kind {
	case models.KindFile:
		f, err := s.getFile(ctx, id)
		if err != nil {
			return authz.Decision{}, err
		}
		r = f
	case models.KindFolder:
		f, err := s.getFolder(ctx, id)
		if err != nil {
			return authz.Decision{}, err
		}
		r = f
	default:
		return authz.Decision{}, fmt.Errorf("drive: unknown resource kind %q", kind)
	}
	return authz.Evaluate(p, r, level), nil
}

// GetFile returns a file record the principal can read.
func (s *Service) GetFile(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.File, error) {
	f, err := s.getFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelRead); err != nil {
		return nil, err
	}
	return f, nil
}

// GetFolder returns a folder record the principal can read.
func (s *Service) GetFolder(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Folder, error) {
	f, err := s.getFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelRead); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFile returns the file record and a reader over its backing bytes.
// The caller must close the reader.
func (s *Service) OpenFile(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.File, io.ReadCloser, error) {
	f, err := s.GetFile(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, rc, nil
}

/* ------------------------------ listings ------------------------------ */

// FolderListing holds the direct contents of one folder.
type FolderListing struct {
	Folders []models.Folder
	Files   []models.File
}

// ListFolder returns the direct contents of a folder the principal can
// read. Pass nil for folderID to list the principal's own root.
func (s *Service) ListFolder(ctx context.Context, p models.Principal, folderID *primitive.ObjectID) (*FolderListing, error) {
	if folderID == nil {
		folders, err := s.folders.ListRootByOwner(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		files, err := s.files.ListRootByOwner(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &FolderListing{Folders: folders, Files: files}, nil
	}

	parent, err := s.GetFolder(ctx, p, *folderID)
	if err != nil {
		return nil, err
	}

	folders, err := s.folders.ListByParent(ctx, &parent.ID, folder.ListOptions{})
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListByFolder(ctx, &parent.ID, file.ListOptions{})
	if err != nil {
		return nil, err
	}
	return &FolderListing{Folders: folders, Files: files}, nil
}

// ListOwnedFolders returns a page of folders the principal owns.
func (s *Service) ListOwnedFolders(ctx context.Context, p models.Principal, limit, page int64) ([]models.Folder, error) {
	return s.folders.ListByOwner(ctx, p.ID, limit, page)
}

// ListOwnedFiles returns a page of files the principal owns.
func (s *Service) ListOwnedFiles(ctx context.Context, p models.Principal, limit, page int64) ([]models.File, error) {
	return s.files.ListByOwner(ctx, p.ID, limit, page)
}

// SharedListing holds resources other owners have shared with a principal.
type SharedListing struct {
	Folders []models.Folder
	Files   []models.File
}

// ListSharedWithMe returns resources carrying a grant for the principal's
// email.
func (s *Service) ListSharedWithMe(ctx context.Context, p models.Principal) (*SharedListing, error) {
	email := normalizeEmail(p.Email)
	folders, err := s.folders.ListSharedWith(ctx, email)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListSharedWith(ctx, email)
	if err != nil {
		return nil, err
	}
	return &SharedListing{Folders: folders, Files: files}, nil
}

// SearchResults holds name-search matches the principal may read.
type SearchResults struct {
	Folders []models.Folder
	Files   []models.File
}

// Search finds folders and files whose name contains the query,
// case-insensitive. Matches the principal cannot read are dropped, so a
// search never reveals the existence of other owners' private resources.
func (s *Service) Search(ctx context.Context, p models.Principal, query string) (*SearchResults, error) {
	results := &SearchResults{}
	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}

	folders, err := s.folders.SearchByName(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range folders {
		if authz.CanRead(p, &folders[i]) {
			results.Folders = append(results.Folders, folders[i])
		}
	}

	files, err := s.files.SearchByName(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if authz.CanRead(p, &files[i]) {
			results.Files = append(results.Files, files[i])
		}
	}

	return results, nil
}

// Path returns the ancestor chain of a folder the principal can read,
// root-first, ending with the folder itself.
func (s *Service) Path(ctx context.Context, p models.Principal, folderID primitive.ObjectID) ([]models.Folder, error) {
	if _, err := s.GetFolder(ctx, p, folderID); err != nil {
		return nil, err
	}
	return s.folders.GetPath(ctx, folderID)
}

/* ------------------------------ creation ------------------------------ */

// CreateFolder creates a folder owned by the principal. When parentID is
// set, the principal must own the parent and the new folder is recorded in
// the parent's membership array in the same transaction.
func (s *Service) CreateFolder(ctx context.Context, p models.Principal, name string, parentID *primitive.ObjectID) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("drive: folder name is required")
	}

	if parentID != nil {
		parent, err := s.getFolder(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if err := s.require(p, parent, authz.LevelOwn); err != nil {
			return nil, err
		}
	}

	taken, err := s.folders.NameExistsInParent(ctx, p.ID, name, parentID, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	var created *models.Folder
	err = txn.Run(ctx, s.db, s.logger, func(tc context.Context) error {
		created, err = s.folders.Create(tc, folder.CreateInput{
			Name:     name,
			ParentID: parentID,
			OwnerID:  p.ID,
		})
		if err != nil {
			return err
		}
		if parentID != nil {
			// Owner-gated attach. ErrNoDocuments means the parent vanished
			// or changed hands since the check above.
			if _, err := s.folders.AddSubFolderID(tc, *parentID, p.ID, created.ID); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					return ErrNotFound
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.FolderCreated(ctx, p, created.ID, created.Name)
	return created, nil
}

// AddFileInput carries everything needed to add a file to the tree.
type AddFileInput struct {
	FolderID    *primitive.ObjectID // nil for root
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

// AddFile stores the content bytes and creates the file record, owned by
// the principal and private by default. When FolderID is set the principal
// must own the folder. A failure after the bytes are stored rolls the
// upload back.
func (s *Service) AddFile(ctx context.Context, p models.Principal, input AddFileInput) (*models.File, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("drive: file name is required")
	}

	if input.FolderID != nil {
		parent, err := s.getFolder(ctx, *input.FolderID)
		if err != nil {
			return nil, err
		}
		if err := s.require(p, parent, authz.LevelOwn); err != nil {
			return nil, err
		}
	}

	taken, err := s.files.NameExistsInFolder(ctx, p.ID, name, input.FolderID, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	storagePath := blob.NewKey(name)
	if err := s.blobs.Put(ctx, storagePath, input.Content, input.ContentType); err != nil {
		return nil, fmt.Errorf("storing file bytes: %w", err)
	}

	created, err := s.files.Create(ctx, file.CreateInput{
		FolderID:    input.FolderID,
		Name:        name,
		StoragePath: storagePath,
		Size:        input.Size,
		ContentType: input.ContentType,
		OwnerID:     p.ID,
	})
	if err != nil {
		s.rollbackBytes(ctx, storagePath)
		return nil, err
	}

	if input.FolderID != nil {
		if _, err := s.folders.AddFileID(ctx, *input.FolderID, p.ID, created.ID); err != nil {
			s.rollbackRecord(ctx, created.ID, storagePath)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	s.audit.FileUploaded(ctx, p, created.ID, created.Name, created.Size)
	return created, nil
}

func (s *Service) rollbackBytes(ctx context.Context, storagePath string) {
	if err := s.blobs.Delete(ctx, storagePath); err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.logger.Warn("upload rollback left orphaned bytes",
			zap.String("path", storagePath),
			zap.Error(err))
	}
}

func (s *Service) rollbackRecord(ctx context.Context, id primitive.ObjectID, storagePath string) {
	if err := s.files.Delete(ctx, id); err != nil {
		s.logger.Warn("upload rollback left orphaned record",
			zap.String("file_id", id.Hex()),
			zap.Error(err))
	}
	s.rollbackBytes(ctx, storagePath)
}

// ReplaceFileContent rewrites a file's backing bytes in place. This is the
// one mutation an editor grant reaches: content changes, governance does
// not. The storage key is immutable, so the bytes are overwritten at the
// existing path and only size and content type move on the record.
func (s *Service) ReplaceFileContent(ctx context.Context, p models.Principal, id primitive.ObjectID, content io.Reader, size int64, contentType string) (*models.File, error) {
	f, err := s.getFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelEdit); err != nil {
		return nil, err
	}

	if err := s.blobs.Put(ctx, f.StoragePath, content, contentType); err != nil {
		return nil, fmt.Errorf("replacing file bytes: %w", err)
	}

	updated, err := s.files.UpdateContent(ctx, id, size, contentType)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.audit.FileReplaced(ctx, p, id, updated.Name, size)
	return updated, nil
}

// CloneFile duplicates a readable file into the principal's own tree. The
// clone gets its own storage key and starts private with no grants,
// regardless of how the source was shared.
func (s *Service) CloneFile(ctx context.Context, p models.Principal, sourceID primitive.ObjectID, targetFolderID *primitive.ObjectID) (*models.File, error) {
	source, err := s.GetFile(ctx, p, sourceID)
	if err != nil {
		return nil, err
	}

	if targetFolderID != nil {
		target, err := s.getFolder(ctx, *targetFolderID)
		if err != nil {
			return nil, err
		}
		if err := s.require(p, target, authz.LevelOwn); err != nil {
			return nil, err
		}
	}

	cloneName := "copy_of_" + source.Name
	taken, err := s.files.NameExistsInFolder(ctx, p.ID, cloneName, targetFolderID, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	rc, err := s.blobs.Get(ctx, source.StoragePath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer rc.Close()

	storagePath := blob.NewKey(source.Name)
	if err := s.blobs.Put(ctx, storagePath, rc, source.ContentType); err != nil {
		return nil, fmt.Errorf("copying file bytes: %w", err)
	}

	clone, err := s.files.Create(ctx, file.CreateInput{
		FolderID:    targetFolderID,
		Name:        cloneName,
		StoragePath: storagePath,
		Size:        source.Size,
		ContentType: source.ContentType,
		OwnerID:     p.ID,
	})
	if err != nil {
		s.rollbackBytes(ctx, storagePath)
		return nil, err
	}

	if targetFolderID != nil {
		if _, err := s.folders.AddFileID(ctx, *targetFolderID, p.ID, clone.ID); err != nil {
			s.rollbackRecord(ctx, clone.ID, storagePath)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	s.audit.FileCloned(ctx, p, source.ID, clone.ID)
	return clone, nil
}

/* ------------------------------ renames ------------------------------ */

// RenameFile changes a file's display name. The storage key never changes,
// so no bytes move. Owner only: renaming is governance, not content editing.
func (s *Service) RenameFile(ctx context.Context, p models.Principal, id primitive.ObjectID, newName string) (*models.File, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("drive: file name is required")
	}

	f, err := s.getFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return nil, err
	}

	taken, err := s.files.NameExistsInFolder(ctx, f.OwnerID, newName, f.FolderID, &f.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	oldName := f.Name
	if err := s.files.Rename(ctx, id, newName); err != nil {
		return nil, err
	}

	s.audit.Renamed(ctx, p, models.KindFile, id, oldName, newName)
	return s.getFile(ctx, id)
}

// RenameFolder changes a folder's display name. Owner only.
func (s *Service) RenameFolder(ctx context.Context, p models.Principal, id primitive.ObjectID, newName string) (*models.Folder, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("drive: folder name is required")
	}

	f, err := s.getFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return nil, err
	}

	taken, err := s.folders.NameExistsInParent(ctx, f.OwnerID, newName, f.ParentID, &f.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	oldName := f.Name
	if err := s.folders.Rename(ctx, id, newName); err != nil {
		return nil, err
	}

	s.audit.Renamed(ctx, p, models.KindFolder, id, oldName, newName)
	return s.getFolder(ctx, id)
}

/* ------------------------- sharing governance ------------------------- */

// SetFileVisibility flips the public flag on a file. Owner only: editors
// and public readers can never reach the governance surface.
func (s *Service) SetFileVisibility(ctx context.Context, p models.Principal, id primitive.ObjectID, isPublic bool) (*models.File, error) {
	f, err := s.getFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return nil, err
	}

	updated, err := s.files.SetVisibility(ctx, id, isPublic)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.audit.VisibilityChanged(ctx, p, models.KindFile, id, isPublic)
	return updated, nil
}

// SetFolderVisibility flips the public flag on a folder. Owner only.
// Visibility never propagates to contained resources.
func (s *Service) SetFolderVisibility(ctx context.Context, p models.Principal, id primitive.ObjectID, isPublic bool) (*models.Folder, error) {
	f, err := s.getFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return nil, err
	}

	updated, err := s.folders.SetVisibility(ctx, id, isPublic)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.audit.VisibilityChanged(ctx, p, models.KindFolder, id, isPublic)
	return updated, nil
}

// SetFileSharing replaces the full grant set on a file. Owner only, and
// always a full replace: callers send the complete desired set.
func (s *Service) SetFileSharing(ctx context.Context, p models.Principal, id primitive.ObjectID, grants []models.ShareGrant) (*models.File, error) {
	f, err := s.getFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return nil, err
	}

	normalized, err := normalizeGrants(grants)
	if err != nil {
		return nil, err
	}

	updated, err := s.files.SetSharing(ctx, id, normalized)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.audit.SharingUpdated(ctx, p, models.KindFile, id, len(normalized))
	return updated, nil
}

// SetFolderSharing replaces the full grant set on a folder. Owner only.
func (s *Service) SetFolderSharing(ctx context.Context, p models.Principal, id primitive.ObjectID, grants []models.ShareGrant) (*models.Folder, error) {
	f, err := s.getFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return nil, err
	}

	normalized, err := normalizeGrants(grants)
	if err != nil {
		return nil, err
	}

	updated, err := s.folders.SetSharing(ctx, id, normalized)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.audit.SharingUpdated(ctx, p, models.KindFolder, id, len(normalized))
	return updated, nil
}

/* ------------------------------ grants ------------------------------ */

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeGrants folds emails, validates roles, and collapses duplicate
// emails with the last entry winning.
func normalizeGrants(grants []models.ShareGrant) ([]models.ShareGrant, error) {
	byEmail := make(map[string]int, len(grants))
	out := make([]models.ShareGrant, 0, len(grants))

	for _, g := range grants {
		email := normalizeEmail(g.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: empty email", ErrInvalidGrant)
		}
		if !g.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidGrant, g.Role)
		}
		if i, ok := byEmail[email]; ok {
			out[i].Role = g.Role
			continue
		}
		byEmail[email] = len(out)
		out = append(out, models.ShareGrant{Email: email, Role: g.Role})
	}

	return out, nil
}
