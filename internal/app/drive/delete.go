// internal/app/drive/delete.go
package drive

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadrive/internal/app/store/folder"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DeleteFile removes a file's backing bytes and then its record. Owner
// only. If reclaiming the bytes fails the record is kept, so a retry can
// finish the job; bytes already absent count as reclaimed.
func (s *Service) DeleteFile(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	f, err := s.getFile(ctx, id)
	if err != nil {
		return err
	}
	if err := s.require(p, f, authz.LevelOwn); err != nil {
		return err
	}

	if _, err := s.reclaimer.Reclaim(ctx, f.StoragePath); err != nil {
		return fmt.Errorf("deleting file %s: %w", id.Hex(), err)
	}

	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}

	if f.FolderID != nil {
		if err := s.folders.RemoveFileID(ctx, *f.FolderID, id); err != nil {
			s.logger.Warn("failed to prune file from folder membership",
				zap.String("file_id", id.Hex()),
				zap.String("folder_id", f.FolderID.Hex()),
				zap.Error(err))
		}
	}

	s.audit.FileDeleted(ctx, p, id, f.Name)
	return nil
}

// DeleteFolder removes a folder and everything beneath it, children before
// parents. Ownership is re-checked at every node, not just the root, so a
// resource that changed hands mid-walk is kept and reported. The walk is
// best-effort: a failed node never aborts the rest, and a visited set makes
// a corrupt parent chain terminate. Failed nodes keep their records, so
// re-issuing the deletion retries exactly the remainder; once the root
// record is gone a re-issued call returns ErrNotFound.
func (s *Service) DeleteFolder(ctx context.Context, p models.Principal, id primitive.ObjectID) (*DeletionReport, error) {
	root, err := s.getFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(p, root, authz.LevelOwn); err != nil {
		return nil, err
	}

	report := &DeletionReport{}
	visited := make(map[primitive.ObjectID]bool)
	s.deleteTree(ctx, p, root, visited, report)

	if root.ParentID != nil {
		if err := s.folders.RemoveSubFolderID(ctx, *root.ParentID, root.ID); err != nil {
			s.logger.Warn("failed to prune folder from parent membership",
				zap.String("folder_id", root.ID.Hex()),
				zap.String("parent_id", root.ParentID.Hex()),
				zap.Error(err))
		}
	}

	s.audit.FolderDeleted(ctx, p, id, report.FilesRemoved, report.FoldersRemoved, report.Complete())

	if !report.Complete() {
		return report, &PartialDeleteError{Report: *report}
	}
	return report, nil
}

// deleteTree removes one folder's subtree post-order: subfolders first,
// then the folder's files, then the folder record itself. The folder
// record is removed even when some files failed; the surviving file
// records are reachable through DeleteFile retries.
func (s *Service) deleteTree(ctx context.Context, p models.Principal, fdr *models.Folder, visited map[primitive.ObjectID]bool, report *DeletionReport) {
	if visited[fdr.ID] {
		return
	}
	visited[fdr.ID] = true

	children, err := s.folders.ListByParent(ctx, &fdr.ID, folder.ListOptions{})
	if err != nil {
		report.Failures = append(report.Failures, NodeFailure{
			ID: fdr.ID, Kind: models.KindFolder, Name: fdr.Name,
			Reason: "listing subfolders failed", Err: err,
		})
		return
	}

	for i := range children {
		child := &children[i]
		if d := authz.Evaluate(p, child, authz.LevelOwn); !d.Allowed {
			report.Failures = append(report.Failures, NodeFailure{
				ID: child.ID, Kind: models.KindFolder, Name: child.Name,
				Reason: "not owned by caller",
			})
			continue
		}
		s.deleteTree(ctx, p, child, visited, report)
	}

	files, err := s.files.GetByFolderID(ctx, fdr.ID)
	if err != nil {
		report.Failures = append(report.Failures, NodeFailure{
			ID: fdr.ID, Kind: models.KindFolder, Name: fdr.Name,
			Reason: "listing files failed", Err: err,
		})
		return
	}

	for i := range files {
		fl := &files[i]
		if d := authz.Evaluate(p, fl, authz.LevelOwn); !d.Allowed {
			report.Failures = append(report.Failures, NodeFailure{
				ID: fl.ID, Kind: models.KindFile, Name: fl.Name,
				Reason: "not owned by caller",
			})
			continue
		}

		if _, err := s.reclaimer.Reclaim(ctx, fl.StoragePath); err != nil {
			// Bytes still exist; keep the record so a retry finds it.
			report.Failures = append(report.Failures, NodeFailure{
				ID: fl.ID, Kind: models.KindFile, Name: fl.Name,
				Reason: "reclaiming bytes failed", Err: err,
			})
			continue
		}

		if err := s.files.Delete(ctx, fl.ID); err != nil {
			report.Failures = append(report.Failures, NodeFailure{
				ID: fl.ID, Kind: models.KindFile, Name: fl.Name,
				Reason: "removing record failed", Err: err,
			})
			continue
		}
		report.FilesRemoved++
	}

	if err := s.folders.Delete(ctx, fdr.ID); err != nil {
		report.Failures = append(report.Failures, NodeFailure{
			ID: fdr.ID, Kind: models.KindFolder, Name: fdr.Name,
			Reason: "removing record failed", Err: err,
		})
		return
	}
	report.FoldersRemoved++
}
