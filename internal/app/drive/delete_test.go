package drive

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/stratadrive/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDeleteFile(t *testing.T) {
	svc, blobs := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	created := addFile(t, svc, owner, nil, "gone.txt", "bytes")

	if err := svc.DeleteFile(ctx, owner, created.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if blobs.Has(created.StoragePath) {
		t.Error("backing bytes should be gone")
	}
	if _, err := svc.GetFile(ctx, owner, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFile() after delete error = %v, want %v", err, ErrNotFound)
	}

	// Deleting again: the record is gone, so it's not found.
	if err := svc.DeleteFile(ctx, owner, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteFile() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteFile_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	editor := newPrincipal("editor@example.com")

	created := addFile(t, svc, owner, nil, "keep.txt", "bytes")
	svc.SetFileSharing(ctx, owner, created.ID, []models.ShareGrant{
		{Email: editor.Email, Role: models.ShareRoleEditor},
	})

	if err := svc.DeleteFile(ctx, editor, created.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteFile(editor) error = %v, want %v", err, ErrForbidden)
	}
}

func TestDeleteFile_ReclaimFailureKeepsRecord(t *testing.T) {
	svc, blobs := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	created := addFile(t, svc, owner, nil, "stuck.txt", "bytes")

	deviceErr := errors.New("device error")
	blobs.FailDelete(created.StoragePath, deviceErr)

	err := svc.DeleteFile(ctx, owner, created.ID)
	if !errors.Is(err, deviceErr) {
		t.Fatalf("DeleteFile() error = %v, want wrapped device error", err)
	}

	// The record survives, so a retry can finish the job.
	if _, err := svc.GetFile(ctx, owner, created.ID); err != nil {
		t.Fatalf("record should survive a failed reclaim, got %v", err)
	}

	blobs.ClearDeleteFailure(created.StoragePath)
	if err := svc.DeleteFile(ctx, owner, created.ID); err != nil {
		t.Fatalf("retry DeleteFile() error = %v", err)
	}
}

func TestDeleteFile_AbsentBytesStillSucceeds(t *testing.T) {
	svc, blobs := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	created := addFile(t, svc, owner, nil, "halfdone.txt", "bytes")

	// Simulate a crash between reclaim and record removal in an earlier
	// attempt: the bytes are gone but the record remains.
	blobs.Delete(ctx, created.StoragePath)

	if err := svc.DeleteFile(ctx, owner, created.ID); err != nil {
		t.Fatalf("DeleteFile() with absent bytes error = %v", err)
	}
	if _, err := svc.GetFile(ctx, owner, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("record should be gone, got %v", err)
	}
}

func TestDeleteFolder_Cascade(t *testing.T) {
	svc, blobs := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")

	// F0 { A.txt, F1 { B.txt, F2 { C.txt } } }
	f0, _ := svc.CreateFolder(ctx, owner, "F0", nil)
	f1, _ := svc.CreateFolder(ctx, owner, "F1", &f0.ID)
	f2, _ := svc.CreateFolder(ctx, owner, "F2", &f1.ID)
	a := addFile(t, svc, owner, &f0.ID, "A.txt", "aaa")
	b := addFile(t, svc, owner, &f1.ID, "B.txt", "bbb")
	c := addFile(t, svc, owner, &f2.ID, "C.txt", "ccc")

	report, err := svc.DeleteFolder(ctx, owner, f0.ID)
	if err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}
	if report.FilesRemoved != 3 {
		t.Errorf("FilesRemoved = %d, want 3", report.FilesRemoved)
	}
	if report.FoldersRemoved != 3 {
		t.Errorf("FoldersRemoved = %d, want 3", report.FoldersRemoved)
	}
	if !report.Complete() {
		t.Errorf("report should be complete, failures = %v", report.Failures)
	}

	if blobs.Len() != 0 {
		t.Errorf("all backing bytes should be gone, %d remain", blobs.Len())
	}
	if got := blobs.DeleteCalls(); got != 3 {
		t.Errorf("DeleteCalls = %d, want one per file", got)
	}
	for _, id := range []primitive.ObjectID{a.ID, b.ID, c.ID} {
		if _, err := svc.GetFile(ctx, owner, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("file %v should be gone, got %v", id.Hex(), err)
		}
	}
	for _, id := range []primitive.ObjectID{f0.ID, f1.ID, f2.ID} {
		if _, err := svc.GetFolder(ctx, owner, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("folder %v should be gone, got %v", id.Hex(), err)
		}
	}
}

func TestDeleteFolder_PrunesParentMembership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	parent, _ := svc.CreateFolder(ctx, owner, "Parent", nil)
	child, _ := svc.CreateFolder(ctx, owner, "Child", &parent.ID)

	if _, err := svc.DeleteFolder(ctx, owner, child.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	got, err := svc.GetFolder(ctx, owner, parent.ID)
	if err != nil {
		t.Fatalf("GetFolder() error = %v", err)
	}
	if len(got.SubFolderIDs) != 0 {
		t.Errorf("SubFolderIDs = %v, want empty after child deletion", got.SubFolderIDs)
	}
}

func TestDeleteFolder_PartialFailure(t *testing.T) {
	svc, blobs := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	folder, _ := svc.CreateFolder(ctx, owner, "Mixed", nil)

	var files []*models.File
	for i := 0; i < 5; i++ {
		files = append(files, addFile(t, svc, owner, &folder.ID, fmt.Sprintf("f%d.txt", i), "data"))
	}

	stuck := files[2]
	deviceErr := errors.New("device error")
	blobs.FailDelete(stuck.StoragePath, deviceErr)

	report, err := svc.DeleteFolder(ctx, owner, folder.ID)

	var partial *PartialDeleteError
	if !errors.As(err, &partial) {
		t.Fatalf("DeleteFolder() error = %v, want PartialDeleteError", err)
	}
	if report.FilesRemoved != 4 {
		t.Errorf("FilesRemoved = %d, want 4", report.FilesRemoved)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %v, want exactly one", report.Failures)
	}
	failure := report.Failures[0]
	if failure.ID != stuck.ID || failure.Kind != models.KindFile {
		t.Errorf("failure = %+v, want the stuck file", failure)
	}
	if !errors.Is(failure.Err, deviceErr) {
		t.Errorf("failure.Err = %v, want wrapped device error", failure.Err)
	}

	// The stuck file's record survives for a later retry; siblings and
	// the folder record are gone.
	if _, err := svc.GetFile(ctx, owner, stuck.ID); err != nil {
		t.Errorf("stuck file record should survive, got %v", err)
	}
	for i, f := range files {
		if i == 2 {
			continue
		}
		if _, err := svc.GetFile(ctx, owner, f.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("sibling %d should be gone, got %v", i, err)
		}
	}
	if _, err := svc.GetFolder(ctx, owner, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("folder record should be gone, got %v", err)
	}

	// Re-issuing the folder deletion hits the missing root.
	if _, err := svc.DeleteFolder(ctx, owner, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("re-issued DeleteFolder() error = %v, want %v", err, ErrNotFound)
	}

	// Fixing the backend lets a direct file deletion finish the job.
	blobs.ClearDeleteFailure(stuck.StoragePath)
	if err := svc.DeleteFile(ctx, owner, stuck.ID); err != nil {
		t.Errorf("retry DeleteFile(stuck) error = %v", err)
	}
	if blobs.Len() != 0 {
		t.Errorf("all bytes should be gone after retry, %d remain", blobs.Len())
	}
}

func TestDeleteFolder_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	editor := newPrincipal("editor@example.com")

	folder, _ := svc.CreateFolder(ctx, owner, "Guarded", nil)
	svc.SetFolderSharing(ctx, owner, folder.ID, []models.ShareGrant{
		{Email: editor.Email, Role: models.ShareRoleEditor},
	})

	if _, err := svc.DeleteFolder(ctx, editor, folder.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteFolder(editor) error = %v, want %v", err, ErrForbidden)
	}

	// Public visibility doesn't open deletion either.
	svc.SetFolderVisibility(ctx, owner, folder.ID, true)
	stranger := newPrincipal("stranger@example.com")
	if _, err := svc.DeleteFolder(ctx, stranger, folder.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteFolder(public reader) error = %v, want %v", err, ErrForbidden)
	}
}

func TestDeleteFolder_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	folder, _ := svc.CreateFolder(ctx, owner, "Once", nil)

	if _, err := svc.DeleteFolder(ctx, owner, folder.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}
	if _, err := svc.DeleteFolder(ctx, owner, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteFolder() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteFolder_CycleGuard(t *testing.T) {
	svc, _ := newTestService(t)
	db := svc.db
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	a, _ := svc.CreateFolder(ctx, owner, "A", nil)
	b, _ := svc.CreateFolder(ctx, owner, "B", &a.ID)

	// Corrupt the parent chain so A and B point at each other.
	if _, err := db.Collection("folders").UpdateOne(ctx,
		bson.M{"_id": a.ID},
		bson.M{"$set": bson.M{"parent_id": b.ID}}); err != nil {
		t.Fatalf("corrupting parent chain: %v", err)
	}

	// The walk must terminate and remove both nodes exactly once.
	report, err := svc.DeleteFolder(ctx, owner, b.ID)
	if err != nil {
		t.Fatalf("DeleteFolder() with cycle error = %v", err)
	}
	if report.FoldersRemoved != 2 {
		t.Errorf("FoldersRemoved = %d, want 2", report.FoldersRemoved)
	}
}

func TestDeleteFolder_SkipsUnownedNodes(t *testing.T) {
	svc, blobs := newTestService(t)
	db := svc.db
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := newPrincipal("owner@example.com")
	other := newPrincipal("other@example.com")

	folder, _ := svc.CreateFolder(ctx, owner, "Mostly", nil)
	mine := addFile(t, svc, owner, &folder.ID, "mine.txt", "x")

	// Plant a file that changed hands after it was attached. The walk's
	// per-node ownership re-check has to catch it.
	theirs := addFile(t, svc, owner, &folder.ID, "theirs.txt", "y")
	if _, err := db.Collection("files").UpdateOne(ctx,
		bson.M{"_id": theirs.ID},
		bson.M{"$set": bson.M{"owner_id": other.ID}}); err != nil {
		t.Fatalf("reassigning file owner: %v", err)
	}

	report, err := svc.DeleteFolder(ctx, owner, folder.ID)

	var partial *PartialDeleteError
	if !errors.As(err, &partial) {
		t.Fatalf("DeleteFolder() error = %v, want PartialDeleteError", err)
	}
	if report.FilesRemoved != 1 {
		t.Errorf("FilesRemoved = %d, want 1", report.FilesRemoved)
	}
	if len(report.Failures) != 1 || report.Failures[0].ID != theirs.ID {
		t.Errorf("Failures = %v, want just the reassigned file", report.Failures)
	}

	// The unowned file keeps both record and bytes.
	if blobs.Has(mine.StoragePath) {
		t.Error("owned file bytes should be gone")
	}
	if !blobs.Has(theirs.StoragePath) {
		t.Error("unowned file bytes must survive")
	}
}
