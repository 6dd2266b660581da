package folder

import (
	"testing"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/stratadrive/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	folder, err := store.Create(ctx, CreateInput{Name: "Documents", OwnerID: ownerID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if folder.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if folder.Name != "Documents" {
		t.Errorf("Name = %v, want Documents", folder.Name)
	}
	if folder.OwnerID != ownerID {
		t.Errorf("OwnerID = %v, want %v", folder.OwnerID, ownerID)
	}
	if !folder.IsRoot() {
		t.Error("folder without parent should be root")
	}
	if folder.IsPublic {
		t.Error("new folders should be private by default")
	}
}

func TestStore_SetVisibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, _ := store.Create(ctx, CreateInput{Name: "Shared", OwnerID: primitive.NewObjectID()})

	updated, err := store.SetVisibility(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("SetVisibility() error = %v", err)
	}
	if !updated.IsPublic {
		t.Error("returned record should reflect the new visibility")
	}
}

func TestStore_SetSharing_FullReplace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, _ := store.Create(ctx, CreateInput{Name: "Team", OwnerID: primitive.NewObjectID()})

	first, err := store.SetSharing(ctx, created.ID, []models.ShareGrant{
		{Email: "a@example.com", Role: models.ShareRoleViewer},
		{Email: "b@example.com", Role: models.ShareRoleEditor},
	})
	if err != nil {
		t.Fatalf("SetSharing() error = %v", err)
	}
	if len(first.SharedWith) != 2 {
		t.Fatalf("SharedWith count = %d, want 2", len(first.SharedWith))
	}

	// A later call replaces the whole set, it never merges.
	second, err := store.SetSharing(ctx, created.ID, []models.ShareGrant{
		{Email: "c@example.com", Role: models.ShareRoleViewer},
	})
	if err != nil {
		t.Fatalf("SetSharing() error = %v", err)
	}
	if len(second.SharedWith) != 1 || second.SharedWith[0].Email != "c@example.com" {
		t.Errorf("SharedWith = %v, want just c@example.com", second.SharedWith)
	}
}

func TestStore_AddFileID_OwnerFiltered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	created, _ := store.Create(ctx, CreateInput{Name: "Inbox", OwnerID: ownerID})

	fileID := primitive.NewObjectID()
	updated, err := store.AddFileID(ctx, created.ID, ownerID, fileID)
	if err != nil {
		t.Fatalf("AddFileID() error = %v", err)
	}
	if len(updated.FileIDs) != 1 || updated.FileIDs[0] != fileID {
		t.Errorf("FileIDs = %v, want [%v]", updated.FileIDs, fileID)
	}

	// A non-owner cannot attach: the owner filter makes the document not match.
	_, err = store.AddFileID(ctx, created.ID, primitive.NewObjectID(), primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("AddFileID() by non-owner error = %v, want %v", err, mongo.ErrNoDocuments)
	}

	// Attaching the same ID twice keeps the array a set.
	again, err := store.AddFileID(ctx, created.ID, ownerID, fileID)
	if err != nil {
		t.Fatalf("AddFileID() repeat error = %v", err)
	}
	if len(again.FileIDs) != 1 {
		t.Errorf("FileIDs after repeat = %v, want a single entry", again.FileIDs)
	}
}

func TestStore_AddRemoveSubFolderID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	parent, _ := store.Create(ctx, CreateInput{Name: "Parent", OwnerID: ownerID})
	child, _ := store.Create(ctx, CreateInput{Name: "Child", ParentID: &parent.ID, OwnerID: ownerID})

	updated, err := store.AddSubFolderID(ctx, parent.ID, ownerID, child.ID)
	if err != nil {
		t.Fatalf("AddSubFolderID() error = %v", err)
	}
	if len(updated.SubFolderIDs) != 1 {
		t.Errorf("SubFolderIDs = %v, want one entry", updated.SubFolderIDs)
	}

	if err := store.RemoveSubFolderID(ctx, parent.ID, child.ID); err != nil {
		t.Fatalf("RemoveSubFolderID() error = %v", err)
	}
	got, _ := store.GetByID(ctx, parent.ID)
	if len(got.SubFolderIDs) != 0 {
		t.Errorf("SubFolderIDs after remove = %v, want empty", got.SubFolderIDs)
	}
}

func TestStore_Delete_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, _ := store.Create(ctx, CreateInput{Name: "Temp", OwnerID: primitive.NewObjectID()})

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByID(ctx, created.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID() after delete error = %v, want %v", err, mongo.ErrNoDocuments)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestStore_ListByParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	parent, _ := store.Create(ctx, CreateInput{Name: "Parent", OwnerID: ownerID})
	store.Create(ctx, CreateInput{Name: "Zeta", ParentID: &parent.ID, OwnerID: ownerID})
	store.Create(ctx, CreateInput{Name: "alpha", ParentID: &parent.ID, OwnerID: ownerID})

	children, err := store.ListByParent(ctx, &parent.ID, ListOptions{})
	if err != nil {
		t.Fatalf("ListByParent() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("ListByParent() count = %d, want 2", len(children))
	}
	// Default sort is case-insensitive by name.
	if children[0].Name != "alpha" || children[1].Name != "Zeta" {
		t.Errorf("ListByParent() order = [%s, %s], want [alpha, Zeta]", children[0].Name, children[1].Name)
	}

	roots, err := store.ListByParent(ctx, nil, ListOptions{})
	if err != nil {
		t.Fatalf("ListByParent(nil) error = %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "Parent" {
		t.Errorf("ListByParent(nil) = %v, want just Parent", roots)
	}
}

func TestStore_GetAncestors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	root, _ := store.Create(ctx, CreateInput{Name: "Root", OwnerID: ownerID})
	mid, _ := store.Create(ctx, CreateInput{Name: "Mid", ParentID: &root.ID, OwnerID: ownerID})
	leaf, _ := store.Create(ctx, CreateInput{Name: "Leaf", ParentID: &mid.ID, OwnerID: ownerID})

	ancestors, err := store.GetAncestors(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("GetAncestors() error = %v", err)
	}
	if len(ancestors) != 2 {
		t.Fatalf("GetAncestors() count = %d, want 2", len(ancestors))
	}
	if ancestors[0].ID != root.ID || ancestors[1].ID != mid.ID {
		t.Error("GetAncestors() should be ordered root-first")
	}

	path, err := store.GetPath(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("GetPath() error = %v", err)
	}
	if len(path) != 3 || path[2].ID != leaf.ID {
		t.Errorf("GetPath() = %v, want root..leaf", path)
	}
}

func TestStore_GetAncestors_CycleGuard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	a, _ := store.Create(ctx, CreateInput{Name: "A", OwnerID: ownerID})
	b, _ := store.Create(ctx, CreateInput{Name: "B", ParentID: &a.ID, OwnerID: ownerID})

	// Corrupt the chain so A points back at B.
	db.Collection("folders").UpdateOne(ctx,
		map[string]interface{}{"_id": a.ID},
		map[string]interface{}{"$set": map[string]interface{}{"parent_id": b.ID}})

	ancestors, err := store.GetAncestors(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetAncestors() with cycle error = %v", err)
	}
	if len(ancestors) > 2 {
		t.Errorf("GetAncestors() with cycle returned %d entries, walk did not terminate", len(ancestors))
	}
}

func TestStore_NameExistsInParent_OwnerScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	created, _ := store.Create(ctx, CreateInput{Name: "Projects", OwnerID: ownerID})

	exists, err := store.NameExistsInParent(ctx, ownerID, "PROJECTS", nil, nil)
	if err != nil {
		t.Fatalf("NameExistsInParent() error = %v", err)
	}
	if !exists {
		t.Error("NameExistsInParent() should be case-insensitive")
	}

	exists, _ = store.NameExistsInParent(ctx, primitive.NewObjectID(), "Projects", nil, nil)
	if exists {
		t.Error("NameExistsInParent() matched across owners")
	}

	exists, _ = store.NameExistsInParent(ctx, ownerID, "Projects", nil, &created.ID)
	if exists {
		t.Error("NameExistsInParent() should return false when excluding self")
	}
}
