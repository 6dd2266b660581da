// internal/app/drive/errors.go
package drive

import (
	"errors"
	"fmt"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound means the resource does not exist. Lookups of records
	// removed by an earlier (possibly partial) deletion return this.
	ErrNotFound = errors.New("drive: not found")

	// ErrForbidden means the caller's access level is insufficient.
	ErrForbidden = errors.New("drive: access denied")

	// ErrNameTaken means the owner already has a resource with that name
	// in the target location.
	ErrNameTaken = errors.New("drive: name already in use")

	// ErrInvalidGrant means a sharing grant carries an unknown role or an
	// empty email.
	ErrInvalidGrant = errors.New("drive: invalid sharing grant")
)

// NodeFailure describes one node a cascading deletion could not remove.
// The node's record is kept so a retry can finish the job.
type NodeFailure struct {
	ID     primitive.ObjectID
	Kind   models.Kind
	Name   string
	Reason string
	Err    error
}

func (f NodeFailure) Error() string {
	return fmt.Sprintf("%s %s (%s): %s", f.Kind, f.Name, f.ID.Hex(), f.Reason)
}

func (f NodeFailure) Unwrap() error { return f.Err }

// DeletionReport summarizes a cascading folder deletion.
type DeletionReport struct {
	FilesRemoved   int
	FoldersRemoved int
	Failures       []NodeFailure
}

// Complete reports whether every reachable node was removed.
func (r DeletionReport) Complete() bool { return len(r.Failures) == 0 }

// PartialDeleteError is returned when a cascading deletion removed some
// nodes but not all. The report lists what was removed and what failed.
type PartialDeleteError struct {
	Report DeletionReport
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("drive: deletion incomplete: removed %d files and %d folders, %d failures",
		e.Report.FilesRemoved, e.Report.FoldersRemoved, len(e.Report.Failures))
}
