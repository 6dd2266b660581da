// internal/app/system/reclaim/reclaim.go

// Package reclaim releases the backing bytes of file records.
//
// Reclaim is idempotent: the goal state is "bytes not present", so finding
// them already gone is success. Only I/O failures distinct from not-found
// (permission errors, device errors) are surfaced, and the deletion engine
// treats those as per-node failures rather than aborting the walk.
package reclaim

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"go.uber.org/zap"
)

// Reclaimer deletes backing bytes from a blob store.
type Reclaimer struct {
	blobs  blob.Store
	logger *zap.Logger
}

// New creates a Reclaimer. logger may be nil.
func New(blobs blob.Store, logger *zap.Logger) *Reclaimer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reclaimer{blobs: blobs, logger: logger}
}

// Reclaim removes the bytes at storagePath. alreadyAbsent reports that the
// bytes were gone before the call; that is still success. A non-nil error
// is an I/O failure and the bytes must be assumed to still exist.
func (r *Reclaimer) Reclaim(ctx context.Context, storagePath string) (alreadyAbsent bool, err error) {
	if err := r.blobs.Delete(ctx, storagePath); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			r.logger.Debug("backing bytes already absent",
				zap.String("path", storagePath))
			return true, nil
		}
		return false, fmt.Errorf("reclaiming %s: %w", storagePath, err)
	}
	return false, nil
}
