// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Drive controls logging for drive events (create, upload, rename, delete).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Drive string
	// Governance controls logging for owner-only sharing-surface mutations
	// (visibility changes, grant replacements).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Governance string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ResourceID != nil {
		fields = append(fields, zap.String("resource_id", event.ResourceID.Hex()))
	}
	if event.ResourceKind != "" {
		fields = append(fields, zap.String("resource_kind", event.ResourceKind))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryDrive:
		setting = l.config.Drive
	case audit.CategoryGovernance:
		setting = l.config.Governance
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Drive Events ---

// FolderCreated logs the creation of a folder.
func (l *Logger) FolderCreated(ctx context.Context, actor models.Principal, folderID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    audit.EventFolderCreated,
		ActorID:      &actor.ID,
		ResourceID:   &folderID,
		ResourceKind: string(models.KindFolder),
		Success:      true,
		Details: map[string]string{
			"name": name,
		},
	})
}

// FileUploaded logs the creation of a file record.
func (l *Logger) FileUploaded(ctx context.Context, actor models.Principal, fileID primitive.ObjectID, name string, size int64) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    audit.EventFileUploaded,
		ActorID:      &actor.ID,
		ResourceID:   &fileID,
		ResourceKind: string(models.KindFile),
		Success:      true,
		Details: map[string]string{
			"name": name,
			"size": strconv.FormatInt(size, 10),
		},
	})
}

// FileReplaced logs an in-place rewrite of a file's content.
func (l *Logger) FileReplaced(ctx context.Context, actor models.Principal, fileID primitive.ObjectID, name string, size int64) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    audit.EventFileReplaced,
		ActorID:      &actor.ID,
		ResourceID:   &fileID,
		ResourceKind: string(models.KindFile),
		Success:      true,
		Details: map[string]string{
			"name": name,
			"size": strconv.FormatInt(size, 10),
		},
	})
}

// FileCloned logs the duplication of a file into the actor's tree.
func (l *Logger) FileCloned(ctx context.Context, actor models.Principal, sourceID, cloneID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    audit.EventFileCloned,
		ActorID:      &actor.ID,
		ResourceID:   &cloneID,
		ResourceKind: string(models.KindFile),
		Success:      true,
		Details: map[string]string{
			"source_id": sourceID.Hex(),
		},
	})
}

// Renamed logs a display-name change on a file or folder.
func (l *Logger) Renamed(ctx context.Context, actor models.Principal, kind models.Kind, resourceID primitive.ObjectID, oldName, newName string) {
	eventType := audit.EventFileRenamed
	if kind == models.KindFolder {
		eventType = audit.EventFolderRenamed
	}
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    eventType,
		ActorID:      &actor.ID,
		ResourceID:   &resourceID,
		ResourceKind: string(kind),
		Success:      true,
		Details: map[string]string{
			"old_name": oldName,
			"new_name": newName,
		},
	})
}

// FileDeleted logs the removal of a file record and its backing bytes.
func (l *Logger) FileDeleted(ctx context.Context, actor models.Principal, fileID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    audit.EventFileDeleted,
		ActorID:      &actor.ID,
		ResourceID:   &fileID,
		ResourceKind: string(models.KindFile),
		Success:      true,
		Details: map[string]string{
			"name": name,
		},
	})
}

// FolderDeleted logs a cascading folder deletion. complete is false when
// some contained resources could not be removed.
func (l *Logger) FolderDeleted(ctx context.Context, actor models.Principal, folderID primitive.ObjectID, filesRemoved, foldersRemoved int, complete bool) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryDrive,
		EventType:    audit.EventFolderDeleted,
		ActorID:      &actor.ID,
		ResourceID:   &folderID,
		ResourceKind: string(models.KindFolder),
		Success:      complete,
		Details: map[string]string{
			"files_removed":   strconv.Itoa(filesRemoved),
			"folders_removed": strconv.Itoa(foldersRemoved),
		},
	})
}

// --- Governance Events ---

// VisibilityChanged logs an owner flipping the public flag on a resource.
func (l *Logger) VisibilityChanged(ctx context.Context, actor models.Principal, kind models.Kind, resourceID primitive.ObjectID, isPublic bool) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryGovernance,
		EventType:    audit.EventVisibilityChanged,
		ActorID:      &actor.ID,
		ResourceID:   &resourceID,
		ResourceKind: string(kind),
		Success:      true,
		Details: map[string]string{
			"is_public": strconv.FormatBool(isPublic),
		},
	})
}

// SharingUpdated logs an owner replacing the grant set on a resource.
func (l *Logger) SharingUpdated(ctx context.Context, actor models.Principal, kind models.Kind, resourceID primitive.ObjectID, grantCount int) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryGovernance,
		EventType:    audit.EventSharingUpdated,
		ActorID:      &actor.ID,
		ResourceID:   &resourceID,
		ResourceKind: string(kind),
		Success:      true,
		Details: map[string]string{
			"grant_count": strconv.Itoa(grantCount),
		},
	})
}
