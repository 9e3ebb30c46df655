package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/HendryAvila/fusadocs/internal/logging"
)

// ExportObserver is notified after a document has been written to disk.
// It's an optional dependency; tools work fine with a nil observer.
type ExportObserver interface {
	// OnDocumentExported is called with the session that produced the
	// document, the document kind, the written path and its size in bytes.
	OnDocumentExported(ctx context.Context, sessionID, kind, path string, size int64)
}

// HistoryBridge appends exported documents to the session's document
// history so fusa_status can list them.
type HistoryBridge struct {
	store Store
	log   *zap.Logger
}

// NewHistoryBridge creates a bridge over store. Returns nil if store is nil.
func NewHistoryBridge(store Store, log *zap.Logger) *HistoryBridge {
	if store == nil {
		return nil
	}
	return &HistoryBridge{store: store, log: logging.OrNop(log)}
}

// OnDocumentExported records the document. Best-effort: the file already
// exists, so a history failure is logged and the export still succeeds.
func (b *HistoryBridge) OnDocumentExported(ctx context.Context, sessionID, kind, path string, size int64) {
	if b == nil {
		return
	}
	if _, err := b.store.RecordDocument(ctx, sessionID, kind, path, size); err != nil {
		b.log.Warn("history bridge: record document",
			zap.String("session", sessionID), zap.String("kind", kind), zap.String("path", path), zap.Error(err))
	}
}

// notifyExport is a nil-safe helper called from export tool Handle methods.
func notifyExport(ctx context.Context, obs ExportObserver, sessionID, kind, path string, size int64) {
	if obs == nil {
		return
	}
	obs.OnDocumentExported(ctx, sessionID, kind, path, size)
}
