package worker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"zenbudget/internal/amqp"
	"zenbudget/internal/bundle"
	"zenbudget/internal/core"
)

// BackupFileName matches the document name the import endpoint accepts, so
// a backup can be restored as-is.
const BackupFileName = "ZenBudget_Backup.json"

// SnapshotLoader is the read side the worker needs from storage.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
}

// BackupWorker rewrites a full backup document whenever the ledger changes.
// Events carry no payload, the worker always reloads the whole snapshot.
type BackupWorker struct {
	storage SnapshotLoader
	dir     string
}

func NewBackupWorker(storage SnapshotLoader, dir string) *BackupWorker {
	return &BackupWorker{storage: storage, dir: dir}
}

// HandleLedgerEvent processes a single change notification from AMQP.
func (w *BackupWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"entity", msg.Entity,
		"entity_id", msg.EntityID,
		"action", msg.Action)

	if err := w.WriteBackup(ctx); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// StartupBackupCheck writes an initial backup when none exists yet. This
// recovers from missed events or worker downtime.
func (w *BackupWorker) StartupBackupCheck(ctx context.Context) error {
	path := filepath.Join(w.dir, BackupFileName)
	if _, err := os.Stat(path); err == nil {
		slog.InfoContext(ctx, "Backup file present on startup", "path", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat backup file: %w", err)
	}

	slog.InfoContext(ctx, "No backup file found on startup, writing one", "path", path)
	return w.WriteBackup(ctx)
}

// WriteBackup reloads the snapshot and atomically replaces the backup file.
func (w *BackupWorker) WriteBackup(ctx context.Context) error {
	snap, err := w.storage.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	data, err := bundle.Encode(snap, time.Now())
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(w.dir, BackupFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup written",
		"path", path,
		"bytes", len(data),
		"transactions", len(snap.Transactions),
		"accounts", len(snap.Accounts))

	return nil
}
