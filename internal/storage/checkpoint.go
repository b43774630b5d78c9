package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Checkpoint errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrInvalidCheckpointID = errors.New("invalid checkpoint id")
	ErrInMemoryDatabase    = errors.New("in-memory databases cannot be checkpointed")
)

const maxAutoCheckpoints = 5

// CheckpointManager snapshots the SQLite database file next to it.
type CheckpointManager struct {
	db             *sql.DB
	dbPath         string
	checkpointsDir string
}

// CheckpointInfo describes one snapshot. It is also the on-disk metadata format.
type CheckpointInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Transactions is the log size at snapshot time.
func (c CheckpointInfo) Transactions() int {
	return c.RowCounts["transactions"]
}

// IsSetup reports whether the snapshot holds balances.
func (c CheckpointInfo) IsSetup() bool {
	return c.RowCounts["balances"] > 0
}

// NewCheckpointManager creates a new checkpoint manager.
func NewCheckpointManager(db *sql.DB, dbPath string) (*CheckpointManager, error) {
	if dbPath == ":memory:" {
		return nil, ErrInMemoryDatabase
	}
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	checkpointsDir := filepath.Join(filepath.Dir(absPath), "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		db:             db,
		dbPath:         absPath,
		checkpointsDir: checkpointsDir,
	}, nil
}

func validateCheckpointID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpointID, id)
	}
	return nil
}

func (cm *CheckpointManager) paths(id string) (dbFile, metaFile string) {
	return filepath.Join(cm.checkpointsDir, id+".db"), filepath.Join(cm.checkpointsDir, id+".meta.json")
}

// Create snapshots the database under tag. An empty tag gets a timestamped name.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint snapshots the database before a destructive operation and
// prunes old automatic snapshots.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, time.Now().Format("2006-01-02-150405"))
	info, err := cm.create(ctx, tag, "Automatic checkpoint before "+operation, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if tag == "" {
		tag = "checkpoint-" + time.Now().Format("2006-01-02-150405")
	}
	if err := validateCheckpointID(tag); err != nil {
		return nil, err
	}

	dbFile, metaFile := cm.paths(tag)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, ErrCheckpointExists
	}

	var schemaVersion int
	if err := cm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	counts := map[string]int{}
	for table, query := range map[string]string{
		"transactions": "SELECT COUNT(*) FROM transactions",
		"balances":     "SELECT COUNT(*) FROM balances",
	} {
		var n int
		if err := cm.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}

	if _, err := cm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	// #nosec G201 - dbFile is built from a validated id
	if _, err := cm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dbFile)); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	info := &CheckpointInfo{
		ID:            tag,
		CreatedAt:     time.Now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     counts,
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}

	if err := writeJSONAtomic(metaFile, info); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	if err := cm.recordInDB(ctx, info); err != nil {
		slog.Warn("failed to store checkpoint metadata in database", "error", err)
	}

	return info, nil
}

// List returns all checkpoints, newest first. Unreadable metadata is skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Get returns one checkpoint's metadata.
func (cm *CheckpointManager) Get(_ context.Context, id string) (*CheckpointInfo, error) {
	if err := validateCheckpointID(id); err != nil {
		return nil, err
	}
	_, metaFile := cm.paths(id)
	info, err := readMetadata(metaFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint metadata: %w", err)
	}
	return info, nil
}

// Restore replaces the live database with checkpoint id. It closes the
// manager's database handle; callers must reopen storage afterwards.
func (cm *CheckpointManager) Restore(ctx context.Context, id string) error {
	if _, err := cm.Get(ctx, id); err != nil {
		return err
	}
	dbFile, _ := cm.paths(id)
	if _, err := os.Stat(dbFile); err != nil {
		return ErrCheckpointNotFound
	}
	if err := verifyIntegrity(dbFile); err != nil {
		return fmt.Errorf("%w: %v", ErrCheckpointCorrupted, err)
	}

	if err := cm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	backup := cm.dbPath + ".restore-backup"
	if err := copyFile(cm.dbPath, backup); err != nil {
		return fmt.Errorf("failed to backup current database: %w", err)
	}
	if err := copyFile(dbFile, cm.dbPath); err != nil {
		if restoreErr := copyFile(backup, cm.dbPath); restoreErr != nil {
			slog.Error("failed to restore backup after checkpoint restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}
	// Stale WAL files would be replayed over the restored snapshot.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(cm.dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove WAL file", "file", cm.dbPath+suffix, "error", err)
		}
	}
	if err := os.Remove(backup); err != nil {
		slog.Error("failed to remove backup file", "error", err)
	}
	return nil
}

// Delete removes a checkpoint.
func (cm *CheckpointManager) Delete(ctx context.Context, id string) error {
	if err := validateCheckpointID(id); err != nil {
		return err
	}
	dbFile, metaFile := cm.paths(id)
	if err := os.Remove(dbFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(metaFile); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "path", metaFile)
	}
	if _, err := cm.db.ExecContext(ctx, "DELETE FROM checkpoint_metadata WHERE id = ?", id); err != nil {
		slog.Debug("failed to remove checkpoint metadata from database", "error", err, "id", id)
	}
	return nil
}

func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}
	kept := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint", "error", err, "checkpoint", cp.ID)
			}
		}
	}
	return nil
}

func (cm *CheckpointManager) recordInDB(ctx context.Context, info *CheckpointInfo) error {
	counts, err := json.Marshal(info.RowCounts)
	if err != nil {
		return err
	}
	_, err = cm.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoint_metadata
		(id, created_at, description, file_size, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.CreatedAt.UTC(), info.Description, info.FileSize, string(counts), info.SchemaVersion, info.IsAuto,
	)
	return err
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readMetadata(path string) (*CheckpointInfo, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is inside the checkpoints directory
	if err != nil {
		return nil, err
	}
	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src) // #nosec G304 - database and checkpoint paths only
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmp := dst + ".tmp"
	destination, err := os.Create(tmp) // #nosec G304
	if err != nil {
		return err
	}
	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
