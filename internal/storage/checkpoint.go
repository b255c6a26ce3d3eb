package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ledgerTables are copied on restore, parents before children.
var ledgerTables = []string{"accounts", "categories", "budgets", "transfers", "settings", "transactions"}

// MaxAutoCheckpoints is how many automatic checkpoints are kept.
const MaxAutoCheckpoints = 5

// Checkpoint errors.
var (
	ErrCheckpointNotFound    = errors.New("checkpoint not found")
	ErrCheckpointCorrupted   = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists      = errors.New("checkpoint already exists")
	ErrInvalidCheckpointTag  = errors.New("invalid checkpoint tag")
	ErrCheckpointUnsupported = errors.New("checkpoints need a file-backed database")
)

// CheckpointManager snapshots the ledger database into a sibling
// checkpoints directory and restores from those snapshots.
type CheckpointManager struct {
	db             *sql.DB
	now            func() time.Time
	dbPath         string
	checkpointsDir string
}

// CheckpointMetadata is written next to every checkpoint file.
type CheckpointMetadata struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// CheckpointInfo summarizes a checkpoint for listing.
type CheckpointInfo struct {
	CreatedAt     time.Time
	ID            string
	Description   string
	FileSize      int64
	Accounts      int
	Transactions  int
	Categories    int
	Budgets       int
	SchemaVersion int
	IsAuto        bool
}

func (m *CheckpointMetadata) info() CheckpointInfo {
	return CheckpointInfo{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		Description:   m.Description,
		FileSize:      m.FileSize,
		Accounts:      m.RowCounts["accounts"],
		Transactions:  m.RowCounts["transactions"],
		Categories:    m.RowCounts["categories"],
		Budgets:       m.RowCounts["budgets"],
		SchemaVersion: m.SchemaVersion,
		IsAuto:        m.IsAuto,
	}
}

// NewCheckpointManager creates a checkpoint manager for the database at
// dbPath. In-memory databases cannot be checkpointed.
func NewCheckpointManager(db *sql.DB, dbPath string) (*CheckpointManager, error) {
	if dbPath == MemoryPath {
		return nil, ErrCheckpointUnsupported
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	dir := filepath.Join(filepath.Dir(abs), "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		db:             db,
		now:            time.Now,
		dbPath:         abs,
		checkpointsDir: dir,
	}, nil
}

// Dir returns the directory checkpoints are written to.
func (cm *CheckpointManager) Dir() string {
	return cm.checkpointsDir
}

func validateTag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, `/\'";`) || strings.Contains(tag, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpointTag, tag)
	}
	return nil
}

func (cm *CheckpointManager) paths(tag string) (dbFile, metaFile string) {
	return filepath.Join(cm.checkpointsDir, tag+".db"), filepath.Join(cm.checkpointsDir, tag+".meta.json")
}

// Create writes a checkpoint named tag. An empty tag is generated from the
// current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint creates a checkpoint before a risky operation and prunes
// automatic checkpoints beyond MaxAutoCheckpoints.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, cm.now().Format("2006-01-02-150405"))
	info, err := cm.create(ctx, tag, "Automatic checkpoint before "+operation, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}
	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to prune auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if tag == "" {
		tag = "checkpoint-" + cm.now().Format("2006-01-02-150405")
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	dbFile, metaFile := cm.paths(tag)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointExists, tag)
	}

	version, err := schemaVersion(ctx, cm.db)
	if err != nil {
		return nil, err
	}
	counts, err := cm.rowCounts(ctx, cm.db, "")
	if err != nil {
		return nil, err
	}

	// VACUUM INTO produces a consistent, compacted copy while the database
	// stays open. The tag was validated so the path needs no quoting.
	if _, err := cm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dbFile)); err != nil { // #nosec G201
		return nil, fmt.Errorf("failed to write checkpoint: %w", translateError(err))
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	meta := CheckpointMetadata{
		ID:            tag,
		CreatedAt:     cm.now().UTC(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     counts,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := writeMetadata(metaFile, meta); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("failed to remove checkpoint after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save checkpoint metadata: %w", err)
	}

	if err := cm.recordMetadata(ctx, meta); err != nil {
		slog.Warn("failed to record checkpoint metadata in database", "error", err)
	}

	slog.Info("created checkpoint", "id", tag, "auto", auto, "transactions", counts["transactions"])
	info := meta.info()
	return &info, nil
}

// List returns every checkpoint, newest first. Unreadable metadata files
// are skipped.
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
		meta, err := readMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, meta.info())
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Info returns a single checkpoint.
func (cm *CheckpointManager) Info(_ context.Context, tag string) (*CheckpointInfo, error) {
	if err := validateTag(tag); err != nil {
		return nil, err
	}
	_, metaFile := cm.paths(tag)
	meta, err := readMetadata(metaFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint metadata: %w", err)
	}
	info := meta.info()
	return &info, nil
}

// Restore replaces the ledger tables with the contents of a checkpoint in
// one transaction. The database stays open; callers reload any in-memory
// state afterwards.
func (cm *CheckpointManager) Restore(ctx context.Context, tag string) error {
	if err := validateTag(tag); err != nil {
		return err
	}
	dbFile, _ := cm.paths(tag)
	if _, err := os.Stat(dbFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCheckpointNotFound, tag)
		}
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}

	// ATTACH is per connection, so pin one for the whole restore.
	conn, err := cm.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS cp", dbFile); err != nil {
		return fmt.Errorf("failed to attach checkpoint: %w", translateError(err))
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DETACH DATABASE cp"); err != nil {
			slog.Error("failed to detach checkpoint", "error", err)
		}
	}()

	var integrity string
	if err := conn.QueryRowContext(ctx, "PRAGMA cp.integrity_check").Scan(&integrity); err != nil || integrity != "ok" {
		return fmt.Errorf("%w: %s", ErrCheckpointCorrupted, tag)
	}
	counts, err := cm.rowCounts(ctx, conn, "cp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckpointCorrupted, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", translateError(err))
	}
	defer func() { _ = tx.Rollback() }()

	for i := len(ledgerTables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM main."+ledgerTables[i]); err != nil { // #nosec G202
			return fmt.Errorf("failed to clear %s: %w", ledgerTables[i], err)
		}
	}
	for _, table := range ledgerTables {
		if _, err := tx.ExecContext(ctx, "INSERT INTO main."+table+" SELECT * FROM cp."+table); err != nil { // #nosec G202
			return fmt.Errorf("failed to restore %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", translateError(err))
	}

	slog.Info("restored checkpoint", "id", tag,
		"accounts", counts["accounts"], "transactions", counts["transactions"])
	return nil
}

// Delete removes a checkpoint and its metadata.
func (cm *CheckpointManager) Delete(ctx context.Context, tag string) error {
	if err := validateTag(tag); err != nil {
		return err
	}
	dbFile, metaFile := cm.paths(tag)
	if err := os.Remove(dbFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCheckpointNotFound, tag)
		}
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(metaFile); err != nil {
		slog.Debug("failed to remove checkpoint metadata file", "error", err, "path", metaFile)
	}
	if _, err := cm.db.ExecContext(ctx, "DELETE FROM checkpoint_metadata WHERE id = ?", tag); err != nil {
		slog.Debug("failed to remove checkpoint metadata row", "error", err, "id", tag)
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
		if kept > MaxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint", "error", err, "id", cp.ID)
			}
		}
	}
	return nil
}

// rowCounts counts the ledger tables of the given schema ("" for main).
func (cm *CheckpointManager) rowCounts(ctx context.Context, q queryable, schema string) (map[string]int, error) {
	if schema != "" {
		schema += "."
	}
	counts := make(map[string]int, len(ledgerTables))
	for _, table := range ledgerTables {
		var n int
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+schema+table).Scan(&n); err != nil { // #nosec G202
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (cm *CheckpointManager) recordMetadata(ctx context.Context, meta CheckpointMetadata) error {
	counts, err := json.Marshal(meta.RowCounts)
	if err != nil {
		return err
	}
	_, err = cm.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoint_metadata (id, created_at, description, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.CreatedAt, meta.Description, string(counts), meta.SchemaVersion, meta.IsAuto)
	return err
}

func writeMetadata(path string, meta CheckpointMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readMetadata(path string) (*CheckpointMetadata, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from a validated tag
	if err != nil {
		return nil, err
	}
	var meta CheckpointMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
