// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/binhash"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/clock"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/codec"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/sqlitepool"
)

// Store manages SQLite persistence for the version ledger: sources,
// versions, task snapshots, deltas, WBS mappings, and retained upload
// blobs.
//
// Write path: CommitImport applies one committed import — version
// row, current-pointer flip, chunked task and delta inserts, WBS
// mapping discovery, source rollups, file blob — in a single
// IMMEDIATE transaction. Chunking bounds statement size only; it is
// never observable as partial success because the transaction either
// commits whole or rolls back whole.
//
// The one-current-per-source invariant is also enforced mechanically
// by a partial unique index, so a logic bug cannot silently persist
// two current versions.
type Store struct {
	pool      *sqlitepool.Pool
	clock     clock.Clock
	logger    *slog.Logger
	chunkSize int
}

// StoreConfig holds the parameters for opening a ledger store.
type StoreConfig struct {
	// Path is the SQLite database file. The parent directory must
	// exist.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// ChunkSize bounds rows per bulk-insert statement. Defaults to 50.
	ChunkSize int

	// Clock provides import and acknowledgement timestamps. Required.
	Clock clock.Clock

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

// ledgerSchema is created once per database. Versions are append-only;
// the partial unique index on is_current makes the one-current-per-
// source invariant a constraint, not a convention.
const ledgerSchema = `
	CREATE TABLE IF NOT EXISTS sources (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		tool             TEXT NOT NULL,
		format           TEXT NOT NULL,
		sync_cadence     TEXT NOT NULL DEFAULT '',
		created_at       INTEGER NOT NULL,
		last_sync_date   INTEGER,
		last_sync_status TEXT NOT NULL DEFAULT '',
		data_date        INTEGER,
		task_count       INTEGER NOT NULL DEFAULT 0,
		baseline_count   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS import_files (
		ref      TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		digest   TEXT NOT NULL,
		raw_size INTEGER NOT NULL,
		content  BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS versions (
		id                   INTEGER PRIMARY KEY,
		source_id            TEXT NOT NULL REFERENCES sources(id),
		number               INTEGER NOT NULL,
		label                TEXT NOT NULL,
		import_date          INTEGER NOT NULL,
		data_date            INTEGER,
		file_ref             TEXT REFERENCES import_files(ref),
		file_name            TEXT NOT NULL DEFAULT '',
		file_digest          TEXT NOT NULL DEFAULT '',
		task_count           INTEGER NOT NULL,
		milestone_count      INTEGER NOT NULL,
		wbs_depth            INTEGER NOT NULL,
		critical_task_count  INTEGER NOT NULL,
		delta_count          INTEGER NOT NULL,
		critical_delta_count INTEGER NOT NULL,
		is_current           INTEGER NOT NULL,
		is_baseline          INTEGER NOT NULL,
		summary              BLOB,
		UNIQUE (source_id, number)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_one_current
		ON versions(source_id) WHERE is_current = 1;

	CREATE TABLE IF NOT EXISTS tasks (
		id                      INTEGER PRIMARY KEY,
		version_id              INTEGER NOT NULL REFERENCES versions(id),
		external_id             TEXT NOT NULL,
		external_wbs            TEXT NOT NULL DEFAULT '',
		name                    TEXT NOT NULL,
		type                    TEXT NOT NULL,
		wbs_level               INTEGER NOT NULL,
		planned_start           INTEGER,
		planned_finish          INTEGER,
		actual_start            INTEGER,
		actual_finish           INTEGER,
		baseline_start          INTEGER,
		baseline_finish         INTEGER,
		duration_days           INTEGER NOT NULL,
		remaining_duration_days INTEGER NOT NULL,
		percent_complete        REAL NOT NULL,
		total_float_days        INTEGER NOT NULL,
		free_float_days         INTEGER NOT NULL,
		is_critical             INTEGER NOT NULL,
		status                  TEXT NOT NULL,
		resource_names          BLOB,
		notes                   TEXT NOT NULL DEFAULT '',
		UNIQUE (version_id, external_id)
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_version ON tasks(version_id);

	CREATE TABLE IF NOT EXISTS deltas (
		id                    INTEGER PRIMARY KEY,
		source_id             TEXT NOT NULL REFERENCES sources(id),
		from_version_id       INTEGER REFERENCES versions(id),
		to_version_id         INTEGER NOT NULL REFERENCES versions(id),
		external_id           TEXT NOT NULL,
		task_name             TEXT NOT NULL,
		change                TEXT NOT NULL,
		field_changed         TEXT NOT NULL,
		old_value             TEXT NOT NULL DEFAULT '',
		new_value             TEXT NOT NULL DEFAULT '',
		variance_days         INTEGER NOT NULL,
		impact                TEXT NOT NULL,
		impact_rank           INTEGER NOT NULL,
		affects_critical_path INTEGER NOT NULL,
		affects_milestone     INTEGER NOT NULL,
		acknowledged          INTEGER NOT NULL DEFAULT 0,
		acknowledged_at       INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_deltas_source ON deltas(source_id, impact_rank DESC);
	CREATE INDEX IF NOT EXISTS idx_deltas_to_version ON deltas(to_version_id);

	CREATE TABLE IF NOT EXISTS wbs_mappings (
		id            INTEGER PRIMARY KEY,
		source_id     TEXT NOT NULL REFERENCES sources(id),
		external_code TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		unified_code  TEXT NOT NULL DEFAULT '',
		workstream    TEXT NOT NULL DEFAULT '',
		quality_gate  TEXT NOT NULL DEFAULT '',
		is_mapped     INTEGER NOT NULL DEFAULT 0,
		first_seen    INTEGER NOT NULL,
		UNIQUE (source_id, external_code)
	);
`

// OpenStore creates a ledger store backed by SQLite. The database
// file is created if it does not exist; the schema is applied on
// first connection.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("ledger store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("ledger store: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, ledgerSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ledger store: %w", err)
	}

	return &Store{
		pool:      pool,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		chunkSize: chunkSize,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Upload blobs are retained zstd-compressed. The encoder and decoder
// are safe for concurrent use and shared across calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("ledger store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("ledger store: zstd decoder initialization failed: " + err.Error())
	}
}

// --- Sources ---

// CreateSource registers a new schedule source.
func (s *Store) CreateSource(ctx context.Context, source schedule.Source) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ledger store: create source: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO sources (id, name, tool, format, sync_cadence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			source.ID, source.Name, source.Tool, source.Format,
			source.SyncCadence, source.CreatedAt.Unix(),
		}})
	if err != nil {
		if code := sqlite.ErrCode(err); code == sqlite.ResultConstraintPrimaryKey || code == sqlite.ResultConstraintUnique {
			return fmt.Errorf("%w: %s", ErrSourceExists, source.ID)
		}
		return fmt.Errorf("ledger store: create source %s: %w", source.ID, err)
	}
	return nil
}

// GetSource returns one registered source by ID.
func (s *Store) GetSource(ctx context.Context, sourceID string) (schedule.Source, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schedule.Source{}, fmt.Errorf("ledger store: get source: %w", err)
	}
	defer s.pool.Put(conn)

	var source schedule.Source
	found := false
	err = sqlitex.Execute(conn,
		sourceSelectColumns+" WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{sourceID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				source = scanSource(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return schedule.Source{}, fmt.Errorf("ledger store: get source %s: %w", sourceID, err)
	}
	if !found {
		return schedule.Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}
	return source, nil
}

// ListSources returns all registered sources ordered by name.
func (s *Store) ListSources(ctx context.Context) ([]schedule.Source, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: list sources: %w", err)
	}
	defer s.pool.Put(conn)

	var sources []schedule.Source
	err = sqlitex.Execute(conn,
		sourceSelectColumns+" ORDER BY name",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				sources = append(sources, scanSource(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger store: list sources: %w", err)
	}
	return sources, nil
}

const sourceSelectColumns = `SELECT id, name, tool, format, sync_cadence, created_at,
	last_sync_date, last_sync_status, data_date, task_count, baseline_count FROM sources`

func scanSource(stmt *sqlite.Stmt) schedule.Source {
	return schedule.Source{
		ID:             stmt.ColumnText(0),
		Name:           stmt.ColumnText(1),
		Tool:           stmt.ColumnText(2),
		Format:         stmt.ColumnText(3),
		SyncCadence:    stmt.ColumnText(4),
		CreatedAt:      columnTime(stmt, 5),
		LastSyncDate:   columnTime(stmt, 6),
		LastSyncStatus: stmt.ColumnText(7),
		DataDate:       columnTime(stmt, 8),
		TaskCount:      stmt.ColumnInt(9),
		BaselineCount:  stmt.ColumnInt(10),
	}
}

// --- Versions ---

// CurrentVersion returns the current version for a source, or nil
// when the source has no versions yet.
func (s *Store) CurrentVersion(ctx context.Context, sourceID string) (*schedule.Version, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: current version: %w", err)
	}
	defer s.pool.Put(conn)

	return currentVersionOn(conn, sourceID)
}

func currentVersionOn(conn *sqlite.Conn, sourceID string) (*schedule.Version, error) {
	var version *schedule.Version
	err := sqlitex.Execute(conn,
		versionSelectColumns+" WHERE source_id = ? AND is_current = 1",
		&sqlitex.ExecOptions{
			Args: []any{sourceID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				scanned, err := scanVersion(stmt)
				if err != nil {
					return err
				}
				version = &scanned
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger store: current version for %s: %w", sourceID, err)
	}
	return version, nil
}

// ListVersions returns all versions for a source, newest first.
func (s *Store) ListVersions(ctx context.Context, sourceID string) ([]schedule.Version, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: list versions: %w", err)
	}
	defer s.pool.Put(conn)

	var versions []schedule.Version
	err = sqlitex.Execute(conn,
		versionSelectColumns+" WHERE source_id = ? ORDER BY number DESC",
		&sqlitex.ExecOptions{
			Args: []any{sourceID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				version, err := scanVersion(stmt)
				if err != nil {
					return err
				}
				versions = append(versions, version)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger store: list versions for %s: %w", sourceID, err)
	}
	return versions, nil
}

const versionSelectColumns = `SELECT id, source_id, number, label, import_date, data_date,
	file_ref, file_name, file_digest, task_count, milestone_count, wbs_depth,
	critical_task_count, delta_count, critical_delta_count, is_current, is_baseline,
	summary FROM versions`

func scanVersion(stmt *sqlite.Stmt) (schedule.Version, error) {
	version := schedule.Version{
		ID:                 stmt.ColumnInt64(0),
		SourceID:           stmt.ColumnText(1),
		Number:             stmt.ColumnInt(2),
		Label:              stmt.ColumnText(3),
		ImportDate:         columnTime(stmt, 4),
		DataDate:           columnTime(stmt, 5),
		FileRef:            stmt.ColumnText(6),
		FileName:           stmt.ColumnText(7),
		FileDigest:         stmt.ColumnText(8),
		TaskCount:          stmt.ColumnInt(9),
		MilestoneCount:     stmt.ColumnInt(10),
		WBSDepth:           stmt.ColumnInt(11),
		CriticalTaskCount:  stmt.ColumnInt(12),
		DeltaCount:         stmt.ColumnInt(13),
		CriticalDeltaCount: stmt.ColumnInt(14),
		IsCurrent:          stmt.ColumnInt(15) != 0,
		IsBaseline:         stmt.ColumnInt(16) != 0,
	}

	if !stmt.ColumnIsNull(17) {
		blob := make([]byte, stmt.ColumnLen(17))
		stmt.ColumnBytes(17, blob)
		if err := codec.Unmarshal(blob, &version.Summary); err != nil {
			return version, fmt.Errorf("unmarshal version summary: %w", err)
		}
	}
	return version, nil
}

// --- Commit ---

// CommitSet is everything one confirmed import writes. Built by the
// engine after parse + diff, applied by CommitImport as one
// transaction.
type CommitSet struct {
	SourceID string
	FileName string
	FileData []byte

	Tasks   []schedule.Task
	Summary schedule.Summary
	Deltas  []schedule.Delta

	// NewWBSCodes are the mappings discovered by the reconciliation
	// feed for this import.
	NewWBSCodes []schedule.WBSMapping

	// FileRef is the caller-assigned blob identifier; FileDigest the
	// hex digest of FileData.
	FileRef    string
	FileDigest string
}

// CommitImport applies one confirmed import in a single IMMEDIATE
// transaction: retained file blob, version row with the next number,
// current-pointer flip, chunked task and delta inserts, WBS mapping
// discovery, and source rollups. On any failure the transaction rolls
// back and the ledger is exactly as it was.
func (s *Store) CommitImport(ctx context.Context, commit CommitSet) (version schedule.Version, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schedule.Version{}, fmt.Errorf("ledger store: commit: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schedule.Version{}, fmt.Errorf("ledger store: begin commit: %w", err)
	}
	defer endTransaction(&err)

	previous, err := currentVersionOn(conn, commit.SourceID)
	if err != nil {
		return schedule.Version{}, err
	}

	// Version number = count of existing versions + 1. Never reused,
	// never renumbered; corrections arrive as a new version.
	var existing int
	err = sqlitex.Execute(conn,
		"SELECT COUNT(*) FROM versions WHERE source_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{commit.SourceID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				existing = stmt.ColumnInt(0)
				return nil
			},
		})
	if err != nil {
		return schedule.Version{}, fmt.Errorf("ledger store: version count for %s: %w", commit.SourceID, err)
	}
	number := existing + 1

	// Retained upload blob.
	if err := insertImportFile(conn, commit); err != nil {
		return schedule.Version{}, err
	}

	// Clear the previous current flag before inserting the new
	// current row, keeping the partial unique index satisfied at
	// every point inside the transaction.
	if previous != nil {
		err = sqlitex.Execute(conn,
			"UPDATE versions SET is_current = 0 WHERE id = ?",
			&sqlitex.ExecOptions{Args: []any{previous.ID}})
		if err != nil {
			return schedule.Version{}, fmt.Errorf("ledger store: clear current version: %w", err)
		}
	}

	summaryBlob, err := codec.Marshal(commit.Summary)
	if err != nil {
		return schedule.Version{}, fmt.Errorf("ledger store: marshal summary: %w", err)
	}

	criticalDeltas := 0
	for i := range commit.Deltas {
		if commit.Deltas[i].Impact == schedule.ImpactCritical {
			criticalDeltas++
		}
	}

	now := s.clock.Now()
	version = schedule.Version{
		SourceID:           commit.SourceID,
		Number:             number,
		Label:              schedule.FormatVersionLabel(number),
		ImportDate:         now,
		DataDate:           commit.Summary.DataDate,
		FileRef:            commit.FileRef,
		FileName:           commit.FileName,
		FileDigest:         commit.FileDigest,
		TaskCount:          commit.Summary.TaskCount,
		MilestoneCount:     commit.Summary.MilestoneCount,
		WBSDepth:           commit.Summary.WBSDepth,
		CriticalTaskCount:  commit.Summary.CriticalTaskCount,
		DeltaCount:         len(commit.Deltas),
		CriticalDeltaCount: criticalDeltas,
		IsCurrent:          true,
		IsBaseline:         number == 1,
		Summary:            commit.Summary,
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO versions (source_id, number, label, import_date, data_date,
			file_ref, file_name, file_digest, task_count, milestone_count, wbs_depth,
			critical_task_count, delta_count, critical_delta_count, is_current,
			is_baseline, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			version.SourceID, version.Number, version.Label,
			now.Unix(), timeArg(version.DataDate),
			version.FileRef, version.FileName, version.FileDigest,
			version.TaskCount, version.MilestoneCount, version.WBSDepth,
			version.CriticalTaskCount, version.DeltaCount, version.CriticalDeltaCount,
			1, boolArg(version.IsBaseline), summaryBlob,
		}})
	if err != nil {
		return schedule.Version{}, fmt.Errorf("ledger store: insert version %s %s: %w",
			commit.SourceID, version.Label, err)
	}
	version.ID = conn.LastInsertRowID()

	if err := s.insertTasks(conn, version.ID, commit.Tasks); err != nil {
		return schedule.Version{}, err
	}

	var previousID any
	if previous != nil {
		previousID = previous.ID
	}
	if err := s.insertDeltas(conn, commit.SourceID, previousID, version.ID, commit.Deltas); err != nil {
		return schedule.Version{}, err
	}

	if err := insertWBSMappings(conn, commit.NewWBSCodes); err != nil {
		return schedule.Version{}, err
	}

	// Source rollups.
	err = sqlitex.Execute(conn,
		`UPDATE sources SET last_sync_date = ?, last_sync_status = ?, data_date = ?,
			task_count = ?, baseline_count = baseline_count + ?
		 WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			now.Unix(), "ok", timeArg(commit.Summary.DataDate),
			commit.Summary.TaskCount, boolArg(version.IsBaseline), commit.SourceID,
		}})
	if err != nil {
		return schedule.Version{}, fmt.Errorf("ledger store: update source rollups: %w", err)
	}

	s.logger.Info("import committed",
		"source", commit.SourceID,
		"version", version.Label,
		"tasks", version.TaskCount,
		"deltas", version.DeltaCount,
		"critical_deltas", version.CriticalDeltaCount,
	)
	return version, nil
}

func insertImportFile(conn *sqlite.Conn, commit CommitSet) error {
	compressed := zstdEncoder.EncodeAll(commit.FileData, nil)
	err := sqlitex.Execute(conn,
		`INSERT INTO import_files (ref, name, digest, raw_size, content)
		 VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			commit.FileRef, commit.FileName, commit.FileDigest,
			len(commit.FileData), compressed,
		}})
	if err != nil {
		return fmt.Errorf("ledger store: insert import file %s: %w", commit.FileRef, err)
	}
	return nil
}

// insertTasks bulk-inserts the version's task snapshot in chunks of
// chunkSize rows per statement.
func (s *Store) insertTasks(conn *sqlite.Conn, versionID int64, tasks []schedule.Task) error {
	const columns = 21
	const row = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	for start := 0; start < len(tasks); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(tasks) {
			end = len(tasks)
		}
		chunk := tasks[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*columns)
		for i := range chunk {
			task := &chunk[i]

			var resourceBlob any
			if len(task.ResourceNames) > 0 {
				blob, err := codec.Marshal(task.ResourceNames)
				if err != nil {
					return fmt.Errorf("ledger store: marshal resource names: %w", err)
				}
				resourceBlob = blob
			}

			placeholders[i] = row
			args = append(args,
				versionID, task.ExternalID, task.ExternalWBS, task.Name,
				string(task.Type), task.WBSLevel,
				timeArg(task.PlannedStart), timeArg(task.PlannedFinish),
				timeArg(task.ActualStart), timeArg(task.ActualFinish),
				timeArg(task.BaselineStart), timeArg(task.BaselineFinish),
				task.DurationDays, task.RemainingDurationDays, task.PercentComplete,
				task.TotalFloatDays, task.FreeFloatDays, boolArg(task.IsCritical),
				string(task.Status), resourceBlob, task.Notes,
			)
		}

		query := `INSERT INTO tasks (version_id, external_id, external_wbs, name, type,
			wbs_level, planned_start, planned_finish, actual_start, actual_finish,
			baseline_start, baseline_finish, duration_days, remaining_duration_days,
			percent_complete, total_float_days, free_float_days, is_critical, status,
			resource_names, notes) VALUES ` + strings.Join(placeholders, ", ")

		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
			return fmt.Errorf("ledger store: insert tasks chunk [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// insertDeltas bulk-inserts the diff results in chunks.
func (s *Store) insertDeltas(conn *sqlite.Conn, sourceID string, fromVersionID any, toVersionID int64, deltas []schedule.Delta) error {
	const columns = 14
	const row = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	for start := 0; start < len(deltas); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(deltas) {
			end = len(deltas)
		}
		chunk := deltas[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*columns)
		for i := range chunk {
			delta := &chunk[i]
			placeholders[i] = row
			args = append(args,
				sourceID, fromVersionID, toVersionID,
				delta.ExternalID, delta.TaskName, string(delta.Change),
				delta.FieldChanged, delta.OldValue, delta.NewValue,
				delta.VarianceDays, delta.Impact.String(), int(delta.Impact),
				boolArg(delta.AffectsCriticalPath), boolArg(delta.AffectsMilestone),
			)
		}

		query := `INSERT INTO deltas (source_id, from_version_id, to_version_id,
			external_id, task_name, change, field_changed, old_value, new_value,
			variance_days, impact, impact_rank, affects_critical_path,
			affects_milestone) VALUES ` + strings.Join(placeholders, ", ")

		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
			return fmt.Errorf("ledger store: insert deltas chunk [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// insertWBSMappings appends newly discovered codes. ON CONFLICT DO
// NOTHING guards the append-only property: an existing mapping,
// curated or not, is never overwritten.
func insertWBSMappings(conn *sqlite.Conn, mappings []schedule.WBSMapping) error {
	for i := range mappings {
		mapping := &mappings[i]
		err := sqlitex.Execute(conn,
			`INSERT INTO wbs_mappings (source_id, external_code, display_name, first_seen)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (source_id, external_code) DO NOTHING`,
			&sqlitex.ExecOptions{Args: []any{
				mapping.SourceID, mapping.ExternalCode, mapping.DisplayName,
				mapping.FirstSeen.Unix(),
			}})
		if err != nil {
			return fmt.Errorf("ledger store: insert wbs mapping %s/%s: %w",
				mapping.SourceID, mapping.ExternalCode, err)
		}
	}
	return nil
}

// --- Tasks ---

// LoadVersionTasks returns the task snapshot for a version, in insert
// order.
func (s *Store) LoadVersionTasks(ctx context.Context, versionID int64) ([]schedule.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: load tasks: %w", err)
	}
	defer s.pool.Put(conn)

	var tasks []schedule.Task
	err = sqlitex.Execute(conn,
		`SELECT external_id, external_wbs, name, type, wbs_level, planned_start,
			planned_finish, actual_start, actual_finish, baseline_start,
			baseline_finish, duration_days, remaining_duration_days,
			percent_complete, total_float_days, free_float_days, is_critical,
			status, resource_names, notes
		 FROM tasks WHERE version_id = ? ORDER BY id`,
		&sqlitex.ExecOptions{
			Args: []any{versionID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				task, err := scanTask(stmt)
				if err != nil {
					return err
				}
				tasks = append(tasks, task)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger store: load tasks for version %d: %w", versionID, err)
	}
	return tasks, nil
}

func scanTask(stmt *sqlite.Stmt) (schedule.Task, error) {
	taskType, err := schedule.ParseTaskType(stmt.ColumnText(3))
	if err != nil {
		return schedule.Task{}, fmt.Errorf("task %q: %w", stmt.ColumnText(0), err)
	}
	status, err := schedule.ParseTaskStatus(stmt.ColumnText(17))
	if err != nil {
		return schedule.Task{}, fmt.Errorf("task %q: %w", stmt.ColumnText(0), err)
	}

	task := schedule.Task{
		ExternalID:            stmt.ColumnText(0),
		ExternalWBS:           stmt.ColumnText(1),
		Name:                  stmt.ColumnText(2),
		Type:                  taskType,
		WBSLevel:              stmt.ColumnInt(4),
		PlannedStart:          columnTime(stmt, 5),
		PlannedFinish:         columnTime(stmt, 6),
		ActualStart:           columnTime(stmt, 7),
		ActualFinish:          columnTime(stmt, 8),
		BaselineStart:         columnTime(stmt, 9),
		BaselineFinish:        columnTime(stmt, 10),
		DurationDays:          stmt.ColumnInt(11),
		RemainingDurationDays: stmt.ColumnInt(12),
		PercentComplete:       stmt.ColumnFloat(13),
		TotalFloatDays:        stmt.ColumnInt(14),
		FreeFloatDays:         stmt.ColumnInt(15),
		IsCritical:            stmt.ColumnInt(16) != 0,
		Status:                status,
	}

	if !stmt.ColumnIsNull(18) {
		blob := make([]byte, stmt.ColumnLen(18))
		stmt.ColumnBytes(18, blob)
		if err := codec.Unmarshal(blob, &task.ResourceNames); err != nil {
			return task, fmt.Errorf("unmarshal resource names: %w", err)
		}
	}
	task.Notes = stmt.ColumnText(19)
	return task, nil
}

// --- Deltas ---

// DeltaFilter narrows ListDeltas. Zero-valued fields are not applied.
type DeltaFilter struct {
	// ToVersionID limits to deltas produced by one commit.
	ToVersionID int64

	// UnacknowledgedOnly drops deltas a reviewer has already
	// acknowledged.
	UnacknowledgedOnly bool

	// MinImpact drops deltas below a severity level.
	MinImpact schedule.ImpactLevel
}

// ListDeltas returns a source's deltas ordered most severe first,
// then by external ID — the same ordering the preview presents.
func (s *Store) ListDeltas(ctx context.Context, sourceID string, filter DeltaFilter) ([]schedule.Delta, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: list deltas: %w", err)
	}
	defer s.pool.Put(conn)

	conditions := []string{"source_id = ?"}
	args := []any{sourceID}

	if filter.ToVersionID != 0 {
		conditions = append(conditions, "to_version_id = ?")
		args = append(args, filter.ToVersionID)
	}
	if filter.UnacknowledgedOnly {
		conditions = append(conditions, "acknowledged = 0")
	}
	if filter.MinImpact > schedule.ImpactInfo {
		conditions = append(conditions, "impact_rank >= ?")
		args = append(args, int(filter.MinImpact))
	}

	query := `SELECT id, external_id, task_name, change, field_changed, old_value,
		new_value, variance_days, impact_rank, affects_critical_path,
		affects_milestone, acknowledged, acknowledged_at
		FROM deltas WHERE ` + strings.Join(conditions, " AND ") +
		" ORDER BY impact_rank DESC, external_id, id"

	var deltas []schedule.Delta
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			deltas = append(deltas, scanDelta(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ledger store: list deltas for %s: %w", sourceID, err)
	}
	return deltas, nil
}

func scanDelta(stmt *sqlite.Stmt) schedule.Delta {
	return schedule.Delta{
		ID:                  stmt.ColumnInt64(0),
		ExternalID:          stmt.ColumnText(1),
		TaskName:            stmt.ColumnText(2),
		Change:              schedule.ChangeType(stmt.ColumnText(3)),
		FieldChanged:        stmt.ColumnText(4),
		OldValue:            stmt.ColumnText(5),
		NewValue:            stmt.ColumnText(6),
		VarianceDays:        stmt.ColumnInt(7),
		Impact:              schedule.ImpactLevel(stmt.ColumnInt(8)),
		AffectsCriticalPath: stmt.ColumnInt(9) != 0,
		AffectsMilestone:    stmt.ColumnInt(10) != 0,
		Acknowledged:        stmt.ColumnInt(11) != 0,
		AcknowledgedAt:      columnTime(stmt, 12),
	}
}

// AcknowledgeDelta records a reviewer's acknowledgement. This is the
// only mutation a delta supports after commit.
func (s *Store) AcknowledgeDelta(ctx context.Context, deltaID int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ledger store: acknowledge delta: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"UPDATE deltas SET acknowledged = 1, acknowledged_at = ? WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{s.clock.Now().Unix(), deltaID}})
	if err != nil {
		return fmt.Errorf("ledger store: acknowledge delta %d: %w", deltaID, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: %d", ErrDeltaNotFound, deltaID)
	}
	return nil
}

// --- WBS mappings ---

// KnownWBSCodes returns the set of external codes already discovered
// for a source, mapped or not.
func (s *Store) KnownWBSCodes(ctx context.Context, sourceID string) (map[string]bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: known wbs codes: %w", err)
	}
	defer s.pool.Put(conn)

	known := make(map[string]bool)
	err = sqlitex.Execute(conn,
		"SELECT external_code FROM wbs_mappings WHERE source_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{sourceID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				known[stmt.ColumnText(0)] = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger store: known wbs codes for %s: %w", sourceID, err)
	}
	return known, nil
}

// ListWBSMappings returns a source's mappings, unmapped first, then
// by code.
func (s *Store) ListWBSMappings(ctx context.Context, sourceID string) ([]schedule.WBSMapping, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger store: list wbs mappings: %w", err)
	}
	defer s.pool.Put(conn)

	var mappings []schedule.WBSMapping
	err = sqlitex.Execute(conn,
		`SELECT id, source_id, external_code, display_name, unified_code, workstream,
			quality_gate, is_mapped, first_seen
		 FROM wbs_mappings WHERE source_id = ?
		 ORDER BY is_mapped, external_code`,
		&sqlitex.ExecOptions{
			Args: []any{sourceID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				mappings = append(mappings, schedule.WBSMapping{
					ID:           stmt.ColumnInt64(0),
					SourceID:     stmt.ColumnText(1),
					ExternalCode: stmt.ColumnText(2),
					DisplayName:  stmt.ColumnText(3),
					UnifiedCode:  stmt.ColumnText(4),
					Workstream:   stmt.ColumnText(5),
					QualityGate:  stmt.ColumnText(6),
					IsMapped:     stmt.ColumnInt(7) != 0,
					FirstSeen:    columnTime(stmt, 8),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger store: list wbs mappings for %s: %w", sourceID, err)
	}
	return mappings, nil
}

// MapWBSCode records the human curation decision for a discovered
// code: the unified code, workstream, and quality gate assignment.
func (s *Store) MapWBSCode(ctx context.Context, mappingID int64, unifiedCode, workstream, qualityGate string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ledger store: map wbs code: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE wbs_mappings SET unified_code = ?, workstream = ?, quality_gate = ?,
			is_mapped = 1 WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{unifiedCode, workstream, qualityGate, mappingID}})
	if err != nil {
		return fmt.Errorf("ledger store: map wbs code %d: %w", mappingID, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("ledger store: map wbs code %d: no such mapping", mappingID)
	}
	return nil
}

// --- Import files ---

// ReadImportFile returns the retained upload for a file reference,
// decompressed to its original bytes and verified against the stored
// digest.
func (s *Store) ReadImportFile(ctx context.Context, fileRef string) (name string, data []byte, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("ledger store: read import file: %w", err)
	}
	defer s.pool.Put(conn)

	var compressed []byte
	var storedDigest string
	var rawSize int
	found := false
	err = sqlitex.Execute(conn,
		"SELECT name, digest, raw_size, content FROM import_files WHERE ref = ?",
		&sqlitex.ExecOptions{
			Args: []any{fileRef},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				name = stmt.ColumnText(0)
				storedDigest = stmt.ColumnText(1)
				rawSize = stmt.ColumnInt(2)
				compressed = make([]byte, stmt.ColumnLen(3))
				stmt.ColumnBytes(3, compressed)
				found = true
				return nil
			},
		})
	if err != nil {
		return "", nil, fmt.Errorf("ledger store: read import file %s: %w", fileRef, err)
	}
	if !found {
		return "", nil, fmt.Errorf("ledger store: import file %s not found", fileRef)
	}

	data, err = zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawSize))
	if err != nil {
		return "", nil, fmt.Errorf("ledger store: decompress import file %s: %w", fileRef, err)
	}
	if len(data) != rawSize {
		return "", nil, fmt.Errorf("ledger store: import file %s: got %d bytes, expected %d",
			fileRef, len(data), rawSize)
	}

	want, err := binhash.ParseDigest(storedDigest)
	if err != nil {
		return "", nil, fmt.Errorf("ledger store: import file %s: stored digest: %w", fileRef, err)
	}
	if binhash.HashBytes(data) != want {
		return "", nil, fmt.Errorf("ledger store: import file %s: content does not match stored digest %s",
			fileRef, storedDigest)
	}
	return name, data, nil
}

// --- Column helpers ---

// timeArg converts a calendar date to its stored form: Unix seconds,
// or NULL for the zero time.
func timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

// columnTime reads a stored Unix-seconds column back to a UTC time,
// zero for NULL.
func columnTime(stmt *sqlite.Stmt, column int) time.Time {
	if stmt.ColumnIsNull(column) {
		return time.Time{}
	}
	return time.Unix(stmt.ColumnInt64(column), 0).UTC()
}

func boolArg(value bool) int {
	if value {
		return 1
	}
	return 0
}
