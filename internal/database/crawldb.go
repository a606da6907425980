package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/maxtract/internal/model"
)

// DBFileName is the name of the SQLite file created inside the database directory.
const DBFileName = "maxtract.db"

var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrDigestMismatch is returned when a stored graph no longer hashes to
	// the digest recorded with its run.
	ErrDigestMismatch = errors.New("stored graph does not match its digest")
)

// RunDB stores the graphs of completed crawls in a single SQLite file.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Run describes one stored crawl.
type Run struct {
	// ID is assigned by SaveRun.
	ID int64

	// Root is the address the crawl started from.
	Root string

	// Pattern is the regular expression that produced the matches.
	Pattern string

	// MaxDepth is the depth limit of the crawl, -1 when unlimited.
	MaxDepth int

	// Timestamp is when the crawl finished. SaveRun uses the current time
	// when it is zero.
	Timestamp time.Time

	// PageCount and MatchCount summarize the stored graph.
	PageCount  int
	MatchCount int

	// Digest is the hex SHA3-256 of the graph's JSON form.
	Digest string
}

// Open opens or creates a RunDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl with --save first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the location of the database file.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		pattern TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		page_count INTEGER NOT NULL,
		match_count INTEGER NOT NULL,
		digest TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);

	CREATE TABLE IF NOT EXISTS nodes (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		address TEXT NOT NULL,
		matches TEXT NOT NULL,
		children TEXT NOT NULL,
		PRIMARY KEY (run_id, address)
	);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// Digest returns the hex SHA3-256 of the graph's JSON form. Equal graphs
// always produce equal digests.
func Digest(graph *model.Graph) (string, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return "", fmt.Errorf("failed to encode graph: %w", err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SaveRun stores graph together with the run metadata in one transaction.
// The returned Run carries the assigned ID, counts and digest.
func (rdb *RunDB) SaveRun(ctx context.Context, run Run, graph *model.Graph) (Run, error) {
	digest, err := Digest(graph)
	if err != nil {
		return Run{}, err
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
	run.Timestamp = run.Timestamp.UTC()
	run.PageCount = graph.Len()
	run.MatchCount = graph.MatchCount()
	run.Digest = digest

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (root, pattern, max_depth, timestamp, page_count, match_count, digest)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Root, run.Pattern, run.MaxDepth, run.Timestamp.Format(time.RFC3339Nano),
		run.PageCount, run.MatchCount, run.Digest)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	run.ID, err = result.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO nodes (run_id, address, matches, children) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer stmt.Close()

	for addr, sn := range graph.Serialize() {
		matches, err := json.Marshal(sn.Matches)
		if err != nil {
			return Run{}, fmt.Errorf("failed to encode matches of %s: %w", addr, err)
		}
		children, err := json.Marshal(sn.Children)
		if err != nil {
			return Run{}, fmt.Errorf("failed to encode children of %s: %w", addr, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, addr, string(matches), string(children)); err != nil {
			return Run{}, fmt.Errorf("failed to insert node %s: %w", addr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

const runColumns = `id, root, pattern, max_depth, timestamp, page_count, match_count, digest`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var timestamp string
	if err := row.Scan(&run.ID, &run.Root, &run.Pattern, &run.MaxDepth, &timestamp,
		&run.PageCount, &run.MatchCount, &run.Digest); err != nil {
		return Run{}, err
	}
	run.Timestamp = parseTimestamp(timestamp)
	return run, nil
}

// ListRuns returns stored runs, newest first. An empty root lists every run;
// otherwise only runs started from that root are returned.
func (rdb *RunDB) ListRuns(ctx context.Context, root string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY id DESC`

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the metadata of one run.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (Run, error) {
	row := rdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the most recent run for root. ok is false when root
// has never been stored.
func (rdb *RunDB) LatestRun(ctx context.Context, root string) (run Run, ok bool, err error) {
	row := rdb.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE root = ? ORDER BY id DESC LIMIT 1`, root)
	run, err = scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, true, nil
}

// LoadGraph rebuilds the graph stored with run id and checks it against the
// recorded digest.
func (rdb *RunDB) LoadGraph(ctx context.Context, id int64) (Run, *model.Graph, error) {
	run, err := rdb.GetRun(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := rdb.db.QueryContext(ctx,
		`SELECT address, matches, children FROM nodes WHERE run_id = ?`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	defer rows.Close()

	nodes := make(map[string]model.SerializedNode)
	for rows.Next() {
		var sn model.SerializedNode
		var matches, children string
		if err := rows.Scan(&sn.Address, &matches, &children); err != nil {
			return Run{}, nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if err := json.Unmarshal([]byte(matches), &sn.Matches); err != nil {
			return Run{}, nil, fmt.Errorf("failed to parse matches of %s: %w", sn.Address, err)
		}
		if err := json.Unmarshal([]byte(children), &sn.Children); err != nil {
			return Run{}, nil, fmt.Errorf("failed to parse children of %s: %w", sn.Address, err)
		}
		nodes[sn.Address] = sn
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("failed to load nodes: %w", err)
	}

	graph, err := model.GraphFromSerialized(nodes)
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to rebuild graph of run %d: %w", id, err)
	}

	digest, err := Digest(graph)
	if err != nil {
		return Run{}, nil, err
	}
	if digest != run.Digest {
		return Run{}, nil, fmt.Errorf("%w: run %d", ErrDigestMismatch, id)
	}
	return run, graph, nil
}

// DeleteRun removes a run and its nodes.
func (rdb *RunDB) DeleteRun(ctx context.Context, id int64) error {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete nodes: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return tx.Commit()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
