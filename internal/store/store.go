// Package store keeps a history of generated and scored palettes in DuckDB.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS palettes (
    id VARCHAR PRIMARY KEY,
    kind VARCHAR,
    requested_size INTEGER,
    achieved_size INTEGER,
    colors VARCHAR,
    weights VARCHAR,
    min_de DOUBLE,
    min_nd DOUBLE,
    min_nu DOUBLE,
    min_pp DOUBLE,
    created_at TIMESTAMP
);
`

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("palette not found")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("store closed")

// Kind tells how a palette entered the history.
type Kind string

const (
	KindMade   Kind = "make"
	KindScored Kind = "score"
)

// Record is one history entry.
type Record struct {
	ID            string             `json:"id"`
	Kind          Kind               `json:"kind"`
	RequestedSize int                `json:"requestedSize"`
	Colors        palette.Palette    `json:"colors"`
	Weights       palette.Weights    `json:"weights"`
	MinScores     *palette.MinScores `json:"minScores,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// Store is a DuckDB-backed palette history. Writes queued with Enqueue are
// applied by a single background goroutine.
type Store struct {
	db   *sql.DB
	path string

	queue chan Record
	wg    sync.WaitGroup
	done  chan struct{}
	once  sync.Once

	// mu orders sends on queue before close(done) so the writer's final
	// drain sees every accepted record.
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the history database at path and starts the
// background writer.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	if _, err := db.Exec("SET enable_external_access=false"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set security settings: %w", err)
	}

	s := &Store{
		db:    db,
		path:  path,
		queue: make(chan Record, 64),
		done:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writer()
	return s, nil
}

// Save writes rec immediately, assigning an ID and timestamp when unset.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	rec = stamp(rec)
	colors, err := json.Marshal(rec.Colors)
	if err != nil {
		return Record{}, fmt.Errorf("encode colors: %w", err)
	}
	weights, err := json.Marshal(rec.Weights)
	if err != nil {
		return Record{}, fmt.Errorf("encode weights: %w", err)
	}

	var de, nd, nu, pp sql.NullFloat64
	if m := rec.MinScores; m != nil {
		de = sql.NullFloat64{Float64: m.DE, Valid: true}
		nd = sql.NullFloat64{Float64: m.ND, Valid: true}
		nu = sql.NullFloat64{Float64: m.NU, Valid: true}
		pp = sql.NullFloat64{Float64: m.PP, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO palettes (id, kind, requested_size, achieved_size, colors, weights, min_de, min_nd, min_nu, min_pp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Kind), rec.RequestedSize, len(rec.Colors), string(colors), string(weights),
		de, nd, nu, pp, rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert palette %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Enqueue hands rec to the background writer. It returns the stamped record
// without waiting for the write. Records accepted before Close are always
// written.
func (s *Store) Enqueue(ctx context.Context, rec Record) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrClosed
	}

	rec = stamp(rec)
	select {
	case s.queue <- rec:
		return rec, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func stamp(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

// writer is the single goroutine that drains the queue.
func (s *Store) writer() {
	defer s.wg.Done()
	for {
		select {
		case rec := <-s.queue:
			s.write(rec)
		case <-s.done:
			for {
				select {
				case rec := <-s.queue:
					s.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) write(rec Record) {
	if _, err := s.Save(context.Background(), rec); err != nil {
		applog.Log.Error("Failed to record palette", "id", rec.ID, "error", err)
		return
	}
	applog.Log.Debug("Recorded palette", "id", rec.ID, "kind", rec.Kind, "colors", len(rec.Colors))
}

const selectRecord = `SELECT id, kind, requested_size, colors, weights, min_de, min_nd, min_nu, min_pp, created_at FROM palettes`

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRecord+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query palettes: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM palettes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count palettes: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec             Record
		kind            string
		colors, weights string
		de, nd, nu, pp  sql.NullFloat64
	)
	if err := sc.Scan(&rec.ID, &kind, &rec.RequestedSize, &colors, &weights, &de, &nd, &nu, &pp, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan palette: %w", err)
	}
	rec.Kind = Kind(kind)
	if err := json.Unmarshal([]byte(colors), &rec.Colors); err != nil {
		return Record{}, fmt.Errorf("decode colors of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(weights), &rec.Weights); err != nil {
		return Record{}, fmt.Errorf("decode weights of %s: %w", rec.ID, err)
	}
	if de.Valid {
		rec.MinScores = &palette.MinScores{DE: de.Float64, ND: nd.Float64, NU: nu.Float64, PP: pp.Float64}
	}
	return rec, nil
}

// Close stops the background writer, flushing queued records, and closes
// the database.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
	})
	s.wg.Wait()
	return s.db.Close()
}
