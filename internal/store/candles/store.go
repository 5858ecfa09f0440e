// Package candles is an on-disk candle cache: one sqlite file per
// symbol@timeframe under a root directory.
package candles

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tradescope/internal/market"
	"tradescope/internal/pkg/symbol"

	_ "modernc.org/sqlite"
)

// Manifest describes one cached symbol@timeframe file.
type Manifest struct {
	Symbol     string `json:"symbol"`
	Timeframe  string `json:"timeframe"`
	MinTime    int64  `json:"min_time"`
	MaxTime    int64  `json:"max_time"`
	Rows       int64  `json:"rows"`
	LastSyncAt int64  `json:"last_sync_at"`
	Path       string `json:"path"`
}

type Store struct {
	root string
	now  func() time.Time

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

var _ market.Provider = (*Store)(nil)

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("candle cache root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, now: time.Now, dbs: make(map[string]*sql.DB)}, nil
}

// WithClock replaces the clock used to resolve lookback windows.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) Name() string { return "cache" }

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for k, db := range s.dbs {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, k)
	}
	return firstErr
}

func (s *Store) db(sym, timeframe string) (*sql.DB, string, error) {
	if sym == "" || timeframe == "" {
		return nil, "", fmt.Errorf("symbol and timeframe are required")
	}
	key := dirName(sym) + "@" + strings.ToLower(timeframe)
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[key]; ok && db != nil {
		return db, s.dbPath(sym, timeframe), nil
	}
	path := s.dbPath(sym, timeframe)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", err
	}
	db, err := open(path)
	if err != nil {
		return nil, "", err
	}
	if err := ensureSchema(db, symbol.Normalize(sym), timeframe); err != nil {
		_ = db.Close()
		return nil, "", err
	}
	s.dbs[key] = db
	return db, path, nil
}

func open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func (s *Store) dbPath(sym, timeframe string) string {
	return filepath.Join(s.root, dirName(sym), strings.ToLower(timeframe)+".db")
}

// dirName keeps the slash of BASE/QUOTE out of the file system.
func dirName(sym string) string {
	if b := symbol.Parse(sym).Binance(); b != "" {
		return b
	}
	return strings.ToUpper(strings.ReplaceAll(sym, "/", ""))
}

// InsertCandles upserts bars keyed by open time.
func (s *Store) InsertCandles(ctx context.Context, sym, timeframe string, bars []market.Candle) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	db, _, err := s.db(sym, timeframe)
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (open_time, close_time, open, high, low, close, volume, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(open_time) DO UPDATE SET
		    close_time=excluded.close_time,
		    open=excluded.open,
		    high=excluded.high,
		    low=excluded.low,
		    close=excluded.close,
		    volume=excluded.volume,
		    trades=excluded.trades`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()
	count := 0
	for _, c := range bars {
		if _, err := stmt.ExecContext(ctx, c.OpenTime, c.CloseTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.Trades); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if err := s.refreshManifest(ctx, db); err != nil {
		return count, err
	}
	return count, nil
}

// RangeCandles returns bars whose open time lies in [start, end], ascending.
func (s *Store) RangeCandles(ctx context.Context, sym, timeframe string, start, end int64) ([]market.Candle, error) {
	if end < start {
		start, end = end, start
	}
	db, _, err := s.db(sym, timeframe)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT open_time, close_time, open, high, low, close, volume, trades
		FROM candles
		WHERE open_time BETWEEN ? AND ?
		ORDER BY open_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Trades); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Fetch serves a lookback window from the cache. A window with any missing
// bar is reported as not found so callers fall through to a live source.
func (s *Store) Fetch(ctx context.Context, sym, timeframe string, lookbackDays int) (*market.Series, error) {
	tf, err := market.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	start, end := tf.LookbackRange(s.now(), lookbackDays)
	// the bar opening at end is still forming
	end -= tf.Duration.Milliseconds()
	if end < start {
		return nil, fmt.Errorf("%w: empty lookback window for %s@%s", market.ErrNotFound, sym, tf.Key)
	}
	bars, err := s.RangeCandles(ctx, sym, tf.Key, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: cache read %s@%s: %v", market.ErrUnavailable, sym, tf.Key, err)
	}
	if len(bars) == 0 || int64(len(bars)) < tf.ExpectedCandles(start, end) {
		return nil, fmt.Errorf("%w: cache has %d of %d bars for %s@%s",
			market.ErrNotFound, len(bars), tf.ExpectedCandles(start, end), sym, tf.Key)
	}
	return market.NewSeries(symbol.Normalize(sym), tf.Key, bars)
}

// Put writes a whole series into the cache.
func (s *Store) Put(ctx context.Context, series *market.Series) (int, error) {
	return s.InsertCandles(ctx, series.Symbol(), series.Timeframe(), series.Candles())
}

func (s *Store) Manifest(ctx context.Context, sym, timeframe string) (Manifest, error) {
	db, path, err := s.db(sym, timeframe)
	if err != nil {
		return Manifest{}, err
	}
	row := db.QueryRowContext(ctx, `SELECT symbol,timeframe,min_time,max_time,rows,last_sync_at FROM manifest WHERE id=1`)
	var (
		m          Manifest
		minT, maxT sql.NullInt64
		lastSync   sql.NullInt64
	)
	if err := row.Scan(&m.Symbol, &m.Timeframe, &minT, &maxT, &m.Rows, &lastSync); err != nil {
		return Manifest{}, err
	}
	m.MinTime, m.MaxTime, m.LastSyncAt = minT.Int64, maxT.Int64, lastSync.Int64
	m.Path = path
	return m, nil
}

// Manifests lists every cached dataset under the root.
func (s *Store) Manifests(ctx context.Context) ([]Manifest, error) {
	files, err := filepath.Glob(filepath.Join(s.root, "*", "*.db"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]Manifest, 0, len(files))
	for _, f := range files {
		sym := filepath.Base(filepath.Dir(f))
		tf := strings.TrimSuffix(filepath.Base(f), ".db")
		if _, err := market.ParseTimeframe(tf); err != nil {
			continue
		}
		m, err := s.Manifest(ctx, sym, tf)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", f, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) refreshManifest(ctx context.Context, db *sql.DB) error {
	now := s.now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		UPDATE manifest
		SET min_time = (SELECT COALESCE(MIN(open_time), 0) FROM candles),
		    max_time = (SELECT COALESCE(MAX(open_time), 0) FROM candles),
		    rows = (SELECT COUNT(1) FROM candles),
		    last_sync_at = ?
		WHERE id = 1`, now)
	return err
}

func ensureSchema(db *sql.DB, sym, timeframe string) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			open_time  INTEGER PRIMARY KEY,
			close_time INTEGER NOT NULL,
			open       REAL NOT NULL,
			high       REAL NOT NULL,
			low        REAL NOT NULL,
			close      REAL NOT NULL,
			volume     REAL NOT NULL,
			trades     INTEGER DEFAULT 0,
			inserted_at INTEGER NOT NULL DEFAULT (strftime('%s','now') * 1000)
		);`,
		`CREATE TABLE IF NOT EXISTS manifest (
			id INTEGER PRIMARY KEY CHECK (id=1),
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			min_time INTEGER,
			max_time INTEGER,
			rows INTEGER DEFAULT 0,
			last_sync_at INTEGER
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT INTO manifest (id, symbol, timeframe) VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING;`, sym, strings.ToLower(timeframe))
	return err
}
