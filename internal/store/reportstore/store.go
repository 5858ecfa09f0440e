// Package reportstore persists backtest reports with gorm on sqlite.
package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradescope/internal/backtest"
	"tradescope/internal/decision"
	"tradescope/internal/executor"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("run not found")

// Run is a stored report header.
type Run struct {
	ID        string            `json:"id"`
	Label     string            `json:"label,omitempty"`
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	Bars      int               `json:"bars"`
	Warmup    int               `json:"warmup"`
	StartTime int64             `json:"start_time"`
	EndTime   int64             `json:"end_time"`
	CreatedAt time.Time         `json:"created_at"`
	Stats     backtest.Stats    `json:"stats"`
	Counters  backtest.Counters `json:"counters"`
	Config    json.RawMessage   `json:"config,omitempty"`
	Notes     []string          `json:"notes,omitempty"`
}

// ListOptions filters ListRuns. Zero values mean no filter.
type ListOptions struct {
	Symbol string
	Limit  int
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("report db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New migrates the schema on an existing connection.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&runModel{}, &tradeModel{}, &equityModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveReport stores rep under a new run id and returns it.
func (s *Store) SaveReport(ctx context.Context, label string, rep *backtest.Report) (string, error) {
	if rep == nil {
		return "", errors.New("report cannot be nil")
	}
	run, err := newRunModel(uuid.NewString(), label, rep, s.now())
	if err != nil {
		return "", err
	}
	trades := make([]tradeModel, 0, len(rep.Trades))
	for i, t := range rep.Trades {
		trades = append(trades, newTradeModel(run.ID, i, t))
	}
	equity := make([]equityModel, 0, len(rep.Equity))
	for _, p := range rep.Equity {
		equity = append(equity, equityModel{
			RunID: run.ID, BarIndex: p.Index, Time: p.Time,
			Realized: p.Realized, Unrealized: p.Unrealized, Equity: p.Equity, Drawdown: p.Drawdown,
		})
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(trades) > 0 {
			if err := tx.CreateInBatches(trades, 200).Error; err != nil {
				return err
			}
		}
		if len(equity) > 0 {
			if err := tx.CreateInBatches(equity, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save report %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	q := s.db.WithContext(ctx).Model(&runModel{}).Order("created_at DESC").Order("id")
	if sym := strings.TrimSpace(opts.Symbol); sym != "" {
		q = q.Where("symbol = ?", sym)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var rows []runModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun(false)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var row runModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	return row.toRun(true)
}

func (s *Store) Trades(ctx context.Context, id string) ([]executor.TradeResult, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	var rows []tradeModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", id).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]executor.TradeResult, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTrade()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) Equity(ctx context.Context, id string) ([]backtest.EquityPoint, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	var rows []equityModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", id).Order("bar_index").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]backtest.EquityPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, backtest.EquityPoint{
			Index: row.BarIndex, Time: row.Time, Realized: row.Realized,
			Unrealized: row.Unrealized, Equity: row.Equity, Drawdown: row.Drawdown,
		})
	}
	return out, nil
}

// DeleteRun removes a run with its trades and equity curve.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&runModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err := tx.Where("run_id = ?", id).Delete(&tradeModel{}).Error; err != nil {
			return err
		}
		return tx.Where("run_id = ?", id).Delete(&equityModel{}).Error
	})
}

func (s *Store) exists(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&runModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func newRunModel(id, label string, rep *backtest.Report, now time.Time) (runModel, error) {
	cfg, err := json.Marshal(rep.Config)
	if err != nil {
		return runModel{}, fmt.Errorf("encode config: %w", err)
	}
	stats, err := json.Marshal(rep.Stats)
	if err != nil {
		return runModel{}, fmt.Errorf("encode stats: %w", err)
	}
	counters, err := json.Marshal(rep.Counters)
	if err != nil {
		return runModel{}, fmt.Errorf("encode counters: %w", err)
	}
	notes, err := json.Marshal(rep.Notes)
	if err != nil {
		return runModel{}, fmt.Errorf("encode notes: %w", err)
	}
	return runModel{
		ID:             id,
		Label:          strings.TrimSpace(label),
		Symbol:         rep.Symbol,
		Timeframe:      rep.Timeframe,
		Bars:           rep.Bars,
		Warmup:         rep.Warmup,
		StartTime:      rep.StartTime,
		EndTime:        rep.EndTime,
		Trades:         rep.Stats.Trades,
		NetPnL:         rep.Stats.NetPnL,
		ReturnPct:      rep.Stats.ReturnPct,
		WinRate:        rep.Stats.WinRate,
		MaxDrawdownPct: rep.Stats.MaxDrawdownPct,
		ConfigJSON:     cfg,
		StatsJSON:      stats,
		CountersJSON:   counters,
		NotesJSON:      notes,
		CreatedAtUnix:  now.UnixMilli(),
	}, nil
}

func (m runModel) toRun(withConfig bool) (Run, error) {
	run := Run{
		ID:        m.ID,
		Label:     m.Label,
		Symbol:    m.Symbol,
		Timeframe: m.Timeframe,
		Bars:      m.Bars,
		Warmup:    m.Warmup,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		CreatedAt: time.UnixMilli(m.CreatedAtUnix).UTC(),
	}
	if len(m.StatsJSON) > 0 {
		if err := json.Unmarshal(m.StatsJSON, &run.Stats); err != nil {
			return Run{}, fmt.Errorf("run %s stats: %w", m.ID, err)
		}
	}
	if len(m.CountersJSON) > 0 {
		if err := json.Unmarshal(m.CountersJSON, &run.Counters); err != nil {
			return Run{}, fmt.Errorf("run %s counters: %w", m.ID, err)
		}
	}
	if len(m.NotesJSON) > 0 {
		if err := json.Unmarshal(m.NotesJSON, &run.Notes); err != nil {
			return Run{}, fmt.Errorf("run %s notes: %w", m.ID, err)
		}
	}
	if withConfig {
		run.Config = json.RawMessage(m.ConfigJSON)
	}
	return run, nil
}

func newTradeModel(runID string, seq int, t executor.TradeResult) tradeModel {
	return tradeModel{
		RunID: runID, Seq: seq,
		Direction:  t.Direction.String(),
		EntryIndex: t.EntryIndex, ExitIndex: t.ExitIndex,
		EntryTime: t.EntryTime, ExitTime: t.ExitTime,
		EntryPrice: t.EntryPrice, ExitPrice: t.ExitPrice,
		Size: t.Size, StopLoss: t.StopLoss, TakeProfit: t.TakeProfit,
		Reason: t.Reason.String(),
		PnL:    t.PnL, Fees: t.Fees, ReturnPct: t.ReturnPct,
		HoldingBars: t.HoldingBars, HoldingMs: t.HoldingMs,
	}
}

func (m tradeModel) toTrade() (executor.TradeResult, error) {
	var dir decision.Direction
	if err := dir.UnmarshalText([]byte(m.Direction)); err != nil {
		return executor.TradeResult{}, err
	}
	reason, err := executor.ParseExitReason(m.Reason)
	if err != nil {
		return executor.TradeResult{}, err
	}
	return executor.TradeResult{
		Direction: dir, EntryIndex: m.EntryIndex, ExitIndex: m.ExitIndex,
		EntryTime: m.EntryTime, ExitTime: m.ExitTime,
		EntryPrice: m.EntryPrice, ExitPrice: m.ExitPrice,
		Size: m.Size, StopLoss: m.StopLoss, TakeProfit: m.TakeProfit,
		Reason: reason, PnL: m.PnL, Fees: m.Fees, ReturnPct: m.ReturnPct,
		HoldingBars: m.HoldingBars, HoldingMs: m.HoldingMs,
	}, nil
}
