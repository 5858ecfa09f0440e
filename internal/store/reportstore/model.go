package reportstore

import (
	"gorm.io/datatypes"
)

type runModel struct {
	ID             string         `gorm:"column:id;primaryKey"`
	Label          string         `gorm:"column:label"`
	Symbol         string         `gorm:"column:symbol;index"`
	Timeframe      string         `gorm:"column:timeframe"`
	Bars           int            `gorm:"column:bars"`
	Warmup         int            `gorm:"column:warmup"`
	StartTime      int64          `gorm:"column:start_time"`
	EndTime        int64          `gorm:"column:end_time"`
	Trades         int            `gorm:"column:trades"`
	NetPnL         float64        `gorm:"column:net_pnl"`
	ReturnPct      float64        `gorm:"column:return_pct"`
	WinRate        float64        `gorm:"column:win_rate"`
	MaxDrawdownPct float64        `gorm:"column:max_drawdown_pct"`
	ConfigJSON     datatypes.JSON `gorm:"column:config_json;type:TEXT"`
	StatsJSON      datatypes.JSON `gorm:"column:stats_json;type:TEXT"`
	CountersJSON   datatypes.JSON `gorm:"column:counters_json;type:TEXT"`
	NotesJSON      datatypes.JSON `gorm:"column:notes_json;type:TEXT"`
	CreatedAtUnix  int64          `gorm:"column:created_at;index"`
}

func (runModel) TableName() string { return "backtest_runs" }

type tradeModel struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       string  `gorm:"column:run_id;index:idx_trade_run,priority:1"`
	Seq         int     `gorm:"column:seq;index:idx_trade_run,priority:2"`
	Direction   string  `gorm:"column:direction"`
	EntryIndex  int     `gorm:"column:entry_index"`
	ExitIndex   int     `gorm:"column:exit_index"`
	EntryTime   int64   `gorm:"column:entry_time"`
	ExitTime    int64   `gorm:"column:exit_time"`
	EntryPrice  float64 `gorm:"column:entry_price"`
	ExitPrice   float64 `gorm:"column:exit_price"`
	Size        float64 `gorm:"column:size"`
	StopLoss    float64 `gorm:"column:stop_loss"`
	TakeProfit  float64 `gorm:"column:take_profit"`
	Reason      string  `gorm:"column:reason"`
	PnL         float64 `gorm:"column:pnl"`
	Fees        float64 `gorm:"column:fees"`
	ReturnPct   float64 `gorm:"column:return_pct"`
	HoldingBars int     `gorm:"column:holding_bars"`
	HoldingMs   int64   `gorm:"column:holding_ms"`
}

func (tradeModel) TableName() string { return "backtest_trades" }

type equityModel struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string  `gorm:"column:run_id;index:idx_equity_run,priority:1"`
	BarIndex   int     `gorm:"column:bar_index;index:idx_equity_run,priority:2"`
	Time       int64   `gorm:"column:time"`
	Realized   float64 `gorm:"column:realized"`
	Unrealized float64 `gorm:"column:unrealized"`
	Equity     float64 `gorm:"column:equity"`
	Drawdown   float64 `gorm:"column:drawdown"`
}

func (equityModel) TableName() string { return "backtest_equity" }
