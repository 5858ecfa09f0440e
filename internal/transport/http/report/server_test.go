package reporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradescope/internal/backtest"
	"tradescope/internal/executor"
	"tradescope/internal/store/candles"
	"tradescope/internal/store/reportstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRuns struct {
	mock.Mock
}

func (m *mockRuns) ListRuns(ctx context.Context, opts reportstore.ListOptions) ([]reportstore.Run, error) {
	args := m.Called(opts)
	runs, _ := args.Get(0).([]reportstore.Run)
	return runs, args.Error(1)
}

func (m *mockRuns) GetRun(ctx context.Context, id string) (reportstore.Run, error) {
	args := m.Called(id)
	run, _ := args.Get(0).(reportstore.Run)
	return run, args.Error(1)
}

func (m *mockRuns) Trades(ctx context.Context, id string) ([]executor.TradeResult, error) {
	args := m.Called(id)
	trades, _ := args.Get(0).([]executor.TradeResult)
	return trades, args.Error(1)
}

func (m *mockRuns) Equity(ctx context.Context, id string) ([]backtest.EquityPoint, error) {
	args := m.Called(id)
	points, _ := args.Get(0).([]backtest.EquityPoint)
	return points, args.Error(1)
}

type staticDatasets []candles.Manifest

func (d staticDatasets) Manifests(context.Context) ([]candles.Manifest, error) { return d, nil }

func newTestServer(t *testing.T, runs *mockRuns) *Server {
	t.Helper()
	srv, err := NewServer(Config{Runs: runs, Datasets: staticDatasets{{Symbol: "BTC/USDT", Timeframe: "1h", Rows: 10}}})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := get(t, newTestServer(t, &mockRuns{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestRunList(t *testing.T) {
	runs := &mockRuns{}
	runs.On("ListRuns", reportstore.ListOptions{Symbol: "BTC/USDT", Limit: 5}).
		Return([]reportstore.Run{{ID: "a", Symbol: "BTC/USDT"}}, nil)
	srv := newTestServer(t, runs)

	rec, body := get(t, srv, "/api/runs?symbol=BTC/USDT&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []reportstore.Run
	require.NoError(t, json.Unmarshal(body["runs"], &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	runs.AssertExpectations(t)

	rec, _ = get(t, srv, "/api/runs?limit=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunDetailAndChildren(t *testing.T) {
	runs := &mockRuns{}
	runs.On("GetRun", "r1").Return(reportstore.Run{ID: "r1", Stats: backtest.Stats{Trades: 1}}, nil)
	runs.On("Trades", "r1").Return([]executor.TradeResult{{Reason: executor.ExitStop, PnL: -3}}, nil)
	runs.On("Equity", "r1").Return([]backtest.EquityPoint{{Index: 5, Realized: -3}}, nil)
	srv := newTestServer(t, runs)

	rec, body := get(t, srv, "/api/runs/r1")
	require.Equal(t, http.StatusOK, rec.Code)
	var run reportstore.Run
	require.NoError(t, json.Unmarshal(body["run"], &run))
	assert.Equal(t, 1, run.Stats.Trades)

	rec, body = get(t, srv, "/api/runs/r1/trades")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body["trades"]), `"reason":"stop"`)

	rec, body = get(t, srv, "/api/runs/r1/equity")
	require.Equal(t, http.StatusOK, rec.Code)
	var points []backtest.EquityPoint
	require.NoError(t, json.Unmarshal(body["equity"], &points))
	assert.Equal(t, []backtest.EquityPoint{{Index: 5, Realized: -3}}, points)
}

func TestRunErrors(t *testing.T) {
	runs := &mockRuns{}
	runs.On("GetRun", "missing").Return(nil, fmt.Errorf("%w: missing", reportstore.ErrNotFound))
	runs.On("Trades", "broken").Return(nil, errors.New("disk on fire"))
	srv := newTestServer(t, runs)

	rec, _ := get(t, srv, "/api/runs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := get(t, srv, "/api/runs/broken/trades")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, string(body["error"]), "fire")
}

func TestDatasets(t *testing.T) {
	rec, body := get(t, newTestServer(t, &mockRuns{}), "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body["datasets"]), `"symbol":"BTC/USDT"`)
}

func TestNewServerNeedsRuns(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}
