package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"tradebot/internal/backtest"
	"tradebot/internal/repository"
	"tradebot/internal/strategy"
	"tradebot/internal/types"
)

// BacktestHandler replays a strategy over cached candles and persists the
// summary, backing the command surface's run_backtest operation.
type BacktestHandler struct {
	repo  *repository.Repository
	strat strategy.Strategy
}

// NewBacktestHandler wires a BacktestHandler to the repository's candle
// cache and the strategy the live coordinator is also running.
func NewBacktestHandler(repo *repository.Repository, strat strategy.Strategy) *BacktestHandler {
	return &BacktestHandler{repo: repo, strat: strat}
}

// Run handles POST /api/v1/backtest?pair=BTC/USDT&timeframe=1h&limit=1000&stake=100.
// It replays the configured strategy over the repository's cached candles
// for (pair, timeframe) and persists the resulting summary.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pair := q.Get("pair")
	if pair == "" {
		writeError(w, http.StatusBadRequest, "pair is required", errMissingParam("pair"))
		return
	}
	tf := types.Timeframe(q.Get("timeframe"))
	if !tf.Valid() {
		writeError(w, http.StatusBadRequest, "timeframe is invalid", errMissingParam("timeframe"))
		return
	}

	limit := 500
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	stake := decimal.NewFromInt(100)
	if v := q.Get("stake"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			stake = d
		}
	}
	commission := decimal.NewFromFloat(0.001)
	if v := q.Get("commission"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			commission = d
		}
	}

	candles, err := h.repo.GetKlines(pair, tf, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load candles", err)
		return
	}

	engine := backtest.New(backtest.Config{
		Pair:        pair,
		Timeframe:   tf,
		StakeAmount: stake,
		Commission:  commission,
	}, h.strat, candles)

	result, err := engine.Run()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "backtest run failed", err)
		return
	}

	if _, err := h.repo.SaveBacktestResult(result, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save backtest result", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// List handles GET /api/v1/backtest.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.repo.GetBacktestResults()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backtest results", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type missingParamError string

func (e missingParamError) Error() string { return "missing or invalid query parameter: " + string(e) }

func errMissingParam(name string) error { return missingParamError(name) }
