// Package bot implements the trading coordinator: the loop that drives the
// configured pairs through the exchange and strategy ports, gated by the
// protection pipeline and backed by the repository.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/boterr"
	"tradebot/internal/config"
	"tradebot/internal/exchange"
	"tradebot/internal/protection"
	"tradebot/internal/repository"
	"tradebot/internal/strategy"
	"tradebot/internal/types"
	"tradebot/pkg/utils"
)

const defaultCandleWindow = 500

// Coordinator owns the bot's status cell and drives one loop iteration per
// configured pair, consulting the protection pipeline before acting and
// persisting every outcome through the repository: single-exchange polling,
// no price shards, no worker pools keyed by symbol, just a bounded per-pair
// fan-out.
type Coordinator struct {
	cfg         *config.Config
	exch        exchange.Exchange
	strat       strategy.Strategy
	repo        *repository.Repository
	protections *protection.Manager
	logger      *utils.Logger

	mu          sync.RWMutex
	status      types.BotStatus
	openTrades  []types.Trade
	lastUpdate  time.Time
	currentPair string
	dryBalance  decimal.Decimal

	stopCh chan struct{}
}

// NewCoordinator wires the coordinator's collaborators. The dry-run wallet
// balance is seeded from cfg.Bot.DryRunWallet and only ever consulted when
// cfg.Bot.DryRun is true.
func NewCoordinator(cfg *config.Config, exch exchange.Exchange, strat strategy.Strategy, repo *repository.Repository, protections *protection.Manager) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		exch:        exch,
		strat:       strat,
		repo:        repo,
		protections: protections,
		logger:      utils.GetGlobalLogger().WithComponent("coordinator"),
		status:      types.BotStopped,
		dryBalance:  decimal.NewFromFloat(cfg.Bot.DryRunWallet),
	}
}

// Start transitions stopped -> running and launches the loop in the
// background. It is idempotent only while stopped; called again while
// running it fails with a Bot-kind AlreadyRunning error.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.status == types.BotRunning {
		c.mu.Unlock()
		return boterr.New(boterr.Bot, "coordinator already running")
	}
	if !types.CanTransition(c.status, types.BotRunning) {
		c.mu.Unlock()
		return boterr.Newf(boterr.Bot, "cannot start from status %q", c.status)
	}
	c.status = types.BotRunning
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	setBotStatus(string(types.BotRunning), allBotStatuses)
	go c.run(ctx)
	return nil
}

// Stop flips status to stopped; the loop observes this at its next await
// point (iteration boundary or sleep).
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == types.BotStopped {
		return nil
	}
	if !types.CanTransition(c.status, types.BotStopped) {
		return boterr.Newf(boterr.Bot, "cannot stop from status %q", c.status)
	}
	c.status = types.BotStopped
	close(c.stopCh)
	setBotStatus(string(types.BotStopped), allBotStatuses)
	return nil
}

// Pause suspends processing without tearing down the loop goroutine.
func (c *Coordinator) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !types.CanTransition(c.status, types.BotPaused) {
		return boterr.Newf(boterr.Bot, "cannot pause from status %q", c.status)
	}
	c.status = types.BotPaused
	setBotStatus(string(types.BotPaused), allBotStatuses)
	return nil
}

// Resume transitions paused -> running; the loop resumes processing at its
// next check.
func (c *Coordinator) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !types.CanTransition(c.status, types.BotRunning) {
		return boterr.Newf(boterr.Bot, "cannot resume from status %q", c.status)
	}
	c.status = types.BotRunning
	setBotStatus(string(types.BotRunning), allBotStatuses)
	return nil
}

var allBotStatuses = []string{string(types.BotStopped), string(types.BotRunning), string(types.BotPaused), string(types.BotError)}

// GetStatus returns a snapshot of the coordinator's state. It never touches
// the repository directly: openTrades is refreshed once per loop iteration
// so a status read never blocks on I/O.
func (c *Coordinator) GetStatus() types.BotState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	open := make([]types.Trade, len(c.openTrades))
	copy(open, c.openTrades)
	return types.BotState{
		Status:      c.status,
		OpenTrades:  open,
		LastUpdate:  c.lastUpdate,
		CurrentPair: c.currentPair,
	}
}

func (c *Coordinator) getStatus() types.BotStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Coordinator) transitionError(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !types.CanTransition(c.status, types.BotError) {
		return
	}
	c.status = types.BotError
	c.logger.Error("coordinator entering error state", utils.String("reason", reason))
	setBotStatus(string(types.BotError), allBotStatuses)
}

func (c *Coordinator) transitionStoppedLocked(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == types.BotStopped {
		return
	}
	c.status = types.BotStopped
	c.logger.Info("coordinator stopping", utils.String("reason", reason))
	setBotStatus(string(types.BotStopped), allBotStatuses)
}

// run is the main loop: global protection check, bounded per-pair fan-out,
// then a sleep whose length depends on process_only_new_candles.
func (c *Coordinator) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.transitionStoppedLocked("context cancelled")
			return
		case <-c.stopCh:
			return
		default:
		}

		if c.getStatus() == types.BotPaused {
			if !c.sleepOrStop(ctx, time.Second) {
				return
			}
			continue
		}

		now := time.Now().UTC()
		allTrades, err := c.repo.GetAllTrades()
		if err != nil {
			c.logger.Error("failed to load trade history", utils.Err(err))
			c.transitionError("trade history unavailable")
			return
		}

		if lock := c.protections.CheckGlobalStop(now, allTrades); lock != nil {
			recordProtectionVeto("global")
			c.logger.Warn("global protection stop",
				utils.String("reason", lock.Reason), utils.State(string(types.BotStopped)))
			c.transitionStoppedLocked(lock.Reason)
			return
		}

		open := openTradesOf(allTrades)
		c.mu.Lock()
		c.openTrades = open
		c.lastUpdate = now
		c.mu.Unlock()
		setOpenTrades(len(open))

		c.runIteration(ctx, open)
		recordIteration()

		if !c.sleepOrStop(ctx, c.iterationSleep()) {
			return
		}
	}
}

func openTradesOf(trades []types.Trade) []types.Trade {
	out := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsOpen {
			out = append(out, t)
		}
	}
	return out
}

// runIteration fans process_pair out across the configured pairs, bounded
// at max_open_trades + the current open-trade count so a burst of entries
// cannot spawn unbounded concurrent exchange calls.
func (c *Coordinator) runIteration(ctx context.Context, open []types.Trade) {
	pairs := c.cfg.Bot.Pairs
	if len(pairs) == 0 {
		return
	}

	bound := c.cfg.Bot.MaxOpenTrades + len(open)
	if bound < 1 {
		bound = 1
	}
	sem := make(chan struct{}, bound)

	var wg sync.WaitGroup
	for _, pair := range pairs {
		pair := pair
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			c.mu.Lock()
			c.currentPair = pair
			c.mu.Unlock()

			start := time.Now()
			if err := c.processPair(ctx, pair, open); err != nil {
				recordPairError(pair)
				c.logger.Error("pair iteration failed",
					utils.String("pair", pair), utils.Err(err))
			}
			pairIterationLatency.WithLabelValues(pair).Observe(time.Since(start).Seconds())
		}()
	}
	wg.Wait()
}

func (c *Coordinator) iterationSleep() time.Duration {
	if !c.cfg.Bot.ProcessOnlyNewCandles {
		return time.Second
	}
	d, err := c.cfg.StrategyTimeframeDuration()
	if err != nil {
		return time.Second
	}
	return d
}

// sleepOrStop waits for d, returning false if the coordinator was stopped or
// the context was cancelled during the wait.
func (c *Coordinator) sleepOrStop(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		c.transitionStoppedLocked("context cancelled")
		return false
	case <-c.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// processPair runs one pair through the full candle-fetch -> open-trade
// check -> sell decision -> buy decision sequence, in that order. open is
// the iteration's open-trade snapshot, shared read-only across every pair's
// goroutine.
func (c *Coordinator) processPair(ctx context.Context, pair string, open []types.Trade) error {
	tf := types.Timeframe(c.cfg.Strategy.Timeframe)

	candles, err := c.exch.FetchOHLCV(ctx, pair, tf, defaultCandleWindow)
	recordExchangeRequest("fetch_ohlcv", err)
	if err != nil {
		return boterr.Wrapf(boterr.Exchange, err, "fetch candles for %s", pair)
	}
	if len(candles) == 0 {
		return nil
	}
	lastIdx := len(candles) - 1
	now := time.Now().UTC()

	window := strategy.NewWindow(candles)
	if err := c.strat.PopulateIndicators(window); err != nil {
		return boterr.Wrapf(boterr.Strategy, err, "populate indicators for %s", pair)
	}

	var openTrade *types.Trade
	for i := range open {
		if open[i].Pair == pair && open[i].Strategy == c.cfg.Strategy.Name {
			openTrade = &open[i]
			break
		}
	}

	exited, err := c.tryExit(ctx, pair, now, window, lastIdx, openTrade)
	if err != nil {
		return err
	}
	if exited {
		return nil
	}

	if len(open) >= c.cfg.Bot.MaxOpenTrades || openTrade != nil {
		return nil
	}

	return c.tryEntry(ctx, pair, tf, now, window, lastIdx, candles)
}

// tryExit evaluates sell signals for pair and, if one fires against an open
// trade and no protection vetoes it, closes the trade.
func (c *Coordinator) tryExit(ctx context.Context, pair string, now time.Time, window *strategy.Window, lastIdx int, openTrade *types.Trade) (bool, error) {
	if openTrade == nil {
		return false, nil
	}

	sellSignals, err := c.strat.PopulateSellTrend(window)
	if err != nil {
		return false, boterr.Wrapf(boterr.Strategy, err, "populate sell trend for %s", pair)
	}
	if !hasSignalAt(sellSignals, lastIdx) {
		return false, nil
	}

	pairTrades, err := c.repo.GetTradesByPair(pair)
	if err != nil {
		return false, err
	}
	if lock := c.protections.CheckPairStop(pair, now, pairTrades); lock != nil {
		recordProtectionVeto("pair")
		c.logger.Info("pair exit vetoed by protection",
			utils.String("pair", pair), utils.String("reason", lock.Reason))
		return false, nil
	}

	if !c.strat.ConfirmTradeExit(*openTrade, types.ExitSignal) {
		return false, nil
	}

	exitPrice := window.Candles[lastIdx].Close
	if c.cfg.Bot.DryRun {
		c.logger.Info("dry-run exit",
			utils.String("pair", pair), utils.Price(mustFloat(exitPrice)))
	} else {
		order, err := c.exch.CreateOrder(ctx, types.OrderRequest{
			Symbol: pair, Side: types.Sell, OrderType: types.OrderTypeMarket, Amount: openTrade.Amount,
		})
		recordExchangeRequest("create_order", err)
		if err != nil {
			return false, boterr.Wrapf(boterr.Exchange, err, "submit sell for %s", pair)
		}
		if order.Price != nil {
			exitPrice = *order.Price
		}
	}

	profitAbs := exitPrice.Sub(openTrade.OpenRate).Mul(openTrade.Amount)
	profitRatio := exitPrice.Sub(openTrade.OpenRate).Div(openTrade.OpenRate)
	closeDate := time.Now().UTC()
	exitReason := types.ExitSignal

	if err := c.repo.UpdateTrade(openTrade.ID, repository.TradeUpdate{
		IsOpen: false, CloseRate: &exitPrice, CloseDate: &closeDate,
		ExitReason: &exitReason, ProfitAbs: &profitAbs, ProfitRatio: &profitRatio,
	}); err != nil {
		return false, err
	}

	if c.cfg.Bot.DryRun {
		c.creditDryBalance(openTrade.StakeAmount.Add(profitAbs))
	}
	recordTradeClosed(pair, string(exitReason))
	return true, nil
}

// tryEntry evaluates buy signals for pair and, if one fires with no
// existing open trade and no protection veto, opens a new trade.
func (c *Coordinator) tryEntry(ctx context.Context, pair string, tf types.Timeframe, now time.Time, window *strategy.Window, lastIdx int, candles []types.Candle) error {
	buySignals, err := c.strat.PopulateBuyTrend(window)
	if err != nil {
		return boterr.Wrapf(boterr.Strategy, err, "populate buy trend for %s", pair)
	}
	if !hasSignalAt(buySignals, lastIdx) {
		return nil
	}

	pairTrades, err := c.repo.GetTradesByPair(pair)
	if err != nil {
		return err
	}
	if lock := c.protections.CheckPairStop(pair, now, pairTrades); lock != nil {
		recordProtectionVeto("pair")
		c.logger.Info("pair entry vetoed by protection",
			utils.String("pair", pair), utils.String("reason", lock.Reason))
		return nil
	}

	currentPrice := candles[lastIdx].Close
	if !currentPrice.IsPositive() {
		return nil
	}

	stakeAmount := decimal.NewFromFloat(c.cfg.Bot.StakeAmount)
	amount := stakeAmount.Div(currentPrice)
	if lotSize := c.cfg.Bot.LotSize; lotSize > 0 {
		raw := amount.InexactFloat64()
		rounded := utils.Clamp(utils.RoundToLotSize(raw, lotSize), 0, raw)
		amount = decimal.NewFromFloat(rounded)
	}
	if !amount.IsPositive() {
		c.logger.Info("entry skipped: amount below lot size", utils.String("pair", pair))
		return nil
	}

	sufficient, err := c.hasSufficientBalance(ctx, stakeAmount)
	if err != nil {
		return err
	}
	if !sufficient {
		c.logger.Info("entry skipped: insufficient balance", utils.String("pair", pair))
		return nil
	}

	trade := &types.Trade{
		Pair: pair, IsOpen: true, Exchange: c.exch.Name(),
		OpenRate: currentPrice, OpenDate: time.Now().UTC(),
		Amount: amount, StakeAmount: stakeAmount,
		Strategy: c.cfg.Strategy.Name, Timeframe: tf,
	}

	if c.cfg.Bot.DryRun {
		c.debitDryBalance(stakeAmount)
	} else {
		order, err := c.exch.CreateOrder(ctx, types.OrderRequest{
			Symbol: pair, Side: types.Buy, OrderType: types.OrderTypeMarket, Amount: amount,
		})
		recordExchangeRequest("create_order", err)
		if err != nil {
			return boterr.Wrapf(boterr.Exchange, err, "submit buy for %s", pair)
		}
		if order.Filled.IsPositive() {
			trade.Amount = order.Filled
		}
		if order.Price != nil {
			trade.OpenRate = *order.Price
		}
	}

	if err := c.repo.CreateTrade(trade); err != nil {
		return err
	}
	recordTradeOpened(pair)
	return nil
}

func (c *Coordinator) hasSufficientBalance(ctx context.Context, stakeAmount decimal.Decimal) (bool, error) {
	if c.cfg.Bot.DryRun {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.dryBalance.GreaterThanOrEqual(stakeAmount), nil
	}

	balances, err := c.exch.FetchBalance(ctx)
	recordExchangeRequest("fetch_balance", err)
	if err != nil {
		return false, boterr.Wrap(boterr.Exchange, err, "fetch balance")
	}
	for _, b := range balances {
		if b.Currency == c.cfg.Bot.StakeCurrency {
			return b.Free.GreaterThanOrEqual(stakeAmount), nil
		}
	}
	return false, nil
}

func (c *Coordinator) debitDryBalance(amount decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dryBalance = c.dryBalance.Sub(amount)
}

func (c *Coordinator) creditDryBalance(amount decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dryBalance = c.dryBalance.Add(amount)
}

// hasSignalAt reports whether signals contains an entry at exactly idx, the
// most recent candle: a strategy may return historical signals across the
// whole window, but only the current bar is actionable in a live iteration.
func hasSignalAt(signals []types.Signal, idx int) bool {
	for _, s := range signals {
		if s.Index == idx {
			return true
		}
	}
	return false
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
