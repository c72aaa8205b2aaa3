package sim

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RheinXenon/stocksim/internal/decision"
	"github.com/RheinXenon/stocksim/internal/feed"
	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/sim/cost"
	"github.com/RheinXenon/stocksim/internal/sim/ledger"
	"github.com/RheinXenon/stocksim/internal/store"
	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// DayCallback reports per-day progress: the 1-based day number and the total
// number of trading days in the run.
type DayCallback func(day, total int)

// Engine drives one simulation run day by day. Each day it snapshots the
// market, asks the decision maker for orders, executes them in sequence and
// records the end-of-day account state. The engine owns the ledger; decision
// makers only ever see copies.
type Engine struct {
	config   SimulationConfig
	feed     feed.Feed
	maker    decision.DecisionMaker
	logger   *logger.Logger
	store    store.RunStore
	onDay    DayCallback
	recorder *RunRecorder
}

// NewEngine creates an engine for one run. The feed and decision maker are
// required; persistence and progress reporting are optional.
func NewEngine(config SimulationConfig, f feed.Feed, maker decision.DecisionMaker, log *logger.Logger) *Engine {
	return &Engine{
		config: config,
		feed:   f,
		maker:  maker,
		logger: log,
	}
}

// SetStore attaches a run store; every transaction and daily snapshot of the
// run is persisted to it.
func (e *Engine) SetStore(s store.RunStore) {
	e.store = s
}

// SetDayCallback attaches a progress callback invoked after each completed
// trading day.
func (e *Engine) SetDayCallback(cb DayCallback) {
	e.onDay = cb
}

// Run executes the simulation to the end of its calendar and returns the
// terminal report. The run aborts on context cancellation and on any error
// other than an order rejection or a feed gap.
func (e *Engine) Run(ctx context.Context) (types.RunReport, error) {
	if e.feed == nil {
		return types.RunReport{}, errors.New(errors.ErrCodeEngineNoFeed, "engine has no feed")
	}

	if e.maker == nil {
		return types.RunReport{}, errors.New(errors.ErrCodeEngineNoDecisionMaker, "engine has no decision maker")
	}

	calendar, err := e.buildCalendar()
	if err != nil {
		return types.RunReport{}, err
	}

	clock := NewClock(calendar)
	book := ledger.New(decimal.NewFromFloat(e.config.InitialCapital))
	executor := NewExecutor(
		book,
		calendar,
		e.feed,
		cost.ModelForSchedule(e.config.CostSchedule, e.config.Rates()),
		e.config.LotSize,
		e.config.SettlementLag,
		e.logger,
	)
	e.recorder = NewRunRecorder(e.config.InitialCapital, e.config.RiskFreeRate)

	e.logger.Info("starting run",
		zap.String("run_id", e.recorder.RunID()),
		zap.String("decision_maker", e.maker.Name()),
		zap.Int("trading_days", calendar.Len()),
		zap.Float64("initial_capital", e.config.InitialCapital),
	)

	lastCloses := make(map[string]float64)

	for {
		date, err := clock.Advance()
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeEndOfCalendar) {
				break
			}

			return types.RunReport{}, err
		}

		if err := ctx.Err(); err != nil {
			return types.RunReport{}, errors.Wrap(errors.ErrCodeRunAborted, "run cancelled", err)
		}

		if err := e.runDay(ctx, date, book, executor, lastCloses); err != nil {
			return types.RunReport{}, err
		}

		if e.onDay != nil {
			e.onDay(clock.DayNumber(), calendar.Len())
		}
	}

	report := e.recorder.Report(e.finalPositions(book, lastCloses))

	if e.store != nil {
		if err := e.store.SaveReport(e.recorder.RunID(), report); err != nil {
			return types.RunReport{}, err
		}
	}

	e.logger.Info("run complete",
		zap.String("run_id", report.RunID),
		zap.Float64("final_equity", report.FinalEquity),
		zap.Float64("total_return", report.TotalReturn),
		zap.Int("trades", report.Trades.Total),
	)

	return report, nil
}

// Snapshots returns the per-day performance curve of the last run.
func (e *Engine) Snapshots() []types.PerformanceSnapshot {
	if e.recorder == nil {
		return nil
	}

	return e.recorder.Snapshots()
}

func (e *Engine) runDay(ctx context.Context, date time.Time, book *ledger.Ledger, executor *Executor, lastCloses map[string]float64) error {
	snapshot := e.buildSnapshot(date, book, lastCloses)

	orders, err := e.maker.Decide(ctx, snapshot)
	if err != nil {
		// A failing decision maker holds for the day; the run continues.
		e.logger.Warn("decision maker failed, holding",
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err),
		)

		orders = nil
	}

	for _, order := range orders {
		order.Date = date

		tx, rej, err := executor.Execute(order)

		switch {
		case err != nil && errors.HasCode(err, errors.ErrCodeDataNotFound):
			// The instrument has no bar today; the order is dropped.
			e.logger.Warn("order skipped, no bar",
				zap.String("instrument", order.Instrument),
				zap.String("date", date.Format("2006-01-02")),
			)
		case err != nil:
			return errors.Wrap(errors.ErrCodeRunAborted, "order execution failed", err)
		case rej != nil:
			e.recorder.RecordRejection(*rej)
		default:
			e.recorder.RecordTransaction(tx)

			if e.store != nil {
				if err := e.store.SaveTransaction(e.recorder.RunID(), tx); err != nil {
					return err
				}
			}
		}
	}

	cash, _ := book.Cash().Float64()
	marketValue, _ := book.MarkToMarket(lastCloses).Float64()
	daySnapshot := e.recorder.RecordDay(date, cash, marketValue)

	if e.store != nil {
		if err := e.store.SaveSnapshot(e.recorder.RunID(), daySnapshot); err != nil {
			return err
		}
	}

	return nil
}

// buildSnapshot assembles the decision maker's view for one day. Instruments
// without a bar on the day are omitted from the snapshot; instruments with a
// bar but not enough history are served without indicators.
func (e *Engine) buildSnapshot(date time.Time, book *ledger.Ledger, lastCloses map[string]float64) decision.Snapshot {
	bars := make(map[string]types.MarketBar)
	indicators := make(map[string]types.IndicatorSet)

	for _, instrument := range e.config.Universe {
		bar, err := e.feed.GetBar(instrument, date)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeDataNotFound) {
				e.logger.Debug("feed gap",
					zap.String("instrument", instrument),
					zap.String("date", date.Format("2006-01-02")),
				)

				continue
			}

			e.logger.Warn("feed error, omitting instrument",
				zap.String("instrument", instrument),
				zap.Error(err),
			)

			continue
		}

		bars[instrument] = bar
		lastCloses[instrument] = bar.Close

		set, err := e.feed.GetIndicators(instrument, date)
		if err != nil {
			if !errors.HasCode(err, errors.ErrCodeInsufficientHistory) {
				e.logger.Warn("indicator computation failed",
					zap.String("instrument", instrument),
					zap.Error(err),
				)
			}

			continue
		}

		indicators[instrument] = set
	}

	cash, _ := book.Cash().Float64()

	return decision.Snapshot{
		Date:       date,
		Cash:       cash,
		Positions:  book.Positions(),
		Bars:       bars,
		Indicators: indicators,
		LotSize:    e.config.LotSize,
	}
}

// buildCalendar derives the run's calendar from the feed's trading days,
// clipped to the configured time bounds.
func (e *Engine) buildCalendar() (*Calendar, error) {
	days, err := e.feed.TradingDays()
	if err != nil {
		return nil, err
	}

	if e.config.StartTime.IsSome() {
		start := types.Midnight(e.config.StartTime.Unwrap())
		days = filterDays(days, func(d time.Time) bool { return !d.Before(start) })
	}

	if e.config.EndTime.IsSome() {
		end := types.Midnight(e.config.EndTime.Unwrap())
		days = filterDays(days, func(d time.Time) bool { return !d.After(end) })
	}

	if len(days) == 0 {
		return nil, errors.New(errors.ErrCodeEngineNoCalendar, "no trading days in the configured range")
	}

	return NewCalendar(days)
}

func (e *Engine) finalPositions(book *ledger.Ledger, lastCloses map[string]float64) []types.FinalPosition {
	positions := book.Positions()
	out := make([]types.FinalPosition, 0, len(positions))

	for _, pos := range positions {
		avgCost, _ := pos.AvgCost.Float64()
		lastClose := lastCloses[pos.Instrument]

		var profitRate float64
		if avgCost > 0 {
			profitRate = lastClose/avgCost - 1
		}

		out = append(out, types.FinalPosition{
			Instrument: pos.Instrument,
			Quantity:   pos.Quantity,
			AvgCost:    avgCost,
			LastClose:  lastClose,
			ProfitRate: profitRate,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })

	return out
}

func filterDays(days []time.Time, keep func(time.Time) bool) []time.Time {
	out := days[:0]

	for _, d := range days {
		if keep(d) {
			out = append(out, d)
		}
	}

	return out
}
