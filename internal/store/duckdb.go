package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// DuckDBStore persists run artifacts in a DuckDB database. One database can
// hold any number of runs; rows are keyed by run id.
type DuckDBStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBStore opens (or creates) the store at path and ensures its
// schema. An empty path keeps the store in memory.
func NewDuckDBStore(path string, log *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to open run store", err)
	}

	s := &DuckDBStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := s.createTables(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *DuckDBStore) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			run_id VARCHAR,
			id VARCHAR,
			seq BIGINT,
			date TIMESTAMP,
			instrument VARCHAR,
			side VARCHAR,
			quantity BIGINT,
			fill_price DOUBLE,
			commission DOUBLE,
			stamp_duty DOUBLE,
			cash_delta DOUBLE
		);

		CREATE TABLE IF NOT EXISTS snapshots (
			run_id VARCHAR,
			date TIMESTAMP,
			cash DOUBLE,
			market_value DOUBLE,
			equity DOUBLE,
			cumulative_return DOUBLE,
			drawdown DOUBLE
		);

		CREATE TABLE IF NOT EXISTS reports (
			run_id VARCHAR,
			start_date TIMESTAMP,
			end_date TIMESTAMP,
			trading_days INTEGER,
			initial_capital DOUBLE,
			final_equity DOUBLE,
			total_profit DOUBLE,
			total_return DOUBLE,
			max_return DOUBLE,
			min_return DOUBLE,
			max_drawdown DOUBLE,
			annualized_volatility DOUBLE,
			sharpe_ratio DOUBLE,
			total_trades INTEGER,
			buys INTEGER,
			sells INTEGER,
			rejections INTEGER
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to create run store tables", err)
	}

	return nil
}

// SaveTransaction implements RunStore.
func (s *DuckDBStore) SaveTransaction(runID string, tx types.Transaction) error {
	fillPrice, _ := tx.FillPrice.Float64()
	commission, _ := tx.Cost.Commission.Float64()
	stampDuty, _ := tx.Cost.StampDuty.Float64()
	cashDelta, _ := tx.CashDelta.Float64()

	query, args, err := s.sq.
		Insert("transactions").
		Columns("run_id", "id", "seq", "date", "instrument", "side", "quantity",
			"fill_price", "commission", "stamp_duty", "cash_delta").
		Values(runID, tx.ID, tx.Seq, tx.Date, tx.Instrument, string(tx.Side), tx.Quantity,
			fillPrice, commission, stampDuty, cashDelta).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build transaction insert", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to save transaction", err)
	}

	return nil
}

// SaveSnapshot implements RunStore.
func (s *DuckDBStore) SaveSnapshot(runID string, snapshot types.PerformanceSnapshot) error {
	query, args, err := s.sq.
		Insert("snapshots").
		Columns("run_id", "date", "cash", "market_value", "equity", "cumulative_return", "drawdown").
		Values(runID, snapshot.Date, snapshot.Cash, snapshot.MarketValue, snapshot.Equity,
			snapshot.CumulativeReturn, snapshot.Drawdown).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build snapshot insert", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to save snapshot", err)
	}

	return nil
}

// SaveReport implements RunStore.
func (s *DuckDBStore) SaveReport(runID string, report types.RunReport) error {
	query, args, err := s.sq.
		Insert("reports").
		Columns("run_id", "start_date", "end_date", "trading_days", "initial_capital",
			"final_equity", "total_profit", "total_return", "max_return", "min_return",
			"max_drawdown", "annualized_volatility", "sharpe_ratio",
			"total_trades", "buys", "sells", "rejections").
		Values(runID, report.StartDate, report.EndDate, report.TradingDays, report.InitialCapital,
			report.FinalEquity, report.TotalProfit, report.TotalReturn, report.MaxReturn, report.MinReturn,
			report.MaxDrawdown, report.AnnualizedVolatility, report.SharpeRatio,
			report.Trades.Total, report.Trades.Buys, report.Trades.Sells, report.Trades.Rejections).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build report insert", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to save report", err)
	}

	return nil
}

// Transactions implements RunStore.
func (s *DuckDBStore) Transactions(runID string) ([]types.Transaction, error) {
	query, args, err := s.sq.
		Select("id", "seq", "date", "instrument", "side", "quantity",
			"fill_price", "commission", "stamp_duty", "cash_delta").
		From("transactions").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build transaction query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read transactions", err)
	}
	defer rows.Close()

	var out []types.Transaction

	for rows.Next() {
		var tx types.Transaction

		var side string

		var fillPrice, commission, stampDuty, cashDelta float64

		err := rows.Scan(&tx.ID, &tx.Seq, &tx.Date, &tx.Instrument, &side, &tx.Quantity,
			&fillPrice, &commission, &stampDuty, &cashDelta)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan transaction", err)
		}

		tx.Side = types.Side(side)
		tx = tx.NormalizeDate()
		tx.FillPrice = decimal.NewFromFloat(fillPrice)
		tx.Cost = types.CostBreakdown{
			Commission: decimal.NewFromFloat(commission),
			StampDuty:  decimal.NewFromFloat(stampDuty),
		}
		tx.CashDelta = decimal.NewFromFloat(cashDelta)

		out = append(out, tx)
	}

	return out, rows.Err()
}

// Snapshots implements RunStore.
func (s *DuckDBStore) Snapshots(runID string) ([]types.PerformanceSnapshot, error) {
	query, args, err := s.sq.
		Select("date", "cash", "market_value", "equity", "cumulative_return", "drawdown").
		From("snapshots").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build snapshot query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read snapshots", err)
	}
	defer rows.Close()

	var out []types.PerformanceSnapshot

	for rows.Next() {
		var snapshot types.PerformanceSnapshot

		err := rows.Scan(&snapshot.Date, &snapshot.Cash, &snapshot.MarketValue,
			&snapshot.Equity, &snapshot.CumulativeReturn, &snapshot.Drawdown)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan snapshot", err)
		}

		snapshot.Date = types.Midnight(snapshot.Date)

		out = append(out, snapshot)
	}

	return out, rows.Err()
}

// ExportParquet implements RunStore. COPY has no placeholder support, so the
// paths are interpolated.
func (s *DuckDBStore) ExportParquet(dir string) error {
	for _, table := range []string{"transactions", "snapshots", "reports"} {
		path := filepath.Join(dir, table+".parquet")

		_, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to export %s", table)
		}

		s.logger.Debug("exported table", zap.String("table", table), zap.String("path", path))
	}

	return nil
}

// Close implements RunStore.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
