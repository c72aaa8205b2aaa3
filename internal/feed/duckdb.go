package feed

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// DuckDBFeed serves bars from a DuckDB view over one or more parquet files.
type DuckDBFeed struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBFeed opens a DuckDB database at path. An empty path opens an
// in-memory database. Call Initialize to attach market data before querying.
func NewDuckDBFeed(path string, logger *logger.Logger) (*DuckDBFeed, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBFeed{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize creates the market_data view over the given parquet file. The
// file must carry instrument, date, open, high, low, close and volume
// columns.
func (f *DuckDBFeed) Initialize(parquetPath string) error {
	f.logger.Debug("initializing duckdb feed", zap.String("parquet", parquetPath))

	_, err := f.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to drop existing view", err)
	}

	// CREATE VIEW has no placeholder support, so the path is interpolated.
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT instrument, date, open, high, low, close, volume
		FROM read_parquet('%s');
	`, parquetPath)

	_, err = f.db.Exec(query)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to create market_data view", err)
	}

	return nil
}

// GetBar implements Feed.
func (f *DuckDBFeed) GetBar(instrument string, date time.Time) (types.MarketBar, error) {
	date = types.Midnight(date)

	query, args, err := f.sq.
		Select("instrument", "date", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"instrument": instrument, "date": date}).
		Limit(1).
		ToSql()
	if err != nil {
		return types.MarketBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	bar, err := f.scanBar(f.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return types.MarketBar{}, errors.Newf(errors.ErrCodeDataNotFound,
			"no bar for %s on %s", instrument, date.Format("2006-01-02"))
	}

	if err != nil {
		return types.MarketBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bar", err)
	}

	return bar, nil
}

// GetHistory implements Feed.
func (f *DuckDBFeed) GetHistory(instrument string, asOf time.Time, limit int) ([]types.MarketBar, error) {
	asOf = types.Midnight(asOf)

	// Most-recent-first with a limit, then reversed, so the cap keeps the
	// bars closest to asOf.
	builder := f.sq.
		Select("instrument", "date", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"instrument": instrument}).
		Where(squirrel.LtOrEq{"date": asOf}).
		OrderBy("date DESC")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build history query", err)
	}

	rows, err := f.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read history", err)
	}
	defer rows.Close()

	var out []types.MarketBar

	for rows.Next() {
		var bar types.MarketBar

		err := rows.Scan(&bar.Instrument, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bar.Date = types.Midnight(bar.Date)

		out = append(out, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate history", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

// GetIndicators implements Feed.
func (f *DuckDBFeed) GetIndicators(instrument string, asOf time.Time) (types.IndicatorSet, error) {
	return computeIndicators(f, instrument, asOf)
}

// Instruments implements Feed.
func (f *DuckDBFeed) Instruments() ([]string, error) {
	rows, err := f.db.Query(`SELECT DISTINCT instrument FROM market_data ORDER BY instrument`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list instruments", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var instrument string
		if err := rows.Scan(&instrument); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan instrument", err)
		}

		out = append(out, instrument)
	}

	return out, rows.Err()
}

// TradingDays implements Feed.
func (f *DuckDBFeed) TradingDays() ([]time.Time, error) {
	rows, err := f.db.Query(`SELECT DISTINCT date FROM market_data ORDER BY date`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list trading days", err)
	}
	defer rows.Close()

	var out []time.Time

	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trading day", err)
		}

		out = append(out, types.Midnight(day))
	}

	return out, rows.Err()
}

// Close implements Feed.
func (f *DuckDBFeed) Close() error {
	return f.db.Close()
}

func (f *DuckDBFeed) scanBar(row *sql.Row) (types.MarketBar, error) {
	var bar types.MarketBar

	err := row.Scan(&bar.Instrument, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err != nil {
		return types.MarketBar{}, err
	}

	bar.Date = types.Midnight(bar.Date)

	return bar, nil
}
