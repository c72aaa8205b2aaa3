package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/types"
)

type DuckDBStoreTestSuite struct {
	suite.Suite
	store *DuckDBStore
}

func TestDuckDBStoreSuite(t *testing.T) {
	suite.Run(t, new(DuckDBStoreTestSuite))
}

func (suite *DuckDBStoreTestSuite) SetupTest() {
	var err error

	suite.store, err = NewDuckDBStore("", logger.NewNopLogger())
	suite.Require().NoError(err)
}

func (suite *DuckDBStoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *DuckDBStoreTestSuite) transaction(seq int64, side types.Side) types.Transaction {
	return types.Transaction{
		ID:         "tx-" + string(side),
		Seq:        seq,
		Date:       time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Instrument: "600000",
		Side:       side,
		Quantity:   1000,
		FillPrice:  decimal.RequireFromString("10"),
		Cost: types.CostBreakdown{
			Commission: decimal.RequireFromString("5"),
			StampDuty:  decimal.Zero,
		},
		CashDelta: decimal.RequireFromString("-10005"),
	}
}

func (suite *DuckDBStoreTestSuite) TestSaveAndReadTransactions() {
	runID := "run-1"
	suite.Require().NoError(suite.store.SaveTransaction(runID, suite.transaction(1, types.SideBuy)))
	suite.Require().NoError(suite.store.SaveTransaction(runID, suite.transaction(2, types.SideSell)))
	suite.Require().NoError(suite.store.SaveTransaction("other-run", suite.transaction(1, types.SideBuy)))

	txs, err := suite.store.Transactions(runID)
	suite.Require().NoError(err)
	suite.Require().Len(txs, 2)
	suite.Equal(int64(1), txs[0].Seq)
	suite.Equal(types.SideBuy, txs[0].Side)
	suite.Equal(int64(2), txs[1].Seq)
	suite.Equal("600000", txs[0].Instrument)
	suite.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), txs[0].Date)
	suite.True(txs[0].FillPrice.Equal(decimal.RequireFromString("10")))
	suite.True(txs[0].CashDelta.Equal(decimal.RequireFromString("-10005")))
}

func (suite *DuckDBStoreTestSuite) TestSaveAndReadSnapshots() {
	runID := "run-1"

	for i := 0; i < 3; i++ {
		snapshot := types.PerformanceSnapshot{
			Date:   time.Date(2024, 1, 4+i, 0, 0, 0, 0, time.UTC),
			Cash:   1_000_000 - float64(i)*1000,
			Equity: 1_000_000 + float64(i)*500,
		}
		suite.Require().NoError(suite.store.SaveSnapshot(runID, snapshot))
	}

	snapshots, err := suite.store.Snapshots(runID)
	suite.Require().NoError(err)
	suite.Require().Len(snapshots, 3)
	suite.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), snapshots[0].Date)
	suite.InDelta(1_001_000, snapshots[2].Equity, 1e-9)
}

func (suite *DuckDBStoreTestSuite) TestSaveReport() {
	report := types.RunReport{
		RunID:          "run-1",
		StartDate:      time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
		TradingDays:    60,
		InitialCapital: 1_000_000,
		FinalEquity:    1_050_000,
		TotalProfit:    50_000,
		TotalReturn:    0.05,
		Trades:         types.TradeCounts{Total: 10, Buys: 6, Sells: 4, Rejections: 2},
	}
	suite.Require().NoError(suite.store.SaveReport(report.RunID, report))
}

func (suite *DuckDBStoreTestSuite) TestExportParquet() {
	dir, err := os.MkdirTemp("", "store-export")
	suite.Require().NoError(err)

	defer os.RemoveAll(dir)

	suite.Require().NoError(suite.store.SaveTransaction("run-1", suite.transaction(1, types.SideBuy)))
	suite.Require().NoError(suite.store.ExportParquet(dir))

	for _, name := range []string{"transactions.parquet", "snapshots.parquet", "reports.parquet"} {
		_, err := os.Stat(filepath.Join(dir, name))
		suite.NoError(err, "%s should exist", name)
	}
}
