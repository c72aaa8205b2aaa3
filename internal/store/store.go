// Package store persists run artifacts: every fill, every daily snapshot and
// the terminal report, keyed by run id.
package store

import (
	"github.com/RheinXenon/stocksim/internal/types"
)

// RunStore records the artifacts of simulation runs.
type RunStore interface {
	SaveTransaction(runID string, tx types.Transaction) error
	SaveSnapshot(runID string, snapshot types.PerformanceSnapshot) error
	SaveReport(runID string, report types.RunReport) error

	// Transactions returns a run's fills in sequence order.
	Transactions(runID string) ([]types.Transaction, error)

	// Snapshots returns a run's daily performance curve in date order.
	Snapshots(runID string) ([]types.PerformanceSnapshot, error)

	// ExportParquet writes the run's tables as parquet files under dir.
	ExportParquet(dir string) error

	Close() error
}
