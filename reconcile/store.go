package reconcile

import (
	"time"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

// Store is the persistence surface the orchestrator needs: partition-scoped
// replace and the cascade recomputations. The gorm-backed implementation
// lives in database/db.
type Store interface {
	GetPartition(date time.Time, period int) ([]*settlement.Record, error)
	ReplacePartition(date time.Time, period int, records []*settlement.Record) error
	ReplaceCalculations(date time.Time, period int, calcs []*settlement.BitcoinCalculation) error

	// CalculationModels returns the distinct miner models with persisted
	// calculations for the partition, sorted.
	CalculationModels(date time.Time, period int) ([]string, error)

	// LastReplacedPeriod returns the highest period replaced for the date,
	// 0 when the date was never processed.
	LastReplacedPeriod(date time.Time) (int, error)

	RecomputeDaily(date time.Time) error
	RecomputeMonthly(yearMonth string) error
	RecomputeYearly(year int) error
	RecomputeBitcoinDaily(date time.Time) error
	RecomputeBitcoinMonthly(yearMonth string) error
	RecomputeBitcoinYearly(year int) error

	SaveReport(report *settlement.RunReport) error
}
