package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// RunReport is the persisted outcome of one reconciliation run, so partial
// failure is never invisible to the operator.
type RunReport struct {
	models.Base

	ID               int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	DateFrom         time.Time       `gorm:"column:date_from;type:date;not null" json:"date_from"`
	DateTo           time.Time       `gorm:"column:date_to;type:date;not null" json:"date_to"`
	StartedAt        int64           `gorm:"column:started_at;type:bigint;not null" json:"started_at"`
	FinishedAt       int64           `gorm:"column:finished_at;type:bigint;not null" json:"finished_at"`
	PeriodsRequested int64           `gorm:"column:periods_requested;type:bigint;not null" json:"periods_requested"`
	PeriodsSucceeded int64           `gorm:"column:periods_succeeded;type:bigint;not null" json:"periods_succeeded"`
	PeriodsFailed    int64           `gorm:"column:periods_failed;type:bigint;not null" json:"periods_failed"`
	RecordsFetched   int64           `gorm:"column:records_fetched;type:bigint;not null" json:"records_fetched"`
	RecordsAdmitted  int64           `gorm:"column:records_admitted;type:bigint;not null" json:"records_admitted"`
	RecordsDropped   int64           `gorm:"column:records_dropped;type:bigint;not null" json:"records_dropped"`
	Missing          int64           `gorm:"column:missing;type:bigint;not null" json:"missing"`
	Changed          int64           `gorm:"column:changed;type:bigint;not null" json:"changed"`
	Identical        int64           `gorm:"column:identical;type:bigint;not null" json:"identical"`
	Replaced         int64           `gorm:"column:replaced;type:bigint;not null" json:"replaced"`
	CalcsWritten     int64           `gorm:"column:calcs_written;type:bigint;not null" json:"calcs_written"`
	CalcsFailed      int64           `gorm:"column:calcs_failed;type:bigint;not null" json:"calcs_failed"`
	TotalVolume      decimal.Decimal `gorm:"column:total_volume;type:decimal(38,18);not null" json:"total_volume"`
	TotalPayment     decimal.Decimal `gorm:"column:total_payment;type:decimal(38,18);not null" json:"total_payment"`
	ExpectedPayment  decimal.Decimal `gorm:"column:expected_payment;type:decimal(38,18);not null" json:"expected_payment"`
	DeviationPct     decimal.Decimal `gorm:"column:deviation_pct;type:decimal(38,18);not null" json:"deviation_pct"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*RunReport) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*RunReport) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "run_report_date_from_idx",
			Fields: []string{"date_from"},
		},
	}
}
