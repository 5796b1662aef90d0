package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// BitcoinDailySummary mirrors DailySummary for the mining cascade,
// partitioned additionally by miner model.
type BitcoinDailySummary struct {
	models.Base

	ID           int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Date         time.Time       `gorm:"column:date;type:date;not null" json:"date"`
	MinerModel   string          `gorm:"column:miner_model;type:varchar(64);not null" json:"miner_model"`
	BitcoinMined decimal.Decimal `gorm:"column:bitcoin_mined;type:decimal(38,18);not null" json:"bitcoin_mined"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*BitcoinDailySummary) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*BitcoinDailySummary) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "bitcoin_daily_summary_date_model_unique_idx",
			Unique: true,
			Fields: []string{"date", "miner_model"},
		},
	}
}

// BitcoinMonthlySummary aggregates BitcoinDailySummary per month and model.
type BitcoinMonthlySummary struct {
	models.Base

	ID           int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	YearMonth    string          `gorm:"column:year_month;type:varchar(7);not null" json:"year_month"`
	MinerModel   string          `gorm:"column:miner_model;type:varchar(64);not null" json:"miner_model"`
	BitcoinMined decimal.Decimal `gorm:"column:bitcoin_mined;type:decimal(38,18);not null" json:"bitcoin_mined"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*BitcoinMonthlySummary) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*BitcoinMonthlySummary) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "bitcoin_monthly_summary_month_model_unique_idx",
			Unique: true,
			Fields: []string{`"year_month"`, "miner_model"},
		},
	}
}

// BitcoinYearlySummary aggregates BitcoinMonthlySummary per year and model.
type BitcoinYearlySummary struct {
	models.Base

	ID           int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Year         int             `gorm:"column:year;type:int;not null" json:"year"`
	MinerModel   string          `gorm:"column:miner_model;type:varchar(64);not null" json:"miner_model"`
	BitcoinMined decimal.Decimal `gorm:"column:bitcoin_mined;type:decimal(38,18);not null" json:"bitcoin_mined"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*BitcoinYearlySummary) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*BitcoinYearlySummary) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "bitcoin_yearly_summary_year_model_unique_idx",
			Unique: true,
			Fields: []string{"year", "miner_model"},
		},
	}
}
