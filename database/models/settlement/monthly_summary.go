package settlement

import (
	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// MonthlySummary aggregates daily summaries of one calendar month.
// YearMonth is formatted "2006-01".
type MonthlySummary struct {
	models.Base

	ID                   int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	YearMonth            string          `gorm:"column:year_month;type:varchar(7);not null" json:"year_month"`
	TotalCurtailedEnergy decimal.Decimal `gorm:"column:total_curtailed_energy;type:decimal(38,18);not null" json:"total_curtailed_energy"`
	TotalPayment         decimal.Decimal `gorm:"column:total_payment;type:decimal(38,18);not null" json:"total_payment"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*MonthlySummary) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*MonthlySummary) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "monthly_summary_year_month_unique_idx",
			Unique: true,
			Fields: []string{`"year_month"`},
		},
	}
}
