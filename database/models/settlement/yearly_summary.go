package settlement

import (
	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// YearlySummary aggregates monthly summaries of one calendar year.
type YearlySummary struct {
	models.Base

	ID                   int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Year                 int             `gorm:"column:year;type:int;not null" json:"year"`
	TotalCurtailedEnergy decimal.Decimal `gorm:"column:total_curtailed_energy;type:decimal(38,18);not null" json:"total_curtailed_energy"`
	TotalPayment         decimal.Decimal `gorm:"column:total_payment;type:decimal(38,18);not null" json:"total_payment"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*YearlySummary) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*YearlySummary) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "yearly_summary_year_unique_idx",
			Unique: true,
			Fields: []string{"year"},
		},
	}
}
