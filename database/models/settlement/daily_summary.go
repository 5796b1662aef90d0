package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// DailySummary is the derived per-date aggregate of curtailment records.
// It is never patched in place, only recomputed as a SUM over its leaves.
type DailySummary struct {
	models.Base

	ID                   int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Date                 time.Time       `gorm:"column:date;type:date;not null" json:"date"`
	TotalCurtailedEnergy decimal.Decimal `gorm:"column:total_curtailed_energy;type:decimal(38,18);not null" json:"total_curtailed_energy"`
	TotalPayment         decimal.Decimal `gorm:"column:total_payment;type:decimal(38,18);not null" json:"total_payment"`
	RecordCount          int64           `gorm:"column:record_count;type:bigint;not null" json:"record_count"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*DailySummary) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*DailySummary) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "daily_summary_date_unique_idx",
			Unique: true,
			Fields: []string{"date"},
		},
	}
}
