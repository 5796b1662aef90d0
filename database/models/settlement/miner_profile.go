package settlement

import (
	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// MinerProfile is the hardware profile of one miner model.
// EfficiencyJPerTH is joules consumed per terahash.
type MinerProfile struct {
	models.Base

	ID               int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Model            string          `gorm:"column:model;type:varchar(64);not null" json:"model"`
	EfficiencyJPerTH decimal.Decimal `gorm:"column:efficiency_j_per_th;type:decimal(38,18);not null" json:"efficiency_j_per_th"`
	Active           bool            `gorm:"column:active;not null" json:"active"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*MinerProfile) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*MinerProfile) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "miner_profile_model_unique_idx",
			Unique: true,
			Fields: []string{"model"},
		},
	}
}
