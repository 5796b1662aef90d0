package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// BitcoinCalculation is the Bitcoin a farm's curtailed energy in one period
// could have mined with one miner model. The miner model is part of the
// natural key because the same record yields a different result per hardware
// profile. Difficulty is the network difficulty sample actually used.
type BitcoinCalculation struct {
	models.Base

	ID               int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	SettlementDate   time.Time       `gorm:"column:settlement_date;type:date;not null" json:"settlement_date"`
	SettlementPeriod int             `gorm:"column:settlement_period;type:smallint;not null" json:"settlement_period"`
	FarmID           string          `gorm:"column:farm_id;type:varchar(64);not null" json:"farm_id"`
	MinerModel       string          `gorm:"column:miner_model;type:varchar(64);not null" json:"miner_model"`
	BitcoinMined     decimal.Decimal `gorm:"column:bitcoin_mined;type:decimal(38,18);not null" json:"bitcoin_mined"`
	Difficulty       decimal.Decimal `gorm:"column:difficulty;type:decimal(38,18);not null" json:"difficulty"`
	CalculatedAt     int64           `gorm:"column:calculated_at;type:bigint;not null" json:"calculated_at"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*BitcoinCalculation) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*BitcoinCalculation) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "bitcoin_calculation_key_unique_idx",
			Unique: true,
			Fields: []string{"settlement_date", "settlement_period", "farm_id", "miner_model"},
		},
		{
			Name:   "bitcoin_calculation_date_idx",
			Fields: []string{"settlement_date"},
		},
	}
}
