package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// Record is one accepted curtailment action of a wind-farm unit in a
// half-hour settlement period. Volume is signed as reported upstream and is
// negative for curtailment. Payment is stored positive: it is
// abs(volume) * original_price, the amount paid to the lead party for the
// instructed reduction.
type Record struct {
	models.Base

	ID               int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	SettlementDate   time.Time       `gorm:"column:settlement_date;type:date;not null" json:"settlement_date"`
	SettlementPeriod int             `gorm:"column:settlement_period;type:smallint;not null" json:"settlement_period"`
	FarmID           string          `gorm:"column:farm_id;type:varchar(64);not null" json:"farm_id"`
	LeadPartyName    string          `gorm:"column:lead_party_name;type:varchar(128);not null" json:"lead_party_name"`
	Volume           decimal.Decimal `gorm:"column:volume;type:decimal(38,18);not null" json:"volume"`
	Payment          decimal.Decimal `gorm:"column:payment;type:decimal(38,18);not null" json:"payment"`
	OriginalPrice    decimal.Decimal `gorm:"column:original_price;type:decimal(38,18);not null" json:"original_price"`
	FinalPrice       decimal.Decimal `gorm:"column:final_price;type:decimal(38,18);not null" json:"final_price"`
	SoFlag           bool            `gorm:"column:so_flag;not null" json:"so_flag"`
	CadlFlag         bool            `gorm:"column:cadl_flag;not null" json:"cadl_flag"`
}

// TableName overrides the default table name.
func (*Record) TableName() string {
	return "curtailment_record"
}

// ForeignKeyConstraints create foreign key constraints.
func (*Record) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*Record) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "record_date_period_farm_unique_idx",
			Unique: true,
			Fields: []string{"settlement_date", "settlement_period", "farm_id"},
		},
		{
			Name:   "record_date_idx",
			Fields: []string{"settlement_date"},
		},
	}
}
