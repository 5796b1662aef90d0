package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// DifficultySample is the network difficulty and BTC price observed on a
// date. The calculator uses the sample valid for the settlement date being
// processed, not the latest one.
type DifficultySample struct {
	models.Base

	ID         int64           `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Date       time.Time       `gorm:"column:date;type:date;not null" json:"date"`
	Difficulty decimal.Decimal `gorm:"column:difficulty;type:decimal(38,18);not null" json:"difficulty"`
	PriceUSD   decimal.Decimal `gorm:"column:price_usd;type:decimal(38,18);not null" json:"price_usd"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*DifficultySample) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*DifficultySample) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "difficulty_sample_date_unique_idx",
			Unique: true,
			Fields: []string{"date"},
		},
	}
}
