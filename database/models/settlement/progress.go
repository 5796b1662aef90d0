package settlement

import (
	"time"

	"github.com/windwatts/curtailment-mining-watcher/database/models"
	"github.com/windwatts/curtailment-mining-watcher/types"
)

// Progress marks the highest settlement period whose partition was fully
// replaced for a date. A crashed run leaves it behind the requested range,
// which makes a partial run detectable and re-runnable.
type Progress struct {
	models.Base

	TableName types.TableName `gorm:"column:table_name;type:varchar(129);not null;primary_key" json:"table_name"`
	Date      time.Time       `gorm:"column:date;type:date;not null;primary_key" json:"date"`
	Period    int             `gorm:"column:period;type:smallint;not null" json:"period"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*Progress) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*Progress) Indexes() []models.CustomIndex {
	return nil
}
