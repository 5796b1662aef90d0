package settlement

import (
	"github.com/windwatts/curtailment-mining-watcher/database/models"
)

// WindFarm is one row of the BMU reference mapping. Only units with a wind
// fuel type are admitted by the validator.
type WindFarm struct {
	models.Base

	ID            int64  `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	BMUID         string `gorm:"column:bmu_id;type:varchar(64);not null" json:"bmu_id"`
	Name          string `gorm:"column:name;type:varchar(128)" json:"name"`
	LeadPartyName string `gorm:"column:lead_party_name;type:varchar(128);not null" json:"lead_party_name"`
	FuelType      string `gorm:"column:fuel_type;type:varchar(32);not null" json:"fuel_type"`
}

// ForeignKeyConstraints create foreign key constraints.
func (*WindFarm) ForeignKeyConstraints() []models.ForeignKeyConstraint {
	return nil
}

// Indexes returns information to create index.
func (*WindFarm) Indexes() []models.CustomIndex {
	return []models.CustomIndex{
		{
			Name:   "wind_farm_bmu_id_unique_idx",
			Unique: true,
			Fields: []string{"bmu_id"},
		},
	}
}
