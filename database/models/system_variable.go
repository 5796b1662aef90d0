package models

import (
	"github.com/windwatts/curtailment-mining-watcher/types"
)

// System defines the table to store system variables.
type System struct {
	Base

	ID    int64        `gorm:"column:id;primary_key;AUTO_INCREMENT;not null" json:"id"`
	Name  types.SysVar `gorm:"column:name;primary_key;type:varchar(50);not null" json:"-"`
	Value string       `gorm:"column:value;primary_key;type:varchar(512)" json:"-"`
}
