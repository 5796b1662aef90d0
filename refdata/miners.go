package refdata

import (
	"errors"
	"fmt"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"gorm.io/gorm"
)

// ErrNoMinerProfiles means no active miner profile exists; the mining cascade
// has nothing to compute against and the run aborts before any period.
var ErrNoMinerProfiles = errors.New("no active miner profiles")

// LoadMinerProfiles loads every active miner profile.
func LoadMinerProfiles(db *gorm.DB) ([]settlement.MinerProfile, error) {
	var profiles []settlement.MinerProfile
	if err := db.Where("active=?", true).Order("model asc").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("fail to load miner profiles %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNoMinerProfiles
	}
	return profiles, nil
}
