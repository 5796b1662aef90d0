package refdata

import (
	"errors"
	"fmt"
	"time"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"gorm.io/gorm"
)

// ErrNoDifficultySample means no sample exists on or before the settlement
// date. The affected date's mining calculations are skipped and counted.
var ErrNoDifficultySample = errors.New("no difficulty sample for date")

// DifficultyOn returns the sample valid for a settlement date: the newest
// sample dated on or before it, not necessarily the latest overall.
func DifficultyOn(db *gorm.DB, date time.Time) (*settlement.DifficultySample, error) {
	var sample settlement.DifficultySample
	err := db.Where("date <= ?", date).Order("date desc").First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDifficultySample
		}
		return nil, fmt.Errorf("fail to get difficulty sample: date=%v %w",
			date.Format("2006-01-02"), err)
	}
	return &sample, nil
}
