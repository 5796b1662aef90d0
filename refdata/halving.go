package refdata

import (
	"time"

	"github.com/shopspring/decimal"
)

type halvingEvent struct {
	date   time.Time
	reward decimal.Decimal
}

// halvingSchedule holds the block subsidy per halving era, newest last.
// The reward for a settlement date is looked up here rather than hardcoded,
// because a date range can straddle a halving event.
var halvingSchedule = []halvingEvent{
	{time.Date(2009, 1, 3, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(50)},
	{time.Date(2012, 11, 28, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(25)},
	{time.Date(2016, 7, 9, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(12.5)},
	{time.Date(2020, 5, 11, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(6.25)},
	{time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(3.125)},
}

// BlockRewardAt returns the block subsidy in effect on a date. Dates before
// the genesis block get the genesis subsidy.
func BlockRewardAt(date time.Time) decimal.Decimal {
	reward := halvingSchedule[0].reward
	for _, e := range halvingSchedule {
		if date.Before(e.date) {
			break
		}
		reward = e.reward
	}
	return reward
}
