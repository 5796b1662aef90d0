package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/elexon"
	"github.com/windwatts/curtailment-mining-watcher/refdata"
)

// DropCounts tallies entries rejected by the validator, per reason.
type DropCounts struct {
	NotCurtailment int
	FlagsUnset     int
	Unmapped       int
}

// Total returns the number of dropped entries.
func (d DropCounts) Total() int {
	return d.NotCurtailment + d.FlagsUnset + d.Unmapped
}

// ValidateEntries filters raw stack entries down to curtailment records:
// volume < 0, so or cadl flagged, and a known wind-farm unit. Entries with no
// registry match are dropped, not defaulted, since an unmapped unit cannot be
// attributed to a farm. Multiple acceptances of one unit in a period are
// merged into a single record; payment stays abs(volume) * originalPrice with
// the merged original price volume-weighted accordingly.
func ValidateEntries(date time.Time, period int, entries []elexon.StackEntry,
	registry *refdata.Registry) ([]*settlement.Record, DropCounts) {
	var drops DropCounts
	byFarm := make(map[string]*settlement.Record)
	var order []string
	for _, e := range entries {
		if e.Volume.GreaterThanOrEqual(decimal.Zero) {
			drops.NotCurtailment++
			continue
		}
		if !e.SoFlag && !e.CadlFlag {
			drops.FlagsUnset++
			continue
		}
		farm, ok := registry.Lookup(e.BMUID)
		if !ok {
			drops.Unmapped++
			continue
		}
		payment := e.Volume.Abs().Mul(e.OriginalPrice)
		existing, ok := byFarm[e.BMUID]
		if !ok {
			byFarm[e.BMUID] = &settlement.Record{
				SettlementDate:   date,
				SettlementPeriod: period,
				FarmID:           e.BMUID,
				LeadPartyName:    farm.LeadPartyName,
				Volume:           e.Volume,
				Payment:          payment,
				OriginalPrice:    e.OriginalPrice,
				FinalPrice:       e.FinalPrice,
				SoFlag:           e.SoFlag,
				CadlFlag:         e.CadlFlag,
			}
			order = append(order, e.BMUID)
			continue
		}
		existing.Volume = existing.Volume.Add(e.Volume)
		existing.Payment = existing.Payment.Add(payment)
		existing.OriginalPrice = existing.Payment.Div(existing.Volume.Abs())
		existing.FinalPrice = e.FinalPrice
		existing.SoFlag = existing.SoFlag || e.SoFlag
		existing.CadlFlag = existing.CadlFlag || e.CadlFlag
	}
	records := make([]*settlement.Record, 0, len(byFarm))
	for _, id := range order {
		records = append(records, byFarm[id])
	}
	return records, drops
}
