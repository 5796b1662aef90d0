package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

// diffTolerance is the absolute tolerance on volume and price comparison.
// Upstream rounds re-published figures, so hair-width differences must not
// trigger a partition rewrite.
var diffTolerance = decimal.NewFromFloat(0.01)

// Diff classifies an authoritative record set against the persisted set of
// one (date, period) partition, keyed by farm. Persisted farms absent from
// the authoritative set are stale; the diff only counts them because the
// replace step is defined over the full partition, not the diff set.
type Diff struct {
	Missing   []*settlement.Record
	Changed   []*settlement.Record
	Identical []*settlement.Record
	Stale     int
}

// RequiresReplace reports whether the partition must be rewritten.
func (d *Diff) RequiresReplace() bool {
	return len(d.Missing) > 0 || len(d.Changed) > 0 || d.Stale > 0
}

// DiffPartition diffs authoritative records against persisted ones.
func DiffPartition(authoritative, persisted []*settlement.Record) *Diff {
	stored := make(map[string]*settlement.Record, len(persisted))
	for _, r := range persisted {
		stored[r.FarmID] = r
	}
	diff := &Diff{}
	for _, r := range authoritative {
		old, ok := stored[r.FarmID]
		if !ok {
			diff.Missing = append(diff.Missing, r)
			continue
		}
		delete(stored, r.FarmID)
		if recordsMatch(r, old) {
			diff.Identical = append(diff.Identical, r)
		} else {
			diff.Changed = append(diff.Changed, r)
		}
	}
	diff.Stale = len(stored)
	return diff
}

func recordsMatch(a, b *settlement.Record) bool {
	if a.SoFlag != b.SoFlag || a.CadlFlag != b.CadlFlag {
		return false
	}
	return withinTolerance(a.Volume, b.Volume) &&
		withinTolerance(a.OriginalPrice, b.OriginalPrice) &&
		withinTolerance(a.FinalPrice, b.FinalPrice)
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(diffTolerance)
}
