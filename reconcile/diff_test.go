package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

func rec(farm string, volume, price float64) *settlement.Record {
	return &settlement.Record{
		FarmID:        farm,
		Volume:        decimal.NewFromFloat(volume),
		OriginalPrice: decimal.NewFromFloat(price),
		FinalPrice:    decimal.NewFromFloat(price),
		SoFlag:        true,
	}
}

func TestDiffPartition_EmptyStore(t *testing.T) {
	diff := DiffPartition([]*settlement.Record{rec("A", -45, 5.2)}, nil)
	assert.Len(t, diff.Missing, 1)
	assert.Empty(t, diff.Changed)
	assert.Empty(t, diff.Identical)
	assert.Zero(t, diff.Stale)
	assert.True(t, diff.RequiresReplace())
}

func TestDiffPartition_IdenticalWithinTolerance(t *testing.T) {
	// 0.001 off on volume is below the 0.01 tolerance
	diff := DiffPartition(
		[]*settlement.Record{rec("A", -45.001, 5.2)},
		[]*settlement.Record{rec("A", -45, 5.2)},
	)
	assert.Len(t, diff.Identical, 1)
	assert.False(t, diff.RequiresReplace())
}

func TestDiffPartition_ChangedBeyondTolerance(t *testing.T) {
	diff := DiffPartition(
		[]*settlement.Record{rec("A", -45.02, 5.2)},
		[]*settlement.Record{rec("A", -45, 5.2)},
	)
	assert.Len(t, diff.Changed, 1)
	assert.True(t, diff.RequiresReplace())
}

func TestDiffPartition_FlagChangeIsExact(t *testing.T) {
	stored := rec("A", -45, 5.2)
	authoritative := rec("A", -45, 5.2)
	authoritative.CadlFlag = true
	diff := DiffPartition(
		[]*settlement.Record{authoritative},
		[]*settlement.Record{stored},
	)
	assert.Len(t, diff.Changed, 1)
}

func TestDiffPartition_StaleRecords(t *testing.T) {
	// a farm present in the store but gone from the authoritative stack
	// forces a rewrite even when everything else matches
	diff := DiffPartition(
		[]*settlement.Record{rec("A", -45, 5.2)},
		[]*settlement.Record{rec("A", -45, 5.2), rec("B", -10, 3)},
	)
	assert.Len(t, diff.Identical, 1)
	assert.Equal(t, 1, diff.Stale)
	assert.True(t, diff.RequiresReplace())
}

func TestDiffPartition_Mixed(t *testing.T) {
	diff := DiffPartition(
		[]*settlement.Record{rec("A", -45, 5.2), rec("B", -11, 3), rec("C", -7, 9)},
		[]*settlement.Record{rec("A", -45, 5.2), rec("B", -10, 3)},
	)
	assert.Len(t, diff.Identical, 1)
	assert.Len(t, diff.Changed, 1)
	assert.Len(t, diff.Missing, 1)
	assert.Zero(t, diff.Stale)
}
