package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/elexon"
	"github.com/windwatts/curtailment-mining-watcher/refdata"
)

var testDate = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func testRegistry() *refdata.Registry {
	return refdata.NewRegistry([]settlement.WindFarm{
		{BMUID: "T_WHILW-1", Name: "Whitelee", LeadPartyName: "ScottishPower", FuelType: "WIND"},
		{BMUID: "T_CLDRW-1", Name: "Clyde", LeadPartyName: "SSE", FuelType: "WIND"},
	})
}

func TestValidateEntries_Admits(t *testing.T) {
	entries := []elexon.StackEntry{
		{
			BMUID:         "T_WHILW-1",
			Volume:        decimal.NewFromInt(-45),
			OriginalPrice: decimal.NewFromFloat(5.2),
			FinalPrice:    decimal.NewFromFloat(4.9),
			SoFlag:        true,
		},
	}
	records, drops := ValidateEntries(testDate, 17, entries, testRegistry())
	require.Len(t, records, 1)
	assert.Zero(t, drops.Total())

	r := records[0]
	assert.Equal(t, "T_WHILW-1", r.FarmID)
	assert.Equal(t, "ScottishPower", r.LeadPartyName)
	assert.Equal(t, testDate, r.SettlementDate)
	assert.Equal(t, 17, r.SettlementPeriod)
	assert.True(t, r.Volume.Equal(decimal.NewFromInt(-45)))
	// payment is abs(volume) * originalPrice, stored positive
	assert.True(t, r.Payment.Equal(decimal.NewFromInt(234)), "payment %s", r.Payment)
	assert.True(t, r.SoFlag)
	assert.False(t, r.CadlFlag)
}

func TestValidateEntries_DropReasons(t *testing.T) {
	entries := []elexon.StackEntry{
		// positive volume: an offer, not curtailment
		{BMUID: "T_WHILW-1", Volume: decimal.NewFromInt(30), SoFlag: true},
		// zero volume is not curtailment either
		{BMUID: "T_WHILW-1", Volume: decimal.Zero, SoFlag: true},
		// neither flag set: not a system action
		{BMUID: "T_WHILW-1", Volume: decimal.NewFromInt(-10)},
		// unit missing from the registry
		{BMUID: "T_GAS-7", Volume: decimal.NewFromInt(-10), CadlFlag: true},
	}
	records, drops := ValidateEntries(testDate, 1, entries, testRegistry())
	assert.Empty(t, records)
	assert.Equal(t, 2, drops.NotCurtailment)
	assert.Equal(t, 1, drops.FlagsUnset)
	assert.Equal(t, 1, drops.Unmapped)
	assert.Equal(t, 4, drops.Total())
}

func TestValidateEntries_CadlOnlyAdmitted(t *testing.T) {
	entries := []elexon.StackEntry{
		{BMUID: "T_CLDRW-1", Volume: decimal.NewFromInt(-5),
			OriginalPrice: decimal.NewFromInt(10), CadlFlag: true},
	}
	records, drops := ValidateEntries(testDate, 1, entries, testRegistry())
	require.Len(t, records, 1)
	assert.Zero(t, drops.Total())
	assert.True(t, records[0].CadlFlag)
}

func TestValidateEntries_MergesAcceptances(t *testing.T) {
	entries := []elexon.StackEntry{
		{BMUID: "T_WHILW-1", AcceptanceID: 101, Volume: decimal.NewFromInt(-20),
			OriginalPrice: decimal.NewFromInt(4), SoFlag: true},
		{BMUID: "T_CLDRW-1", AcceptanceID: 201, Volume: decimal.NewFromInt(-5),
			OriginalPrice: decimal.NewFromInt(10), CadlFlag: true},
		{BMUID: "T_WHILW-1", AcceptanceID: 102, Volume: decimal.NewFromInt(-10),
			OriginalPrice: decimal.NewFromInt(7), CadlFlag: true},
	}
	records, drops := ValidateEntries(testDate, 30, entries, testRegistry())
	require.Len(t, records, 2)
	assert.Zero(t, drops.Total())

	// insertion order is preserved
	merged := records[0]
	assert.Equal(t, "T_WHILW-1", merged.FarmID)
	assert.True(t, merged.Volume.Equal(decimal.NewFromInt(-30)))
	// 20*4 + 10*7 = 150
	assert.True(t, merged.Payment.Equal(decimal.NewFromInt(150)), "payment %s", merged.Payment)
	// merged original price is volume-weighted: 150/30
	assert.True(t, merged.OriginalPrice.Equal(decimal.NewFromInt(5)), "price %s", merged.OriginalPrice)
	assert.True(t, merged.SoFlag)
	assert.True(t, merged.CadlFlag)

	assert.Equal(t, "T_CLDRW-1", records[1].FarmID)
}
