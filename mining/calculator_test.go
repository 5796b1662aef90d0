package mining

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

func testProfiles() []settlement.MinerProfile {
	return []settlement.MinerProfile{
		{Model: "S19-XP", EfficiencyJPerTH: decimal.NewFromFloat(21.5), Active: true},
		{Model: "S9", EfficiencyJPerTH: decimal.NewFromFloat(98), Active: true},
	}
}

func newTestCalculator() *Calculator {
	return NewCalculator(logging.NewLoggerTag("test"), testProfiles())
}

func TestCalculator_ZeroEnergy(t *testing.T) {
	c := newTestCalculator()
	mined, err := c.Compute(decimal.Zero, "S19-XP",
		decimal.NewFromInt(1000000), decimal.NewFromFloat(3.125))
	require.NoError(t, err)
	assert.True(t, mined.IsZero())
}

func TestCalculator_InvalidDifficulty(t *testing.T) {
	c := newTestCalculator()
	for _, difficulty := range []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-1),
	} {
		_, err := c.Compute(decimal.NewFromInt(10), "S19-XP",
			difficulty, decimal.NewFromFloat(3.125))
		assert.ErrorIs(t, err, ErrInvalidDifficulty)
	}
}

func TestCalculator_UnknownModel(t *testing.T) {
	c := newTestCalculator()
	_, err := c.Compute(decimal.NewFromInt(10), "S17",
		decimal.NewFromInt(1000000), decimal.NewFromFloat(3.125))
	assert.ErrorIs(t, err, ErrUnknownMinerModel)
}

func TestCalculator_MoreDifficultyLessBitcoin(t *testing.T) {
	c := newTestCalculator()
	energy := decimal.NewFromInt(45)
	reward := decimal.NewFromFloat(3.125)

	low, err := c.Compute(energy, "S19-XP", decimal.NewFromInt(1000000), reward)
	require.NoError(t, err)
	high, err := c.Compute(energy, "S19-XP", decimal.NewFromInt(2000000), reward)
	require.NoError(t, err)

	assert.True(t, low.IsPositive())
	assert.True(t, high.IsPositive())
	assert.True(t, high.LessThan(low))
	// difficulty is inversely proportional, so doubling it halves the yield
	assert.True(t, high.Mul(decimal.NewFromInt(2)).Sub(low).Abs().
		LessThan(decimal.NewFromFloat(1e-9)))
}

func TestCalculator_MoreEnergyMoreBitcoin(t *testing.T) {
	c := newTestCalculator()
	difficulty := decimal.NewFromInt(1000000)
	reward := decimal.NewFromFloat(3.125)

	small, err := c.Compute(decimal.NewFromInt(10), "S9", difficulty, reward)
	require.NoError(t, err)
	big, err := c.Compute(decimal.NewFromInt(20), "S9", difficulty, reward)
	require.NoError(t, err)

	assert.True(t, small.LessThan(big))
	assert.True(t, big.Sub(small.Mul(decimal.NewFromInt(2))).Abs().
		LessThan(decimal.NewFromFloat(1e-9)))
}

func TestCalculator_EfficientModelMinesMore(t *testing.T) {
	c := newTestCalculator()
	energy := decimal.NewFromInt(45)
	difficulty := decimal.NewFromInt(1000000)
	reward := decimal.NewFromFloat(3.125)

	xp, err := c.Compute(energy, "S19-XP", difficulty, reward)
	require.NoError(t, err)
	s9, err := c.Compute(energy, "S9", difficulty, reward)
	require.NoError(t, err)

	// fewer joules per terahash means more hashes per MWh
	assert.True(t, s9.LessThan(xp))
}

func TestCalculator_ComputePartition(t *testing.T) {
	c := newTestCalculator()
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	records := []*settlement.Record{
		{FarmID: "WHILW-1", Volume: decimal.NewFromInt(-45)},
		{FarmID: "CLDRW-1", Volume: decimal.NewFromInt(-12)},
	}

	calcs, failed := c.ComputePartition(date, 17, records,
		decimal.NewFromInt(1000000), 1700000000)
	require.Zero(t, failed)
	require.Len(t, calcs, 4)

	for _, calc := range calcs {
		assert.Equal(t, date, calc.SettlementDate)
		assert.Equal(t, 17, calc.SettlementPeriod)
		assert.True(t, calc.BitcoinMined.IsPositive())
		assert.Equal(t, int64(1700000000), calc.CalculatedAt)
	}
	// models are emitted in stable order per record
	assert.Equal(t, "WHILW-1", calcs[0].FarmID)
	assert.Equal(t, "S19-XP", calcs[0].MinerModel)
	assert.Equal(t, "S9", calcs[1].MinerModel)
}

func TestCalculator_ComputePartitionBadDifficulty(t *testing.T) {
	c := newTestCalculator()
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	records := []*settlement.Record{
		{FarmID: "WHILW-1", Volume: decimal.NewFromInt(-45)},
	}

	calcs, failed := c.ComputePartition(date, 1, records, decimal.Zero, 0)
	assert.Empty(t, calcs)
	assert.Equal(t, 2, failed)
}
