package mining

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/refdata"
)

// ErrInvalidDifficulty means the difficulty sample is non-positive; the
// affected calculation is skipped and counted, other combinations proceed.
var ErrInvalidDifficulty = errors.New("invalid network difficulty")

// ErrUnknownMinerModel means the model has no profile.
var ErrUnknownMinerModel = errors.New("unknown miner model")

const (
	blocksPerDay  = 144
	periodsPerDay = 48
)

var (
	two32         = decimal.NewFromInt(1 << 32)
	blockInterval = decimal.NewFromInt(600)
	joulesPerTera = decimal.New(1, 12)
	kiloScale     = decimal.NewFromInt(1000)
)

// Calculator converts curtailed energy into the Bitcoin it could have mined
// per miner model. Profiles are loaded once per run.
type Calculator struct {
	logger   logging.Logger
	profiles map[string]settlement.MinerProfile
	models   []string
}

// NewCalculator returns a calculator over the given hardware profiles.
func NewCalculator(logger logging.Logger, profiles []settlement.MinerProfile) *Calculator {
	c := &Calculator{
		logger:   logger,
		profiles: make(map[string]settlement.MinerProfile, len(profiles)),
	}
	for _, p := range profiles {
		c.profiles[p.Model] = p
		c.models = append(c.models, p.Model)
	}
	sort.Strings(c.models)
	return c
}

// Models returns the known model names in stable order.
func (c *Calculator) Models() []string {
	return c.models
}

// Compute returns the Bitcoin one half-hour settlement period of curtailed
// energy could have mined on the given model under the given difficulty.
//
//	networkHashrateTH = difficulty * 2^32 / 600 / 1e12
//	thPerMWh          = 1000 / efficiencyJPerTH
//	bitcoinPerDay     = thPerMWh * energyMWh / networkHashrateTH * blockReward * 144
//	bitcoinPerPeriod  = bitcoinPerDay / 48
func (c *Calculator) Compute(energyMWh decimal.Decimal, model string, difficulty decimal.Decimal, blockReward decimal.Decimal) (decimal.Decimal, error) {
	if difficulty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidDifficulty
	}
	profile, ok := c.profiles[model]
	if !ok {
		return decimal.Zero, ErrUnknownMinerModel
	}
	if energyMWh.IsZero() {
		return decimal.Zero, nil
	}
	networkHashrateTH := difficulty.Mul(two32).Div(blockInterval).Div(joulesPerTera)
	thPerMWh := kiloScale.Div(profile.EfficiencyJPerTH)
	bitcoinPerDay := thPerMWh.Mul(energyMWh).Div(networkHashrateTH).
		Mul(blockReward).Mul(decimal.NewFromInt(blocksPerDay))
	return bitcoinPerDay.Div(decimal.NewFromInt(periodsPerDay)), nil
}

// ComputePartition computes one calculation per (record, model) combination
// of a reconciled partition. The block reward is resolved from the halving
// schedule for the settlement date. Failed combinations are counted, not
// fatal.
func (c *Calculator) ComputePartition(date time.Time, period int, records []*settlement.Record,
	difficulty decimal.Decimal, calculatedAt int64) ([]*settlement.BitcoinCalculation, int) {
	reward := refdata.BlockRewardAt(date)
	calcs := make([]*settlement.BitcoinCalculation, 0, len(records)*len(c.models))
	failed := 0
	for _, r := range records {
		for _, model := range c.models {
			mined, err := c.Compute(r.Volume.Abs(), model, difficulty, reward)
			if err != nil {
				failed++
				c.logger.Warn("skip calculation: farm=%v model=%v %s", r.FarmID, model, err)
				continue
			}
			calcs = append(calcs, &settlement.BitcoinCalculation{
				SettlementDate:   date,
				SettlementPeriod: period,
				FarmID:           r.FarmID,
				MinerModel:       model,
				BitcoinMined:     mined,
				Difficulty:       difficulty,
				CalculatedAt:     calculatedAt,
			})
		}
	}
	return calcs, failed
}
