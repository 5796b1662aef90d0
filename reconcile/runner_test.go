package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/elexon"
	"github.com/windwatts/curtailment-mining-watcher/mining"
	"github.com/windwatts/curtailment-mining-watcher/types"
)

type RunnerTestSuite struct {
	suite.Suite

	date    time.Time
	fetcher *MockFetcher
	store   *MockStore
	runner  *Runner
}

func (s *RunnerTestSuite) SetupTest() {
	s.date = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	s.fetcher = NewMockFetcher()
	s.store = NewMockStore()

	logger := logging.NewLoggerTag("runner-test")
	calculator := mining.NewCalculator(logger, []settlement.MinerProfile{
		{Model: "S19-XP", EfficiencyJPerTH: decimal.NewFromFloat(21.5), Active: true},
	})
	difficulty := func(time.Time) (decimal.Decimal, error) {
		return decimal.NewFromInt(1000000), nil
	}
	s.runner = NewRunner(logger, s.fetcher, s.store, testRegistry(), calculator,
		difficulty, &Config{BatchSize: 4})
}

func (s *RunnerTestSuite) entry(volume, price float64) elexon.StackEntry {
	return elexon.StackEntry{
		BMUID:         "T_WHILW-1",
		Volume:        decimal.NewFromFloat(volume),
		OriginalPrice: decimal.NewFromFloat(price),
		FinalPrice:    decimal.NewFromFloat(price),
		SoFlag:        true,
	}
}

func (s *RunnerTestSuite) TestFirstRunReplacesAndCascades() {
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})
	s.fetcher.SetStacks(s.date, 2, []elexon.StackEntry{s.entry(-10, 3)})

	report, err := s.runner.RunDate(context.Background(), s.date, 1, 2, decimal.Zero)
	s.Require().NoError(err)

	s.Equal(int64(2), report.PeriodsRequested.Load())
	s.Equal(int64(2), report.PeriodsSucceeded.Load())
	s.Equal(int64(2), report.Replaced.Load())
	s.Equal(int64(2), report.Missing.Load())
	s.True(report.TotalPayment().Equal(decimal.NewFromInt(264)),
		"payment %s", report.TotalPayment())
	s.True(report.TotalVolume().Equal(decimal.NewFromInt(55)))

	s.Len(s.store.Partition(s.date, 1), 1)
	s.Len(s.store.Partition(s.date, 2), 1)
	s.Len(s.store.Calculations(s.date, 1), 1)

	// one daily cascade per touched date, one monthly and yearly at the end
	s.Equal([]time.Time{s.date}, s.store.DailyRecomputes)
	s.Equal([]string{"2025-03"}, s.store.MonthlyRecomputes)
	s.Equal([]int{2025}, s.store.YearlyRecomputes)
	s.Equal([]time.Time{s.date}, s.store.BitcoinDailyRecomputes)

	// the daily summary really is the sum over the date's records
	daily := s.store.DailySummary(s.date)
	s.Require().NotNil(daily)
	s.True(daily.TotalCurtailedEnergy.Equal(decimal.NewFromInt(55)),
		"energy %s", daily.TotalCurtailedEnergy)
	s.True(daily.TotalPayment.Equal(decimal.NewFromInt(264)))
	s.Equal(int64(2), daily.RecordCount)

	last, err := s.store.LastReplacedPeriod(s.date)
	s.Require().NoError(err)
	s.Equal(2, last)

	s.Len(s.store.Reports(), 1)
}

func (s *RunnerTestSuite) TestIdenticalRerunSkipsRewrites() {
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})

	_, err := s.runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	// second run sees a hair-width difference, below tolerance
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45.001, 5.2)})
	report, err := s.runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	s.Equal(int64(0), report.Replaced.Load())
	s.Equal(int64(1), report.Identical.Load())
	s.Equal(int64(1), report.PeriodsSucceeded.Load())
	// no cascade ran for the second run
	s.Len(s.store.DailyRecomputes, 1)
	s.Len(s.store.MonthlyRecomputes, 1)
}

func (s *RunnerTestSuite) TestFetchFailureIsolated() {
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})
	s.fetcher.FailWith(s.date, 2, &elexon.NetworkError{Side: types.BidStack, StatusCode: 503})

	report, err := s.runner.RunDate(context.Background(), s.date, 1, 2, decimal.Zero)
	s.Require().NoError(err)

	s.Equal(int64(1), report.PeriodsSucceeded.Load())
	s.Equal(int64(1), report.PeriodsFailed.Load())
	// the healthy period still landed and cascaded
	s.Len(s.store.Partition(s.date, 1), 1)
	s.Empty(s.store.Partition(s.date, 2))
	s.Len(s.store.DailyRecomputes, 1)
}

func (s *RunnerTestSuite) TestReplaceFailureLeavesPartition() {
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})
	s.store.ReplaceErr = errors.New("deadlock detected")

	report, err := s.runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	s.Equal(int64(1), report.PeriodsFailed.Load())
	s.Equal(int64(0), report.Replaced.Load())
	s.Empty(s.store.Partition(s.date, 1))
	// nothing replaced, nothing recomputed
	s.Empty(s.store.DailyRecomputes)
}

func (s *RunnerTestSuite) TestAllPeriodsFailed() {
	s.fetcher.FailWith(s.date, 1, &elexon.NetworkError{Side: types.OfferStack, StatusCode: 500})

	report, err := s.runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)
	s.Equal(int64(0), report.PeriodsSucceeded.Load())
	s.Equal(int64(1), report.PeriodsFailed.Load())
}

func (s *RunnerTestSuite) TestRangeCascadesOncePerMonth() {
	// two dates in the same month: one monthly and one yearly recompute
	day2 := s.date.AddDate(0, 0, 1)
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})
	s.fetcher.SetStacks(day2, 1, []elexon.StackEntry{s.entry(-12, 4)})

	_, err := s.runner.RunRange(context.Background(), s.date, day2, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	s.Len(s.store.DailyRecomputes, 2)
	s.Equal([]string{"2025-03"}, s.store.MonthlyRecomputes)
	s.Equal([]int{2025}, s.store.YearlyRecomputes)
}

func (s *RunnerTestSuite) TestNewMinerModelRebuildsCalculations() {
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})

	_, err := s.runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)
	s.Len(s.store.Calculations(s.date, 1), 1)

	// a second profile goes live; the curtailment data is unchanged
	logger := logging.NewLoggerTag("runner-test")
	calculator := mining.NewCalculator(logger, []settlement.MinerProfile{
		{Model: "S19-XP", EfficiencyJPerTH: decimal.NewFromFloat(21.5), Active: true},
		{Model: "M50S", EfficiencyJPerTH: decimal.NewFromFloat(26), Active: true},
	})
	runner := NewRunner(logger, s.fetcher, s.store, testRegistry(), calculator,
		s.runner.difficulty, &Config{BatchSize: 4})

	report, err := runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	// no partition write, yet both models now have calculation rows
	s.Equal(int64(0), report.Replaced.Load())
	s.Equal(int64(2), report.CalcsWritten.Load())
	s.Len(s.store.Calculations(s.date, 1), 2)

	// only the mining cascade reruns
	s.Len(s.store.BitcoinDailyRecomputes, 2)
	s.Len(s.store.BitcoinMonthlyRecomputes, 2)
	s.Len(s.store.DailyRecomputes, 1)
	s.Len(s.store.MonthlyRecomputes, 1)
	s.True(s.store.BitcoinDaily(s.date, "M50S").IsPositive())
}

func (s *RunnerTestSuite) TestCascadeSumsAcrossDates() {
	day2 := s.date.AddDate(0, 0, 1)
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})
	s.fetcher.SetStacks(day2, 1, []elexon.StackEntry{s.entry(-12, 4)})

	_, err := s.runner.RunRange(context.Background(), s.date, day2, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	// monthly totals are the sums of the daily summaries, yearly of the monthly
	monthly := s.store.MonthlySummary("2025-03")
	s.Require().NotNil(monthly)
	s.True(monthly.TotalCurtailedEnergy.Equal(decimal.NewFromInt(57)),
		"energy %s", monthly.TotalCurtailedEnergy)
	s.True(monthly.TotalPayment.Equal(decimal.NewFromInt(282)))

	yearly := s.store.YearlySummary(2025)
	s.Require().NotNil(yearly)
	s.True(yearly.TotalCurtailedEnergy.Equal(monthly.TotalCurtailedEnergy))
	s.True(yearly.TotalPayment.Equal(monthly.TotalPayment))

	mined := s.store.BitcoinDaily(s.date, "S19-XP").Add(s.store.BitcoinDaily(day2, "S19-XP"))
	s.True(mined.IsPositive())
	s.True(s.store.BitcoinMonthly("2025-03", "S19-XP").Equal(mined))
}

func (s *RunnerTestSuite) TestDifficultyLookupFailureSkipsCalcs() {
	s.runner.difficulty = func(time.Time) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("no sample")
	}
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})

	report, err := s.runner.RunDate(context.Background(), s.date, 1, 1, decimal.Zero)
	s.Require().NoError(err)

	// partition replace still happens, calculations are counted as failed
	s.Equal(int64(1), report.Replaced.Load())
	s.Equal(int64(0), report.CalcsWritten.Load())
	s.Equal(int64(1), report.CalcsFailed.Load())
	s.Empty(s.store.Calculations(s.date, 1))
}

func (s *RunnerTestSuite) TestDeviationAgainstExpectation() {
	s.fetcher.SetStacks(s.date, 1, []elexon.StackEntry{s.entry(-45, 5.2)})

	report, err := s.runner.RunDate(context.Background(), s.date, 1, 1,
		decimal.NewFromInt(200))
	s.Require().NoError(err)
	// 234 against 200 expected: +17%
	s.True(report.DeviationPct().Equal(decimal.NewFromInt(17)),
		"deviation %s", report.DeviationPct())
}

func (s *RunnerTestSuite) TestInvalidRanges() {
	_, err := s.runner.RunDate(context.Background(), s.date, 0, 48, decimal.Zero)
	s.Error(err)
	_, err = s.runner.RunDate(context.Background(), s.date, 1, 49, decimal.Zero)
	s.Error(err)
	_, err = s.runner.RunDate(context.Background(), s.date, 10, 9, decimal.Zero)
	s.Error(err)
	_, err = s.runner.RunRange(context.Background(),
		s.date, s.date.AddDate(0, 0, -1), 1, 48, decimal.Zero)
	s.Error(err)
}

func (s *RunnerTestSuite) TestCancelledContextAborts() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.fetcher.FailWith(s.date, 1, context.Canceled)

	_, err := s.runner.RunDate(ctx, s.date, 1, 1, decimal.Zero)
	s.ErrorIs(err, context.Canceled)
}

func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}
