package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/elexon"
	"github.com/windwatts/curtailment-mining-watcher/mining"
	"github.com/windwatts/curtailment-mining-watcher/refdata"
)

const (
	// FirstPeriod and LastPeriod bound the half-hour settlement slots of a
	// trading day.
	FirstPeriod = 1
	LastPeriod  = 48
)

// DifficultyFunc resolves the network difficulty valid for a settlement date.
type DifficultyFunc func(date time.Time) (decimal.Decimal, error)

// Config tunes the orchestrator's batching against the API rate ceiling.
type Config struct {
	BatchSize  int
	BatchDelay time.Duration
}

// Runner drives fetch, validate, diff, replace and the cascades across a date
// range and a period range. Each period's failure is isolated and counted;
// only startup problems abort a run.
type Runner struct {
	logger     logging.Logger
	fetcher    elexon.Interface
	store      Store
	registry   *refdata.Registry
	calculator *mining.Calculator
	difficulty DifficultyFunc
	batchSize  int
	batchDelay time.Duration
}

// NewRunner returns an orchestrator over the given collaborators.
func NewRunner(logger logging.Logger, fetcher elexon.Interface, store Store,
	registry *refdata.Registry, calculator *mining.Calculator,
	difficulty DifficultyFunc, config *Config) *Runner {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 4
	}
	return &Runner{
		logger:     logger,
		fetcher:    fetcher,
		store:      store,
		registry:   registry,
		calculator: calculator,
		difficulty: difficulty,
		batchSize:  batchSize,
		batchDelay: config.BatchDelay,
	}
}

// RunDate reconciles all requested periods of one settlement date.
func (r *Runner) RunDate(ctx context.Context, date time.Time, fromPeriod, toPeriod int,
	expectedPayment decimal.Decimal) (*Report, error) {
	return r.RunRange(ctx, date, date, fromPeriod, toPeriod, expectedPayment)
}

// RunRange reconciles every date in [from, to]. Summaries are recomputed once
// per touched date after its period writes complete, and once per touched
// month and year at the end of the run.
func (r *Runner) RunRange(ctx context.Context, from, to time.Time, fromPeriod, toPeriod int,
	expectedPayment decimal.Decimal) (*Report, error) {
	if fromPeriod < FirstPeriod || toPeriod > LastPeriod || fromPeriod > toPeriod {
		return nil, fmt.Errorf("invalid period range [%d, %d]", fromPeriod, toPeriod)
	}
	from, to = Day(from), Day(to)
	if from.After(to) {
		return nil, fmt.Errorf("invalid date range [%v, %v]",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	report := NewReport(from, to, expectedPayment)
	months := make(map[string]bool)
	years := make(map[int]bool)
	bitcoinMonths := make(map[string]bool)
	bitcoinYears := make(map[int]bool)

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		replaced, calcsChanged, err := r.runDate(ctx, date, fromPeriod, toPeriod, report)
		if err != nil {
			return report, err
		}
		if replaced == 0 && calcsChanged == 0 {
			continue
		}
		// All period writes for the date are done; the cascades may now read
		// across the whole date.
		if replaced > 0 {
			if err := r.store.RecomputeDaily(date); err != nil {
				return report, fmt.Errorf("fail to recompute daily summary %w", err)
			}
			months[YearMonth(date)] = true
			years[date.Year()] = true
		}
		if err := r.store.RecomputeBitcoinDaily(date); err != nil {
			return report, fmt.Errorf("fail to recompute bitcoin daily summary %w", err)
		}
		bitcoinMonths[YearMonth(date)] = true
		bitcoinYears[date.Year()] = true
	}

	for month := range months {
		if err := r.store.RecomputeMonthly(month); err != nil {
			return report, fmt.Errorf("fail to recompute monthly summary %w", err)
		}
	}
	for month := range bitcoinMonths {
		if err := r.store.RecomputeBitcoinMonthly(month); err != nil {
			return report, fmt.Errorf("fail to recompute bitcoin monthly summary %w", err)
		}
	}
	for year := range years {
		if err := r.store.RecomputeYearly(year); err != nil {
			return report, fmt.Errorf("fail to recompute yearly summary %w", err)
		}
	}
	for year := range bitcoinYears {
		if err := r.store.RecomputeBitcoinYearly(year); err != nil {
			return report, fmt.Errorf("fail to recompute bitcoin yearly summary %w", err)
		}
	}

	if err := r.store.SaveReport(report.ToModel()); err != nil {
		r.logger.Warn("fail to persist run report %s", err)
	}
	r.logger.Info("run done: %s", report.Summary())
	if !expectedPayment.IsZero() {
		r.logger.Info("deviation from expected payment: %s%%", report.DeviationPct().StringFixed(2))
	}
	return report, nil
}

// runDate processes one date's periods in bounded-concurrency batches and
// returns how many partitions were replaced and how many had their
// calculations rewritten without a partition change.
func (r *Runner) runDate(ctx context.Context, date time.Time, fromPeriod, toPeriod int,
	report *Report) (int64, int64, error) {
	if last, err := r.store.LastReplacedPeriod(date); err != nil {
		r.logger.Warn("fail to read progress for date=%v: %s", date.Format("2006-01-02"), err)
	} else if last > 0 {
		r.logger.Info("date=%v previously replaced up to period %d",
			date.Format("2006-01-02"), last)
	}

	difficulty, diffErr := r.difficulty(date)
	if diffErr != nil {
		r.logger.Warn("no difficulty for date=%v, mining calculations will be skipped: %s",
			date.Format("2006-01-02"), diffErr)
	}

	var replaced, calcsChanged atomic.Int64
	for start := fromPeriod; start <= toPeriod; start += r.batchSize {
		end := start + r.batchSize - 1
		if end > toPeriod {
			end = toPeriod
		}
		group, gctx := errgroup.WithContext(ctx)
		for period := start; period <= end; period++ {
			period := period
			group.Go(func() error {
				return r.processPeriod(gctx, date, period, difficulty, diffErr, report,
					&replaced, &calcsChanged)
			})
		}
		if err := group.Wait(); err != nil {
			return replaced.Load(), calcsChanged.Load(), err
		}
		if end < toPeriod && r.batchDelay > 0 {
			timer := time.NewTimer(r.batchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return replaced.Load(), calcsChanged.Load(), ctx.Err()
			case <-timer.C:
			}
		}
	}
	return replaced.Load(), calcsChanged.Load(), nil
}

// processPeriod runs the full pipeline for one (date, period). Every failure
// except context cancellation is confined to the period.
func (r *Runner) processPeriod(ctx context.Context, date time.Time, period int,
	difficulty decimal.Decimal, difficultyErr error, report *Report,
	replaced, calcsChanged *atomic.Int64) error {
	report.PeriodsRequested.Inc()

	entries, err := r.fetcher.FetchStacks(ctx, date, period)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("period failed on fetch: date=%v period=%v %s",
			date.Format("2006-01-02"), period, err)
		report.PeriodsFailed.Inc()
		return nil
	}
	report.RecordsFetched.Add(int64(len(entries)))

	records, drops := ValidateEntries(date, period, entries, r.registry)
	report.RecordsAdmitted.Add(int64(len(records)))
	report.RecordsDropped.Add(int64(drops.Total()))

	persisted, err := r.store.GetPartition(date, period)
	if err != nil {
		r.logger.Warn("period failed on read: date=%v period=%v %s",
			date.Format("2006-01-02"), period, err)
		report.PeriodsFailed.Inc()
		return nil
	}

	diff := DiffPartition(records, persisted)
	report.Missing.Add(int64(len(diff.Missing)))
	report.Changed.Add(int64(len(diff.Changed)))
	report.Identical.Add(int64(len(diff.Identical)))

	if diff.RequiresReplace() {
		if err := r.store.ReplacePartition(date, period, records); err != nil {
			// The transaction rolled back; the partition keeps its
			// pre-attempt state.
			r.logger.Warn("period failed on replace: date=%v period=%v %s",
				date.Format("2006-01-02"), period, err)
			report.PeriodsFailed.Inc()
			return nil
		}
		replaced.Inc()
		report.Replaced.Inc()
		r.writeCalculations(date, period, records, difficulty, difficultyErr, report)
	} else if difficultyErr == nil && len(records) > 0 {
		// The partition is untouched, but calculations stay keyed to the
		// active miner-model set. A profile added or retired since the last
		// run reshapes that set, so the rows are rebuilt even without a
		// curtailment change.
		stored, err := r.store.CalculationModels(date, period)
		if err != nil {
			r.logger.Warn("fail to read calculation models: date=%v period=%v %s",
				date.Format("2006-01-02"), period, err)
		} else if !modelsMatch(stored, r.calculator.Models()) {
			if r.writeCalculations(date, period, records, difficulty, difficultyErr, report) {
				calcsChanged.Inc()
			}
		}
	}

	volume, payment := decimal.Zero, decimal.Zero
	for _, rec := range records {
		volume = volume.Add(rec.Volume.Abs())
		payment = payment.Add(rec.Payment)
	}
	report.AddTotals(volume, payment)
	report.PeriodsSucceeded.Inc()
	return nil
}

// writeCalculations recomputes and replaces the partition's Bitcoin
// calculations, reporting success only when the rows reached the store.
func (r *Runner) writeCalculations(date time.Time, period int, records []*settlement.Record,
	difficulty decimal.Decimal, difficultyErr error, report *Report) bool {
	if difficultyErr != nil {
		report.CalcsFailed.Add(int64(len(records) * len(r.calculator.Models())))
		return false
	}
	calcs, failed := r.calculator.ComputePartition(
		date, period, records, difficulty, time.Now().Unix())
	report.CalcsFailed.Add(int64(failed))
	if err := r.store.ReplaceCalculations(date, period, calcs); err != nil {
		r.logger.Warn("fail to replace calculations: date=%v period=%v %s",
			date.Format("2006-01-02"), period, err)
		report.CalcsFailed.Add(int64(len(calcs)))
		return false
	}
	report.CalcsWritten.Add(int64(len(calcs)))
	return true
}

// modelsMatch compares two sorted model lists.
func modelsMatch(stored, want []string) bool {
	if len(stored) != len(want) {
		return false
	}
	for i := range stored {
		if stored[i] != want[i] {
			return false
		}
	}
	return true
}
