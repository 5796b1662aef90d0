package reconcile

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

// Report accumulates per-period statistics across concurrent workers. The
// counters are atomics; the decimal totals are guarded by a mutex.
type Report struct {
	DateFrom time.Time
	DateTo   time.Time

	StartedAt  int64
	FinishedAt int64

	PeriodsRequested atomic.Int64
	PeriodsSucceeded atomic.Int64
	PeriodsFailed    atomic.Int64
	RecordsFetched   atomic.Int64
	RecordsAdmitted  atomic.Int64
	RecordsDropped   atomic.Int64
	Missing          atomic.Int64
	Changed          atomic.Int64
	Identical        atomic.Int64
	Replaced         atomic.Int64
	CalcsWritten     atomic.Int64
	CalcsFailed      atomic.Int64

	mu              sync.Mutex
	totalVolume     decimal.Decimal
	totalPayment    decimal.Decimal
	expectedPayment decimal.Decimal
}

// NewReport returns a report covering the date range.
func NewReport(from, to time.Time, expectedPayment decimal.Decimal) *Report {
	return &Report{
		DateFrom:        from,
		DateTo:          to,
		StartedAt:       time.Now().Unix(),
		expectedPayment: expectedPayment,
	}
}

// AddTotals accumulates a period's curtailed volume and payment.
func (r *Report) AddTotals(volume, payment decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalVolume = r.totalVolume.Add(volume)
	r.totalPayment = r.totalPayment.Add(payment)
}

// TotalVolume returns the accumulated absolute curtailed volume.
func (r *Report) TotalVolume() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalVolume
}

// TotalPayment returns the accumulated payment.
func (r *Report) TotalPayment() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalPayment
}

// DeviationPct returns the percentage deviation of the accumulated payment
// from the expected total, zero when no expectation was supplied.
func (r *Report) DeviationPct() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expectedPayment.IsZero() {
		return decimal.Zero
	}
	return r.totalPayment.Sub(r.expectedPayment).
		Div(r.expectedPayment).Mul(decimal.NewFromInt(100))
}

// ToModel freezes the report into its persisted form.
func (r *Report) ToModel() *settlement.RunReport {
	r.FinishedAt = time.Now().Unix()
	r.mu.Lock()
	defer r.mu.Unlock()
	return &settlement.RunReport{
		DateFrom:         r.DateFrom,
		DateTo:           r.DateTo,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		PeriodsRequested: r.PeriodsRequested.Load(),
		PeriodsSucceeded: r.PeriodsSucceeded.Load(),
		PeriodsFailed:    r.PeriodsFailed.Load(),
		RecordsFetched:   r.RecordsFetched.Load(),
		RecordsAdmitted:  r.RecordsAdmitted.Load(),
		RecordsDropped:   r.RecordsDropped.Load(),
		Missing:          r.Missing.Load(),
		Changed:          r.Changed.Load(),
		Identical:        r.Identical.Load(),
		Replaced:         r.Replaced.Load(),
		CalcsWritten:     r.CalcsWritten.Load(),
		CalcsFailed:      r.CalcsFailed.Load(),
		TotalVolume:      r.totalVolume,
		TotalPayment:     r.totalPayment,
		ExpectedPayment:  r.expectedPayment,
		DeviationPct:     r.deviationPctLocked(),
	}
}

func (r *Report) deviationPctLocked() decimal.Decimal {
	if r.expectedPayment.IsZero() {
		return decimal.Zero
	}
	return r.totalPayment.Sub(r.expectedPayment).
		Div(r.expectedPayment).Mul(decimal.NewFromInt(100))
}

// Summary returns a one-line run summary for the log.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"periods %d/%d ok (%d failed), records fetched=%d admitted=%d dropped=%d, "+
			"diff missing=%d changed=%d identical=%d, replaced=%d partitions, "+
			"calcs written=%d failed=%d, volume=%s MWh payment=%s",
		r.PeriodsSucceeded.Load(), r.PeriodsRequested.Load(), r.PeriodsFailed.Load(),
		r.RecordsFetched.Load(), r.RecordsAdmitted.Load(), r.RecordsDropped.Load(),
		r.Missing.Load(), r.Changed.Load(), r.Identical.Load(), r.Replaced.Load(),
		r.CalcsWritten.Load(), r.CalcsFailed.Load(),
		r.TotalVolume(), r.TotalPayment())
}
