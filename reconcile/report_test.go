package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_DeviationPct(t *testing.T) {
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	r := NewReport(from, from, decimal.NewFromInt(200))
	r.AddTotals(decimal.NewFromInt(50), decimal.NewFromInt(110))
	r.AddTotals(decimal.NewFromInt(40), decimal.NewFromInt(100))

	// (210 - 200) / 200 * 100 = 5%
	assert.True(t, r.DeviationPct().Equal(decimal.NewFromInt(5)),
		"deviation %s", r.DeviationPct())
	assert.True(t, r.TotalVolume().Equal(decimal.NewFromInt(90)))
	assert.True(t, r.TotalPayment().Equal(decimal.NewFromInt(210)))
}

func TestReport_NoExpectation(t *testing.T) {
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	r := NewReport(from, from, decimal.Zero)
	r.AddTotals(decimal.NewFromInt(50), decimal.NewFromInt(110))
	assert.True(t, r.DeviationPct().IsZero())
}

func TestReport_ToModel(t *testing.T) {
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	r := NewReport(from, to, decimal.NewFromInt(100))
	r.PeriodsRequested.Store(48)
	r.PeriodsSucceeded.Store(46)
	r.PeriodsFailed.Store(2)
	r.Replaced.Store(12)
	r.AddTotals(decimal.NewFromInt(500), decimal.NewFromInt(90))

	m := r.ToModel()
	require.NotNil(t, m)
	assert.Equal(t, from, m.DateFrom)
	assert.Equal(t, to, m.DateTo)
	assert.Equal(t, int64(48), m.PeriodsRequested)
	assert.Equal(t, int64(46), m.PeriodsSucceeded)
	assert.Equal(t, int64(2), m.PeriodsFailed)
	assert.Equal(t, int64(12), m.Replaced)
	assert.True(t, m.TotalPayment.Equal(decimal.NewFromInt(90)))
	// (90 - 100) / 100 * 100 = -10%
	assert.True(t, m.DeviationPct.Equal(decimal.NewFromInt(-10)),
		"deviation %s", m.DeviationPct)
	assert.GreaterOrEqual(t, m.FinishedAt, m.StartedAt)
}
