package reconcile

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

// MockStore keeps partitions, calculations and summaries in memory. It
// mirrors the guarantees the gorm store provides: a replace is all-or-nothing,
// an injected error leaves the partition untouched, and the Recompute methods
// really re-sum their children so cascade arithmetic can be asserted.
type MockStore struct {
	mu         sync.Mutex
	partitions map[string][]*settlement.Record
	calcs      map[string][]*settlement.BitcoinCalculation
	progress   map[string]int
	reports    []*settlement.RunReport

	dailies          map[string]*settlement.DailySummary
	monthlies        map[string]*settlement.MonthlySummary
	yearlies         map[int]*settlement.YearlySummary
	bitcoinDailies   map[string]decimal.Decimal
	bitcoinMonthlies map[string]decimal.Decimal
	bitcoinYearlies  map[string]decimal.Decimal

	DailyRecomputes          []time.Time
	MonthlyRecomputes        []string
	YearlyRecomputes         []int
	BitcoinDailyRecomputes   []time.Time
	BitcoinMonthlyRecomputes []string
	BitcoinYearlyRecomputes  []int

	ReplaceErr error
	ReadErr    error
}

func NewMockStore() *MockStore {
	return &MockStore{
		partitions:       make(map[string][]*settlement.Record),
		calcs:            make(map[string][]*settlement.BitcoinCalculation),
		progress:         make(map[string]int),
		dailies:          make(map[string]*settlement.DailySummary),
		monthlies:        make(map[string]*settlement.MonthlySummary),
		yearlies:         make(map[int]*settlement.YearlySummary),
		bitcoinDailies:   make(map[string]decimal.Decimal),
		bitcoinMonthlies: make(map[string]decimal.Decimal),
		bitcoinYearlies:  make(map[string]decimal.Decimal),
	}
}

func (m *MockStore) GetPartition(date time.Time, period int) ([]*settlement.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.partitions[mockKey(date, period)], nil
}

func (m *MockStore) ReplacePartition(date time.Time, period int, records []*settlement.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.partitions[mockKey(date, period)] = records
	day := date.Format("2006-01-02")
	if period > m.progress[day] {
		m.progress[day] = period
	}
	return nil
}

func (m *MockStore) ReplaceCalculations(date time.Time, period int, calcs []*settlement.BitcoinCalculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calcs[mockKey(date, period)] = calcs
	return nil
}

func (m *MockStore) CalculationModels(date time.Time, period int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for _, calc := range m.calcs[mockKey(date, period)] {
		seen[calc.MinerModel] = true
	}
	models := make([]string, 0, len(seen))
	for model := range seen {
		models = append(models, model)
	}
	sort.Strings(models)
	return models, nil
}

func (m *MockStore) LastReplacedPeriod(date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress[date.Format("2006-01-02")], nil
}

func (m *MockStore) RecomputeDaily(date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DailyRecomputes = append(m.DailyRecomputes, date)
	day := date.Format("2006-01-02")
	summary := &settlement.DailySummary{
		Date:                 date,
		TotalCurtailedEnergy: decimal.Zero,
		TotalPayment:         decimal.Zero,
	}
	for key, records := range m.partitions {
		if !strings.HasPrefix(key, day+"/") {
			continue
		}
		for _, rec := range records {
			summary.TotalCurtailedEnergy = summary.TotalCurtailedEnergy.Add(rec.Volume.Abs())
			summary.TotalPayment = summary.TotalPayment.Add(rec.Payment)
			summary.RecordCount++
		}
	}
	m.dailies[day] = summary
	return nil
}

func (m *MockStore) RecomputeMonthly(yearMonth string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MonthlyRecomputes = append(m.MonthlyRecomputes, yearMonth)
	summary := &settlement.MonthlySummary{
		YearMonth:            yearMonth,
		TotalCurtailedEnergy: decimal.Zero,
		TotalPayment:         decimal.Zero,
	}
	for day, daily := range m.dailies {
		if !strings.HasPrefix(day, yearMonth) {
			continue
		}
		summary.TotalCurtailedEnergy = summary.TotalCurtailedEnergy.Add(daily.TotalCurtailedEnergy)
		summary.TotalPayment = summary.TotalPayment.Add(daily.TotalPayment)
	}
	m.monthlies[yearMonth] = summary
	return nil
}

func (m *MockStore) RecomputeYearly(year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.YearlyRecomputes = append(m.YearlyRecomputes, year)
	summary := &settlement.YearlySummary{
		Year:                 year,
		TotalCurtailedEnergy: decimal.Zero,
		TotalPayment:         decimal.Zero,
	}
	prefix := strconv.Itoa(year)
	for yearMonth, monthly := range m.monthlies {
		if !strings.HasPrefix(yearMonth, prefix) {
			continue
		}
		summary.TotalCurtailedEnergy = summary.TotalCurtailedEnergy.Add(monthly.TotalCurtailedEnergy)
		summary.TotalPayment = summary.TotalPayment.Add(monthly.TotalPayment)
	}
	m.yearlies[year] = summary
	return nil
}

func (m *MockStore) RecomputeBitcoinDaily(date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BitcoinDailyRecomputes = append(m.BitcoinDailyRecomputes, date)
	day := date.Format("2006-01-02")
	for key := range m.bitcoinDailies {
		if strings.HasPrefix(key, day+"|") {
			delete(m.bitcoinDailies, key)
		}
	}
	for key, calcs := range m.calcs {
		if !strings.HasPrefix(key, day+"/") {
			continue
		}
		for _, calc := range calcs {
			sumKey := day + "|" + calc.MinerModel
			m.bitcoinDailies[sumKey] = m.bitcoinDailies[sumKey].Add(calc.BitcoinMined)
		}
	}
	return nil
}

func (m *MockStore) RecomputeBitcoinMonthly(yearMonth string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BitcoinMonthlyRecomputes = append(m.BitcoinMonthlyRecomputes, yearMonth)
	for key := range m.bitcoinMonthlies {
		if strings.HasPrefix(key, yearMonth+"|") {
			delete(m.bitcoinMonthlies, key)
		}
	}
	for key, mined := range m.bitcoinDailies {
		if !strings.HasPrefix(key, yearMonth) {
			continue
		}
		model := key[strings.Index(key, "|")+1:]
		sumKey := yearMonth + "|" + model
		m.bitcoinMonthlies[sumKey] = m.bitcoinMonthlies[sumKey].Add(mined)
	}
	return nil
}

func (m *MockStore) RecomputeBitcoinYearly(year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BitcoinYearlyRecomputes = append(m.BitcoinYearlyRecomputes, year)
	prefix := strconv.Itoa(year)
	for key := range m.bitcoinYearlies {
		if strings.HasPrefix(key, prefix+"|") {
			delete(m.bitcoinYearlies, key)
		}
	}
	for key, mined := range m.bitcoinMonthlies {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		model := key[strings.Index(key, "|")+1:]
		sumKey := prefix + "|" + model
		m.bitcoinYearlies[sumKey] = m.bitcoinYearlies[sumKey].Add(mined)
	}
	return nil
}

func (m *MockStore) SaveReport(report *settlement.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return nil
}

// Partition returns the stored records of one (date, period).
func (m *MockStore) Partition(date time.Time, period int) []*settlement.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.partitions[mockKey(date, period)]
}

// Calculations returns the stored calculations of one (date, period).
func (m *MockStore) Calculations(date time.Time, period int) []*settlement.BitcoinCalculation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calcs[mockKey(date, period)]
}

// DailySummary returns the recomputed daily summary of a date, nil when the
// cascade never ran for it.
func (m *MockStore) DailySummary(date time.Time) *settlement.DailySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailies[date.Format("2006-01-02")]
}

// MonthlySummary returns the recomputed monthly summary, nil when absent.
func (m *MockStore) MonthlySummary(yearMonth string) *settlement.MonthlySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monthlies[yearMonth]
}

// YearlySummary returns the recomputed yearly summary, nil when absent.
func (m *MockStore) YearlySummary(year int) *settlement.YearlySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.yearlies[year]
}

// BitcoinDaily returns the recomputed daily mining total for one model.
func (m *MockStore) BitcoinDaily(date time.Time, model string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bitcoinDailies[date.Format("2006-01-02")+"|"+model]
}

// BitcoinMonthly returns the recomputed monthly mining total for one model.
func (m *MockStore) BitcoinMonthly(yearMonth, model string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bitcoinMonthlies[yearMonth+"|"+model]
}

// Reports returns the persisted run reports in order.
func (m *MockStore) Reports() []*settlement.RunReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports
}
