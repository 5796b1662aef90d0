package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	"github.com/windwatts/curtailment-mining-watcher/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps partition replacement and cascade recomputation over gorm.
// One (settlement_date, settlement_period) partition is always written as a
// single atomic unit; summaries are recomputed as full SUMs over their
// children, never patched with deltas.
type Store struct {
	db *gorm.DB
}

// NewStore returns a store on the given gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetPartition returns the persisted records for one (date, period) key.
func (s *Store) GetPartition(date time.Time, period int) ([]*settlement.Record, error) {
	var records []*settlement.Record
	err := s.db.Where("settlement_date=? and settlement_period=?", date, period).
		Order("farm_id asc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("fail to fetch partition: date=%v period=%v %w",
			date.Format("2006-01-02"), period, err)
	}
	return records, nil
}

// ReplacePartition deletes every persisted record of the partition and
// inserts the authoritative set, in one transaction. The progress marker is
// advanced in the same transaction so a crash can never leave a deleted but
// unfilled partition unnoticed.
func (s *Store) ReplacePartition(date time.Time, period int, records []*settlement.Record) error {
	err := WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("settlement_date=? and settlement_period=?", date, period).
			Delete(&settlement.Record{}).Error; err != nil {
			return fmt.Errorf("fail to delete partition %w", err)
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 500).Error; err != nil {
				return fmt.Errorf("fail to insert partition: size=%v %w", len(records), err)
			}
		}
		return s.saveProgress(tx, date, period)
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("fail to replace partition: date=%v period=%v %w",
			date.Format("2006-01-02"), period, err)
	}
	return nil
}

// ReplaceCalculations replaces every Bitcoin calculation of the partition.
func (s *Store) ReplaceCalculations(date time.Time, period int, calcs []*settlement.BitcoinCalculation) error {
	err := WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("settlement_date=? and settlement_period=?", date, period).
			Delete(&settlement.BitcoinCalculation{}).Error; err != nil {
			return fmt.Errorf("fail to delete calculations %w", err)
		}
		if len(calcs) > 0 {
			if err := tx.CreateInBatches(calcs, 500).Error; err != nil {
				return fmt.Errorf("fail to insert calculations: size=%v %w", len(calcs), err)
			}
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("fail to replace calculations: date=%v period=%v %w",
			date.Format("2006-01-02"), period, err)
	}
	return nil
}

// CalculationModels returns the distinct miner models with persisted
// calculations for the partition, sorted.
func (s *Store) CalculationModels(date time.Time, period int) ([]string, error) {
	var models []string
	err := s.db.Raw(
		`SELECT DISTINCT miner_model FROM "bitcoin_calculation"
		 WHERE settlement_date = ? AND settlement_period = ? ORDER BY miner_model`,
		date, period).Scan(&models).Error
	if err != nil {
		return nil, fmt.Errorf("fail to fetch calculation models: date=%v period=%v %w",
			date.Format("2006-01-02"), period, err)
	}
	return models, nil
}

func (s *Store) saveProgress(tx *gorm.DB, date time.Time, period int) error {
	p := &settlement.Progress{TableName: types.CurtailmentRecord, Date: date, Period: period}
	var existing settlement.Progress
	err := tx.Where("table_name=? and date=?", types.CurtailmentRecord, date).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("fail to get progress %w", err)
		}
		return tx.Create(p).Error
	}
	if existing.Period >= period {
		return nil
	}
	return tx.Model(&settlement.Progress{}).
		Where("table_name=? and date=?", types.CurtailmentRecord, date).
		UpdateColumn("period", period).Error
}

// LastReplacedPeriod returns the highest period replaced for the date, 0 when
// the date has never been processed.
func (s *Store) LastReplacedPeriod(date time.Time) (int, error) {
	var p settlement.Progress
	err := s.db.Where("table_name=? and date=?", types.CurtailmentRecord, date).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("fail to get progress %w", err)
	}
	return p.Period, nil
}

type sumRow struct {
	Energy  decimal.Decimal
	Payment decimal.Decimal
	Count   int64
}

// RecomputeDaily recomputes the daily summary of a date from its records.
func (s *Store) RecomputeDaily(date time.Time) error {
	var row sumRow
	err := s.db.Raw(
		`SELECT COALESCE(SUM(ABS(volume)),0) AS energy, COALESCE(SUM(payment),0) AS payment, COUNT(*) AS count
		 FROM "curtailment_record" WHERE settlement_date = ?`, date).Scan(&row).Error
	if err != nil {
		return fmt.Errorf("fail to sum records for date=%v %w", date.Format("2006-01-02"), err)
	}
	summary := &settlement.DailySummary{
		Date:                 date,
		TotalCurtailedEnergy: row.Energy,
		TotalPayment:         row.Payment,
		RecordCount:          row.Count,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_curtailed_energy", "total_payment", "record_count", "updated_at"}),
	}).Create(summary).Error; err != nil {
		return fmt.Errorf("fail to upsert daily summary %w", err)
	}
	return nil
}

// RecomputeMonthly recomputes the monthly summary from daily summaries.
func (s *Store) RecomputeMonthly(yearMonth string) error {
	var row sumRow
	err := s.db.Raw(
		`SELECT COALESCE(SUM(total_curtailed_energy),0) AS energy, COALESCE(SUM(total_payment),0) AS payment
		 FROM "daily_summary" WHERE to_char(date, 'YYYY-MM') = ?`, yearMonth).Scan(&row).Error
	if err != nil {
		return fmt.Errorf("fail to sum daily summaries for month=%v %w", yearMonth, err)
	}
	summary := &settlement.MonthlySummary{
		YearMonth:            yearMonth,
		TotalCurtailedEnergy: row.Energy,
		TotalPayment:         row.Payment,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year_month"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_curtailed_energy", "total_payment", "updated_at"}),
	}).Create(summary).Error; err != nil {
		return fmt.Errorf("fail to upsert monthly summary %w", err)
	}
	return nil
}

// RecomputeYearly recomputes the yearly summary from monthly summaries.
func (s *Store) RecomputeYearly(year int) error {
	var row sumRow
	err := s.db.Raw(
		`SELECT COALESCE(SUM(total_curtailed_energy),0) AS energy, COALESCE(SUM(total_payment),0) AS payment
		 FROM "monthly_summary" WHERE substr("year_month", 1, 4) = ?`, strconv.Itoa(year)).Scan(&row).Error
	if err != nil {
		return fmt.Errorf("fail to sum monthly summaries for year=%v %w", year, err)
	}
	summary := &settlement.YearlySummary{
		Year:                 year,
		TotalCurtailedEnergy: row.Energy,
		TotalPayment:         row.Payment,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_curtailed_energy", "total_payment", "updated_at"}),
	}).Create(summary).Error; err != nil {
		return fmt.Errorf("fail to upsert yearly summary %w", err)
	}
	return nil
}

type modelSumRow struct {
	MinerModel   string
	BitcoinMined decimal.Decimal
}

// RecomputeBitcoinDaily recomputes the per-model daily Bitcoin summaries of a
// date. The whole day is deleted and rebuilt so models that vanished from the
// leaf set do not leave stale rows behind.
func (s *Store) RecomputeBitcoinDaily(date time.Time) error {
	var rows []modelSumRow
	err := s.db.Raw(
		`SELECT miner_model, COALESCE(SUM(bitcoin_mined),0) AS bitcoin_mined
		 FROM "bitcoin_calculation" WHERE settlement_date = ? GROUP BY miner_model`, date).Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("fail to sum calculations for date=%v %w", date.Format("2006-01-02"), err)
	}
	return WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("date=?", date).Delete(&settlement.BitcoinDailySummary{}).Error; err != nil {
			return fmt.Errorf("fail to delete bitcoin daily summaries %w", err)
		}
		for _, row := range rows {
			summary := &settlement.BitcoinDailySummary{
				Date:         date,
				MinerModel:   row.MinerModel,
				BitcoinMined: row.BitcoinMined,
			}
			if err := tx.Create(summary).Error; err != nil {
				return fmt.Errorf("fail to insert bitcoin daily summary: model=%v %w", row.MinerModel, err)
			}
		}
		return nil
	})
}

// RecomputeBitcoinMonthly recomputes per-model monthly Bitcoin summaries.
func (s *Store) RecomputeBitcoinMonthly(yearMonth string) error {
	var rows []modelSumRow
	err := s.db.Raw(
		`SELECT miner_model, COALESCE(SUM(bitcoin_mined),0) AS bitcoin_mined
		 FROM "bitcoin_daily_summary" WHERE to_char(date, 'YYYY-MM') = ? GROUP BY miner_model`, yearMonth).Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("fail to sum bitcoin daily summaries for month=%v %w", yearMonth, err)
	}
	return WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where(`"year_month"=?`, yearMonth).Delete(&settlement.BitcoinMonthlySummary{}).Error; err != nil {
			return fmt.Errorf("fail to delete bitcoin monthly summaries %w", err)
		}
		for _, row := range rows {
			summary := &settlement.BitcoinMonthlySummary{
				YearMonth:    yearMonth,
				MinerModel:   row.MinerModel,
				BitcoinMined: row.BitcoinMined,
			}
			if err := tx.Create(summary).Error; err != nil {
				return fmt.Errorf("fail to insert bitcoin monthly summary: model=%v %w", row.MinerModel, err)
			}
		}
		return nil
	})
}

// RecomputeBitcoinYearly recomputes per-model yearly Bitcoin summaries.
func (s *Store) RecomputeBitcoinYearly(year int) error {
	var rows []modelSumRow
	err := s.db.Raw(
		`SELECT miner_model, COALESCE(SUM(bitcoin_mined),0) AS bitcoin_mined
		 FROM "bitcoin_monthly_summary" WHERE substr("year_month", 1, 4) = ? GROUP BY miner_model`,
		strconv.Itoa(year)).Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("fail to sum bitcoin monthly summaries for year=%v %w", year, err)
	}
	return WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("year=?", year).Delete(&settlement.BitcoinYearlySummary{}).Error; err != nil {
			return fmt.Errorf("fail to delete bitcoin yearly summaries %w", err)
		}
		for _, row := range rows {
			summary := &settlement.BitcoinYearlySummary{
				Year:         year,
				MinerModel:   row.MinerModel,
				BitcoinMined: row.BitcoinMined,
			}
			if err := tx.Create(summary).Error; err != nil {
				return fmt.Errorf("fail to insert bitcoin yearly summary: model=%v %w", row.MinerModel, err)
			}
		}
		return nil
	})
}

// SaveReport persists the outcome of one run.
func (s *Store) SaveReport(report *settlement.RunReport) error {
	if err := s.db.Create(report).Error; err != nil {
		return fmt.Errorf("fail to save run report %w", err)
	}
	return nil
}
