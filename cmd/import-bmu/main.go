package main

import (
	"encoding/csv"
	"os"

	arg "github.com/alexflint/go-arg"
	"gorm.io/gorm/clause"

	cerrors "github.com/windwatts/curtailment-mining-watcher/common/errors"
	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	database "github.com/windwatts/curtailment-mining-watcher/database/db"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
)

type args struct {
	Path string `arg:"positional,required" help:"CSV with columns bmu_id,name,lead_party_name,fuel_type"`
}

// Loads the BMU reference mapping from a CSV export into the wind_farm
// table. Existing units are updated in place, keyed by bmu_id.
func main() {
	name := "import-bmu"
	logging.Initialize(name)
	defer logging.Finalize()
	logger := logging.NewLoggerTag(name)

	cerrors.Initialize(logger)
	defer cerrors.Catch()

	var a args
	arg.MustParse(&a)

	file, err := os.OpenFile(a.Path, os.O_RDONLY, 0644)
	if err != nil {
		logger.Error("fail to open %s: %s", a.Path, err)
		os.Exit(-1)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		logger.Error("fail to read %s: %s", a.Path, err)
		os.Exit(-1)
	}
	if len(rows) < 2 {
		logger.Error("no data rows in %s", a.Path)
		os.Exit(-1)
	}

	farms := make([]*settlement.WindFarm, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 4 {
			logger.Warn("skip short row %v", row)
			continue
		}
		farms = append(farms, &settlement.WindFarm{
			BMUID:         row[0],
			Name:          row[1],
			LeadPartyName: row[2],
			FuelType:      row[3],
		})
	}

	database.Initialize()
	defer database.Finalize()

	db := database.GetDB()
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bmu_id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"name", "lead_party_name", "fuel_type", "updated_at"}),
	}).Create(&farms).Error
	if err != nil {
		logger.Error("fail to upsert wind farms: %s", err)
		os.Exit(-1)
	}
	logger.Info("imported %d wind farm units", len(farms))
}
