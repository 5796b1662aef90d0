package settlement

import "github.com/windwatts/curtailment-mining-watcher/database/models"

// AllModels collects available models.
var AllModels = []interface{}{
	&models.System{},

	&WindFarm{},
	&MinerProfile{},
	&DifficultySample{},
	&Record{},
	&DailySummary{},
	&MonthlySummary{},
	&YearlySummary{},
	&BitcoinCalculation{},
	&BitcoinDailySummary{},
	&BitcoinMonthlySummary{},
	&BitcoinYearlySummary{},
	&Progress{},
	&RunReport{},
}
