package main

import (
	"os"
	"time"

	"github.com/windwatts/curtailment-mining-watcher/common/config"
	cerrors "github.com/windwatts/curtailment-mining-watcher/common/errors"
	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	database "github.com/windwatts/curtailment-mining-watcher/database/db"
	"github.com/windwatts/curtailment-mining-watcher/refdata"
)

// Pulls the current network difficulty and market price from the stats feed
// and upserts today's sample. Meant to run once a day from a scheduler.
func main() {
	name := "difficulty-sync"
	logging.Initialize(name)
	defer logging.Finalize()
	logger := logging.NewLoggerTag(name)

	cerrors.Initialize(logger)
	defer cerrors.Catch()

	database.Initialize()
	defer database.Finalize()

	feed := refdata.NewFeedClient(logger,
		config.GetString("DIFFICULTY_FEED_URL", "https://api.blockchain.info/stats"))
	if err := feed.SyncSample(database.GetDB(), time.Now().UTC()); err != nil {
		logger.Error("fail to sync difficulty sample: %s", err)
		os.Exit(-1)
	}
	logger.Info("difficulty sample synced")
}
