package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	"github.com/windwatts/curtailment-mining-watcher/database/models/settlement"
	utils "github.com/windwatts/curtailment-mining-watcher/utils/http"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedClient reads the network difficulty and BTC price feed.
type FeedClient struct {
	logger logging.Logger
	client *utils.Client
}

// FeedSample is one reading of the difficulty feed.
type FeedSample struct {
	Difficulty decimal.Decimal `json:"difficulty"`
	PriceUSD   decimal.Decimal `json:"market_price_usd"`
}

// NewFeedClient returns a difficulty feed client for the url.
func NewFeedClient(logger logging.Logger, url string) *FeedClient {
	logger.Info("New difficulty feed client with url %s", url)
	return &FeedClient{
		logger: logger,
		client: utils.NewHttpClient(utils.DefaultTransport, logger, url),
	}
}

// FetchCurrent returns the feed's current difficulty and price.
// It retries three times before giving up.
func (f *FeedClient) FetchCurrent() (*FeedSample, error) {
	for i := 0; i < 3; i++ {
		err, code, res := f.client.Get(nil, nil, nil)
		if err != nil {
			f.logger.Error("fail to get difficulty feed err=%s", err)
			continue
		} else if code/100 != 2 {
			f.logger.Error("unexpected difficulty feed response=%v", code)
			continue
		}
		var resp FeedSample
		if err = json.Unmarshal(res, &resp); err != nil {
			f.logger.Error("fail to unmarshal result=%+v, err=%s", string(res), err)
			continue
		}
		return &resp, nil
	}
	return nil, errors.New("fail to query difficulty feed in three times")
}

// SyncSample fetches the feed and upserts today's difficulty sample.
func (f *FeedClient) SyncSample(db *gorm.DB, now time.Time) error {
	resp, err := f.FetchCurrent()
	if err != nil {
		return err
	}
	if resp.Difficulty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("feed returned non-positive difficulty %s", resp.Difficulty)
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sample := &settlement.DifficultySample{
		Date:       day,
		Difficulty: resp.Difficulty,
		PriceUSD:   resp.PriceUSD,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"difficulty", "price_usd", "updated_at"}),
	}).Create(sample).Error; err != nil {
		return fmt.Errorf("fail to upsert difficulty sample %w", err)
	}
	f.logger.Info("difficulty sample saved: date=%v difficulty=%s price=%s",
		day.Format("2006-01-02"), resp.Difficulty, resp.PriceUSD)
	return nil
}
