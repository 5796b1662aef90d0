package elexon

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	"github.com/windwatts/curtailment-mining-watcher/types"
	utils "github.com/windwatts/curtailment-mining-watcher/utils/http"
)

// StackEntry is one accepted balancing action from the bid or offer stack.
type StackEntry struct {
	BMUID         string          `json:"bmUnit"`
	AcceptanceID  int64           `json:"acceptanceId"`
	Volume        decimal.Decimal `json:"volume"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
	SoFlag        bool            `json:"soFlag"`
	CadlFlag      bool            `json:"cadlFlag"`
}

type stackResponse struct {
	Data []StackEntry `json:"data"`
}

// Interface abstracts the settlement API for mocks.
type Interface interface {
	FetchStacks(ctx context.Context, date time.Time, period int) ([]StackEntry, error)
}

// Client fetches settlement stacks from the balancing API. It owns the rate
// limiter and the bounded retry policy; callers get either the concatenated
// bid+offer entries, a partial set when one side failed, or a NetworkError
// when both sides exhausted their retries.
type Client struct {
	logger     logging.Logger
	baseURL    string
	limiter    *RateLimiter
	maxRetries uint64
}

func assertClientInterface() {
	var _ Interface = (*Client)(nil)
}

// NewClient returns a settlement API client.
func NewClient(logger logging.Logger, baseURL string, limiter *RateLimiter, maxRetries uint64) *Client {
	logger.Info("New settlement stack client with url %s", baseURL)
	return &Client{
		logger:     logger,
		baseURL:    baseURL,
		limiter:    limiter,
		maxRetries: maxRetries,
	}
}

// FetchStacks fetches the bid and offer stacks of one (date, period)
// concurrently and concatenates them. One side failing yields partial data
// rather than aborting the period.
func (c *Client) FetchStacks(ctx context.Context, date time.Time, period int) ([]StackEntry, error) {
	sides := []types.StackSide{types.BidStack, types.OfferStack}
	results := make([][]StackEntry, len(sides))
	errs := make([]error, len(sides))

	var wg sync.WaitGroup
	for i, side := range sides {
		wg.Add(1)
		go func(i int, side types.StackSide) {
			defer wg.Done()
			results[i], errs[i] = c.fetchSide(ctx, side, date, period)
		}(i, side)
	}
	wg.Wait()

	var entries []StackEntry
	var failed int
	for i, side := range sides {
		if errs[i] != nil {
			failed++
			c.logger.Warn("fail to fetch %s stack: date=%v period=%v %s",
				side, date.Format("2006-01-02"), period, errs[i])
			continue
		}
		entries = append(entries, results[i]...)
	}
	if failed == len(sides) {
		return nil, errs[0]
	}
	return entries, nil
}

func (c *Client) fetchSide(ctx context.Context, side types.StackSide, date time.Time, period int) ([]StackEntry, error) {
	url := fmt.Sprintf("%s/balancing/settlement/stack/all/%s/%s/%d",
		c.baseURL, side, date.Format("2006-01-02"), period)
	client := utils.NewHttpClient(utils.DefaultTransport, c.logger, url)
	var entries []StackEntry
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err, code, body := client.Get(nil, nil, nil)
		if err != nil {
			return &NetworkError{Side: side, Err: err}
		}
		if code == 429 || code/100 == 5 {
			return &NetworkError{Side: side, StatusCode: code}
		}
		if code/100 != 2 {
			return backoff.Permanent(&NetworkError{Side: side, StatusCode: code})
		}
		var resp stackResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return backoff.Permanent(fmt.Errorf("fail to unmarshal %s stack %w", side, err))
		}
		entries = resp.Data
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return entries, nil
}
