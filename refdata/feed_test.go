package refdata

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
)

func TestFeedClient_FetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"difficulty":95672703408223.94,"market_price_usd":67123.45,"n_tx":1000}`)
	}))
	defer server.Close()

	feed := NewFeedClient(logging.NewLoggerTag("test"), server.URL)
	sample, err := feed.FetchCurrent()
	require.NoError(t, err)
	assert.True(t, sample.Difficulty.IsPositive())
	assert.Equal(t, "67123.45", sample.PriceUSD.String())
}

func TestFeedClient_GivesUpAfterThreeTries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	feed := NewFeedClient(logging.NewLoggerTag("test"), server.URL)
	_, err := feed.FetchCurrent()
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}
