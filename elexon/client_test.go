package elexon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwatts/curtailment-mining-watcher/common/logging"
)

func stackServer(t *testing.T, bidStatus, offerStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		require.GreaterOrEqual(t, len(parts), 8)
		side := parts[5]

		status := bidStatus
		if side == "offer" {
			status = offerStatus
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		fmt.Fprintf(w, `{"data":[{"bmUnit":"T_WHILW-1","acceptanceId":1,`+
			`"volume":"-45","originalPrice":"5.2","finalPrice":"4.9",`+
			`"soFlag":true,"cadlFlag":false,"side":%q}]}`, side)
	}))
}

func newTestClient(url string) *Client {
	return NewClient(logging.NewLoggerTag("test"),
		url, NewRateLimiter(100, time.Second), 0)
}

func TestClient_FetchStacksBothSides(t *testing.T) {
	server := stackServer(t, http.StatusOK, http.StatusOK)
	defer server.Close()

	c := newTestClient(server.URL)
	entries, err := c.FetchStacks(context.Background(),
		time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), 17)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "T_WHILW-1", entries[0].BMUID)
	assert.True(t, entries[0].SoFlag)
	assert.True(t, entries[0].Volume.IsNegative())
}

func TestClient_OneSideFailingIsPartial(t *testing.T) {
	server := stackServer(t, http.StatusOK, http.StatusNotFound)
	defer server.Close()

	c := newTestClient(server.URL)
	entries, err := c.FetchStacks(context.Background(),
		time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), 17)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClient_BothSidesFailing(t *testing.T) {
	server := stackServer(t, http.StatusInternalServerError, http.StatusInternalServerError)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.FetchStacks(context.Background(),
		time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), 1)
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
}
