package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/windwatts/curtailment-mining-watcher/elexon"
)

// MockFetcher serves canned stack entries keyed by (date, period) and records
// how often each key was requested.
type MockFetcher struct {
	mu      sync.Mutex
	stacks  map[string][]elexon.StackEntry
	failing map[string]error
	calls   map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		stacks:  make(map[string][]elexon.StackEntry),
		failing: make(map[string]error),
		calls:   make(map[string]int),
	}
}

func mockKey(date time.Time, period int) string {
	return fmt.Sprintf("%s/%d", date.Format("2006-01-02"), period)
}

// SetStacks installs the entries returned for one (date, period).
func (m *MockFetcher) SetStacks(date time.Time, period int, entries []elexon.StackEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stacks[mockKey(date, period)] = entries
}

// FailWith makes one (date, period) fail with the given error.
func (m *MockFetcher) FailWith(date time.Time, period int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[mockKey(date, period)] = err
}

// Calls returns how many times one (date, period) was fetched.
func (m *MockFetcher) Calls(date time.Time, period int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[mockKey(date, period)]
}

func (m *MockFetcher) FetchStacks(ctx context.Context, date time.Time, period int) ([]elexon.StackEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mockKey(date, period)
	m.calls[key]++
	if err, ok := m.failing[key]; ok {
		return nil, err
	}
	return m.stacks[key], nil
}
