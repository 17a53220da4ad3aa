package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/database"
	"github.com/forbiddenlink/spiralsounds/internal/testutil"
	"github.com/stretchr/testify/assert"
)

type fakePublisher struct {
	published chan any
}

func (f *fakePublisher) BroadcastAnalytics(data any) {
	f.published <- data
}

func TestAggregator_publishesSnapshots(t *testing.T) {
	snapshot := database.AnalyticsSnapshot{
		TotalProducts: 12,
		TotalStock:    340,
		TotalAccounts: 5,
		OrdersToday:   3,
		RevenueToday:  89.97,
	}

	db := &database.MockStoreRepository{}
	defer db.AssertExpectations(t)
	db.On("GetAnalyticsSnapshot").Return(snapshot, nil)

	pub := &fakePublisher{published: make(chan any, 8)}

	a := NewAggregator(testutil.TestLogger(t), db, pub, 10*time.Millisecond)
	go a.Run()
	defer a.Stop()

	select {
	case data := <-pub.published:
		assert.Equal(t, snapshot, data, "expected the database snapshot to be published")
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot to be published, but none was")
	}
}

func TestAggregator_queryFailureSkipsTick(t *testing.T) {
	db := &database.MockStoreRepository{}
	db.On("GetAnalyticsSnapshot").Return(database.AnalyticsSnapshot{}, errors.New("connection refused")).Once()
	db.On("GetAnalyticsSnapshot").Return(database.AnalyticsSnapshot{TotalProducts: 1}, nil)

	pub := &fakePublisher{published: make(chan any, 8)}

	a := NewAggregator(testutil.TestLogger(t), db, pub, 10*time.Millisecond)
	go a.Run()
	defer a.Stop()

	// the failed tick publishes nothing; the next successful tick does
	select {
	case data := <-pub.published:
		assert.Equal(t, database.AnalyticsSnapshot{TotalProducts: 1}, data,
			"expected only the successful snapshot to be published")
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot after the failed tick, but none was published")
	}
}

func TestNewAggregator_defaultInterval(t *testing.T) {
	a := NewAggregator(testutil.TestLogger(t), &database.MockStoreRepository{}, &fakePublisher{}, 0)
	assert.Equal(t, DefaultInterval, a.interval, "expected default publish interval")
}
