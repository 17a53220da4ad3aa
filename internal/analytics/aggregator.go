package analytics

import (
	"log"
	"sync"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/database"
)

const DefaultInterval = time.Minute

// Publisher is the outbound edge of the aggregator, satisfied by the
// realtime hub.
type Publisher interface {
	BroadcastAnalytics(data any)
}

// Aggregator periodically snapshots store-wide metrics from the database
// and publishes them to the analytics dashboard room.
type Aggregator struct {
	log      *log.Logger
	db       database.StoreRepository
	pub      Publisher
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewAggregator(logger *log.Logger, db database.StoreRepository, pub Publisher, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Aggregator{
		log:      logger,
		db:       db,
		pub:      pub,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run publishes a snapshot every interval until Stop is called.
func (a *Aggregator) Run() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.publish()
		case <-a.stop:
			close(a.done)
			return
		}
	}
}

// publish queries one snapshot and broadcasts it. A query failure skips
// the tick; the next tick retries.
func (a *Aggregator) publish() {
	snapshot, err := a.db.GetAnalyticsSnapshot()
	if err != nil {
		a.log.Println("analytics snapshot:", err)
		return
	}

	a.pub.BroadcastAnalytics(snapshot)
}

func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	<-a.done
}
