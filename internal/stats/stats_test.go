package stats

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsUpdater(t *testing.T) {
	su := NewStatsUpdater(http.NewServeMux())
	su.RegisterMetric("TestMetric")
	su.Run()
	defer su.Stop()

	su.Incr("TestMetric")
	su.Incr("TestMetric")
	su.Decr("TestMetric")

	assert.Eventually(t, func() bool {
		return su.vars.Get("TestMetric").String() == "1"
	}, time.Second, 10*time.Millisecond, "expected TestMetric to settle at 1")
}
