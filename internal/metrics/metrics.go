package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"tweetrouter/internal/store"
)

var (
	routeOutcomeDesc = prometheus.NewDesc(
		"tweetrouter_route_outcomes_total",
		"Total routed tweets by matched rule and outcome",
		[]string{"rule", "outcome"},
		nil,
	)
)

// OutcomeCollector is a custom Prometheus collector that reads route outcome
// counts from the store on each scrape, so counts survive restarts.
type OutcomeCollector struct {
	store store.OutcomeStore
}

// NewOutcomeCollector creates a collector backed by s.
func NewOutcomeCollector(s store.OutcomeStore) *OutcomeCollector {
	return &OutcomeCollector{store: s}
}

// Describe sends the metric descriptor to the channel.
func (c *OutcomeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- routeOutcomeDesc
}

// Collect queries the store for all route outcomes and emits them as counters.
func (c *OutcomeCollector) Collect(ch chan<- prometheus.Metric) {
	outcomes, err := c.store.ListRouteOutcomes(context.Background())
	if err != nil {
		slog.Error("failed to collect route outcome metrics", "error", err)
		return
	}
	for _, o := range outcomes {
		ch <- prometheus.MustNewConstMetric(
			routeOutcomeDesc,
			prometheus.CounterValue,
			float64(o.Count),
			o.RuleName,
			o.Outcome,
		)
	}
}

// Recorder provides async route outcome recording.
type Recorder struct {
	store store.OutcomeStore
	wg    sync.WaitGroup
}

var (
	recorder     atomic.Pointer[Recorder]
	recorderOnce sync.Once
)

// Init registers the custom collector and initializes the recorder.
// Must be called once at startup.
func Init(s store.OutcomeStore) {
	recorderOnce.Do(func() {
		prometheus.MustRegister(NewOutcomeCollector(s))
		recorder.Store(&Recorder{store: s})
	})
}

// RecordRouteOutcome asynchronously records a routing outcome.
// It is a no-op until Init has been called.
func RecordRouteOutcome(ruleName, outcome string) {
	r := recorder.Load()
	if r == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.store.IncrementRouteOutcome(context.Background(), ruleName, outcome); err != nil {
			slog.Error("failed to record route outcome", "rule", ruleName, "outcome", outcome, "error", err)
		}
	}()
}

// Flush waits for in-flight recordings, for use during shutdown.
func Flush() {
	if r := recorder.Load(); r != nil {
		r.wg.Wait()
	}
}
