package metrics

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

func TestOutcomeCollector(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.IncrementRouteOutcome(ctx, "Medical", models.OutcomeRouted)
	mem.IncrementRouteOutcome(ctx, "Medical", models.OutcomeRouted)
	mem.IncrementRouteOutcome(ctx, "", models.OutcomeSkipped)

	collector := NewOutcomeCollector(mem)

	if n := testutil.CollectAndCount(collector); n != 2 {
		t.Errorf("CollectAndCount() = %d, want 2", n)
	}

	expected := `
# HELP tweetrouter_route_outcomes_total Total routed tweets by matched rule and outcome
# TYPE tweetrouter_route_outcomes_total counter
tweetrouter_route_outcomes_total{outcome="routed",rule="Medical"} 2
tweetrouter_route_outcomes_total{outcome="skipped",rule=""} 1
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestRecordRouteOutcome_NoopBeforeInit(t *testing.T) {
	// must not panic when the recorder was never initialized
	RecordRouteOutcome("Any", models.OutcomeRouted)
	Flush()
}

// Runs last: Init installs the package recorder for the rest of the process.
func TestInit_ConcurrentWithRecording(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordRouteOutcome("Medical", models.OutcomeRouted)
		}()
	}
	Init(mem)
	wg.Wait()

	RecordRouteOutcome("Medical", models.OutcomeSkipped)
	Flush()

	outcomes, err := mem.ListRouteOutcomes(ctx)
	if err != nil {
		t.Fatalf("ListRouteOutcomes() error = %v", err)
	}
	found := false
	for _, o := range outcomes {
		if o.RuleName == "Medical" && o.Outcome == models.OutcomeSkipped && o.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("outcome recorded after Init missing from %+v", outcomes)
	}
}
