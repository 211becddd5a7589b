package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	mutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "Number of applied store mutations by operation.",
	}, []string{"op"})

	persistFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "persist_failures_total",
		Help:      "Number of snapshot writes that failed after the mutation was applied in memory.",
	})

	snapshotLoadCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "snapshot_loads_total",
		Help:      "Snapshot reads at store open, by outcome.",
	}, []string{"result"})

	workoutsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "workouts",
		Help:      "Number of workouts currently held in memory.",
	})

	dirtyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapty",
		Subsystem: "store",
		Name:      "unpersisted",
		Help:      "1 while the in-memory collection is ahead of the persisted snapshot.",
	})
)

func init() {
	prometheus.MustRegister(mutationCounter, persistFailureCounter, snapshotLoadCounter, workoutsGauge, dirtyGauge)
}

// RecordMutation counts one applied mutation.
func RecordMutation(op string) {
	mutationCounter.WithLabelValues(op).Inc()
}

// RecordPersistFailure counts a failed snapshot write.
func RecordPersistFailure() {
	persistFailureCounter.Inc()
}

// RecordSnapshotLoad counts a snapshot read at open: loaded, empty,
// unparsable or unavailable.
func RecordSnapshotLoad(result string) {
	snapshotLoadCounter.WithLabelValues(result).Inc()
}

// SetStoreState publishes the collection size and whether it is durable.
func SetStoreState(workouts int, dirty bool) {
	workoutsGauge.Set(float64(workouts))
	if dirty {
		dirtyGauge.Set(1)
	} else {
		dirtyGauge.Set(0)
	}
}
