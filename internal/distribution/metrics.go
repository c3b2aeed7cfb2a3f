package distribution

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricsOnce guards registration; promauto panics on duplicates.
	metricsOnce sync.Once //nolint:gochecknoglobals
	// assignedCounter is a singleton counting successful assignments.
	assignedCounter prometheus.Counter //nolint:gochecknoglobals
	// assignFailedCounter is a singleton counting failed assignments by reason.
	assignFailedCounter *prometheus.CounterVec //nolint:gochecknoglobals
	// importedCounter is a singleton counting imported codes.
	importedCounter prometheus.Counter //nolint:gochecknoglobals
)

const (
	reasonExhausted       = "exhausted"
	reasonAlreadyRedeemed = "already_redeemed"
)

func initMetrics() {
	metricsOnce.Do(registerMetrics)
}

func registerMetrics() {
	assignedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promo_codes_assigned_total",
		Help: "Number of promo codes successfully assigned to recipients.",
	})

	assignFailedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_code_assignments_failed_total",
		Help: "Number of assignment attempts that failed, by reason.",
	}, []string{"reason"})

	importedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promo_codes_imported_total",
		Help: "Number of promo codes imported, single and bulk.",
	})
}
