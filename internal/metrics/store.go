package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Store-related Prometheus metrics. Standalone package so the store core and
// any outer surface (CLI, future HTTP) can share them without import cycles.

var (
	SchemaChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_schema_checks_total",
		Help: "Resultados de check de revisión de schema",
	}, []string{"outcome"})

	BootstrapRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_bootstrap_runs_total",
		Help: "Inicializaciones de store completadas",
	})

	PrincipalsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_principals_created_total",
		Help: "Principals creados por el provisioner",
	})

	AdminGrants = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_admin_grants_total",
		Help: "Elevaciones a admin (incluye las idempotentes)",
	})

	PurgedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_purged_records_total",
		Help: "Registros expirados borrados por el reaper",
	}, []string{"kind"})
)

// Register registers the store metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		SchemaChecks,
		BootstrapRuns,
		PrincipalsCreated,
		AdminGrants,
		PurgedRecords,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
