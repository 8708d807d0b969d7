package fixmem

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	resultOk     = "ok"
	resultFailed = "failed"
)

var (
	reservations = prom.NewCounterVec(prom.CounterOpts{
		Name: "fixmem_reservations_total",
		Help: "Total number of fixed-address reservations, by result.",
	}, []string{"result"})
	reservedBytes = prom.NewGauge(prom.GaugeOpts{
		Name: "fixmem_reserved_bytes",
		Help: "Bytes of address space currently mapped by reservations.",
	})
	misplaced = prom.NewCounter(prom.CounterOpts{
		Name: "fixmem_misplaced_total",
		Help: "Reservations the platform placed away from the target address.",
	})
)

func init() {
	prom.MustRegister(reservations)
	prom.MustRegister(reservedBytes)
	prom.MustRegister(misplaced)
}
