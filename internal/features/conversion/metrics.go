package conversion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "crm",
	Subsystem: "conversion",
	Name:      "conversions_total",
	Help:      "Conversions attempted, labelled by route and outcome.",
}, []string{"route", "outcome"})
