package charge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Charge results recorded by Metrics.
const (
	ResultSubmitted = "submitted"
	ResultFailed    = "failed"
)

// Metrics counts dispatched charges.
type Metrics struct {
	charges *prometheus.CounterVec
	amount  prometheus.Counter
}

// NewMetrics registers the charge collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		charges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitcharge_charges_total",
			Help: "Charges handed to the sink, by result.",
		}, []string{"result"}),
		amount: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitcharge_charge_amount_total",
			Help: "Sum of successfully submitted charge amounts.",
		}),
	}
}

func (m *Metrics) observe(c Charge, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.charges.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.charges.WithLabelValues(ResultSubmitted).Inc()
	if amount := c.Amount.InexactFloat64(); amount > 0 {
		m.amount.Add(amount)
	}
}
