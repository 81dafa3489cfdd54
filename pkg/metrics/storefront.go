package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics tracks checkout settlement and loyalty movements.
type StorefrontMetrics struct {
	settlements *prometheus.CounterVec
	orderValue  prometheus.Histogram
	redeemed    prometheus.Counter
	refunded    prometheus.Counter
	oversold    prometheus.Counter
}

// NewStorefrontMetrics registers the storefront collectors on reg. A nil reg
// yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	m := &StorefrontMetrics{
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marais_checkout_settlements_total",
			Help: "Checkout settlements by owner kind.",
		}, []string{"owner"}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marais_checkout_order_value_tenge",
			Help:    "Final price of settled orders.",
			Buckets: prometheus.ExponentialBuckets(5000, 2, 10),
		}),
		redeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marais_loyalty_points_redeemed_total",
			Help: "Loyalty points debited at checkout.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marais_loyalty_points_refunded_total",
			Help: "Loyalty points credited back on cancellation.",
		}),
		oversold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marais_inventory_oversold_units_total",
			Help: "Units settled beyond recorded stock.",
		}),
	}
	reg.MustRegister(m.settlements, m.orderValue, m.redeemed, m.refunded, m.oversold)
	return m
}

// ObserveSettlement records one settled order.
func (m *StorefrontMetrics) ObserveSettlement(anonymous bool, finalPrice, bonusUsed int64, oversold int) {
	if m == nil || m.settlements == nil {
		return
	}
	owner := "user"
	if anonymous {
		owner = "session"
	}
	m.settlements.WithLabelValues(owner).Inc()
	m.orderValue.Observe(float64(finalPrice))
	if bonusUsed > 0 {
		m.redeemed.Add(float64(bonusUsed))
	}
	if oversold > 0 {
		m.oversold.Add(float64(oversold))
	}
}

// AddRefund records points returned to a customer.
func (m *StorefrontMetrics) AddRefund(points int64) {
	if m == nil || m.refunded == nil || points <= 0 {
		return
	}
	m.refunded.Add(float64(points))
}
