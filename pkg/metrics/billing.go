package metrics

import "github.com/prometheus/client_golang/prometheus"

// BillingMetrics counts payment gateway traffic.
type BillingMetrics struct {
	webhooks    *prometheus.CounterVec
	activations prometheus.Counter
	orders      *prometheus.CounterVec
}

func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	m := &BillingMetrics{
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "razorpay_webhook_events_total",
			Help: "Razorpay webhook deliveries by event and outcome.",
		}, []string{"event", "outcome"}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subscription_activations_total",
			Help: "Subscriptions moved from pending to active.",
		}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "razorpay_orders_total",
			Help: "Razorpay order creation attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.webhooks, m.activations, m.orders)
	return m
}

func (m *BillingMetrics) Webhook(event, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func (m *BillingMetrics) Activation() {
	if m == nil || m.activations == nil {
		return
	}
	m.activations.Inc()
}

func (m *BillingMetrics) Order(outcome string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}
