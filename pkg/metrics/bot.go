package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics records counters for the conversational flow.
type BotMetrics struct {
	inboundEvents *prometheus.CounterVec
	outboundSends *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	transition    *prometheus.HistogramVec
}

// NewBotMetrics registers the bot metrics on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	inbound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_inbound_events_total",
		Help: "Inbound webhook events by decoded kind.",
	}, []string{"kind"})
	outbound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_outbound_sends_total",
		Help: "Outbound gateway sends by tag and result.",
	}, []string{"tag", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_checkouts_total",
		Help: "Checkout attempts by payment method and result.",
	}, []string{"method", "result"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_payment_settlements_total",
		Help: "Payment callback settlements by outcome.",
	}, []string{"outcome"})
	transition := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_transition_duration_seconds",
		Help:    "Duration of state machine transitions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})
	reg.MustRegister(inbound, outbound, checkouts, settlements, transition)
	return &BotMetrics{
		inboundEvents: inbound,
		outboundSends: outbound,
		checkouts:     checkouts,
		settlements:   settlements,
		transition:    transition,
	}
}

// IncInbound counts one decoded inbound event.
func (m *BotMetrics) IncInbound(kind string) {
	if m == nil || m.inboundEvents == nil {
		return
	}
	m.inboundEvents.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncOutbound counts one outbound send attempt.
func (m *BotMetrics) IncOutbound(tag, result string) {
	if m == nil || m.outboundSends == nil {
		return
	}
	m.outboundSends.WithLabelValues(normalizeLabel(tag), normalizeLabel(result)).Inc()
}

// IncCheckout counts one checkout attempt.
func (m *BotMetrics) IncCheckout(method, result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(method), normalizeLabel(result)).Inc()
}

// IncSettlement counts one payment callback settlement.
func (m *BotMetrics) IncSettlement(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveTransition records how long a transition took for the given state.
func (m *BotMetrics) ObserveTransition(state string, duration time.Duration) {
	if m == nil || m.transition == nil {
		return
	}
	m.transition.WithLabelValues(normalizeLabel(state)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
