package dcpclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// connMetrics holds the optional Prometheus instrumentation for a
// Connection. It is nil unless SetMetricsRegisterer has been called,
// so a Connection built without it pays no instrumentation cost.
type connMetrics struct {
	sent     *prometheus.CounterVec
	received prometheus.Counter
	dropped  *prometheus.CounterVec
	state    *prometheus.GaugeVec
}

func newConnMetrics(reg prometheus.Registerer) *connMetrics {
	return &connMetrics{
		sent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dcpclient_messages_sent_total",
			Help: "Messages written to the DCP hub, by destination device name.",
		}, []string{"destination"}),
		received: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dcpclient_messages_received_total",
			Help: "Messages decoded from the DCP hub and enqueued for reading.",
		}),
		dropped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dcpclient_messages_dropped_total",
			Help: "Messages discarded on send or receive, by reason.",
		}, []string{"reason"}),
		state: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "dcpclient_connection_state",
			Help: "1 if the connection currently holds the given state, 0 otherwise.",
		}, []string{"state"}),
	}
}

// SetMetricsRegisterer enables Prometheus instrumentation for c,
// registering its metrics against reg. It must be called before
// ConnectToServer; calling it more than once, or after connecting,
// has no effect. Instrumentation is off by default — a Connection
// created without this call carries no Prometheus dependency at
// runtime beyond the package import itself.
func (c *Connection) SetMetricsRegisterer(reg prometheus.Registerer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics != nil || c.conn != nil {
		return
	}
	c.metrics = newConnMetrics(reg)
}

func (c *connMetrics) recordSent(destination []byte) {
	if c == nil {
		return
	}
	c.sent.WithLabelValues(string(destination)).Inc()
}

func (c *connMetrics) recordReceived() {
	if c == nil {
		return
	}
	c.received.Inc()
}

func (c *connMetrics) recordDropped(reason string) {
	if c == nil {
		return
	}
	c.dropped.WithLabelValues(reason).Inc()
}

func (c *connMetrics) recordState(s State) {
	if c == nil {
		return
	}
	for _, st := range []State{Unconnected, HostLookup, Connecting, Connected, Closing} {
		v := 0.0
		if st == s {
			v = 1.0
		}
		c.state.WithLabelValues(st.String()).Set(v)
	}
}
