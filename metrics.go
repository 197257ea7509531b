package bluetooth

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const namespace = "bluetooth"

// metrics is nil safe: components built outside a Coordinator carry none.
type metrics struct {
	advertisements   prometheus.Counter
	stale            prometheus.Counter
	deliveries       prometheus.Counter
	subscriberErrors prometheus.Counter
	registrations    prometheus.Gauge
	devices          prometheus.Gauge
	unavailables     prometheus.Counter
	flows            *prometheus.CounterVec
	restarts         *prometheus.CounterVec
	scanning         prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		advertisements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advertisements_total",
			Help:      "Advertisements received from the platform scanner.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advertisements_stale_total",
			Help:      "Advertisements dropped because a newer one was cached.",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_deliveries_total",
			Help:      "Advertisements delivered to callbacks.",
		}),
		subscriberErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_errors_total",
			Help:      "Callbacks that panicked during delivery.",
		}),
		registrations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "callback_registrations",
			Help:      "Registered advertisement callbacks.",
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_devices",
			Help:      "Devices in the discovered device registry.",
		}),
		unavailables: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_unavailable_total",
			Help:      "Devices that stopped advertising.",
		}),
		flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_flows_total",
			Help:      "Discovery flows started, by integration domain.",
		}, []string{"domain"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scanner_restarts_total",
			Help:      "Scanner restarts triggered by the watchdog, by result.",
		}, []string{"result"}),
		scanning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scanning",
			Help:      "1 while the platform scanner is running.",
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.advertisements, m.stale, m.deliveries, m.subscriberErrors,
		m.registrations, m.devices, m.unavailables, m.flows, m.restarts,
		m.scanning,
	}
}

// register registers every collector on r. Collectors registered by an
// earlier call are not an error.
func (m *metrics) register(r prometheus.Registerer) error {
	var err error
	for _, c := range m.collectors() {
		if e := r.Register(c); e != nil {
			if _, ok := e.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			err = multierr.Append(err, e)
		}
	}
	return err
}

func (m *metrics) advertisement() {
	if m != nil {
		m.advertisements.Inc()
	}
}

func (m *metrics) staleAdvertisement() {
	if m != nil {
		m.stale.Inc()
	}
}

func (m *metrics) delivered() {
	if m != nil {
		m.deliveries.Inc()
	}
}

func (m *metrics) subscriberError() {
	if m != nil {
		m.subscriberErrors.Inc()
	}
}

func (m *metrics) setRegistrations(n int) {
	if m != nil {
		m.registrations.Set(float64(n))
	}
}

func (m *metrics) setDevices(n int) {
	if m != nil {
		m.devices.Set(float64(n))
	}
}

func (m *metrics) unavailable() {
	if m != nil {
		m.unavailables.Inc()
	}
}

func (m *metrics) flowStarted(domain string) {
	if m != nil {
		m.flows.WithLabelValues(domain).Inc()
	}
}

func (m *metrics) restarted(result string) {
	if m != nil {
		m.restarts.WithLabelValues(result).Inc()
	}
}

func (m *metrics) setScanning(on bool) {
	if m == nil {
		return
	}
	if on {
		m.scanning.Set(1)
		return
	}
	m.scanning.Set(0)
}
