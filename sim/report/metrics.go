package report

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a report as Prometheus gauges.
// Undefined figures are not exported.
type Collector struct {
	Requests             *prometheus.GaugeVec
	SimulationTime       prometheus.Gauge
	RejectionProbability prometheus.Gauge
	SourceRejection      *prometheus.GaugeVec
	SourceDelay          *prometheus.GaugeVec
	DeviceUtilization    *prometheus.GaugeVec
}

// NewCollector registers report gauges against the provided registerer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		Requests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_sim_requests",
			Help: "Requests seen by the simulation, by outcome.",
		}, []string{"outcome"}),
		SimulationTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_sim_simulation_time_ticks",
			Help: "Simulated time at which the report was taken.",
		}),
		RejectionProbability: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_sim_rejection_probability",
			Help: "Rejected requests over received requests.",
		}),
		SourceRejection: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_sim_source_rejection_probability",
			Help: "Per-source rejected over generated requests.",
		}, []string{"source"}),
		SourceDelay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_sim_source_total_delay_ticks",
			Help: "Per-source mean buffer time plus mean service time.",
		}, []string{"source"}),
		DeviceUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_sim_device_utilization",
			Help: "Fraction of simulated time each device spent serving.",
		}, []string{"device"}),
	}
	for _, col := range []prometheus.Collector{
		c.Requests, c.SimulationTime, c.RejectionProbability,
		c.SourceRejection, c.SourceDelay, c.DeviceUtilization,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering report metrics: %w", err)
		}
	}
	return c, nil
}

// Observe sets every gauge from r, replacing values from earlier reports.
func (c *Collector) Observe(r *Report) {
	if c == nil || r == nil {
		return
	}
	c.Requests.WithLabelValues("received").Set(float64(r.General.Received))
	c.Requests.WithLabelValues("processed").Set(float64(r.General.Processed))
	c.Requests.WithLabelValues("rejected").Set(float64(r.General.Rejected))
	c.SimulationTime.Set(float64(r.General.SimulationTime))
	if r.General.RejectionProbability != nil {
		c.RejectionProbability.Set(*r.General.RejectionProbability)
	}

	c.SourceRejection.Reset()
	c.SourceDelay.Reset()
	for _, s := range r.Sources {
		label := strconv.Itoa(s.ID)
		if s.RejectionProbability != nil {
			c.SourceRejection.WithLabelValues(label).Set(*s.RejectionProbability)
		}
		if s.TotalDelay != nil {
			c.SourceDelay.WithLabelValues(label).Set(*s.TotalDelay)
		}
	}

	c.DeviceUtilization.Reset()
	for _, d := range r.Devices {
		if d.Utilization != nil {
			c.DeviceUtilization.WithLabelValues(strconv.Itoa(d.ID)).Set(*d.Utilization)
		}
	}
}

// WriteTextfile writes r in the Prometheus text format to path, for the
// node exporter's textfile collector.
func WriteTextfile(path string, r *Report) error {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		return err
	}
	c.Observe(r)
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
