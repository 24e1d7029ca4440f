// Package metrics exports registry lifecycle counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/refptr/registry"
)

const namespace = "refptr"

// Collector reports the state of one or more registries. Every metric is
// labeled with the registry name.
type Collector struct {
	registries []*registry.Registry

	live           *prometheus.Desc
	created        *prometheus.Desc
	destroyed      *prometheus.Desc
	upgrades       *prometheus.Desc
	failedUpgrades *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for regs. Registry names should be
// unique; duplicate label sets are rejected by Prometheus at gather time.
func NewCollector(regs ...*registry.Registry) *Collector {
	labels := []string{"registry"}
	return &Collector{
		registries: regs,
		live: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "live_entries"),
			"Number of addresses with at least one strong handle.",
			labels, nil,
		),
		created: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "entries_created_total"),
			"Entries inserted by a first strong handle.",
			labels, nil,
		),
		destroyed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "entries_destroyed_total"),
			"Entries erased by a last release.",
			labels, nil,
		),
		upgrades: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "upgrades_total"),
			"Successful weak to strong upgrades.",
			labels, nil,
		),
		failedUpgrades: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "failed_upgrades_total"),
			"Upgrades refused because the target was gone.",
			labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.created
	ch <- c.destroyed
	ch <- c.upgrades
	ch <- c.failedUpgrades
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, r := range c.registries {
		s := r.Stats()
		name := r.Name()
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.Live), name)
		ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(s.Created), name)
		ch <- prometheus.MustNewConstMetric(c.destroyed, prometheus.CounterValue, float64(s.Destroyed), name)
		ch <- prometheus.MustNewConstMetric(c.upgrades, prometheus.CounterValue, float64(s.Upgrades), name)
		ch <- prometheus.MustNewConstMetric(c.failedUpgrades, prometheus.CounterValue, float64(s.FailedUpgrades), name)
	}
}

// Register registers a collector for regs with prometheus.DefaultRegisterer.
func Register(regs ...*registry.Registry) *Collector {
	c := NewCollector(regs...)
	prometheus.MustRegister(c)
	return c
}
