package hotmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/baxromumarov/hotseq"
)

const namespace = "hotseq"

// PoolSource is implemented by [*hotseq.PoolScheduler].
type PoolSource interface {
	Stats() hotseq.PoolStats
}

// SharedSource is implemented by [*hotseq.Shared].
type SharedSource interface {
	Stats() hotseq.SharedStats
}

// PoolCollector is a prometheus.Collector over a pool's counters.
type PoolCollector struct {
	src PoolSource

	submitted  *prometheus.Desc
	completed  *prometheus.Desc
	errored    *prometheus.Desc
	inFlight   *prometheus.Desc
	queueDepth *prometheus.Desc
	workers    *prometheus.Desc
}

// NewPoolCollector returns a collector labelling every metric with
// pool=name. Panics if src is nil.
func NewPoolCollector(name string, src PoolSource) *PoolCollector {
	if src == nil {
		panic("hotmetrics: NewPoolCollector requires non-nil source")
	}
	labels := prometheus.Labels{"pool": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", metric), help, nil, labels)
	}
	return &PoolCollector{
		src:        src,
		submitted:  desc("submitted_total", "Tasks submitted to the pool."),
		completed:  desc("completed_total", "Tasks finished, successfully or not."),
		errored:    desc("errored_total", "Tasks that returned an error or panicked."),
		inFlight:   desc("in_flight", "Tasks currently executing."),
		queueDepth: desc("queue_depth", "Tasks waiting for a worker."),
		workers:    desc("workers", "Fixed number of workers."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.submitted
	ch <- c.completed
	ch <- c.errored
	ch <- c.inFlight
	ch <- c.queueDepth
	ch <- c.workers
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(s.Submitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.Completed))
	ch <- prometheus.MustNewConstMetric(c.errored, prometheus.CounterValue, float64(s.Errored))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(s.InFlight))
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(s.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.Workers))
}

// SharedCollector is a prometheus.Collector over a shared stream's ring.
type SharedCollector struct {
	src SharedSource

	capacity *prometheus.Desc
	produced *prometheus.Desc
	dropped  *prometheus.Desc
	retained *prometheus.Desc
	readers  *prometheus.Desc
	closed   *prometheus.Desc
}

// NewSharedCollector returns a collector labelling every metric with
// stream=name. Panics if src is nil.
func NewSharedCollector(name string, src SharedSource) *SharedCollector {
	if src == nil {
		panic("hotmetrics: NewSharedCollector requires non-nil source")
	}
	labels := prometheus.Labels{"stream": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "shared", metric), help, nil, labels)
	}
	return &SharedCollector{
		src:      src,
		capacity: desc("capacity", "Ring capacity."),
		produced: desc("produced_total", "Elements pushed by the producer."),
		dropped:  desc("dropped_total", "Elements evicted from the ring."),
		retained: desc("retained", "Elements currently held by the ring."),
		readers:  desc("readers", "Reader tasks still running."),
		closed:   desc("closed", "1 once the producer has exhausted its source."),
	}
}

// Describe implements prometheus.Collector.
func (c *SharedCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.produced
	ch <- c.dropped
	ch <- c.retained
	ch <- c.readers
	ch <- c.closed
}

// Collect implements prometheus.Collector.
func (c *SharedCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	var closed float64
	if s.Closed {
		closed = 1
	}
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.produced, prometheus.CounterValue, float64(s.Produced))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.retained, prometheus.GaugeValue, float64(s.Retained))
	ch <- prometheus.MustNewConstMetric(c.readers, prometheus.GaugeValue, float64(s.Readers))
	ch <- prometheus.MustNewConstMetric(c.closed, prometheus.GaugeValue, closed)
}
