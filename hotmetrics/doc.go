// Package hotmetrics exports hotseq scheduler and live-stream statistics as
// Prometheus metrics.
//
// Collectors read a fresh snapshot on every scrape, so registering them
// costs nothing between scrapes:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(hotmetrics.NewPoolCollector("ingest", pool))
//	reg.MustRegister(hotmetrics.NewSharedCollector("prices", shared))
package hotmetrics
