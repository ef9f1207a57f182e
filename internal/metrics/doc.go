// Package metrics collects job execution metrics for a worker pool.
//
// Metrics implements the worker.Observer interface. It keeps in-memory
// counters and a bounded latency sample for reports, and mirrors them into
// Prometheus collectors so they can be scraped from /metrics.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//
//	d, _ := worker.Build(4, worker.WithObserver(m))
//	// ... submit jobs ...
//
//	snap := m.Snapshot()
//	fmt.Printf("Completed: %d, JPS: %.2f, P99: %v\n",
//	    snap.CompletedJobs, snap.JobsPerSecond, snap.P99Latency)
//
// # Configuration
//
// Use NewWithConfig for custom settings:
//
//	config := metrics.Config{
//	    Namespace:         "threadpool",
//	    MaxLatencySamples: 5000, // More samples for P99 accuracy
//	}
//	m := metrics.NewWithConfig(config, reg)
//
// A nil Registerer skips Prometheus registration, which is convenient in
// tests.
//
// # Thread Safety
//
// All operations are safe for concurrent use.
package metrics
