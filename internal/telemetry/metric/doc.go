// Package metric provides Prometheus metrics for ChGrid.
//
// Registry owns a private prometheus.Registry with the Go and process
// collectors plus:
//
//   - chgrid_grid_acquire_total{key,mode,outcome}
//   - chgrid_grid_wait_seconds{key}
//   - chgrid_grid_held{key}
//   - chgrid_grid_release_total{key}
//   - chgrid_poller_passes_total{class,outcome}
//
// Registry implements grid.Observer, so the grid metrics are fed by passing
// it to grid.WithObserver. Metrics are exposed at /metrics in Prometheus
// format.
package metric
