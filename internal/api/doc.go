// Package api hosts the optional status HTTP server that lets operators watch
// a long conversion run. Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/progress and /v1/progress/{operation_id} for the latest
//     snapshot of each tracked operation.
package api
