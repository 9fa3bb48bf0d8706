// Package api hosts the read-only HTTP server over the ingested catalog.
// Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/pokemon/{term} to look a creature up by ID or name.
//   - GET /v1/stats for the catalog row count.
package api
