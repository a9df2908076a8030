// Package observability provides structured JSON logging, Prometheus
// metrics, health probes, and graceful shutdown for the API server.
package observability
