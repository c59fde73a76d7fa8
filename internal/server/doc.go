// Package server provides the operational HTTP endpoints that run
// alongside the poll loop: Kubernetes-style health probes (/healthz,
// /readyz) and Prometheus metrics (/metrics). The server is optional
// and only started when a listen address is configured.
package server
