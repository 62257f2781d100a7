// Package handler implements the relay endpoint and the liveness check.
// Upstream success becomes a 200 with the upstream JSON untouched, and any
// failure becomes a 500 with an {"error": "..."} envelope.
package handler
