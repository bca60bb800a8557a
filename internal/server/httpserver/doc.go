// Package httpserver serves the chgrid admin endpoint.
//
// Routes:
//
//	GET /health                       liveness
//	GET /metrics                      Prometheus exposition
//	GET /v1/summary                   per-class aggregate of every channel
//	GET /v1/channels/{row}/{column}   one channel record (read-only copy)
//	GET /v1/locks                     partition keys currently held
//	GET /v1/diagnostics               enabled diagnostic categories
//	PUT /v1/diagnostics               replace the enabled categories
//
// The router can be served on TCP (New) and on a Unix socket (NewUnix).
// Every route runs behind request id, panic recovery, optional per-client
// rate limiting and access logging.
package httpserver
