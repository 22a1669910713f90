// Package server provides the small HTTP surface `signctl watch` exposes while it polls.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] with method filtering; middleware added first runs outermost.
//
// # Handlers
//
// Handlers implement [Handler], which adds the paths they serve to [http.Handler]:
//
//   - [MetricsHandler] serves the Prometheus registry on /metrics
//   - [StatusHandler] serves the poller's last snapshot on /status
//   - [HealthHandler] answers /healthz
//
// [Server] binds a listener up front, so callers learn the real address when they ask for ":0".
package server
