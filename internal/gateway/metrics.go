package gateway

import "net/http"

// metricsHandler serves the Prometheus registry, or 404 when metrics are
// not wired.
func (g *Gateway) metricsHandler() http.Handler {
	if g.metrics == nil {
		return http.NotFoundHandler()
	}
	return g.metrics.Handler()
}
