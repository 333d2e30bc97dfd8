package gateway

import (
	"net/http"
	"time"

	"github.com/flemzord/voxscribe/internal/stt"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string          `json:"status"` // "ok" or "degraded"
	Uptime int64           `json:"uptime_seconds"`
	Token  *stt.TokenState `json:"token,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when a transcriber is wired, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Uptime: int64(time.Since(g.startedAt).Seconds()),
		}

		if g.tokens != nil {
			state := g.tokens.State()
			resp.Token = &state
		}

		code := http.StatusOK
		if g.transcriber == nil {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
