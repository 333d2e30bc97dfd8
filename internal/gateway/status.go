package gateway

import (
	"net/http"
	"time"

	"github.com/flemzord/voxscribe/internal/stt"
	"github.com/flemzord/voxscribe/internal/voice"
)

// statusWindow is how far back GET /status summarizes outcomes.
const statusWindow = 24 * time.Hour

// statusSampleLimit caps the rows read to build the outcome summary.
const statusSampleLimit = 5000

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime   int64                 `json:"uptime_seconds"`
	Token    *stt.TokenState       `json:"token,omitempty"`
	Outcomes map[voice.Outcome]int `json:"outcomes_24h,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime: int64(time.Since(g.startedAt).Seconds()),
		}

		if g.tokens != nil {
			state := g.tokens.State()
			resp.Token = &state
		}

		if g.history != nil {
			records, err := g.history.Recent(r.Context(), voice.Query{
				Since: time.Now().Add(-statusWindow),
				Limit: statusSampleLimit,
			})
			if err != nil {
				g.logger.Warn("status: reading history failed", "error", err)
			}
			resp.Outcomes = make(map[voice.Outcome]int)
			for _, rec := range records {
				resp.Outcomes[rec.Outcome]++
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
