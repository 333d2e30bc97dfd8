package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/voice"
)

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 500
)

// handleListTranscripts returns recorded voice events, newest first.
//
// Query parameters: channel, chat_id, outcome, since (RFC 3339) and
// limit (default 50, max 500).
func (g *Gateway) handleListTranscripts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.history == nil {
			http.Error(w, "history not available", http.StatusServiceUnavailable)
			return
		}

		q, err := parseTranscriptQuery(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		records, err := g.history.Recent(r.Context(), q)
		if err != nil {
			g.logger.Error("listing transcripts failed", "error", err)
			http.Error(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []voice.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func parseTranscriptQuery(r *http.Request) (voice.Query, error) {
	v := r.URL.Query()
	q := voice.Query{
		Channel: v.Get("channel"),
		ChatID:  v.Get("chat_id"),
		Outcome: voice.Outcome(v.Get("outcome")),
		Limit:   defaultTranscriptLimit,
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return voice.Query{}, errInvalidParam("limit")
		}
		q.Limit = min(n, maxTranscriptLimit)
	}
	if s := v.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return voice.Query{}, errInvalidParam("since")
		}
		q.Since = t
	}
	return q, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid query parameter: " + string(e) }

// moduleJSON is a serializable module info snapshot.
type moduleJSON struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
}

// handleGetAllModules lists all compiled modules (for /api/modules).
func (g *Gateway) handleGetAllModules() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		mods := core.GetModules()
		out := make([]moduleJSON, 0, len(mods))
		for _, m := range mods {
			out = append(out, moduleJSON{
				ID:        string(m.ID),
				Namespace: core.Namespace(string(m.ID)),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
