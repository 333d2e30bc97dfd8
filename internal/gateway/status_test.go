package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flemzord/voxscribe/internal/voice"
)

func TestStatus_SummarizesOutcomes(t *testing.T) {
	t.Parallel()

	hist := &fakeHistory{records: sampleRecords()}
	g := &Gateway{
		logger:    testLogger(),
		history:   hist,
		startedAt: time.Now().Add(-5 * time.Minute),
	}

	rr := httptest.NewRecorder()
	g.handleStatus().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Uptime < 290 {
		t.Errorf("uptime = %d, expected >= 290", resp.Uptime)
	}
	if resp.Outcomes[voice.OutcomeRepliedText] != 2 || resp.Outcomes[voice.OutcomeRepliedEmpty] != 1 {
		t.Errorf("outcomes = %v", resp.Outcomes)
	}
	if hist.last.Since.IsZero() || hist.last.Limit != statusSampleLimit {
		t.Errorf("query = %+v, want a bounded 24h window", hist.last)
	}
}

func TestStatus_HistoryErrorStillAnswers(t *testing.T) {
	t.Parallel()

	g := &Gateway{
		logger:    slog.New(slog.DiscardHandler),
		history:   &fakeHistory{err: errors.New("disk full")},
		startedAt: time.Now(),
	}

	rr := httptest.NewRecorder()
	g.handleStatus().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}
