package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/loader"
)

// StatusResponse is the body of GET /api/assistant/status.
type StatusResponse struct {
	loader.Status
	DurationMillis int64 `json:"duration_ms"`
}

func newStatusResponse(st loader.Status) StatusResponse {
	return StatusResponse{Status: st, DurationMillis: st.Duration().Milliseconds()}
}

// PassageResponse is the body of GET /api/knowledge/passage.
type PassageResponse struct {
	Passage      string    `json:"passage"`
	FactsVersion int64     `json:"facts_version"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus returns the model loader state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, newStatusResponse(s.deps.Loader.Status()))
}

// handleStatusStream streams loader state changes as "status" events. The
// stream ends after a ready or failed state has been sent.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates, cancel := s.deps.Loader.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(s.cfg.StreamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.WriteEvent("status", newStatusResponse(st)); err != nil {
				s.logger.Debug("status stream closed", zap.Error(err))
				return
			}
			if st.State == loader.StateReady || st.State == loader.StateFailed {
				return
			}
		}
	}
}

// handleMetrics returns assistant counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Metrics == nil {
		s.errorResponse(w, http.StatusNotFound, "metrics are disabled")
		return
	}
	s.jsonResponse(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

// handlePassage returns the knowledge passage of the current Fact Set.
func (s *Server) handlePassage(w http.ResponseWriter, _ *http.Request) {
	snap := s.deps.Facts.Current()
	s.jsonResponse(w, http.StatusOK, PassageResponse{
		Passage:      snap.Knowledge.Passage(),
		FactsVersion: snap.Version,
		LoadedAt:     snap.LoadedAt,
	})
}
