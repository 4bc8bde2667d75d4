// Package apiserver implements the HTTP surface from the external
// interface table: lobby/contribute endpoints, status/state streaming, and
// session issuance, wired against pkg/coordinator.
package apiserver

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kzg-ceremony/sequencer/pkg/coordinator"
	"github.com/kzg-ceremony/sequencer/pkg/transcript"
)

// Server holds the handlers' dependencies: the coordinator, the session
// codec, and a logger, matching the teacher's handler-struct-plus-logger
// construction pattern.
type Server struct {
	coord   *coordinator.Coordinator
	batch   *transcript.BatchTranscript
	session *SessionCodec
	metrics *Metrics
	logger  *log.Logger
}

// New constructs a Server and its ServeMux. reg is the Prometheus registry
// the sequencer's collectors are registered against and the /metrics
// endpoint serves, e.g. prometheus.NewRegistry() for an isolated registry.
func New(coord *coordinator.Coordinator, batch *transcript.BatchTranscript, session *SessionCodec, reg *prometheus.Registry) *Server {
	return &Server{
		coord:   coord,
		batch:   batch,
		session: session,
		metrics: NewMetrics(reg),
		logger:  log.New(log.Writer(), "[APIServer] ", log.LstdFlags),
	}
}

// Routes builds the ServeMux described by the external interface table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/request_link", s.handleAuthRequestLink)
	mux.HandleFunc("/auth/callback/github", s.handleAuthCallbackGitHub)
	mux.HandleFunc("/auth/callback/eth", s.handleAuthCallbackEth)
	mux.HandleFunc("/lobby/try_contribute", s.handleTryContribute)
	mux.HandleFunc("/contribute", s.handleContribute)
	mux.HandleFunc("/contribute/abort", s.handleContributeAbort)
	mux.HandleFunc("/info/status", s.handleInfoStatus)
	mux.HandleFunc("/info/current_state", s.handleInfoCurrentState)
	mux.Handle("/metrics", Handler(s.metrics.registry))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleAuthRequestLink issues the CSRF state for an OAuth login. It does
// not build provider authorization URLs; it only mints the opaque state
// token.
func (s *Server) handleAuthRequestLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"state": uuid.New().String(),
	})
}

func (s *Server) handleAuthCallbackGitHub(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSONError(w, "not implemented: requires a configured GitHub OAuth collaborator", http.StatusNotImplemented)
}

func (s *Server) handleAuthCallbackEth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSONError(w, "not implemented: requires a configured SIWE collaborator", http.StatusNotImplemented)
}

type tryContributeRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleTryContribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tryContributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snapshot, err := s.coord.TryContribute(req.SessionID, time.Now())
	if err != nil {
		s.writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type contributeRequest struct {
	SessionID      string                       `json:"session_id"`
	ParticipantID  string                       `json:"participant_id"`
	Contribution   transcript.BatchContribution `json:"contribution"`
	ECDSASignature *string                      `json:"ecdsa_signature,omitempty"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := s.coord.Contribute(r.Context(), req.SessionID, req.ParticipantID, req.Contribution, req.ECDSASignature)
	if err != nil {
		s.metrics.RecordContribution(errorCode(err))
		s.writeCoordinatorError(w, err)
		return
	}
	s.metrics.RecordContribution("")
	writeJSON(w, http.StatusOK, receipt)
}

type abortRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleContributeAbort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req abortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.coord.Abort(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleInfoStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := s.coord.Status()
	s.metrics.Observe(status)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lobby_size":          status.LobbySize,
		"num_contributions":   status.NumContributions,
		"sequencer_address":   status.SequencerAddress,
	})
}

func (s *Server) handleInfoCurrentState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.batch); err != nil {
		s.logger.Printf("failed to stream current state: %v", err)
	}
}

// errorCode extracts a metrics label from a *coordinator.Error or
// *transcript.Error (ceremony failures arrive wrapped as InvalidCeremony),
// falling back to "unknown" for any other error type. Wrapped errors are
// not unwrapped.
func errorCode(err error) string {
	switch e := err.(type) {
	case *coordinator.Error:
		return string(e.Code)
	case *transcript.Error:
		return string(e.Code)
	default:
		return "unknown"
	}
}

// writeCoordinatorError maps a *coordinator.Error (or *transcript.Error) to
// an HTTP status. Cryptographic/verification errors surface the
// sub-contribution index verbatim, per the propagation policy.
func (s *Server) writeCoordinatorError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *coordinator.Error:
		switch e.Code {
		case coordinator.CodeUnknownSessionID:
			writeJSONError(w, e.Error(), http.StatusNotFound)
		case coordinator.CodeAnotherContributionInProgress:
			writeJSON(w, http.StatusConflict, map[string]string{"error": string(e.Code)})
		case coordinator.CodeRateLimited:
			writeJSONError(w, e.Error(), http.StatusTooManyRequests)
		default:
			writeJSONError(w, e.Error(), http.StatusBadRequest)
		}
	case *transcript.Error:
		writeJSONError(w, e.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
