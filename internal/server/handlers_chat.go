package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/chat"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Reasons a submission was not accepted.
const (
	RejectEmpty    = "empty_question"
	RejectNotReady = "model_not_ready"
	RejectBusy     = "turn_in_progress"
)

// maxBodyBytes caps chat request bodies.
const maxBodyBytes = 16 << 10

// CreateSessionResponse is the body of POST /api/chat/sessions.
type CreateSessionResponse struct {
	SessionID    string       `json:"session_id"`
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	FactsVersion int64        `json:"facts_version"`
	UI           chat.UIState `json:"ui"`
}

// SubmitResponse is the body of POST /api/chat/sessions/{id}/messages. A
// rejected submission is not an error: Accepted is false and the transcript
// is unchanged.
type SubmitResponse struct {
	Accepted bool               `json:"accepted"`
	Reason   string             `json:"reason,omitempty"`
	Reply    *types.ChatMessage `json:"reply,omitempty"`
}

// UIStateResponse is the body of PUT /api/chat/sessions/{id}/ui.
type UIStateResponse struct {
	UI chat.UIState `json:"ui"`
}

// handleCreateSession starts a chat session and returns its bearer token.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	session := s.deps.Sessions.Create()

	token, expiresAt, err := s.deps.Tokens.GenerateToken(session.ID(), session.FactsVersion())
	if err != nil {
		s.deps.Sessions.Delete(session.ID())
		s.errorFrom(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, CreateSessionResponse{
		SessionID:    session.ID(),
		Token:        token,
		ExpiresAt:    expiresAt,
		FactsVersion: session.FactsVersion(),
		UI:           session.UI(),
	})
}

// handleListMessages returns the session view including its transcript.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, session.View())
}

// handleSubmit runs one chat turn.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req types.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorFrom(w, err)
		return
	}

	switch {
	case strings.TrimSpace(req.Question) == "":
		session.Submit(r.Context(), req.Question)
		s.jsonResponse(w, http.StatusOK, SubmitResponse{Reason: RejectEmpty})
		return
	case !s.deps.Loader.Status().Ready():
		session.Submit(r.Context(), req.Question)
		s.jsonResponse(w, http.StatusOK, SubmitResponse{Reason: RejectNotReady})
		return
	}

	// The turn outlives a dropped connection so the transcript stays whole.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.TurnTimeout)
	defer cancel()

	reply, accepted := session.Turn(ctx, req.Question)
	if !accepted {
		s.jsonResponse(w, http.StatusOK, SubmitResponse{Reason: RejectBusy})
		return
	}
	s.jsonResponse(w, http.StatusOK, SubmitResponse{Accepted: true, Reply: reply})
}

// handleSetUI moves the widget between open, minimized and closed.
func (s *Server) handleSetUI(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req types.UIStateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorFrom(w, err)
		return
	}

	state, err := session.SetUI(chat.UIState(req.State))
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, UIStateResponse{UI: state})
}

// handleDeleteSession tears the session down. A reply still being computed is discarded.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.deps.Sessions.Delete(id) {
		s.errorFrom(w, &ErrSessionNotFound{SessionID: id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the {id} path value, writing 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	id := r.PathValue("id")
	session, ok := s.deps.Sessions.Get(id)
	if !ok {
		s.errorFrom(w, &ErrSessionNotFound{SessionID: id})
		return nil, false
	}
	return session, true
}

// decodeJSON reads a size-limited JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}

	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ErrValidation{Field: fe.Field(), Message: "failed on " + fe.Tag()}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}
