package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/kingrea/guildhall/internal/session"
)

// sessionDocument is the full read shape: metadata plus the message log.
type sessionDocument struct {
	session.Metadata
	Messages []session.Message `json:"messages"`
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Sessions.List()
	if err != nil {
		s.logger.Printf("gateway: list sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("session store unavailable"))
		return
	}
	if all == nil {
		all = []session.Metadata{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	name := stringField(payload, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	var members []string
	if raw, ok := payload["guildMembers"].([]any); ok {
		for _, item := range raw {
			if member, ok := item.(string); ok && member != "" {
				members = append(members, member)
			}
		}
	}
	meta, err := s.deps.Sessions.Create(name, members)
	if err != nil {
		s.logger.Printf("gateway: create session: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("session store unavailable"))
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	meta, messages, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionDocument{Metadata: meta, Messages: messages})
}

func (s *Server) handleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	var upd session.Update
	if raw := stringField(payload, "status"); raw != "" {
		status := session.Status(raw)
		if !status.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown status"))
			return
		}
		upd.Status = &status
	}
	if raw := stringField(payload, "lastActivityAt"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("lastActivityAt must be RFC 3339"))
			return
		}
		upd.LastActivityAt = &at
	}
	meta, err := s.deps.Sessions.UpdateMetadata(r.PathValue("id"), upd)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Delete(r.PathValue("id")); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionAppend(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	msg := session.Message{
		Role:    stringField(payload, "role"),
		Content: stringField(payload, "content"),
	}
	if msg.Role == "" || msg.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("role and content are required"))
		return
	}
	if raw := stringField(payload, "timestamp"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("timestamp must be RFC 3339"))
			return
		}
		msg.Timestamp = at
	}
	if err := s.deps.Sessions.Append(r.PathValue("id"), msg); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "appended"})
}

func (s *Server) handleSessionComplete(w http.ResponseWriter, r *http.Request) {
	meta, err := s.deps.Sessions.Complete(r.PathValue("id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
	case errors.Is(err, session.ErrRunning):
		writeJSON(w, http.StatusConflict, errorBody("session query is running, stop it before completing"))
	default:
		s.logger.Printf("gateway: session store: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("session store unavailable"))
	}
}
