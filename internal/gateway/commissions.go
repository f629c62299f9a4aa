package gateway

import (
	"net/http"
	"net/url"
)

// Commission handlers are pure relays: the daemon is the sole authority on
// commission state transitions. This layer only validates create payloads
// up front and translates daemon absence into 503.

func (s *Server) handleCommissionCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	for _, field := range []string{"projectName", "workerName", "prompt"} {
		if stringField(payload, field) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody(field+" is required"))
			return
		}
	}
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodPost, "/api/commissions", payload)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleCommissionUpdate(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodPut, commissionPath(r.PathValue("id"), ""), payload)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleCommissionDelete(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodDelete, commissionPath(r.PathValue("id"), ""), nil)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleCommissionDispatch(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodPost, commissionPath(r.PathValue("id"), "/dispatch"), nil)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func commissionPath(id, suffix string) string {
	return "/api/commissions/" + url.PathEscape(id) + suffix
}
