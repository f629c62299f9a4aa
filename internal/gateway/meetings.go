package gateway

import (
	"net/http"
	"net/url"
)

// Meeting start/message/accept responses are live agent turns streamed from
// the daemon; the gateway forwards those streams byte for byte and never
// reads ahead of the client. Interrupt, defer, and delete are ordinary JSON
// relays.

func (s *Server) handleMeetingCreate(w http.ResponseWriter, r *http.Request) {
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
	resp, err := s.deps.Daemon.Stream(r.Context(), http.MethodPost, "/api/meetings", payload)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relayStream(w, resp)
}

func (s *Server) handleMeetingMessage(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if stringField(payload, "message") == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("message is required"))
		return
	}
	resp, err := s.deps.Daemon.Stream(r.Context(), http.MethodPost, meetingPath(r.PathValue("id"), "/messages"), payload)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relayStream(w, resp)
}

func (s *Server) handleMeetingAccept(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	resp, err := s.deps.Daemon.Stream(r.Context(), http.MethodPost, meetingPath(r.PathValue("id"), "/accept"), payload)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relayStream(w, resp)
}

func (s *Server) handleMeetingInterrupt(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodPost, meetingPath(r.PathValue("id"), "/interrupt"), nil)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleMeetingDefer(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodPost, meetingPath(r.PathValue("id"), "/defer"), payload)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleMeetingDelete(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deps.Daemon.Call(r.Context(), http.MethodDelete, meetingPath(r.PathValue("id"), ""), nil)
	if err != nil {
		s.daemonFailure(w, err)
		return
	}
	s.relay(w, resp)
}

func meetingPath(id, suffix string) string {
	return "/api/meetings/" + url.PathEscape(id) + suffix
}
