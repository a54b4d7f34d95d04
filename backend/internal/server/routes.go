package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/habibuoy/pairchat/backend/internal/chat"
)

const (
	msgInvalidRequest = "Please provide a valid room chat request."
	msgWebsocketOnly  = "This endpoint only accepts WebSocket requests."
	msgSessionActive  = "User already has an active session in this chat room."
	msgRoomFull       = "Chat room is full."
	msgInternal       = "Something went wrong, please try again."
)

// response is the JSON envelope of every API reply.
type response struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

type roomResult struct {
	ID string `json:"id"`
}

type pairRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handlePair)
	mux.HandleFunc("GET /wschat", s.handleChat)
	mux.HandleFunc("GET /ws", s.handleHeartbeat)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return s.cors.Handler(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Message: "Hello, World! Access /ws to begin Websocket connection"})
}

// Health Check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Relay server is healthy."))
}

// handlePair finds or creates the room for a sender and recipient. The pair
// may be given in the query string, a form body or a JSON body.
func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePairRequest(w, r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, response{Message: msgInvalidRequest})
		return
	}

	room, err := s.registry.FindOrCreate(r.Context(), req.Sender, req.Recipient)
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, response{Message: msgInvalidRequest})
		return
	case err != nil:
		s.log.Error("server.pair_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Message: msgInternal})
		return
	}
	writeJSON(w, http.StatusOK, response{Result: roomResult{ID: room.ID()}})
}

func decodePairRequest(w http.ResponseWriter, r *http.Request) (pairRequest, bool) {
	var req pairRequest
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return pairRequest{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return pairRequest{}, false
		}
		req.Sender = r.Form.Get("sender")
		req.Recipient = r.Form.Get("recipient")
	}
	req.Sender = strings.TrimSpace(req.Sender)
	req.Recipient = strings.TrimSpace(req.Recipient)
	return req, req.Sender != "" && req.Recipient != ""
}

// handleChat upgrades a member's connection and relays it into the room.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusBadRequest, response{Message: msgWebsocketOnly})
		return
	}
	roomID := strings.TrimSpace(r.URL.Query().Get("chatRoomId"))
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if roomID == "" || user == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: msgInvalidRequest})
		return
	}
	room, err := s.registry.Room(roomID)
	if err != nil {
		s.log.Debug("server.chat_invalid", "err", err)
		writeJSON(w, http.StatusBadRequest, response{Message: msgInvalidRequest})
		return
	}
	if !room.HasMember(user) {
		writeJSON(w, http.StatusBadRequest, response{Message: msgInvalidRequest})
		return
	}
	if room.HasLiveSession(user) {
		writeJSON(w, http.StatusConflict, response{Message: msgSessionActive})
		return
	}
	if !room.CanAcceptSession() {
		writeJSON(w, http.StatusConflict, response{Message: msgRoomFull})
		return
	}

	// Upgrade the HTTP connection to a WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("server.upgrade_failed", "err", err)
		return
	}
	s.sockets.Add(1)
	defer s.sockets.Done()

	log := s.log.With("room", roomID, "member", user, "remote", r.RemoteAddr)
	log.Info("server.chat_connected")

	session := chat.NewSession(conn, user, roomID, s.sessionOpts)
	if err := s.relay.Run(r.Context(), session, room); err != nil {
		// Lost a race with another connection for the same member.
		log.Info("server.chat_rejected", "err", err)
		reason := "Session rejected"
		if errors.Is(err, chat.ErrSessionActive) {
			reason = "Session already active"
		}
		_ = session.Close(websocket.ClosePolicyViolation, reason)
		return
	}
	log.Info("server.chat_ended")
}

// handleHeartbeat serves the diagnostic greeting socket.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusBadRequest, response{Message: msgWebsocketOnly})
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("server.upgrade_failed", "err", err)
		return
	}
	s.sockets.Add(1)
	defer s.sockets.Done()

	s.log.Info("server.heartbeat_connected", "remote", r.RemoteAddr)
	s.heartbeat.Run(r.Context(), chat.NewSession(conn, r.RemoteAddr, "", s.sessionOpts))
}
