package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// QueryHandler resolves one chat query to a reply string. Satisfied by
// assistant.Dispatcher.
type QueryHandler interface {
	Handle(ctx context.Context, text string) string
}

// Server hosts the POST /chat contract: {"query": "..."} in,
// {"response": "..."} out.
type Server struct {
	handler QueryHandler
	log     *slog.Logger
}

func New(handler QueryHandler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{handler: handler, log: log}
}

// Register adds the chat endpoint to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/chat", s.handleChat)
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	// The web front-end calls this cross-origin.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, `{"error": "query is required"}`, http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	s.log.Info("chat query received", "request_id", requestID, "query", req.Query)

	reply := s.handler.Handle(r.Context(), req.Query)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(chatResponse{Response: reply})
}
