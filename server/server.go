package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/agentchain"
	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/logging"
	"github.com/hupe1980/agentchain/orchestrator"
	"github.com/hupe1980/agentchain/session"
)

// defaultMaxUploadBytes bounds the accepted upload request size.
const defaultMaxUploadBytes = 32 << 20

// Options configures the HTTP server.
type Options struct {
	// Logger receives request-level logs.
	Logger logging.Logger
	// MaxUploadBytes caps the size of upload request bodies.
	MaxUploadBytes int64
}

// Server routes HTTP requests into an AgentChain instance.
type Server struct {
	chain          *agentchain.AgentChain
	logger         logging.Logger
	maxUploadBytes int64
	mux            *http.ServeMux
}

// New constructs the server and its routes.
func New(chain *agentchain.AgentChain, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		MaxUploadBytes: defaultMaxUploadBytes,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		chain:          chain,
		logger:         opts.Logger,
		maxUploadBytes: opts.MaxUploadBytes,
		mux:            http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /agents", s.handleAgents)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("GET /session/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /session/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Success   bool              `json:"success"`
	SessionID string            `json:"session_id"`
	Response  *core.ChainResult `json:"response"`
	Timestamp time.Time         `json:"timestamp"`
}

// AgentInfo describes one registered agent in GET /agents.
type AgentInfo struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "AgentChain API",
		"version": "1.0.0",
		"status":  "running",
		"agents":  s.chain.AgentNames(),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	list := s.chain.ListAgents()
	infos := make([]AgentInfo, 0, len(list))
	for _, name := range s.chain.AgentNames() {
		infos = append(infos, AgentInfo{Name: name, Capabilities: list[name]})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, sessionID, err := s.chain.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeChainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Success:   result.Success,
		SessionID: sessionID,
		Response:  result,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// MaxBytesReader rejects oversized request bodies; ParseMultipartForm
	// alone only bounds in-memory buffering.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "only CSV files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	_, sessionID, err := s.chain.SaveUpload(r.FormValue("session_id"), header.Filename, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("file uploaded", "session_id", sessionID, "file", header.Filename, "bytes", len(data))

	resp := map[string]any{
		"success":       true,
		"session_id":    sessionID,
		"file_uploaded": header.Filename,
		"timestamp":     time.Now().UTC(),
	}

	if message := r.FormValue("message"); message != "" {
		result, err := s.chain.ChatAboutFile(r.Context(), sessionID, message, header.Filename)
		if err != nil {
			s.writeChainError(w, err)
			return
		}
		resp["response"] = result
	} else {
		resp["message"] = "File uploaded successfully. Send a message to analyze it."
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chain.Session(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sess.ID, "session": sess})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.chain.DeleteSession(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Session %s deleted", id),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"history": s.chain.ExecutionHistory()})
}

// writeChainError maps orchestration errors to HTTP statuses: routing
// faults are configuration problems (500), everything else bubbles as
// an internal error too but with its own message.
func (s *Server) writeChainError(w http.ResponseWriter, err error) {
	s.logger.Error("chat failed", "error", err)
	var uerr *orchestrator.UnknownAgentError
	if errors.As(err, &uerr) {
		writeError(w, http.StatusInternalServerError, uerr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
