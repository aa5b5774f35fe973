// Package server exposes the classification engine and folder utilities over
// HTTP, with live progress on a WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nikbrunner/bmsort/internal/classify"
	"github.com/nikbrunner/bmsort/internal/model"
	"github.com/nikbrunner/bmsort/internal/organize"
	"github.com/nikbrunner/bmsort/internal/progress"
	"github.com/nikbrunner/bmsort/internal/storage"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	maxBodyBytes = 8 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Params holds the collaborators of a Server.
type Params struct {
	Engine       *classify.Engine
	Store        *model.Store
	Storage      storage.Storage
	Credentials  storage.CredentialStore
	Settings     model.Settings // defaults for fields a request leaves out
	TargetFolder string         // default model.BarFolderID
	Logger       *zap.Logger
}

// Server serves the bmsort HTTP API.
type Server struct {
	engine      *classify.Engine
	store       *model.Store
	storage     storage.Storage
	credentials storage.CredentialStore
	settings    model.Settings
	target      string
	log         *zap.Logger

	saveMu sync.Mutex
}

// New creates a Server.
func New(p Params) *Server {
	s := &Server{
		engine:      p.Engine,
		store:       p.Store,
		storage:     p.Storage,
		credentials: p.Credentials,
		settings:    p.Settings,
		target:      p.TargetFolder,
		log:         p.Logger,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.target == "" {
		s.target = model.BarFolderID
	}
	if s.settings == (model.Settings{}) {
		s.settings = model.DefaultSettings()
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /result", s.handleResult)
	mux.HandleFunc("POST /flatten", s.handleFlatten)
	mux.HandleFunc("POST /dedupe", s.handleDedupe)
	mux.HandleFunc("POST /apikey", s.handleAPIKey)
	mux.HandleFunc("GET /progress", s.handleProgress)
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type classifyRequest struct {
	Bookmarks []model.Bookmark `json:"bookmarks,omitempty"`
	Settings  *json.RawMessage `json:"settings,omitempty"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Message: err.Error()})
		return
	}

	settings := s.settings
	if req.Settings != nil {
		if err := json.Unmarshal(*req.Settings, &settings); err != nil {
			writeJSON(w, http.StatusBadRequest, actionResponse{Message: "invalid settings: " + err.Error()})
			return
		}
	}

	bookmarks := req.Bookmarks
	if len(bookmarks) == 0 {
		bookmarks = classify.Collect(s.store.Tree())
	}

	// The run outlives the request.
	ctx := context.WithoutCancel(r.Context())
	snap, started, err := s.engine.Start(ctx, bookmarks, settings, func(*classify.Tree) {
		s.save("classify")
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Message: err.Error()})
		return
	}
	if !started {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleResult(w http.ResponseWriter, _ *http.Request) {
	tree := s.engine.Result()
	if tree == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleFlatten(w http.ResponseWriter, _ *http.Request) {
	if s.busy(w) {
		return
	}
	res, err := organize.Flatten(s.store, s.target)
	if err != nil {
		s.log.Error("flatten failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, actionResponse{Message: err.Error()})
		return
	}
	if !s.save("flatten") {
		writeJSON(w, http.StatusInternalServerError, actionResponse{Message: "folders flattened but saving failed"})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success: true,
		Message: fmt.Sprintf("moved %d bookmarks, removed %d folders", res.Moved, res.Removed),
	})
}

func (s *Server) handleDedupe(w http.ResponseWriter, _ *http.Request) {
	if s.busy(w) {
		return
	}
	res, err := organize.Deduplicate(s.store, s.target, s.log)
	if err != nil {
		s.log.Error("dedupe failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, actionResponse{Message: err.Error()})
		return
	}
	if res.Duplicates == 0 {
		writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "no duplicate bookmarks found"})
		return
	}
	if !s.save("dedupe") {
		writeJSON(w, http.StatusInternalServerError, actionResponse{Message: "duplicates moved but saving failed"})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success: true,
		Message: fmt.Sprintf("moved %d duplicate bookmarks into %q", res.Moved, organize.DuplicatesFolderName),
	})
}

type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Message: err.Error()})
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, actionResponse{Message: "apiKey is required"})
		return
	}
	if err := s.credentials.Set(key); err != nil {
		s.log.Error("store api key failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, actionResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		s.log.Debug("progress ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	events, unsubscribe := s.engine.Progress().Subscribe()
	defer unsubscribe()

	// Control frames are only processed while reading; a read error means
	// the client went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	snap := s.engine.Snapshot()
	first := progress.Event{Progress: snap.Progress, Status: snap.Status, Processed: snap.Processed, Total: snap.Total}
	if err := writeEvent(conn, first); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				s.log.Debug("progress ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev progress.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

// busy rejects folder utilities while a classification run moves bookmarks.
func (s *Server) busy(w http.ResponseWriter) bool {
	if !s.engine.Snapshot().IsRunning {
		return false
	}
	writeJSON(w, http.StatusConflict, actionResponse{Message: classify.ErrRunInProgress.Error()})
	return true
}

// save persists the store and reports whether it succeeded.
func (s *Server) save(op string) bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.storage.Save(s.store); err != nil {
		s.log.Error("save bookmarks failed", zap.String("op", op), zap.Error(err))
		return false
	}
	return true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// decodeBody decodes a JSON body; an empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
