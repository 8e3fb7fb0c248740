package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"scout/internal/api"
	"scout/internal/changes"
	"scout/internal/config"
	"scout/internal/folders"
	"scout/internal/index"
	"scout/internal/logging"
	"scout/internal/logs"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	folderSvc *api.FolderService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:      bind,
		logger:    logger,
		daemon:    d,
		folderSvc: api.NewFolderService(d.store),
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/folders", authMiddleware(token, srv.handleFolders))
	mux.HandleFunc("/api/folders/", authMiddleware(token, srv.handleFolderItem))
	mux.HandleFunc("/api/queue", authMiddleware(token, srv.handleQueue))
	mux.HandleFunc("/api/permission", authMiddleware(token, srv.handlePermission))
	mux.HandleFunc("/api/permission/request", authMiddleware(token, srv.handlePermissionRequest))
	mux.HandleFunc("/api/permission/refresh", authMiddleware(token, srv.handlePermissionRefresh))
	mux.HandleFunc("/api/monitoring/restart", authMiddleware(token, srv.handleMonitoringRestart))
	mux.HandleFunc("/api/cleanup", authMiddleware(token, srv.handleCleanup))
	mux.HandleFunc("/api/notify/test", authMiddleware(token, srv.handleNotifyTest))
	mux.HandleFunc("/api/logs", authMiddleware(token, srv.handleLogs))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listen address, useful when binding to port 0.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		RegistryDBPath: status.RegistryDBPath,
		IndexDBPath:    status.IndexDBPath,
		LockFilePath:   status.LockFilePath,
		Permission:     api.PermissionStatus{Granted: status.Granted},
		Monitoring: api.MonitoringStatus{
			WatchedRoots:  status.WatchedRoots,
			DegradedRoots: status.DegradedRoots,
		},
		Queue: api.FromQueueStatus(status.Queue),
	}
	if health, err := s.daemon.DatabaseHealth(r.Context()); err != nil {
		payload.Database = api.DatabaseHealth{Healthy: false, Detail: err.Error()}
	} else {
		payload.Database = api.DatabaseHealth{Healthy: health.IntegrityCheck, Detail: health.Error}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleFolders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hierarchy, err := s.folderSvc.Hierarchy(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, hierarchy)
	case http.MethodPost:
		var req api.AddFolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.applyChange(w, r, changes.Request{
			Kind:  changes.KindAddWhitelist,
			Path:  req.Path,
			Alias: req.Alias,
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleFolderItem serves /api/folders/{id} and its sub-resources.
func (s *apiServer) handleFolderItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/folders/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(action, "/") {
		s.writeError(w, http.StatusNotFound, "folder not found")
		return
	}

	switch action {
	case "":
		s.handleFolder(w, r, id)
	case "blacklist":
		s.handleFolderBlacklist(w, r, id)
	case "toggle":
		s.handleFolderToggle(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "folder not found")
	}
}

func (s *apiServer) handleFolder(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		folder, err := s.folderSvc.Describe(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if folder == nil {
			s.writeError(w, http.StatusNotFound, "folder not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.FolderResponse{Folder: *folder})
	case http.MethodDelete:
		kind := changes.KindDeleteWhitelist
		if dir, err := s.daemon.store.GetByID(r.Context(), id); err == nil && dir != nil && dir.IsBlacklist {
			kind = changes.KindDeleteBlacklist
		}
		s.applyChange(w, r, changes.Request{Kind: kind, DirectoryID: id})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleFolderBlacklist(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.AddBlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.applyChange(w, r, changes.Request{
		Kind:     changes.KindAddBlacklist,
		Path:     req.Path,
		Alias:    req.Alias,
		ParentID: id,
	})
}

func (s *apiServer) handleFolderToggle(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind := changes.KindCommonToWhitelist
	if req.Blacklist {
		kind = changes.KindCommonToBlacklist
	}
	s.applyChange(w, r, changes.Request{Kind: kind, DirectoryID: id})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromQueueStatus(s.daemon.QueueStatus()))
}

func (s *apiServer) handlePermission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.PermissionStatus{Granted: s.daemon.PermissionGranted()})
}

func (s *apiServer) handlePermissionRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.RequestPermission(context.WithoutCancel(r.Context()))
	s.writeJSON(w, http.StatusAccepted, api.PermissionStatus{Granted: s.daemon.PermissionGranted()})
}

// handlePermissionRefresh re-probes the OS grant. Hosts call this when the
// application regains focus, since the grant can change outside this process.
func (s *apiServer) handlePermissionRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	granted := s.daemon.RefreshPermission(r.Context())
	s.writeJSON(w, http.StatusOK, api.PermissionStatus{Granted: granted})
}

func (s *apiServer) handleMonitoringRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.RestartMonitoring(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.MonitoringStatus{
		WatchedRoots:  status.WatchedRoots,
		DegradedRoots: status.DegradedRoots,
	})
}

func (s *apiServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	deleted, err := s.daemon.Cleanup(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CleanupResponse{Deleted: deleted})
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("%s: %v", message, err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: sent, Message: message})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	opts := logs.Options{Offset: -1, MaxLines: 100}
	query := r.URL.Query()
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = offset
	}
	if raw := query.Get("lines"); raw != "" {
		lines, err := strconv.Atoi(raw)
		if err != nil || lines < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid lines")
			return
		}
		opts.MaxLines = lines
	}
	if raw := query.Get("wait"); raw != "" {
		waitMs, err := strconv.Atoi(raw)
		if err != nil || waitMs < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid wait")
			return
		}
		// Cap the long poll so handlers never outlive the write timeout.
		const maxWaitMs = 25_000
		if waitMs > maxWaitMs {
			waitMs = maxWaitMs
		}
		opts.Wait = time.Duration(waitMs) * time.Millisecond
	}

	result, err := logs.Tail(r.Context(), s.daemon.LogPath(), opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lines := result.Lines
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Lines: lines, Offset: result.Offset})
}

// applyChange enqueues one config change and maps its outcome to a response.
func (s *apiServer) applyChange(w http.ResponseWriter, r *http.Request, req changes.Request) {
	result, err := s.daemon.Enqueue(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if result.Err != nil {
		s.writeError(w, statusForError(result.Err), result.Err.Error())
		return
	}
	status := http.StatusOK
	if req.Kind == changes.KindAddWhitelist || req.Kind == changes.KindAddBlacklist {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, api.FromMutation(result))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, folders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, folders.ErrDuplicatePath),
		errors.Is(err, folders.ErrAlreadyBlacklisted),
		errors.Is(err, folders.ErrProtectedFolder):
		return http.StatusConflict
	case errors.Is(err, folders.ErrInvalidParent),
		errors.Is(err, folders.ErrNotSubpath):
		return http.StatusBadRequest
	case errors.Is(err, index.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
