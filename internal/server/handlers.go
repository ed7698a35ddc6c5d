package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/recommend"
	"github.com/hyperjump/foundermatch/internal/storage"
	"github.com/hyperjump/foundermatch/internal/validation"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query),
		zap.String("industry", req.Industry),
		zap.Int("limit", req.Limit))
	resp, err := s.service.Search(r.Context(), &req)
	if err != nil {
		s.respondServiceError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("keyword search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	resp, err := s.service.KeywordSearch(r.Context(), &req)
	if err != nil {
		s.respondServiceError(w, "keyword search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	var req models.HybridSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.service.HybridSearch(r.Context(), &req)
	if err != nil {
		s.respondServiceError(w, "hybrid search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.recommend(w, r, &req)
}

func (s *Server) handleUserRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.queryInt(w, r, "limit")
	if !ok {
		return
	}
	s.recommend(w, r, &models.RecommendRequest{UserID: chi.URLParam(r, "id"), Limit: limit})
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request, req *models.RecommendRequest) {
	s.logger.Debug("recommend request", zap.String("user_id", req.UserID), zap.Int("limit", req.Limit))
	resp, err := s.service.Recommend(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, "recommend failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.queryInt(w, r, "limit")
	if !ok {
		return
	}
	history, err := s.service.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.respondServiceError(w, "history failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleAppendHistory(w http.ResponseWriter, r *http.Request) {
	var req models.HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := chi.URLParam(r, "id")
	if err := s.service.RecordSearch(r.Context(), userID, req.Query); err != nil {
		s.respondServiceError(w, "record search failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"user_id": userID, "status": "recorded"})
}

func (s *Server) handleListStartups(w http.ResponseWriter, r *http.Request) {
	offset, ok := s.queryInt(w, r, "offset")
	if !ok {
		return
	}
	limit, ok := s.queryInt(w, r, "limit")
	if !ok {
		return
	}
	if limit <= 0 || limit > models.MaxLimit {
		limit = models.MaxLimit
	}
	list, total, err := s.service.ListStartups(r.Context(), offset, limit)
	if err != nil {
		s.respondServiceError(w, "list startups failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"startups": list,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

func (s *Server) handleCreateStartup(w http.ResponseWriter, r *http.Request) {
	var input models.StartupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("create startup request", zap.String("id", input.ID), zap.String("title", input.Title))
	st, err := s.service.AddStartup(r.Context(), &input)
	if err != nil {
		s.respondServiceError(w, "create startup failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, st)
}

func (s *Server) handleGetStartup(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.GetStartup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "get startup failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteStartup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete startup request", zap.String("id", id))
	if err := s.service.DeleteStartup(r.Context(), id); err != nil {
		s.respondServiceError(w, "delete startup failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Reload(r.Context())
	if err != nil {
		s.respondServiceError(w, "reload failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"engine":        status,
		"database_path": s.config.Storage.DatabasePath,
	}

	configInfo := map[string]interface{}{
		"database_path":    s.config.Storage.DatabasePath,
		"bleve_index_path": s.config.Storage.BleveIndexPath,
		"default_top_n":    s.config.Recommend.DefaultTopN,
		"max_top_n":        s.config.Recommend.MaxTopN,
		"auto_fuzzy":       s.config.Recommend.AutoFuzzyOrDefault(),
		"watch":            s.watch != nil,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.BleveIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCorpusDirectories(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Roots()})
}

type importRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "path not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Debug("import request", zap.String("path", abs))
	exts := s.config.Corpus.Extensions
	files, startups := 1, 0
	if info.IsDir() {
		files, startups, err = s.importer.ImportDirectory(r.Context(), abs, exts)
	} else {
		startups, err = s.importer.ImportFile(r.Context(), abs, exts)
	}
	if err != nil {
		s.logger.Error("import failed", zap.String("path", abs), zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.service.Reload(r.Context())
	if err != nil {
		s.respondServiceError(w, "reload after import failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"path":     abs,
		"files":    files,
		"startups": startups,
		"engine":   stats,
	})
}

// queryInt parses an optional integer query parameter. Missing means 0. It
// writes a 400 and returns false when the value is not an integer.
func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case validation.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrEmptySearchHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, recommend.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, recommend.ErrEmptyCorpus), errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
