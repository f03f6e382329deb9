// Package server exposes the indexing and retrieval pipeline over HTTP.
// Mutating routes require the shared bearer token when one is configured.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/indexer"
	"github.com/veridex/contentd/search"
)

// Server routes HTTP requests to the orchestrator and searcher.
type Server struct {
	orch     *indexer.Orchestrator
	searcher *search.Searcher
	token    string
	logger   *slog.Logger
}

// NewServer creates the HTTP surface. An empty token disables
// authentication; intended for local development only.
func NewServer(orch *indexer.Orchestrator, searcher *search.Searcher, token string, logger *slog.Logger) (*Server, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		orch:     orch,
		searcher: searcher,
		token:    token,
		logger:   logger.With("component", "server"),
	}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /index", s.auth(s.handleIndex))
	mux.HandleFunc("POST /search", s.auth(s.handleSearch))
	mux.HandleFunc("DELETE /content/{contentBaseID}/{fileID}", s.auth(s.handleDelete))
	mux.HandleFunc("GET /content/{contentBaseID}/{fileID}", s.auth(s.handleFullDocument))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// auth enforces the shared bearer token.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing credentials")
				return
			}
		}
		next(w, r)
	}
}

type indexRequest struct {
	TaskUUID        string `json:"task_uuid"`
	ContentBaseUUID string `json:"content_base_uuid"`
	FileUUID        string `json:"file_uuid"`
	Filename        string `json:"filename"`
	Extension       string `json:"extension"`
	Source          string `json:"source"`
	Kind            string `json:"kind"`
	LoadType        string `json:"load_type"`
}

type indexResponse struct {
	TaskUUID string `json:"task_uuid"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind, err := parseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.TaskUUID == "" {
		req.TaskUUID = uuid.NewString()
	}

	job := core.IndexJob{
		TaskID:        req.TaskUUID,
		ContentBaseID: req.ContentBaseUUID,
		FileID:        req.FileUUID,
		Filename:      req.Filename,
		Extension:     req.Extension,
		Source:        req.Source,
		Kind:          kind,
		LoadType:      req.LoadType,
	}

	if err := s.orch.Dispatch(r.Context(), job); err != nil {
		if errors.Is(err, core.ErrInvalidJob) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("dispatch failed", "task", job.TaskID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to accept job")
		return
	}

	s.logger.Info("job accepted", "task", job.TaskID, "file", job.FileID)
	writeJSON(w, http.StatusAccepted, indexResponse{TaskUUID: job.TaskID})
}

type searchRequest struct {
	ContentBaseUUID string `json:"content_base_uuid"`
	Query           string `json:"query"`
	// Threshold overrides the configured similarity threshold when present.
	Threshold *float32 `json:"threshold,omitempty"`
	// Filename narrows the search to one file's chunks when non-empty.
	Filename string `json:"filename,omitempty"`
}

type searchResult struct {
	FullPage string  `json:"full_page"`
	Filename string  `json:"filename"`
	FileUUID string  `json:"file_uuid"`
	Score    float32 `json:"score"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if _, err := uuid.Parse(req.ContentBaseUUID); err != nil {
		writeError(w, http.StatusBadRequest, "content_base_uuid must be a UUID")
		return
	}

	var opts []search.QueryOption
	if req.Threshold != nil {
		opts = append(opts, search.WithQueryThreshold(*req.Threshold))
	}
	if req.Filename != "" {
		opts = append(opts, search.WithFilename(req.Filename))
	}

	results, err := s.searcher.Search(r.Context(), req.ContentBaseUUID, req.Query, opts...)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) || errors.Is(err, search.ErrInvalidThreshold) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", "contentBase", req.ContentBaseUUID, "err", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resp := searchResponse{Results: make([]searchResult, len(results))}
	for i, res := range results {
		resp.Results[i] = searchResult{
			FullPage: res.FullPage,
			Filename: res.Filename,
			FileUUID: res.FileID,
			Score:    res.Score,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	contentBaseID := r.PathValue("contentBaseID")
	fileID := r.PathValue("fileID")
	if _, err := uuid.Parse(contentBaseID); err != nil {
		writeError(w, http.StatusBadRequest, "content base id must be a UUID")
		return
	}
	if _, err := uuid.Parse(fileID); err != nil {
		writeError(w, http.StatusBadRequest, "file id must be a UUID")
		return
	}

	// An optional filename joins the deletion filter.
	filename := r.URL.Query().Get("filename")

	if err := s.searcher.Delete(r.Context(), contentBaseID, filename, fileID); err != nil {
		s.logger.Error("delete failed", "contentBase", contentBaseID, "file", fileID, "err", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	s.logger.Info("content deleted", "contentBase", contentBaseID, "file", fileID)
	w.WriteHeader(http.StatusNoContent)
}

type fullDocumentResponse struct {
	Content string `json:"content"`
}

func (s *Server) handleFullDocument(w http.ResponseWriter, r *http.Request) {
	contentBaseID := r.PathValue("contentBaseID")
	fileID := r.PathValue("fileID")

	content, err := s.searcher.FullDocument(r.Context(), contentBaseID, fileID)
	if err != nil {
		s.logger.Error("full document lookup failed", "contentBase", contentBaseID, "file", fileID, "err", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if content == "" {
		writeError(w, http.StatusNotFound, "no document stored for file")
		return
	}

	writeJSON(w, http.StatusOK, fullDocumentResponse{Content: content})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func parseKind(kind string) (core.SourceKind, error) {
	switch kind {
	case "file", "":
		return core.SourceKindFile, nil
	case "url":
		return core.SourceKindURL, nil
	case "text":
		return core.SourceKindText, nil
	default:
		return 0, fmt.Errorf("unknown source kind %q", kind)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
