package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"samscope/internal/exporter"
	"samscope/internal/models"
	"samscope/internal/storage"
)

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
	s.logger.Debug("import request", zap.String("path", req.Path))
	n, err := s.importer.ImportFile(r.Context(), req.Path)
	if err != nil {
		s.logger.Error("import failed", zap.String("path", req.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"path": req.Path, "imported": n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = s.config.Search.PageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	s.logger.Debug("search request",
		zap.String("filter", req.Filter.Serialize()),
		zap.Int("limit", req.Limit), zap.Int("offset", req.Offset))

	contracts, err := s.storage.Search(r.Context(), req.Filter, req.Limit, req.Offset)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.Count(r.Context(), req.Filter)
	if err != nil {
		s.logger.Error("count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Contracts: contracts,
		Total:     total,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
}

func (s *Server) handleEnrichedSearch(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		s.respondError(w, http.StatusNotImplemented, "enrichment not configured; set the model API key")
		return
	}
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result := <-s.pipeline.Run(r.Context(), req.Filter)
	if result.Err != nil {
		s.logger.Error("enriched search failed", zap.Error(result.Err))
		s.respondError(w, http.StatusInternalServerError, result.Err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &result.EnrichedResponse)
}

type bulkUpdateRequest struct {
	IDs    []string          `json:"ids"`
	Fields map[string]string `json:"fields"`
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 || len(req.Fields) == 0 {
		s.respondError(w, http.StatusBadRequest, "ids and fields are required")
		return
	}
	s.logger.Debug("bulk update request", zap.Int("ids", len(req.IDs)), zap.Int("fields", len(req.Fields)))
	if err := s.storage.BulkUpdate(r.Context(), req.IDs, req.Fields); err != nil {
		s.logger.Error("bulk update failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"updated": len(req.IDs), "status": "ok"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		s.respondError(w, http.StatusBadRequest, "ids are required")
		return
	}
	s.logger.Debug("bulk delete request", zap.Int("ids", len(req.IDs)))
	if err := s.storage.BulkDelete(r.Context(), req.IDs); err != nil {
		s.logger.Error("bulk delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"deleted": len(req.IDs), "status": "ok"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := s.storage.Count(r.Context(), filter)
	if err != nil {
		s.logger.Error("export count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	contracts, err := s.storage.Search(r.Context(), filter, total, 0)
	if err != nil {
		s.logger.Error("export search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("export request", zap.String("format", string(format)), zap.Int("contracts", len(contracts)))

	w.Header().Set("Content-Type", contentTypeFor(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=contracts.%s", format))
	if err := exporter.Export(w, format, contracts); err != nil {
		s.logger.Error("export failed", zap.Error(err))
	}
}

func (s *Server) handleAgencies(w http.ResponseWriter, r *http.Request) {
	agencies, err := s.storage.Agencies(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"agencies": agencies})
}

func (s *Server) handleSetAsides(w http.ResponseWriter, r *http.Request) {
	setAsides, err := s.storage.SetAsides(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"setasides": setAsides})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.storage.Count(r.Context(), nil)
	if err != nil {
		s.logger.Error("status: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"contracts": total,
		"config": map[string]any{
			"database_path": s.config.Storage.DatabasePath,
			"model":         s.config.Model.Model,
			"page_size":     s.config.Search.PageSize,
		},
	}
	resp["disk_usage_bytes"] = storage.DiskUsageBytes(s.config.Storage.DatabasePath)
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// filterFromQuery builds a filter from export query parameters. Unknown
// parameters are ignored; malformed numeric bounds are an error.
func filterFromQuery(r *http.Request) (*models.Filter, error) {
	q := r.URL.Query()
	f := &models.Filter{
		Keyword:        q.Get("keyword"),
		Agencies:       q["agency"],
		NAICSCode:      q.Get("naics_code"),
		PSCCode:        q.Get("psc_code"),
		SetAside:       q.Get("setaside"),
		ContractType:   q.Get("type"),
		DatePostedFrom: q.Get("date_posted_start"),
		DatePostedTo:   q.Get("date_posted_end"),
	}
	for _, key := range []string{"award_value_min", "award_value_max"} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", key, raw)
		}
		if key == "award_value_min" {
			f.AwardValueMin = &v
		} else {
			f.AwardValueMax = &v
		}
	}
	return f, nil
}

func contentTypeFor(format exporter.Format) string {
	switch format {
	case exporter.FormatJSON:
		return "application/json"
	case exporter.FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
